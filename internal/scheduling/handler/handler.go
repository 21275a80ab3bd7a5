package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"practice_portal_backend/internal/scheduling/service"
	"practice_portal_backend/internal/scheduling/transport"
	"practice_portal_backend/platform/httpkit"
	"practice_portal_backend/platform/validator"
)

// Handler handles HTTP requests for the scheduler.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid ID"
)

// New creates a new scheduling handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// TriggerRun starts a scheduling pass synchronously and returns the
// finished run log.
// POST /api/v1/scheduling/runs
func (h *Handler) TriggerRun(c *gin.Context) {
	var req transport.TriggerRunRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	asOf := time.Now().UTC()
	if req.RunDate != nil {
		asOf = *req.RunDate
	}
	result, err := h.svc.ExecutePass(c.Request.Context(), asOf)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// ListRuns retrieves run logs newest first.
// GET /api/v1/scheduling/runs
func (h *Handler) ListRuns(c *gin.Context) {
	var req transport.ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	result, err := h.svc.ListRuns(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetRun retrieves one run log.
// GET /api/v1/scheduling/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	result, err := h.svc.GetRun(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListExceptions retrieves the exception queue.
// GET /api/v1/scheduling/exceptions
func (h *Handler) ListExceptions(c *gin.Context) {
	var req transport.ListExceptionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	result, err := h.svc.ListExceptions(c.Request.Context(), req.IncludeResolved)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ResolveException marks an exception handled.
// POST /api/v1/scheduling/exceptions/:id/resolve
func (h *Handler) ResolveException(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	if httpkit.HandleError(c, h.svc.ResolveException(c.Request.Context(), id, identity.UserID())) {
		return
	}
	httpkit.OK(c, gin.H{"resolved": true})
}

// Reschedule overrides a service's next cycle dates.
// PUT /api/v1/scheduling/services/:id/schedule
func (h *Handler) Reschedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	result, err := h.svc.Reschedule(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListHistory retrieves a service's reschedule history.
// GET /api/v1/scheduling/services/:id/history
func (h *Handler) ListHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	result, err := h.svc.ListHistory(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
