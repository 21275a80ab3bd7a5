package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"practice_portal_backend/internal/pipelines/service"
	"practice_portal_backend/internal/pipelines/transport"
	"practice_portal_backend/platform/httpkit"
	"practice_portal_backend/platform/validator"
)

// Handler handles HTTP requests for pipeline configuration.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid identifier"
)

// New creates a new pipelines handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListProjectTypes retrieves all project types.
// GET /api/v1/project-types
func (h *Handler) ListProjectTypes(c *gin.Context) {
	result, err := h.svc.ListProjectTypes(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetProjectType retrieves a project type by ID.
// GET /api/v1/project-types/:id
func (h *Handler) GetProjectType(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	result, err := h.svc.GetProjectType(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateProjectType creates a project type with its stage set.
// POST /api/v1/admin/project-types
func (h *Handler) CreateProjectType(c *gin.Context) {
	var req transport.CreateProjectTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	result, err := h.svc.CreateProjectType(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// GetStageApproval retrieves a stage approval by ID.
// GET /api/v1/stage-approvals/:id
func (h *Handler) GetStageApproval(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	result, err := h.svc.GetStageApproval(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateStageApproval creates a stage approval checklist.
// POST /api/v1/admin/stage-approvals
func (h *Handler) CreateStageApproval(c *gin.Context) {
	var req transport.CreateStageApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	result, err := h.svc.CreateStageApproval(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// EvaluateApproval runs a dry evaluation of responses against an
// approval without persisting anything.
// POST /api/v1/stage-approvals/:id/evaluate
func (h *Handler) EvaluateApproval(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req transport.EvaluateApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	result, err := h.svc.EvaluateApproval(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateChangeReason creates a change reason for a project type.
// POST /api/v1/admin/change-reasons
func (h *Handler) CreateChangeReason(c *gin.Context) {
	var req transport.CreateChangeReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	result, err := h.svc.CreateChangeReason(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}
