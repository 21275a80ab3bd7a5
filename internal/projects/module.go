// Package projects provides the project lifecycle bounded context: the
// kanban state machine, chronology, and stage timing.
package projects

import (
	"practice_portal_backend/internal/businesstime"
	"practice_portal_backend/internal/events"
	apphttp "practice_portal_backend/internal/http"
	pipelinerepo "practice_portal_backend/internal/pipelines/repository"
	"practice_portal_backend/internal/projects/handler"
	"practice_portal_backend/internal/projects/repository"
	"practice_portal_backend/internal/projects/service"
	"practice_portal_backend/platform/logger"
	"practice_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the projects bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the projects module. Pipeline
// configuration is read through the pipelines module's repository; the
// counts cache and the business calendar are injected by the composition
// root.
func NewModule(pool *pgxpool.Pool, config pipelinerepo.ConfigReader, calendar *businesstime.Calendar, cache service.StageCountsCache, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, config, calendar, cache, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "projects"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository so the scheduler can create projects
// without going through HTTP.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts project lifecycle routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/projects", m.handler.List)
	ctx.Protected.POST("/projects", m.handler.Create)
	ctx.Protected.GET("/projects/:id", m.handler.GetByID)
	ctx.Protected.POST("/projects/:id/transition", m.handler.Transition)
	ctx.Protected.GET("/projects/:id/chronology", m.handler.Chronology)
	ctx.Protected.GET("/projects/:id/approval-responses", m.handler.ApprovalResponses)
	ctx.Protected.GET("/projects/:id/stage-timer", m.handler.StageTimer)
	ctx.Protected.GET("/project-types/:id/stage-counts", m.handler.StageCounts)
}
