// Package pipelines provides the pipeline configuration bounded context:
// project types, their kanban stages, stage approvals, and change reasons.
package pipelines

import (
	apphttp "practice_portal_backend/internal/http"
	"practice_portal_backend/internal/pipelines/handler"
	"practice_portal_backend/internal/pipelines/repository"
	"practice_portal_backend/internal/pipelines/service"
	"practice_portal_backend/platform/logger"
	"practice_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the pipelines bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the pipelines module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pipelines"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository so sibling modules can read pipeline
// configuration without going through HTTP.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts pipeline configuration routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/project-types", m.handler.ListProjectTypes)
	ctx.Protected.GET("/project-types/:id", m.handler.GetProjectType)
	ctx.Protected.GET("/stage-approvals/:id", m.handler.GetStageApproval)
	ctx.Protected.POST("/stage-approvals/:id/evaluate", m.handler.EvaluateApproval)

	ctx.Admin.POST("/project-types", m.handler.CreateProjectType)
	ctx.Admin.POST("/stage-approvals", m.handler.CreateStageApproval)
	ctx.Admin.POST("/change-reasons", m.handler.CreateChangeReason)
}
