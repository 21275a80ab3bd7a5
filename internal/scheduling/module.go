// Package scheduling provides the recurring work bounded context: the
// scheduling pass over active services, its run log, exception queue and
// reschedule history.
package scheduling

import (
	"practice_portal_backend/internal/events"
	apphttp "practice_portal_backend/internal/http"
	pipelinerepo "practice_portal_backend/internal/pipelines/repository"
	projectrepo "practice_portal_backend/internal/projects/repository"
	"practice_portal_backend/internal/scheduling/handler"
	"practice_portal_backend/internal/scheduling/repository"
	"practice_portal_backend/internal/scheduling/service"
	"practice_portal_backend/platform/logger"
	"practice_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the scheduling bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the scheduling module. Projects are
// opened through the projects repository and the pipeline configuration;
// both are injected by the composition root.
func NewModule(pool *pgxpool.Pool, projects projectrepo.Repository, config pipelinerepo.ConfigReader, bus events.Bus, val *validator.Validator, log *logger.Logger, workers int) *Module {
	repo := repository.New(pool)
	creator := service.NewProjectCreator(projects, config)
	svc := service.New(repo, creator, bus, log, workers)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "scheduling"
}

// Service returns the service layer so the background worker can run
// passes without going through HTTP.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts scheduler routes. Pass triggering and exception
// resolution are admin operations.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.POST("/scheduling/runs", m.handler.TriggerRun)
	ctx.Protected.GET("/scheduling/runs", m.handler.ListRuns)
	ctx.Protected.GET("/scheduling/runs/:id", m.handler.GetRun)
	ctx.Protected.GET("/scheduling/exceptions", m.handler.ListExceptions)
	ctx.Admin.POST("/scheduling/exceptions/:id/resolve", m.handler.ResolveException)
	ctx.Admin.PUT("/scheduling/services/:id/schedule", m.handler.Reschedule)
	ctx.Protected.GET("/scheduling/services/:id/history", m.handler.ListHistory)
}
