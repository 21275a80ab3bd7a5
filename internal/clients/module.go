// Package clients provides the client registry bounded context: clients and
// people, their recurring service subscriptions, and the NLAC offboarding
// cascade.
package clients

import (
	"practice_portal_backend/internal/clients/handler"
	"practice_portal_backend/internal/clients/repository"
	"practice_portal_backend/internal/clients/service"
	apphttp "practice_portal_backend/internal/http"
	"practice_portal_backend/platform/logger"
	"practice_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the clients bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the clients module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{handler: h}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "clients"
}

// RegisterRoutes mounts client registry routes. Creation, subscriptions and
// NLAC marking are admin operations.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.POST("/clients", m.handler.CreateClient)
	ctx.Protected.GET("/clients", m.handler.ListClients)
	ctx.Protected.GET("/clients/:id", m.handler.GetClient)
	ctx.Admin.POST("/clients/:id/services", m.handler.SubscribeClient)
	ctx.Admin.POST("/clients/:id/nlac", m.handler.MarkClientNLAC)

	ctx.Admin.POST("/people", m.handler.CreatePerson)
	ctx.Protected.GET("/people", m.handler.ListPeople)
	ctx.Protected.GET("/people/:id", m.handler.GetPerson)
	ctx.Admin.POST("/people/:id/services", m.handler.SubscribePerson)
	ctx.Admin.POST("/people/:id/nlac", m.handler.MarkPersonNLAC)
}
