// Package http assembles the HTTP server: the Module contract each
// bounded context implements, the shared route groups, and the app
// composition struct the router is built from.
package http

import (
	"practice_portal_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that mounts its own routes. The router
// stays ignorant of individual endpoints; each context registers
// against the shared groups.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	// RegisterRoutes mounts the module's routes.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the route groups and auth wiring modules
// register against.
type RouterContext struct {
	// Engine is the root engine, for modules needing engine-level hooks.
	Engine *gin.Engine
	// V1 is the public /api/v1 group.
	V1 *gin.RouterGroup
	// Protected requires an authenticated caller.
	Protected *gin.RouterGroup
	// Admin additionally requires the admin role.
	Admin *gin.RouterGroup
	// Config scopes JWT settings for modules that build their own middleware.
	Config config.JWTConfig
	// AuthMiddleware is the shared token validation middleware.
	AuthMiddleware gin.HandlerFunc
}
