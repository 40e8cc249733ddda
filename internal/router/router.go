package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/lumenbooth/firefly-booth/internal/handler"
)

// RegisterRoutes registers routes that need no authentication and no
// backing store.  Currently only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the staff login.  Tokens issued here are checked
// by the staff and admin groups.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/staff-login", a.StaffLogin)
}

// RegisterPublic registers the unauthenticated viewer endpoints: the
// section list (behind the response cache), the JSON snapshot, and the
// live stream.  The stream is never cached.
func RegisterPublic(e *echo.Echo, s *handler.SectionHandler, p *handler.PresenceHandler, cache echo.MiddlewareFunc) {
	e.GET(handler.SectionListPath, s.List, cache)
	e.GET("/v1/sections/:id/fireflies", p.Snapshot)
	e.GET("/v1/sections/:id/fireflies/stream", p.Stream)
}
