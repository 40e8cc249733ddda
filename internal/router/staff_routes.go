package router

import (
	"github.com/labstack/echo/v4"

	"github.com/lumenbooth/firefly-booth/internal/handler"
	"github.com/lumenbooth/firefly-booth/internal/middleware"
)

// RegisterStaff registers the check-in desk endpoints.  They require a
// STAFF or ADMIN token and are rate limited per caller.
func RegisterStaff(e *echo.Echo, h *handler.CheckinHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/checkins",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin),
		limit,
	)
	g.POST("", h.CheckIn)
	g.POST("/release", h.Release)
}

// RegisterAdmin registers section administration.  ADMIN only.
func RegisterAdmin(e *echo.Echo, h *handler.SectionHandler, jwtSecret string) {
	e.DELETE("/v1/sections/:id", h.Delete,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin),
	)
}
