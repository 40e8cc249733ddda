package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lumenbooth/firefly-booth/internal/repository"
)

// SectionListPath is the public section list route.
const SectionListPath = "/v1/sections"

// CacheInvalidator drops cached GET responses.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, requestURIs ...string) error
}

// SectionHandler lists and administers sections.
type SectionHandler struct {
	Sections *repository.SectionRepo
	Cache    CacheInvalidator // optional
}

// NewSectionHandler panics on a nil repository.  cache may be nil.
func NewSectionHandler(sections *repository.SectionRepo, cache CacheInvalidator) *SectionHandler {
	if sections == nil {
		panic("nil repository passed to NewSectionHandler")
	}
	return &SectionHandler{Sections: sections, Cache: cache}
}

// List handles GET /v1/sections.
func (h *SectionHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	sections, err := h.Sections.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, sections)
}

// Delete handles DELETE /v1/sections/:id.  Check-ins in the section go
// with it; the last remaining section cannot be deleted.
func (h *SectionHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid section id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Sections.Delete(ctx, id); {
	case err == nil:
		if h.Cache != nil {
			if err := h.Cache.Invalidate(ctx, SectionListPath); err != nil {
				log.Printf("section: invalidate list cache: %v", err)
			}
		}
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrSectionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "section not found"})
	case errors.Is(err, repository.ErrLastSection):
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete the last section"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
}
