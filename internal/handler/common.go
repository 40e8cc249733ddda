package handler // handler defines http handlers

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lumenbooth/firefly-booth/internal/model"
)

// SectionLookup resolves a section by ID, returning
// repository.ErrSectionNotFound when it does not exist.
type SectionLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.Section, error)
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
