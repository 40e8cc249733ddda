package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lumenbooth/firefly-booth/internal/presence"
	"github.com/lumenbooth/firefly-booth/internal/repository"
)

// PresenceHandler serves the live firefly view of a section.
type PresenceHandler struct {
	Broadcaster *presence.Broadcaster
	Sections    SectionLookup
	Ledger      presence.Ledger
}

// NewPresenceHandler panics on a nil dependency.
func NewPresenceHandler(b *presence.Broadcaster, sections SectionLookup, ledger presence.Ledger) *PresenceHandler {
	if b == nil || sections == nil || ledger == nil {
		panic("nil dependency passed to NewPresenceHandler")
	}
	return &PresenceHandler{Broadcaster: b, Sections: sections, Ledger: ledger}
}

// Stream handles GET /v1/sections/:id/fireflies/stream.  The response is a
// text/event-stream that opens with a sync event and then carries add and
// remove events plus periodic heartbeats until the client goes away.
func (h *PresenceHandler) Stream(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid section id"})
	}
	ctx := c.Request().Context()

	if status, msg := h.checkSection(ctx, id); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}

	sess := h.Broadcaster.NewSession(id)
	defer sess.Close()
	if err := sess.Attach(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		log.Printf("presence: attach section %d: %v", id, err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "presence unavailable"})
	}

	res := c.Response()
	hdr := res.Header()
	hdr.Set(echo.HeaderContentType, "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	if err := sess.Stream(ctx, presence.NewSSEWriter(res)); err != nil {
		log.Printf("presence: stream for section %d ended: %v", id, err)
	}
	return nil
}

// Snapshot handles GET /v1/sections/:id/fireflies and returns the current
// released names as plain JSON for clients that cannot hold a stream.
func (h *PresenceHandler) Snapshot(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid section id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if status, msg := h.checkSection(ctx, id); status != 0 {
		return c.JSON(status, echo.Map{"error": msg})
	}
	ps, err := h.Ledger.ReleasedParticipants(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name)
	}
	return c.JSON(http.StatusOK, echo.Map{"section_id": id, "fireflies": names})
}

func (h *PresenceHandler) checkSection(ctx context.Context, id uint64) (int, string) {
	_, err := h.Sections.GetByID(ctx, id)
	switch {
	case err == nil:
		return 0, ""
	case errors.Is(err, repository.ErrSectionNotFound):
		return http.StatusNotFound, "section not found"
	default:
		log.Printf("presence: lookup section %d: %v", id, err)
		return http.StatusInternalServerError, "db error"
	}
}
