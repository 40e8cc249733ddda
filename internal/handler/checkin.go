package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lumenbooth/firefly-booth/internal/model"
	"github.com/lumenbooth/firefly-booth/internal/queue"
	"github.com/lumenbooth/firefly-booth/internal/repository"
)

// ReleasePublisher announces releases to the rest of the booth.
type ReleasePublisher interface {
	PublishFireflyReleased(ctx context.Context, ev queue.FireflyReleasedEvent) error
}

// CheckinHandler drives the check-in/release state machine for staff.
type CheckinHandler struct {
	Checkins  *repository.CheckinRepo
	Moments   *repository.MomentRepo
	Publisher ReleasePublisher // optional
}

// NewCheckinHandler panics when a repository is nil.  pub may be nil.
func NewCheckinHandler(checkins *repository.CheckinRepo, moments *repository.MomentRepo, pub ReleasePublisher) *CheckinHandler {
	if checkins == nil || moments == nil {
		panic("nil repository passed to NewCheckinHandler")
	}
	return &CheckinHandler{Checkins: checkins, Moments: moments, Publisher: pub}
}

type checkinReq struct {
	MomentID  uint64 `json:"moment_id"`
	SectionID uint64 `json:"section_id"`
}

type checkinResp struct {
	MomentID         uint64             `json:"moment_id"`
	SectionID        uint64             `json:"section_id"`
	State            model.CheckinState `json:"state"`
	CheckedInAt      time.Time          `json:"checked_in_at"`
	IsFireflyRelease bool               `json:"is_firefly_release"`
}

func toCheckinResp(rec *model.CheckinRecord) checkinResp {
	return checkinResp{
		MomentID:         rec.MomentID,
		SectionID:        rec.SectionID,
		State:            rec.State(),
		CheckedInAt:      rec.CheckedInAt,
		IsFireflyRelease: rec.IsFireflyRelease,
	}
}

func bindCheckin(c echo.Context) (checkinReq, bool) {
	var req checkinReq
	if err := c.Bind(&req); err != nil || req.MomentID == 0 || req.SectionID == 0 {
		return req, false
	}
	return req, true
}

// CheckIn handles POST /v1/checkins.
func (h *CheckinHandler) CheckIn(c echo.Context) error {
	req, ok := bindCheckin(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "moment_id and section_id required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Checkins.CheckIn(ctx, req.MomentID, req.SectionID)
	if err != nil {
		return checkinError(c, err)
	}
	return c.JSON(http.StatusOK, toCheckinResp(rec))
}

// Release handles POST /v1/checkins/release.  A release without a prior
// check-in is a 409; releasing twice succeeds without a second event.
func (h *CheckinHandler) Release(c echo.Context) error {
	req, ok := bindCheckin(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "moment_id and section_id required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, transitioned, err := h.Checkins.Release(ctx, req.MomentID, req.SectionID)
	if err != nil {
		return checkinError(c, err)
	}
	if transitioned && h.Publisher != nil {
		h.publishRelease(rec)
	}
	return c.JSON(http.StatusOK, toCheckinResp(rec))
}

// publishRelease runs in the background; broker trouble never fails the
// request.
func (h *CheckinHandler) publishRelease(rec *model.CheckinRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ev := queue.FireflyReleasedEvent{
			MomentID:   rec.MomentID,
			SectionID:  rec.SectionID,
			ReleasedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if m, err := h.Moments.GetByID(ctx, rec.MomentID); err == nil {
			ev.DisplayName = m.DisplayName
		}
		if err := h.Publisher.PublishFireflyReleased(ctx, ev); err != nil {
			log.Printf("checkin: publish release of moment %d: %v", rec.MomentID, err)
		}
	}()
}

func checkinError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotCheckedIn):
		return c.JSON(http.StatusConflict, echo.Map{"error": "not checked in"})
	case errors.Is(err, repository.ErrMomentNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "moment not found"})
	case errors.Is(err, repository.ErrSectionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "section not found"})
	}
	log.Printf("checkin: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
}
