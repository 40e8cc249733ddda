package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lumenbooth/firefly-booth/internal/model"
)

// CheckinRepo owns the check-in/release state machine for (moment,
// section) pairs.  Every committed write is followed by a Notify so the
// presence broadcaster can reconcile; failed or rejected requests never
// notify.
type CheckinRepo struct {
	db       *sql.DB
	notifier Notifier
	now      func() time.Time
}

// NewCheckinRepo constructs a CheckinRepo.  A nil notifier is allowed.
func NewCheckinRepo(db *sql.DB, n Notifier) *CheckinRepo {
	return &CheckinRepo{db: db, notifier: orNop(n), now: func() time.Time { return time.Now().UTC() }}
}

// CheckIn moves the pair to CHECKED_IN.  A missing record is created; an
// existing one only has checked_in_at refreshed, so re-checking in is
// idempotent and never downgrades a released participant.
func (r *CheckinRepo) CheckIn(ctx context.Context, momentID, sectionID uint64) (*model.CheckinRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := ensurePairTx(ctx, tx, momentID, sectionID); err != nil {
		return nil, err
	}
	rec, err := getTx(ctx, tx, momentID, sectionID)
	if err != nil {
		return nil, err
	}
	at := r.now()
	if rec == nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO checkins (moment_id, section_id, checked_in_at, is_firefly_release) VALUES (?, ?, ?, 0)`,
			momentID, sectionID, at,
		); err != nil {
			return nil, err
		}
		rec = &model.CheckinRecord{MomentID: momentID, SectionID: sectionID}
	} else if _, err := tx.ExecContext(ctx,
		`UPDATE checkins SET checked_in_at = ? WHERE moment_id = ? AND section_id = ?`,
		at, momentID, sectionID,
	); err != nil {
		return nil, err
	}
	rec.CheckedInAt = at

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	r.notifier.Notify()
	return rec, nil
}

// Release moves a CHECKED_IN pair to RELEASED.  It returns ErrNotCheckedIn
// without writing when the pair has no record, or the not-found error when
// the moment or section does not exist.  Releasing an already
// released pair is a no-op for the ledger but still counts as a write;
// transitioned reports whether this call performed the transition.
func (r *CheckinRepo) Release(ctx context.Context, momentID, sectionID uint64) (rec *model.CheckinRecord, transitioned bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rec, err = getTx(ctx, tx, momentID, sectionID)
	if err != nil {
		return nil, false, err
	}
	if rec == nil {
		if err := ensurePairTx(ctx, tx, momentID, sectionID); err != nil {
			return nil, false, err
		}
		return nil, false, ErrNotCheckedIn
	}
	transitioned = !rec.IsFireflyRelease
	if _, err := tx.ExecContext(ctx,
		`UPDATE checkins SET is_firefly_release = 1 WHERE moment_id = ? AND section_id = ?`,
		momentID, sectionID,
	); err != nil {
		return nil, false, err
	}
	rec.IsFireflyRelease = true

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	committed = true
	r.notifier.Notify()
	return rec, transitioned, nil
}

// State reports where the pair is in the lifecycle.
func (r *CheckinRepo) State(ctx context.Context, momentID, sectionID uint64) (model.CheckinState, error) {
	var released bool
	err := r.db.QueryRowContext(ctx,
		`SELECT is_firefly_release FROM checkins WHERE moment_id = ? AND section_id = ?`,
		momentID, sectionID,
	).Scan(&released)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StateNotCheckedIn, nil
	}
	if err != nil {
		return "", err
	}
	if released {
		return model.StateReleased, nil
	}
	return model.StateCheckedIn, nil
}

func ensurePairTx(ctx context.Context, tx *sql.Tx, momentID, sectionID uint64) error {
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM moments WHERE id = ?`, momentID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return ErrMomentNotFound
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sections WHERE id = ?`, sectionID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return ErrSectionNotFound
	}
	return nil
}

// getTx returns nil, nil when the pair has no record.
func getTx(ctx context.Context, tx *sql.Tx, momentID, sectionID uint64) (*model.CheckinRecord, error) {
	var rec model.CheckinRecord
	err := tx.QueryRowContext(ctx,
		`SELECT moment_id, section_id, checked_in_at, is_firefly_release
		 FROM checkins WHERE moment_id = ? AND section_id = ?`,
		momentID, sectionID,
	).Scan(&rec.MomentID, &rec.SectionID, &rec.CheckedInAt, &rec.IsFireflyRelease)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
