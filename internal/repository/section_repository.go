package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lumenbooth/firefly-booth/internal/model"
)

// SectionRepo provides access to the sections table.  Deletes are
// reported to the Notifier because they cascade to check-ins and change
// the released set of the deleted section.
type SectionRepo struct {
	db       *sql.DB
	notifier Notifier
}

// NewSectionRepo constructs a SectionRepo.  A nil notifier is allowed.
func NewSectionRepo(db *sql.DB, n Notifier) *SectionRepo {
	return &SectionRepo{db: db, notifier: orNop(n)}
}

// Create inserts a section and sets its ID and CreatedAt.
func (r *SectionRepo) Create(ctx context.Context, s *model.Section) error {
	s.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sections (name, display_order, created_at) VALUES (?, ?, ?)`,
		s.Name, s.DisplayOrder, s.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID returns ErrSectionNotFound when no row matches.
func (r *SectionRepo) GetByID(ctx context.Context, id uint64) (*model.Section, error) {
	const q = `SELECT id, name, display_order, created_at FROM sections WHERE id = ?`
	var s model.Section
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name, &s.DisplayOrder, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSectionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns all sections ordered by display order, then ID.
func (r *SectionRepo) List(ctx context.Context) ([]model.Section, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, display_order, created_at FROM sections ORDER BY display_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Section{}
	for rows.Next() {
		var s model.Section
		if err := rows.Scan(&s.ID, &s.Name, &s.DisplayOrder, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a section and its check-in records.  The check-ins are
// deleted explicitly so the cascade does not depend on the driver's
// foreign key settings.  Deleting the only remaining section returns
// ErrLastSection.
func (r *SectionRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sections WHERE id = ?`, id).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrSectionNotFound
	}
	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sections`).Scan(&total); err != nil {
		return err
	}
	if total <= 1 {
		return ErrLastSection
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM checkins WHERE section_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	r.notifier.Notify()
	return nil
}
