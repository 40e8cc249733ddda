package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lumenbooth/firefly-booth/internal/model"
)

// MomentRepo provides access to the moments table.  Registration itself
// lives elsewhere; the booth only needs to create and look up moments.
type MomentRepo struct {
	db *sql.DB
}

// NewMomentRepo constructs a MomentRepo bound to db.
func NewMomentRepo(db *sql.DB) *MomentRepo { return &MomentRepo{db: db} }

// Create inserts a moment and sets its ID and CreatedAt.
func (r *MomentRepo) Create(ctx context.Context, m *model.Moment) error {
	m.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO moments (display_name, created_at) VALUES (?, ?)`,
		m.DisplayName, m.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID returns ErrMomentNotFound when no row matches.
func (r *MomentRepo) GetByID(ctx context.Context, id uint64) (*model.Moment, error) {
	var m model.Moment
	err := r.db.QueryRowContext(ctx,
		`SELECT id, display_name, created_at FROM moments WHERE id = ?`, id,
	).Scan(&m.ID, &m.DisplayName, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMomentNotFound
		}
		return nil, err
	}
	return &m, nil
}
