package repository

import (
	"context"
	"database/sql"

	"github.com/lumenbooth/firefly-booth/internal/model"
)

// LedgerReader is the read side the presence core queries on every
// reconciliation.  It never writes.
type LedgerReader struct {
	db *sql.DB
}

// NewLedgerReader constructs a LedgerReader bound to db.
func NewLedgerReader(db *sql.DB) *LedgerReader { return &LedgerReader{db: db} }

// ReleasedParticipants returns the moments released in a section, ordered
// by moment ID.  An unknown section yields an empty slice.
func (r *LedgerReader) ReleasedParticipants(ctx context.Context, sectionID uint64) ([]model.Participant, error) {
	const q = `SELECT m.id, m.display_name
	           FROM checkins c
	           JOIN moments m ON m.id = c.moment_id
	           WHERE c.section_id = ? AND c.is_firefly_release = 1
	           ORDER BY m.id`
	rows, err := r.db.QueryContext(ctx, q, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Participant{}
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.MomentID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
