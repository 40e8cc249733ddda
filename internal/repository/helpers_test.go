package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/lumenbooth/firefly-booth/internal/database"
	"github.com/lumenbooth/firefly-booth/internal/model"
)

type countingNotifier struct{ n atomic.Int64 }

func (c *countingNotifier) Notify() { c.n.Add(1) }

func (c *countingNotifier) count() int64 { return c.n.Load() }

func openTempDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.ApplyMigrations(context.Background(), db, database.DialectSQLite); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func seedSection(t *testing.T, repo *SectionRepo, name string, order int) model.Section {
	t.Helper()
	s := model.Section{Name: name, DisplayOrder: order}
	if err := repo.Create(context.Background(), &s); err != nil {
		t.Fatalf("create section %q: %v", name, err)
	}
	return s
}

func seedMoment(t *testing.T, repo *MomentRepo, name string) model.Moment {
	t.Helper()
	m := model.Moment{DisplayName: name}
	if err := repo.Create(context.Background(), &m); err != nil {
		t.Fatalf("create moment %q: %v", name, err)
	}
	return m
}
