// Package store persists saved request templates and the proxy call
// history in SQLite. Schema changes ship as embedded goose migrations
// applied on open.
package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/figplay/bridge/internal/logging"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Error texts double as the API detail strings, so they are written the
// way the handlers surface them.
var (
	ErrRequestNotFound = errors.New("Request not found")
	ErrEmptyUpdate     = errors.New("No fields to update")
)

// SavedRequestStore is the persistence surface for request templates.
type SavedRequestStore interface {
	ListSavedRequests(ctx context.Context) ([]SavedRequest, error)
	CreateSavedRequest(ctx context.Context, c SavedRequestCreate) (*SavedRequest, error)
	UpdateSavedRequest(ctx context.Context, id string, u SavedRequestUpdate) error
	DeleteSavedRequest(ctx context.Context, id string) error
}

// HistoryStore is the persistence surface for the proxy call log.
type HistoryStore interface {
	AddHistoryEntry(ctx context.Context, e *HistoryEntry) error
	ListHistory(ctx context.Context) ([]HistoryEntry, error)
	ClearHistory(ctx context.Context) error
}

// Repository implements both stores over a single SQLite handle.
type Repository struct {
	db     *sqlx.DB
	logger logging.Logger
}

var (
	_ SavedRequestStore = (*Repository)(nil)
	_ HistoryStore      = (*Repository)(nil)
)

// goose configuration is process-global; set it once even when tests
// open many databases concurrently.
var (
	migrateSetup    sync.Once
	migrateSetupErr error
)

// Open connects to the SQLite database at path and applies all pending
// migrations. WAL mode and foreign keys are enabled; the pool is capped
// at one connection since SQLite allows a single writer.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", fmt.Sprintf("%s?_journal=WAL&_timeout=5000&_fk=true&_time_format=sqlite", path))
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %w", err)
	}

	db.SetMaxOpenConns(1)

	migrateSetup.Do(func() {
		goose.SetBaseFS(embedMigrations)
		goose.SetLogger(goose.NopLogger())
		migrateSetupErr = goose.SetDialect(string(goose.DialectSQLite3))
	})
	if migrateSetupErr != nil {
		db.Close()
		return nil, fmt.Errorf("setting dialect for migrations: %w", migrateSetupErr)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying migrations: %w", err)
	}
	return db, nil
}

// NewRepository wraps an open database handle.
func NewRepository(db *sqlx.DB, logger logging.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "store"}),
	}
}

// Close terminates the database connection.
func (r *Repository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}
