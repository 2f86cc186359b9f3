package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// historyListLimit caps how many entries ListHistory returns.
const historyListLimit = 100

// AddHistoryEntry records one completed proxy call. Missing id, owner
// and timestamp are filled with defaults before the insert.
func (r *Repository) AddHistoryEntry(ctx context.Context, e *HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.UserIdentifier == "" {
		e.UserIdentifier = DefaultUser
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Headers == nil {
		e.Headers = Headers{}
	}

	query := `INSERT INTO request_history
	          (id, user_identifier, method, endpoint, headers, body, response_data, status_code, timestamp)
	          VALUES (:id, :user_identifier, :method, :endpoint, :headers, :body, :response_data, :status_code, :timestamp)`
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("recording history entry: %w", err)
	}
	return nil
}

// ListHistory returns the most recent entries, newest first.
func (r *Repository) ListHistory(ctx context.Context) ([]HistoryEntry, error) {
	entries := []HistoryEntry{}
	query := `SELECT * FROM request_history ORDER BY timestamp DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &entries, query, historyListLimit); err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return entries, nil
}

// ClearHistory deletes every history entry. Clearing an already empty
// log is not an error.
func (r *Repository) ClearHistory(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM request_history`); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}
