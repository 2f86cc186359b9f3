package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/figplay/bridge/internal/logging"
)

// ListSavedRequests returns every stored template.
func (r *Repository) ListSavedRequests(ctx context.Context) ([]SavedRequest, error) {
	reqs := []SavedRequest{}
	if err := r.db.SelectContext(ctx, &reqs, `SELECT * FROM saved_requests`); err != nil {
		return nil, fmt.Errorf("listing saved requests: %w", err)
	}
	return reqs, nil
}

// CreateSavedRequest inserts a new template and returns it with the
// generated id and creation time filled in.
func (r *Repository) CreateSavedRequest(ctx context.Context, c SavedRequestCreate) (*SavedRequest, error) {
	req := &SavedRequest{
		ID:             uuid.New().String(),
		UserIdentifier: DefaultUser,
		Name:           c.Name,
		Method:         c.Method,
		Endpoint:       c.Endpoint,
		Headers:        c.Headers,
		Body:           c.Body,
		Category:       c.Category,
		IsFavorite:     c.IsFavorite,
		CreatedAt:      time.Now().UTC(),
	}
	if req.Headers == nil {
		req.Headers = Headers{}
	}

	query := `INSERT INTO saved_requests
	          (id, user_identifier, name, method, endpoint, headers, body, category, is_favorite, created_at)
	          VALUES (:id, :user_identifier, :name, :method, :endpoint, :headers, :body, :category, :is_favorite, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return nil, fmt.Errorf("creating saved request %q: %w", c.Name, err)
	}

	r.logger.Debug("saved request created",
		logging.Field{Key: "id", Value: req.ID},
		logging.Field{Key: "name", Value: req.Name},
	)
	return req, nil
}

// UpdateSavedRequest applies a partial update to one template. It
// returns ErrEmptyUpdate when no fields are set and ErrRequestNotFound
// when the id does not exist.
func (r *Repository) UpdateSavedRequest(ctx context.Context, id string, u SavedRequestUpdate) error {
	if u.Empty() {
		return ErrEmptyUpdate
	}

	query := `UPDATE saved_requests
	          SET name = COALESCE(?, name), is_favorite = COALESCE(?, is_favorite)
	          WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, u.Name, u.IsFavorite, id)
	if err != nil {
		return fmt.Errorf("updating saved request %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("fetching rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// DeleteSavedRequest removes one template, returning ErrRequestNotFound
// when the id does not exist.
func (r *Repository) DeleteSavedRequest(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM saved_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting saved request %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("fetching rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRequestNotFound
	}

	r.logger.Debug("saved request deleted", logging.Field{Key: "id", Value: id})
	return nil
}
