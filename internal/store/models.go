package store

import "time"

// DefaultUser tags rows in the single-user deployments this service
// currently runs as.
const DefaultUser = "default_user"

// SavedRequest is a reusable API request template.
type SavedRequest struct {
	ID             string    `json:"id" db:"id"`
	UserIdentifier string    `json:"user_identifier" db:"user_identifier"`
	Name           string    `json:"name" db:"name"`
	Method         string    `json:"method" db:"method"`
	Endpoint       string    `json:"endpoint" db:"endpoint"`
	Headers        Headers   `json:"headers" db:"headers"`
	Body           *string   `json:"body" db:"body"`
	Category       string    `json:"category" db:"category"`
	IsFavorite     bool      `json:"is_favorite" db:"is_favorite"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// SavedRequestCreate carries the caller-supplied fields of a new
// template. ID, owner and creation time are assigned by the store.
type SavedRequestCreate struct {
	Name       string  `json:"name"`
	Method     string  `json:"method"`
	Endpoint   string  `json:"endpoint"`
	Headers    Headers `json:"headers"`
	Body       *string `json:"body"`
	Category   string  `json:"category"`
	IsFavorite bool    `json:"is_favorite"`
}

// SavedRequestUpdate is a partial update; nil fields keep their stored
// value.
type SavedRequestUpdate struct {
	Name       *string `json:"name"`
	IsFavorite *bool   `json:"is_favorite"`
}

// Empty reports whether the update would change nothing.
func (u SavedRequestUpdate) Empty() bool {
	return u.Name == nil && u.IsFavorite == nil
}

// HistoryEntry records one completed proxy call.
type HistoryEntry struct {
	ID             string    `json:"id" db:"id"`
	UserIdentifier string    `json:"user_identifier" db:"user_identifier"`
	Method         string    `json:"method" db:"method"`
	Endpoint       string    `json:"endpoint" db:"endpoint"`
	Headers        Headers   `json:"headers" db:"headers"`
	Body           *string   `json:"body" db:"body"`
	ResponseData   JSONValue `json:"response_data" db:"response_data"`
	StatusCode     int       `json:"status_code" db:"status_code"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
}
