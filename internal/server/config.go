package server

import (
	"github.com/figplay/bridge/internal/figma"
	"github.com/figplay/bridge/internal/logging"
	"github.com/figplay/bridge/internal/store"
)

// Config carries the server's listen settings and dependencies.
type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string

	// AllowedOrigins are the CORS origins granted access; a "*" entry
	// grants every origin.
	AllowedOrigins []string

	// FigmaBaseURL overrides the upstream base URL. Empty selects the
	// public Figma API.
	FigmaBaseURL string

	// Client is the upstream adapter. When nil the server creates and
	// owns a default HTTP client with the standard timeout.
	Client figma.Client

	// Saved and History are the persistence layer. When nil the server
	// runs without persistence: saved requests and history answer with
	// fixed unavailability responses.
	Saved   store.SavedRequestStore
	History store.HistoryStore

	Logger logging.Logger
}
