// Package demoupstream serves a canned Figma-shaped API so the bridge and
// its frontend can be exercised locally without a real Figma token. Point
// FIGMA_BASE_URL at http://localhost:<port>/v1 to use it.
package demoupstream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DemoUpstream is a small HTTP server mimicking the Figma REST API surface
// the bridge forwards to: file documents and file comments.
type DemoUpstream struct {
	cfg   Config
	files map[string]*fileState
	mu    sync.RWMutex
}

// fileState pairs a fixture with its mutable comment list.
type fileState struct {
	fixture  FileFixture
	comments []map[string]any
}

// New creates a demo upstream preloaded with the built-in fixtures.
func New(cfg Config) *DemoUpstream {
	s := &DemoUpstream{
		cfg:   cfg,
		files: make(map[string]*fileState),
	}
	s.loadFixtures()

	return s
}

func (s *DemoUpstream) loadFixtures() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files = make(map[string]*fileState)
	for _, f := range DefaultFixtures() {
		s.files[f.Key] = &fileState{
			fixture:  f,
			comments: append([]map[string]any{}, f.Comments...),
		}
	}
}

// Handler builds the route table. Exposed separately from Start so tests can
// mount it on an httptest server.
func (s *DemoUpstream) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/me", s.meHandler)
	mux.HandleFunc("/v1/files/", s.filesHandler)

	// Control endpoints for local development
	mux.HandleFunc("/demo/files", s.listFilesHandler)
	mux.HandleFunc("/demo/reset", s.resetHandler)

	return mux
}

// Start starts the demo upstream.
func (s *DemoUpstream) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo upstream starting on http://localhost%s\n", addr)
	fmt.Printf("Set FIGMA_BASE_URL=http://localhost%s/v1 to point the bridge at it\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// requireToken enforces the X-Figma-Token header the real API wants. Any
// non-empty value is accepted.
func (s *DemoUpstream) requireToken(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("X-Figma-Token") == "" {
		writeFigmaError(w, http.StatusForbidden, "Invalid token")
		return false
	}
	return true
}

// meHandler serves the authenticated-user lookup.
func (s *DemoUpstream) meHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireToken(w, r) {
		return
	}

	writeDemoJSON(w, http.StatusOK, map[string]any{
		"id":     "demo-user-1",
		"handle": "demo-designer",
		"email":  "demo@example.com",
	})
}

// filesHandler routes /v1/files/{key} and /v1/files/{key}/comments.
func (s *DemoUpstream) filesHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireToken(w, r) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/files/")
	parts := strings.SplitN(rest, "/", 2)
	key := parts[0]

	s.mu.RLock()
	state, ok := s.files[key]
	s.mu.RUnlock()

	if key == "" || !ok {
		writeFigmaError(w, http.StatusNotFound, "Not found")
		return
	}

	if len(parts) == 1 {
		s.fileHandler(w, r, state)
		return
	}

	switch parts[1] {
	case "comments":
		s.commentsHandler(w, r, key, state)
	default:
		writeFigmaError(w, http.StatusNotFound, "Not found")
	}
}

// fileHandler serves the file document in the real API's response shape.
func (s *DemoUpstream) fileHandler(w http.ResponseWriter, r *http.Request, state *fileState) {
	if r.Method != http.MethodGet {
		writeFigmaError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	writeDemoJSON(w, http.StatusOK, map[string]any{
		"name":          state.fixture.Name,
		"lastModified":  time.Now().UTC().Format(time.RFC3339),
		"version":       "1",
		"schemaVersion": 0,
		"document":      state.fixture.Document,
	})
}

// commentsHandler lists comments or appends one.
func (s *DemoUpstream) commentsHandler(w http.ResponseWriter, r *http.Request, key string, state *fileState) {
	switch r.Method {
	case http.MethodGet:
		s.mu.RLock()
		comments := append([]map[string]any{}, state.comments...)
		s.mu.RUnlock()

		writeDemoJSON(w, http.StatusOK, map[string]any{"comments": comments})

	case http.MethodPost:
		var in struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Message == "" {
			writeFigmaError(w, http.StatusBadRequest, "Comment message is required")
			return
		}

		s.mu.Lock()
		comment := map[string]any{
			"id":         fmt.Sprintf("%s-%d", key, len(state.comments)+1),
			"message":    in.Message,
			"user":       map[string]any{"handle": "demo-designer"},
			"created_at": time.Now().UTC().Format(time.RFC3339),
		}
		state.comments = append(state.comments, comment)
		s.mu.Unlock()

		writeDemoJSON(w, http.StatusOK, comment)

	default:
		writeFigmaError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// listFilesHandler returns the available fixture files.
func (s *DemoUpstream) listFilesHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type fileInfo struct {
		Key   string `json:"key"`
		Name  string `json:"name"`
		Pages int    `json:"pages"`
	}

	files := make([]fileInfo, 0, len(s.files))
	for key, state := range s.files {
		pages := 0
		if children, ok := state.fixture.Document["children"].([]any); ok {
			pages = len(children)
		}
		files = append(files, fileInfo{Key: key, Name: state.fixture.Name, Pages: pages})
	}

	writeDemoJSON(w, http.StatusOK, files)
}

// resetHandler restores the built-in fixtures, discarding added comments.
func (s *DemoUpstream) resetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeFigmaError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.loadFixtures()

	writeDemoJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Fixtures reset",
	})
}

func writeDemoJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeFigmaError writes an error in the real API's {status, err} shape.
func writeFigmaError(w http.ResponseWriter, status int, msg string) {
	writeDemoJSON(w, status, map[string]any{
		"status": status,
		"err":    msg,
	})
}
