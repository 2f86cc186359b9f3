package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/figplay/bridge/docs" // generated swagger docs
	"github.com/figplay/bridge/internal/feed"
	"github.com/figplay/bridge/internal/figma"
	"github.com/figplay/bridge/internal/logging"
	"github.com/figplay/bridge/internal/proxy"
	"github.com/figplay/bridge/internal/store"
)

// Server is the HTTP + WebSocket API surface for the bridge.
type Server struct {
	cfg       Config
	router    chi.Router
	forwarder *proxy.Forwarder
	feed      *feed.Feed
	upgrader  websocket.Upgrader
	logger    logging.Logger

	// ownClient is set when the server created its upstream client and
	// is responsible for closing it.
	ownClient figma.Client
}

// NewServer wires the proxy forwarder, history feed and routes.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	var ownClient figma.Client
	client := cfg.Client
	if client == nil {
		client = figma.NewHTTPClient(logger, nil)
		ownClient = client
	}

	baseURL := cfg.FigmaBaseURL
	if baseURL == "" {
		baseURL = figma.DefaultBaseURL
	}

	fd := feed.New()

	s := &Server{
		cfg:       cfg,
		router:    chi.NewRouter(),
		forwarder: proxy.New(client, cfg.History, fd, baseURL, logger),
		feed:      fd,
		logger:    logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: check the Origin header against cfg.AllowedOrigins
				return true
			},
		},
		ownClient: ownClient,
	}

	s.routes()
	return s
}

// persistence reports whether the store-backed routes are live.
func (s *Server) persistence() bool {
	return s.cfg.Saved != nil && s.cfg.History != nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/api/figma/proxy", s.optionsHandler("POST"))
	r.Options("/api/figma/page", s.optionsHandler("POST"))
	r.Options("/api/saved-requests", s.optionsHandler("GET, POST"))
	r.Options("/api/saved-requests/{requestID}", s.optionsHandler("PUT, DELETE"))
	r.Options("/api/request-history", s.optionsHandler("GET, DELETE"))

	// Figma proxying
	r.Post("/api/figma/proxy", s.handleProxy)
	r.Post("/api/figma/page", s.handlePage)

	// Saved requests
	r.Get("/api/saved-requests", s.handleListSavedRequests)
	r.Post("/api/saved-requests", s.handleCreateSavedRequest)
	r.Put("/api/saved-requests/{requestID}", s.handleUpdateSavedRequest)
	r.Delete("/api/saved-requests/{requestID}", s.handleDeleteSavedRequest)

	// Request history
	r.Get("/api/request-history", s.handleListHistory)
	r.Delete("/api/request-history", s.handleClearHistory)

	r.Get("/api/health", s.handleHealth)

	// WebSocket live history stream
	r.Get("/ws/history", s.handleHistoryWS)

	r.Get("/swagger/*", httpSwagger.Handler())
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(s.cfg.AllowedOrigins))
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if allowAll {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin := r.Header.Get("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
		}
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Figma-Token")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close releases the live feed and any resources the server created.
// The injected store is owned by the caller and stays open.
func (s *Server) Close() {
	s.feed.Close()
	if s.ownClient != nil {
		s.ownClient.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming and slow upstream calls
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeProxyError translates forwarder failures into HTTP statuses.
func (s *Server) writeProxyError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, proxy.ErrUnsupportedMethod), errors.Is(err, proxy.ErrBadPageEndpoint):
		status = http.StatusBadRequest
	case errors.Is(err, proxy.ErrNoPages):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Warn("proxying request", logging.Field{Key: "error", Value: err.Error()})
	}
	writeError(w, status, err.Error())
}

// --- HTTP handlers ---

// Figma proxying

// handleProxy forwards an arbitrary descriptor to the Figma API.
//
// @Summary Proxy a request to the Figma API
// @Description Forwards the described call to the Figma API, sidestepping browser CORS limits, and records it in the request history.
// @Tags figma
// @Accept json
// @Produce json
// @Param descriptor body proxy.Descriptor true "Request to forward"
// @Success 200 {object} proxy.Envelope
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/figma/proxy [post]
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	var d proxy.Descriptor
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	env, err := s.forwarder.Proxy(r.Context(), d)
	if err != nil {
		s.writeProxyError(w, err)
		return
	}

	s.logger.Info("proxied request",
		logging.Field{Key: "endpoint", Value: d.Endpoint},
		logging.Field{Key: "upstream_status", Value: env.StatusCode},
	)
	writeJSON(w, http.StatusOK, env)
}

// handlePage fetches a file and extracts its first page.
//
// @Summary Fetch the first page of a Figma file
// @Description Fetches the file document and returns document.children[0]. Only /files/{key} endpoints are accepted.
// @Tags figma
// @Accept json
// @Produce json
// @Param descriptor body proxy.Descriptor true "File request; the method field is ignored"
// @Success 200 {object} proxy.Envelope
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/figma/page [post]
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var d proxy.Descriptor
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	env, err := s.forwarder.Page(r.Context(), d)
	if err != nil {
		s.writeProxyError(w, err)
		return
	}

	s.logger.Info("extracted page",
		logging.Field{Key: "endpoint", Value: d.Endpoint},
		logging.Field{Key: "upstream_status", Value: env.StatusCode},
	)
	writeJSON(w, http.StatusOK, env)
}

// Saved requests

// handleListSavedRequests returns every stored template.
//
// @Summary List saved requests
// @Tags saved-requests
// @Produce json
// @Success 200 {array} store.SavedRequest
// @Failure 500 {object} ErrorResponse
// @Router /api/saved-requests [get]
func (s *Server) handleListSavedRequests(w http.ResponseWriter, r *http.Request) {
	if !s.persistence() {
		writeJSON(w, http.StatusOK, []store.SavedRequest{})
		return
	}

	reqs, err := s.cfg.Saved.ListSavedRequests(r.Context())
	if err != nil {
		s.logger.Warn("listing saved requests", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// handleCreateSavedRequest stores a new template.
//
// @Summary Save a request template
// @Tags saved-requests
// @Accept json
// @Produce json
// @Param request body store.SavedRequestCreate true "Template fields"
// @Success 200 {object} store.SavedRequest
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/saved-requests [post]
func (s *Server) handleCreateSavedRequest(w http.ResponseWriter, r *http.Request) {
	var c store.SavedRequestCreate
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if !s.persistence() {
		writeJSON(w, http.StatusOK, StubSavedResponse{
			Message: "Request saved (database not available)",
			ID:      "mock-id",
		})
		return
	}

	created, err := s.cfg.Saved.CreateSavedRequest(r.Context(), c)
	if err != nil {
		s.logger.Warn("creating saved request", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("created saved request", logging.Field{Key: "id", Value: created.ID})
	writeJSON(w, http.StatusOK, created)
}

// handleUpdateSavedRequest renames or (un)favorites a template.
//
// @Summary Update a saved request
// @Description Applies a partial update; only name and is_favorite can change.
// @Tags saved-requests
// @Accept json
// @Produce json
// @Param requestID path string true "Saved request id"
// @Param update body store.SavedRequestUpdate true "Fields to change"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/saved-requests/{requestID} [put]
func (s *Server) handleUpdateSavedRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")

	var u store.SavedRequestUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if !s.persistence() {
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Request updated (database not available)"})
		return
	}

	if err := s.cfg.Saved.UpdateSavedRequest(r.Context(), requestID, u); err != nil {
		switch {
		case errors.Is(err, store.ErrEmptyUpdate):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrRequestNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			s.logger.Warn("updating saved request", logging.Field{Key: "error", Value: err.Error()})
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Request updated successfully"})
}

// handleDeleteSavedRequest removes a template.
//
// @Summary Delete a saved request
// @Tags saved-requests
// @Produce json
// @Param requestID path string true "Saved request id"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/saved-requests/{requestID} [delete]
func (s *Server) handleDeleteSavedRequest(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")

	if !s.persistence() {
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Request deleted (database not available)"})
		return
	}

	if err := s.cfg.Saved.DeleteSavedRequest(r.Context(), requestID); err != nil {
		if errors.Is(err, store.ErrRequestNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Warn("deleting saved request", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Request deleted successfully"})
}

// Request history

// handleListHistory returns the most recent proxy calls, newest first.
//
// @Summary List request history
// @Description Returns up to the 100 most recent proxied calls, newest first.
// @Tags request-history
// @Produce json
// @Success 200 {array} store.HistoryEntry
// @Failure 500 {object} ErrorResponse
// @Router /api/request-history [get]
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if !s.persistence() {
		writeJSON(w, http.StatusOK, []store.HistoryEntry{})
		return
	}

	entries, err := s.cfg.History.ListHistory(r.Context())
	if err != nil {
		s.logger.Warn("listing history", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleClearHistory wipes the request log.
//
// @Summary Clear request history
// @Tags request-history
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/request-history [delete]
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if !s.persistence() {
		writeJSON(w, http.StatusOK, MessageResponse{Message: "History cleared (database not available)"})
		return
	}

	if err := s.cfg.History.ClearHistory(r.Context()); err != nil {
		s.logger.Warn("clearing history", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "History cleared successfully"})
}

// handleHealth reports liveness and whether persistence is attached.
//
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		Persistence: s.persistence(),
	})
}

// WebSockets

// handleHistoryWS streams history entries to the client as they are
// recorded. The stream ends when the client disconnects or the server
// shuts down.
func (s *Server) handleHistoryWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	entries, cancel := s.feed.Subscribe()
	defer cancel()

	for e := range entries {
		if err := conn.WriteJSON(e); err != nil {
			// Assume the client disconnected.
			return
		}
	}
}
