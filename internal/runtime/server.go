package runtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/szaher/cxassist/internal/agent"
	"github.com/szaher/cxassist/internal/session"
	"github.com/szaher/cxassist/internal/telemetry"
	"github.com/szaher/cxassist/internal/tools"
)

// Server is the HTTP front door over the agent core.
type Server struct {
	config    Config
	mux       *http.ServeMux
	server    *http.Server
	logger    *slog.Logger
	agent     *agent.Agent
	sessions  *session.Store
	registry  *tools.Registry
	metrics   *telemetry.Metrics
	startTime time.Time
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics mounts the /metrics endpoint.
func WithMetrics(m *telemetry.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates the HTTP server.
func NewServer(config Config, ag *agent.Agent, sessions *session.Store, registry *tools.Registry, opts ...ServerOption) *Server {
	s := &Server{
		config:    config,
		agent:     ag,
		sessions:  sessions,
		registry:  registry,
		logger:    slog.Default(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("DELETE /session/{session_id}", s.handleClearSession)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.mux = mux
	return s
}

// Handler returns the HTTP handler for use with httptest or custom servers.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.loggingMiddleware(s.mux))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("server starting", "addr", addr, "model", s.config.Model, "tools", s.registry.Names())
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware mirrors the permissive policy of the original service
// front door: any origin, any method, any header.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Customer support assistant API",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"uptime":  time.Since(s.startTime).String(),
		"version": Version,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"model":         s.config.Model,
		"tools":         s.registry.Names(),
		"live_sessions": s.sessions.Len(),
		"max_turns":     s.config.Agent.MaxTurns,
		"uptime":        time.Since(s.startTime).String(),
		"version":       Version,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Request body must be JSON with a message field.")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "The message field must not be empty.")
		return
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	result, err := s.agent.Exchange(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.logger.Error("exchange failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error",
			"The assistant could not process this message. Please try again.")
		return
	}

	steps := result.Steps
	if steps == nil {
		steps = []agent.Step{}
	}
	toolsUsed := result.ToolsUsed
	if toolsUsed == nil {
		toolsUsed = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response":    result.Response,
		"agent_steps": steps,
		"tools_used":  toolsUsed,
		"session_id":  req.SessionID,
	})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	status := "not_found"
	if s.sessions.Clear(sessionID) {
		status = "cleared"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"session_id": sessionID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}
