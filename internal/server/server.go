// Package server exposes the query service over HTTP: a liveness
// endpoint, a readiness endpoint for orchestration health checks, and
// the query endpoint itself.
package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/systemstock/queryd/internal/log"
	"github.com/systemstock/queryd/internal/service"
)

const userSafeFailure = "Could not process your query."

// StatusReporter reports index readiness for the health endpoint.
// *service.Manager satisfies it.
type StatusReporter interface {
	Status() (ready, cached bool)
}

// Config holds the server's own settings.
type Config struct {
	AllowedOrigins  []string
	MongoConfigured bool
}

// Server routes HTTP requests to the query service.
type Server struct {
	svc    *service.QueryService
	status StatusReporter // nil when no index is configured
	cfg    Config
	logger log.Logger
}

// New creates a Server. status may be nil when the retrieval index is
// not configured; the health endpoint then reports not ready.
func New(svc *service.QueryService, status StatusReporter, cfg Config, logger log.Logger) *Server {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Server{svc: svc, status: status, cfg: cfg, logger: logger}
}

// Handler returns the full middleware-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleHome)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /api/query", s.handleQuery)

	var handler http.Handler = mux
	handler = recoverMiddleware(handler, s.logger)
	handler = loggingMiddleware(handler, s.logger)
	handler = corsMiddleware(handler, s.cfg.AllowedOrigins)
	return handler
}

// handleHome - GET /
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		errorResponse(w, http.StatusNotFound, "not found")
		return
	}
	jsonResponse(w, http.StatusOK, infoResponse{
		Status:  "ok",
		Message: "AI query microservice up",
		Mode:    string(s.svc.PrimaryMode()),
	})
}

// handleHealthz - GET /healthz
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	var ready, cached bool
	if s.status != nil {
		ready, cached = s.status.Status()
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	jsonResponse(w, status, healthResponse{
		OK:                 ready,
		MongoURIConfigured: s.cfg.MongoConfigured,
		IndexCached:        cached,
	})
}

// handleQuery - POST /api/query
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	question := strings.TrimSpace(req.Message)
	if question == "" {
		errorResponse(w, http.StatusBadRequest, "a non-empty 'message' field is required")
		return
	}

	result, err := s.svc.Resolve(r.Context(), question)
	if err != nil {
		s.logger.Error("error processing /api/query: %v", err)
		jsonResponse(w, http.StatusInternalServerError, failureResponse{
			Response: userSafeFailure,
			Error:    err.Error(),
		})
		return
	}

	if result.Standby {
		jsonResponse(w, http.StatusServiceUnavailable, standbyResponse{
			Response: result.Answer.Text,
			Standby:  true,
		})
		return
	}

	resp := queryResponse{
		Response: result.Answer.Text,
		Elapsed:  result.Elapsed,
		Mode:     string(result.Answer.Mode),
	}
	if result.Answer.Examples != nil {
		resp.Examples = &result.Answer.Examples
	}
	jsonResponse(w, http.StatusOK, resp)
}
