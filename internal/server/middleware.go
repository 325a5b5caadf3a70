package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/systemstock/queryd/internal/log"
)

// corsMiddleware restricts cross-origin access to the configured
// allow-list of front-end origins, with credentials support. Requests
// from unlisted origins still get a response, just without CORS headers.
func corsMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs every request with a generated request ID.
func loggingMiddleware(next http.Handler, logger log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)

		next.ServeHTTP(w, r)

		logger.Info("%s %s %s (%s)", r.Method, r.URL.Path, time.Since(start), reqID)
	})
}

// recoverMiddleware converts panics during request handling into a 500
// response; the process itself never exits on a request failure.
func recoverMiddleware(next http.Handler, logger log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic handling %s %s: %v", r.Method, r.URL.Path, rec)
				jsonResponse(w, http.StatusInternalServerError, failureResponse{
					Response: userSafeFailure,
					Error:    "internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
