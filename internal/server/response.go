package server

import (
	"encoding/json"
	"net/http"
)

// queryRequest is the POST /api/query body.
type queryRequest struct {
	Message string `json:"message"`
}

// queryResponse is the successful answer payload. Examples is a
// pointer so that an answer carrying an empty (but non-nil) list still
// serializes as "examples": [] — the offline no-matches response keeps
// its list — while answers without one omit the field entirely.
type queryResponse struct {
	Response string            `json:"response"`
	Elapsed  float64           `json:"elapsed"`
	Mode     string            `json:"mode"`
	Examples *[]map[string]any `json:"examples,omitempty"`
}

// standbyResponse is returned while the index is rebuilding.
type standbyResponse struct {
	Response string `json:"response"`
	Standby  bool   `json:"standby"`
}

// failureResponse carries a user-safe message plus the raw error string
// for diagnostics.
type failureResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// healthResponse is the /healthz payload.
type healthResponse struct {
	OK                 bool `json:"ok"`
	MongoURIConfigured bool `json:"mongo_uri_configured"`
	IndexCached        bool `json:"index_cached"`
}

// infoResponse is the liveness payload.
type infoResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

// jsonResponse sends a standard JSON response
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// errorResponse sends a plain error body
func errorResponse(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, map[string]string{"error": msg})
}
