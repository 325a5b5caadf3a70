package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemstock/queryd/internal/backend"
	"github.com/systemstock/queryd/internal/service"
)

type stubBackend struct {
	name   string
	answer *backend.Answer
	err    error
	panics bool
	calls  int
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Answer(ctx context.Context, question string) (*backend.Answer, error) {
	s.calls++
	if s.panics {
		panic("boom")
	}
	return s.answer, s.err
}

type stubStatus struct {
	ready  bool
	cached bool
}

func (s *stubStatus) Status() (bool, bool) { return s.ready, s.cached }

func newTestServer(t *testing.T, entries []service.Entry, status StatusReporter, cfg Config) *httptest.Server {
	t.Helper()
	svc := service.New(entries, nil, nil)
	ts := httptest.NewServer(New(svc, status, cfg, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postQuery(t *testing.T, ts *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/query", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func TestHandleHome(t *testing.T) {
	t.Run("Reports primary mode", func(t *testing.T) {
		entries := []service.Entry{{Backend: &stubBackend{name: "ollama"}}}
		ts := newTestServer(t, entries, nil, Config{})

		resp, err := http.Get(ts.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		assert.Equal(t, "ok", payload["status"])
		assert.Equal(t, "local", payload["mode"])
		assert.NotEmpty(t, payload["message"])
	})

	t.Run("Unknown path is 404", func(t *testing.T) {
		ts := newTestServer(t, nil, nil, Config{})

		resp, err := http.Get(ts.URL + "/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHandleHealthz(t *testing.T) {
	get := func(t *testing.T, ts *httptest.Server) (*http.Response, map[string]any) {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		var payload map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
		return resp, payload
	}

	t.Run("Ready index", func(t *testing.T) {
		ts := newTestServer(t, nil, &stubStatus{ready: true, cached: true}, Config{MongoConfigured: true})

		resp, payload := get(t, ts)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, payload["ok"])
		assert.Equal(t, true, payload["mongo_uri_configured"])
		assert.Equal(t, true, payload["index_cached"])
	})

	t.Run("Index cached but stale", func(t *testing.T) {
		ts := newTestServer(t, nil, &stubStatus{ready: false, cached: true}, Config{MongoConfigured: true})

		resp, payload := get(t, ts)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, false, payload["ok"])
		assert.Equal(t, true, payload["index_cached"])
	})

	t.Run("No index configured", func(t *testing.T) {
		ts := newTestServer(t, nil, nil, Config{})

		resp, payload := get(t, ts)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, false, payload["ok"])
		assert.Equal(t, false, payload["mongo_uri_configured"])
		assert.Equal(t, false, payload["index_cached"])
	})
}

func TestHandleQuery(t *testing.T) {
	t.Run("Successful answer", func(t *testing.T) {
		bk := &stubBackend{name: "search", answer: &backend.Answer{
			Text:     "Found 2 matching item(s).",
			Mode:     backend.ModeOffline,
			Examples: []map[string]any{{"name": "laptop"}},
		}}
		ts := newTestServer(t, []service.Entry{{Backend: bk}}, nil, Config{})

		resp, payload := postQuery(t, ts, `{"message": "laptop"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		assert.Equal(t, "Found 2 matching item(s).", payload["response"])
		assert.Equal(t, "offline", payload["mode"])
		assert.Contains(t, payload, "elapsed")
		assert.Len(t, payload["examples"], 1)
	})

	t.Run("Empty examples list is kept", func(t *testing.T) {
		bk := &stubBackend{name: "search", answer: &backend.Answer{
			Text:     `No matches found for "unobtainium" in the catalog.`,
			Mode:     backend.ModeOffline,
			Examples: []map[string]any{},
		}}
		ts := newTestServer(t, []service.Entry{{Backend: bk}}, nil, Config{})

		resp, payload := postQuery(t, ts, `{"message": "unobtainium"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, payload, "examples")
		assert.Equal(t, []any{}, payload["examples"])
	})

	t.Run("Examples omitted when absent", func(t *testing.T) {
		bk := &stubBackend{name: "ollama", answer: &backend.Answer{Text: "hi", Mode: backend.ModeLocal}}
		ts := newTestServer(t, []service.Entry{{Backend: bk}}, nil, Config{})

		resp, payload := postQuery(t, ts, `{"message": "hi"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotContains(t, payload, "examples")
	})

	t.Run("Invalid JSON body", func(t *testing.T) {
		bk := &stubBackend{name: "ollama", answer: &backend.Answer{Text: "hi"}}
		ts := newTestServer(t, []service.Entry{{Backend: bk}}, nil, Config{})

		resp, payload := postQuery(t, ts, `{"message":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.NotEmpty(t, payload["error"])
		assert.Equal(t, 0, bk.calls)
	})

	t.Run("Blank message", func(t *testing.T) {
		bk := &stubBackend{name: "ollama", answer: &backend.Answer{Text: "hi"}}
		ts := newTestServer(t, []service.Entry{{Backend: bk}}, nil, Config{})

		for _, body := range []string{`{}`, `{"message": ""}`, `{"message": "   "}`} {
			resp, payload := postQuery(t, ts, body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, payload["error"])
		}
		assert.Equal(t, 0, bk.calls)
	})

	t.Run("Standby answer", func(t *testing.T) {
		bk := &stubBackend{name: "retrieval", err: backend.ErrIndexNotReady}
		ts := newTestServer(t, []service.Entry{{Backend: bk}}, nil, Config{})

		resp, payload := postQuery(t, ts, `{"message": "laptop"}`)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, service.StandbyMessage, payload["response"])
		assert.Equal(t, true, payload["standby"])
	})

	t.Run("Exhausted chain", func(t *testing.T) {
		bk := &stubBackend{name: "ollama", err: assert.AnError}
		ts := newTestServer(t, []service.Entry{{Backend: bk}}, nil, Config{})

		resp, payload := postQuery(t, ts, `{"message": "laptop"}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, userSafeFailure, payload["response"])
		assert.NotEmpty(t, payload["error"])
	})

	t.Run("Panicking backend becomes a 500", func(t *testing.T) {
		bk := &stubBackend{name: "ollama", panics: true}
		ts := newTestServer(t, []service.Entry{{Backend: bk}}, nil, Config{})

		resp, payload := postQuery(t, ts, `{"message": "laptop"}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, userSafeFailure, payload["response"])
	})
}

func TestCORS(t *testing.T) {
	const allowed = "https://shop.example.com"
	cfg := Config{AllowedOrigins: []string{allowed}}
	entries := []service.Entry{{Backend: &stubBackend{name: "ollama", answer: &backend.Answer{Text: "hi"}}}}

	t.Run("Allowed origin gets CORS headers", func(t *testing.T) {
		ts := newTestServer(t, entries, nil, cfg)

		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
		req.Header.Set("Origin", allowed)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, allowed, resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "Origin", resp.Header.Get("Vary"))
	})

	t.Run("Unlisted origin gets none", func(t *testing.T) {
		ts := newTestServer(t, entries, nil, cfg)

		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("Preflight", func(t *testing.T) {
		ts := newTestServer(t, entries, nil, cfg)

		req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/query", nil)
		req.Header.Set("Origin", allowed)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "POST, GET, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	})
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t, nil, nil, Config{})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
