package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/systemstock/queryd/internal/log"
)

// OllamaBackend sends the question as a prompt to a local inference
// daemon over a loopback HTTP call.
type OllamaBackend struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  log.Logger
}

var _ Backend = (*OllamaBackend)(nil)

// OllamaConfig holds settings for the local daemon backend.
type OllamaConfig struct {
	Host    string // daemon URL (default: "http://localhost:11434")
	Model   string
	Timeout time.Duration
}

// NewOllamaBackend creates a backend connected to the local daemon.
func NewOllamaBackend(cfg OllamaConfig, logger log.Logger) (*OllamaBackend, error) {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = &log.NoOpLogger{}
	}

	u, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host: %w", err)
	}

	return &OllamaBackend{
		client:  api.NewClient(u, http.DefaultClient),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Name implements Backend.
func (b *OllamaBackend) Name() string { return "ollama" }

// Answer issues a single synchronous, non-streaming generate call.
func (b *OllamaBackend) Answer(ctx context.Context, question string) (*Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	stream := false
	req := &api.GenerateRequest{
		Model:  b.model,
		Prompt: question,
		Stream: &stream,
	}

	var text strings.Builder
	err := b.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		text.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}

	answer := text.String()
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("ollama returned an empty response")
	}

	// The daemon's text is passed through verbatim.
	return &Answer{Text: answer, Mode: ModeLocal}, nil
}
