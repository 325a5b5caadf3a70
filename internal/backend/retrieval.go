package backend

import (
	"context"
	"fmt"

	"github.com/systemstock/queryd/internal/index"
	"github.com/systemstock/queryd/internal/log"
)

// IndexProvider exposes the cached retrieval index. The second return
// value is the readiness flag; the index pointer is only valid when it
// is true.
type IndexProvider interface {
	Index() (*index.Index, bool)
}

// RetrievalBackend answers questions through the cached retrieval index.
type RetrievalBackend struct {
	provider IndexProvider
	logger   log.Logger
}

var _ Backend = (*RetrievalBackend)(nil)

// NewRetrievalBackend creates an index-backed backend.
func NewRetrievalBackend(provider IndexProvider, logger log.Logger) *RetrievalBackend {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &RetrievalBackend{provider: provider, logger: logger}
}

// Name implements Backend.
func (b *RetrievalBackend) Name() string { return "retrieval" }

// Answer implements Backend. When the index is not ready it returns
// ErrIndexNotReady so the chain can answer with a standby response
// instead of blocking on a synchronous rebuild.
func (b *RetrievalBackend) Answer(ctx context.Context, question string) (*Answer, error) {
	ix, ready := b.provider.Index()
	if !ready || ix == nil {
		return nil, ErrIndexNotReady
	}

	answer, _, err := ix.Query(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}

	return &Answer{Text: answer, Mode: ModeOnline}, nil
}
