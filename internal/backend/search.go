package backend

import (
	"context"
	"fmt"

	"github.com/systemstock/queryd/internal/log"
	"github.com/systemstock/queryd/internal/store"
)

// Searcher is the direct store search capability. *store.Store satisfies it.
type Searcher interface {
	Search(ctx context.Context, question string) (*store.SearchResult, error)
}

// SearchBackend answers with a direct case-insensitive substring search
// against the document store. It is the last resort of the chain and
// works without any model.
type SearchBackend struct {
	searcher Searcher
	logger   log.Logger
}

var _ Backend = (*SearchBackend)(nil)

// NewSearchBackend creates an offline search backend.
func NewSearchBackend(searcher Searcher, logger log.Logger) *SearchBackend {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &SearchBackend{searcher: searcher, logger: logger}
}

// Name implements Backend.
func (b *SearchBackend) Name() string { return "search" }

// Answer implements Backend.
func (b *SearchBackend) Answer(ctx context.Context, question string) (*Answer, error) {
	result, err := b.searcher.Search(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("store search: %w", err)
	}

	if result.Count == 0 {
		return &Answer{
			Text:     fmt.Sprintf("No matches found for %q in the catalog.", question),
			Mode:     ModeOffline,
			Examples: []map[string]any{},
		}, nil
	}

	return &Answer{
		Text:     fmt.Sprintf("Found %d matching item(s) for %q in the catalog.", result.Count, question),
		Mode:     ModeOffline,
		Examples: result.Examples,
	}, nil
}
