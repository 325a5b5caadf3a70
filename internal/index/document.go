// Package index implements the in-memory retrieval index the query
// service builds over the document collection. The index is constructed
// wholesale from a snapshot of the collection and is read-only afterwards;
// re-initialization replaces it entirely.
package index

import "context"

// Document is the index's native document representation.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document Document
	Score    float64
}

// Embedder generates embeddings for text.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}
