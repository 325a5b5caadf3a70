package index

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// MemoryStore is a simple in-memory vector store. It is filled once
// during index construction and treated as read-only by queries, so
// concurrent searches need no locking.
type MemoryStore struct {
	documents  []Document
	embeddings [][]float32
	embedder   Embedder
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(embedder Embedder) *MemoryStore {
	return &MemoryStore{
		documents:  make([]Document, 0),
		embeddings: make([][]float32, 0),
		embedder:   embedder,
	}
}

// Add embeds and stores the given documents.
func (s *MemoryStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	if s.embedder == nil {
		return fmt.Errorf("no embedder configured")
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(embeddings) != len(docs) {
		return fmt.Errorf("embedder returned %d embeddings for %d documents", len(embeddings), len(docs))
	}

	s.documents = append(s.documents, docs...)
	s.embeddings = append(s.embeddings, embeddings...)
	return nil
}

// AddWithEmbeddings stores documents with precomputed embeddings.
func (s *MemoryStore) AddWithEmbeddings(docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("documents and embeddings must have same length")
	}
	s.documents = append(s.documents, docs...)
	s.embeddings = append(s.embeddings, embeddings...)
	return nil
}

// Search returns the top k documents by cosine similarity to the query embedding.
func (s *MemoryStore) Search(ctx context.Context, queryEmbedding []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}
	if len(s.documents) == 0 {
		return []SearchResult{}, nil
	}

	results := make([]SearchResult, len(s.documents))
	for i, docEmb := range s.embeddings {
		results[i] = SearchResult{
			Document: s.documents[i],
			Score:    cosineSimilarity(queryEmbedding, docEmb),
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	return len(s.documents)
}

// cosineSimilarity calculates cosine similarity between two embeddings
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float32
	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return float64(dotProduct) / (math.Sqrt(float64(normA)) * math.Sqrt(float64(normB)))
}
