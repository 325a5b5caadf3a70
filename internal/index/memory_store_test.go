package index

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mockEmbedder struct {
	dim       int
	vectors   map[string][]float32
	failAfter int // fail once this many texts have been embedded, 0 = never
	embedded  int
}

func (m *mockEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	m.embedded++
	if m.failAfter > 0 && m.embedded > m.failAfter {
		return nil, fmt.Errorf("embedder exhausted")
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	res := make([]float32, m.dim)
	for i := range res {
		res[i] = 0.1
	}
	return res, nil
}

func (m *mockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	res := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := m.EmbedDocument(ctx, text)
		if err != nil {
			return nil, err
		}
		res[i] = emb
	}
	return res, nil
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	embedder := &mockEmbedder{dim: 3, vectors: map[string][]float32{
		"hello": {1, 0, 0},
		"world": {0, 1, 0},
	}}
	s := NewMemoryStore(embedder)

	t.Run("Add and Search", func(t *testing.T) {
		docs := []Document{
			{ID: "1", Content: "hello"},
			{ID: "2", Content: "world"},
		}
		err := s.Add(ctx, docs)
		assert.NoError(t, err)
		assert.Equal(t, 2, s.Len())

		// Search for something close to "hello"
		results, err := s.Search(ctx, []float32{1, 0.1, 0}, 1)
		assert.NoError(t, err)
		assert.Len(t, results, 1)
		assert.Equal(t, "1", results[0].Document.ID)
		assert.Greater(t, results[0].Score, 0.9)
	})

	t.Run("K larger than store", func(t *testing.T) {
		results, err := s.Search(ctx, []float32{0, 1, 0}, 10)
		assert.NoError(t, err)
		assert.Len(t, results, 2)
		assert.Equal(t, "2", results[0].Document.ID)
	})

	t.Run("Invalid k", func(t *testing.T) {
		_, err := s.Search(ctx, []float32{1, 0, 0}, 0)
		assert.Error(t, err)
	})

	t.Run("Empty store", func(t *testing.T) {
		empty := NewMemoryStore(embedder)
		results, err := empty.Search(ctx, []float32{1, 0, 0}, 3)
		assert.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("Add with no embedder", func(t *testing.T) {
		bare := NewMemoryStore(nil)
		err := bare.Add(ctx, []Document{{ID: "x", Content: "x"}})
		assert.Error(t, err)
	})

	t.Run("AddWithEmbeddings length mismatch", func(t *testing.T) {
		err := s.AddWithEmbeddings([]Document{{ID: "3"}}, [][]float32{})
		assert.Error(t, err)
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
