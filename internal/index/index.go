package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

const defaultSystemPrompt = "You are a helpful assistant. Answer the question based on the provided context. If you cannot answer based on the context, say so."

// Index answers questions over a fixed document snapshot: it retrieves
// the most similar documents and synthesizes an answer with the LLM.
type Index struct {
	store        *MemoryStore
	embedder     Embedder
	llm          llms.Model
	topK         int
	systemPrompt string
}

// Options tunes index construction.
type Options struct {
	TopK         int
	SystemPrompt string
}

// Build constructs an index from the given documents. The build either
// fully succeeds or fails; a partially filled index is never returned.
func Build(ctx context.Context, docs []Document, embedder Embedder, llm llms.Model, opts Options) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if llm == nil {
		return nil, fmt.Errorf("LLM is required")
	}
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt
	}

	store := NewMemoryStore(embedder)
	if err := store.Add(ctx, docs); err != nil {
		return nil, err
	}

	return &Index{
		store:        store,
		embedder:     embedder,
		llm:          llm,
		topK:         opts.TopK,
		systemPrompt: opts.SystemPrompt,
	}, nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	return ix.store.Len()
}

// Query retrieves relevant documents for the question and generates an
// answer grounded in them.
func (ix *Index) Query(ctx context.Context, question string) (string, []Document, error) {
	queryEmbedding, err := ix.embedder.EmbedDocument(ctx, question)
	if err != nil {
		return "", nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := ix.store.Search(ctx, queryEmbedding, ix.topK)
	if err != nil {
		return "", nil, fmt.Errorf("vector search failed: %w", err)
	}

	if len(results) == 0 {
		return "No relevant information found.", nil, nil
	}

	docs := make([]Document, len(results))
	for i, result := range results {
		docs[i] = result.Document
	}

	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:", buildContext(results), question)

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, ix.systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	response, err := ix.llm.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return "", nil, fmt.Errorf("generation failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", nil, fmt.Errorf("model returned no choices")
	}

	return response.Choices[0].Content, docs, nil
}

// buildContext builds the context block handed to the LLM.
func buildContext(results []SearchResult) string {
	var b strings.Builder
	for i, result := range results {
		doc := result.Document

		fmt.Fprintf(&b, "Document %d (Score: %.4f):\n", i+1, result.Score)
		if doc.Metadata != nil {
			if source, ok := doc.Metadata["source"]; ok {
				fmt.Fprintf(&b, "Source: %v\n", source)
			}
		}
		fmt.Fprintf(&b, "Content: %s\n\n", doc.Content)
	}
	return b.String()
}
