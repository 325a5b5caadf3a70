package backend

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/systemstock/queryd/internal/log"
)

// OpenAIBackend answers via a single hosted chat-completion call with
// the question as the sole user message.
type OpenAIBackend struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  log.Logger
}

var _ Backend = (*OpenAIBackend)(nil)

// NewOpenAIBackend creates a hosted-API backend using the given client.
// Injecting the client keeps the base URL overridable in tests.
func NewOpenAIBackend(client *openai.Client, model string, timeout time.Duration, logger log.Logger) *OpenAIBackend {
	if model == "" {
		model = openai.GPT4oMini
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &OpenAIBackend{client: client, model: model, timeout: timeout, logger: logger}
}

// Name implements Backend.
func (b *OpenAIBackend) Name() string { return "openai" }

// Answer implements Backend.
func (b *OpenAIBackend) Answer(ctx context.Context, question string) (*Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		// A literal zero is dropped by the client's omitempty encoding;
		// the smallest positive value keeps sampling deterministic.
		Temperature: math.SmallestNonzeroFloat32,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	answer := resp.Choices[0].Message.Content
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("chat completion returned an empty message")
	}

	return &Answer{Text: answer, Mode: ModeOnline}, nil
}
