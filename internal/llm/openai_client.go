// ABOUTME: OpenAI client for batch embeddings, query embeddings and chat completions
// ABOUTME: Every call goes through a retry loop with exponential backoff and a per-attempt timeout
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/harper/notion-rag/internal/models"
	"github.com/harper/notion-rag/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel openai.EmbeddingModel
	Temperature    float32
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		Temperature:    0.2,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	temperature    float32
	timeout        time.Duration
	maxRetries     int
	retryDelay     time.Duration
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	oc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		oc.BaseURL = config.BaseURL
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(oc),
		chatModel:      config.ChatModel,
		embeddingModel: config.EmbeddingModel,
		temperature:    config.Temperature,
		timeout:        timeout,
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
	}, nil
}

// EmbedTexts embeds a batch of texts; the result has one vector per input, in input order
func (c *OpenAIClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	return withRetry(ctx, c, "embed batch", func(ctx context.Context) ([][]float32, error) {
		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: texts,
			Model: c.embeddingModel,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Data) != len(texts) {
			return nil, fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts))
		}

		data := resp.Data
		sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

		vectors := make([][]float32, len(data))
		for i := range data {
			vectors[i] = data[i].Embedding
		}
		return vectors, nil
	})
}

// EmbedQuery embeds a single query text
func (c *OpenAIClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errors.New("no embedding returned")
	}
	return vectors[0], nil
}

// Complete sends the conversation to the chat model and returns the reply text
func (c *OpenAIClient) Complete(ctx context.Context, messages []models.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		Temperature: c.temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	return withRetry(ctx, c, "chat completion", func(ctx context.Context) (string, error) {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("no completion choices returned")
		}
		return resp.Choices[0].Message.Content, nil
	})
}

// withRetry runs fn up to maxRetries+1 times with a per-attempt timeout
func withRetry[T any](ctx context.Context, c *OpenAIClient, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := util.WaitBackoff(ctx, c.retryDelay, attempt); err != nil {
				return zero, fmt.Errorf("%s: %w", op, err)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		result, err := fn(attemptCtx)
		cancel()

		if err == nil {
			return result, nil
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)

		if ctx.Err() != nil {
			break
		}
	}

	return zero, fmt.Errorf("%s failed after %d attempts: %w", op, c.maxRetries+1, lastErr)
}
