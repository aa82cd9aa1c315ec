// ABOUTME: Tests for the OpenAI client against a fake HTTP API
// ABOUTME: Covers batch ordering, retries, query embeddings and chat completions
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harper/notion-rag/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []models.Message `json:"messages"`
	Temperature float32          `json:"temperature"`
}

func newTestClient(t *testing.T, handler http.Handler, retries int) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	cfg.MaxRetries = retries
	cfg.RetryDelay = time.Millisecond
	cfg.Timeout = 5 * time.Second

	client, err := NewOpenAIClientWithConfig(cfg)
	require.NoError(t, err)
	return client
}

func writeAPIError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
}

// embeddingHandler answers with vectors [len(text), position] in reverse index order
func embeddingHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var req embeddingRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			writeAPIError(w, http.StatusBadRequest)
			return
		}

		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(req.Input[i])), float32(i)},
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
		})
	}
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClientWithConfig(DefaultConfig(""))
	assert.Error(t, err)
}

func TestEmbedTexts_OrdersByIndex(t *testing.T) {
	client := newTestClient(t, embeddingHandler(t), 0)

	vectors, err := client.EmbedTexts(context.Background(), []string{"a", "bbb", "cc"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Equal(t, []float32{3, 1}, vectors[1])
	assert.Equal(t, []float32{2, 2}, vectors[2])
}

func TestEmbedTexts_Empty(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler(), 0)

	vectors, err := client.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedTexts_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	ok := embeddingHandler(t)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeAPIError(w, http.StatusInternalServerError)
			return
		}
		ok(w, r)
	}), 2)

	vectors, err := client.EmbedTexts(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Len(t, vectors, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedTexts_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeAPIError(w, http.StatusInternalServerError)
	}), 1)

	_, err := client.EmbedTexts(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedTexts_CountMismatch(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[1]}]}`))
	}), 0)

	_, err := client.EmbedTexts(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1 embeddings for 2 inputs")
}

func TestEmbedQuery(t *testing.T) {
	client := newTestClient(t, embeddingHandler(t), 0)

	vec, err := client.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 0}, vec)
}

func TestComplete(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   got.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": "Ada Lovelace mentors fintech."},
				"finish_reason": "stop",
			}},
		})
	}), 0)

	reply, err := client.Complete(context.Background(), []models.Message{
		{Role: models.RoleSystem, Content: "be brief"},
		{Role: models.RoleUser, Content: "who mentors fintech?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace mentors fintech.", reply)

	assert.Equal(t, DefaultChatModel, got.Model)
	assert.InDelta(t, 0.2, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, models.RoleSystem, got.Messages[0].Role)
}

func TestComplete_NoChoices(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}), 0)

	_, err := client.Complete(context.Background(), []models.Message{{Role: models.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completion choices")
}

func TestComplete_CancelledContext(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusServiceUnavailable)
	}), 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, []models.Message{{Role: models.RoleUser, Content: "hi"}})
	assert.Error(t, err)
}
