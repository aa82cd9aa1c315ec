// ABOUTME: Tests for the bootstrap helpers that translate config into clients
// ABOUTME: Covers tokenizer model selection and OpenAI client settings

package commands

import (
	"testing"
	"time"

	"github.com/harper/notion-rag/internal/config"
	openai "github.com/sashabaranov/go-openai"
)

func TestNewTokenizer_FollowsChatModel(t *testing.T) {
	tests := []struct {
		chatModel string
		embedding string
		want      string
	}{
		{"gpt-4o", "text-embedding-3-small", "o200k_base"},
		{"gpt-4o-mini", "text-embedding-3-large", "o200k_base"},
		{"gpt-4", "text-embedding-3-small", "cl100k_base"},
	}

	for _, tt := range tests {
		t.Run(tt.chatModel, func(t *testing.T) {
			cfg := config.Default()
			cfg.ChatModel = tt.chatModel
			cfg.EmbeddingModel = tt.embedding

			if got := newTokenizer(cfg).Encoding(); got != tt.want {
				t.Errorf("encoding for chat model %q = %q, want %q", tt.chatModel, got, tt.want)
			}
		})
	}
}

func TestOpenAIConfig(t *testing.T) {
	cfg := config.Default()
	cfg.OpenAIKey = "sk-test"
	cfg.ChatModel = "gpt-4o"
	cfg.EmbeddingModel = "text-embedding-3-large"
	cfg.Temperature = 0.7
	cfg.MaxRetries = 5
	cfg.RetryDelay = time.Second

	oc := openAIConfig(cfg)

	if oc.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", oc.APIKey)
	}
	if oc.ChatModel != "gpt-4o" {
		t.Errorf("ChatModel = %q, want gpt-4o", oc.ChatModel)
	}
	if oc.EmbeddingModel != openai.LargeEmbedding3 {
		t.Errorf("EmbeddingModel = %q, want %q", oc.EmbeddingModel, openai.LargeEmbedding3)
	}
	if oc.Temperature != float32(0.7) {
		t.Errorf("Temperature = %v, want 0.7", oc.Temperature)
	}
	if oc.MaxRetries != 5 || oc.RetryDelay != time.Second {
		t.Errorf("retries = %d/%s, want 5/1s", oc.MaxRetries, oc.RetryDelay)
	}
}
