// Package embedding generates vector embeddings for memory segments so they
// can be searched semantically.
package embedding

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pkg/errors"
)

// Embedder converts text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config holds settings for the OpenAI-backed embedder.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// DefaultConfig returns the default embedding configuration.
func DefaultConfig() Config {
	return Config{
		Model: string(openai.SmallEmbedding3),
	}
}

// OpenAIEmbedder calls the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an embedder from config.
func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("embedding: api key is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := openai.EmbeddingModel(cfg.Model)
	if cfg.Model == "" {
		model = openai.SmallEmbedding3
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Embed returns the embedding vector for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create embeddings")
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding: empty response")
	}
	return resp.Data[0].Embedding, nil
}

// NoopEmbedder satisfies Embedder without calling any service. Used when
// embedding generation is disabled.
type NoopEmbedder struct{}

var _ Embedder = NoopEmbedder{}

// Embed always returns nil without error.
func (NoopEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, nil
}
