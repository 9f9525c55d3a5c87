package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Config holds the OpenAI-compatible provider configuration.
type Config struct {
	BaseURL   string
	APIKey    string
	ChatModel string
	// RequestsPerSecond rate-limits outbound calls. Zero means no limit.
	RequestsPerSecond float64
	// Burst is the limiter burst size. Defaults to 1 when rate limiting is on.
	Burst int
}

// DefaultConfig returns the default provider configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           "https://api.openai.com/v1",
		ChatModel:         "gpt-4o-mini",
		RequestsPerSecond: 5,
		Burst:             10,
	}
}

// OpenAIService implements Service against any OpenAI-compatible endpoint.
type OpenAIService struct {
	client  *openai.Client
	config  *Config
	limiter *rate.Limiter
}

// NewOpenAIService creates a provider for the configured endpoint.
func NewOpenAIService(cfg *Config) (*OpenAIService, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &OpenAIService{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  cfg,
		limiter: limiter,
	}, nil
}

// Complete sends a completion request and returns the raw response text.
func (s *OpenAIService) Complete(ctx context.Context, req Request) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.SystemInstructions},
		{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.config.ChatModel,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion after %s: %w", time.Since(start).Round(time.Millisecond), err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat response")
	}

	return resp.Choices[0].Message.Content, nil
}
