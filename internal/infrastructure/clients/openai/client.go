package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/jpo-explorer/backend/internal/domain/providers"
	"github.com/jpo-explorer/backend/internal/infrastructure/clients/llm"
	"github.com/jpo-explorer/backend/pkg/config"
)

// Client talks to any OpenAI-compatible chat and embedding API. Mistral's
// public API is one of them, so the same client serves both providers.
type Client struct {
	provider string
	model    string
	llm      *lcopenai.LLM
	embedder embeddings.Embedder
	limiter  *llm.TokenBucket
	timeout  time.Duration
}

// NewClient creates a client for cfg.Provider (mistral or openai).
func NewClient(cfg *config.LLMConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}

	opts := []lcopenai.Option{
		lcopenai.WithToken(cfg.APIKey),
		lcopenai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
	}
	if cfg.EmbeddingModel != "" {
		opts = append(opts, lcopenai.WithEmbeddingModel(cfg.EmbeddingModel))
	}

	client, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s embedder: %w", cfg.Provider, err)
	}

	return &Client{
		provider: cfg.Provider,
		model:    cfg.Model,
		llm:      client,
		embedder: embedder,
		limiter:  llm.NewTokenBucket(cfg.RateLimitRPM, cfg.RateLimitBurst),
		timeout:  cfg.Timeout,
	}, nil
}

// Complete implements providers.ChatCompleter.
func (c *Client) Complete(ctx context.Context, req providers.ChatRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	if err := llm.Throttle(ctx, c.limiter, c.provider, model); err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		llms.TextParts(llms.ChatMessageTypeHuman, req.User),
	}
	callOpts := []llms.CallOption{
		llms.WithModel(model),
		llms.WithTemperature(req.Temperature),
	}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}

	start := time.Now()
	resp, err := c.llm.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		llm.RecordRequest(ctx, c.provider, model, time.Since(start), err)
		return "", fmt.Errorf("%s completion failed: %w", c.provider, err)
	}
	if len(resp.Choices) == 0 {
		err := errors.New("no choices returned")
		llm.RecordRequest(ctx, c.provider, model, time.Since(start), err)
		return "", fmt.Errorf("%s completion failed: %w", c.provider, err)
	}

	llm.RecordRequest(ctx, c.provider, model, time.Since(start), nil)
	return resp.Choices[0].Content, nil
}

// EmbedText implements providers.Embedder.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := llm.Throttle(ctx, c.limiter, c.provider, "embeddings"); err != nil {
		return nil, err
	}

	start := time.Now()
	vector, err := c.embedder.EmbedQuery(ctx, text)
	llm.RecordRequest(ctx, c.provider, "embeddings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%s embedding failed: %w", c.provider, err)
	}
	return vector, nil
}

// Close stops the rate limiter.
func (c *Client) Close() {
	c.limiter.Stop()
}
