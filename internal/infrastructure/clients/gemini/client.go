package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/jpo-explorer/backend/internal/domain/providers"
	"github.com/jpo-explorer/backend/internal/infrastructure/clients/llm"
	"github.com/jpo-explorer/backend/pkg/config"
)

const providerName = "gemini"

// Client implements providers.ChatCompleter on top of the Gemini API.
type Client struct {
	client  *genai.Client
	model   string
	limiter *llm.TokenBucket
	timeout time.Duration
}

// NewClient creates a Gemini client. An empty API key falls back to
// Application Default Credentials.
func NewClient(ctx context.Context, cfg *config.LLMConfig) (*Client, error) {
	clientCfg := &genai.ClientConfig{}
	if cfg.APIKey != "" {
		clientCfg.APIKey = cfg.APIKey
		clientCfg.Backend = genai.BackendGeminiAPI
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{
		client:  client,
		model:   cfg.Model,
		limiter: llm.NewTokenBucket(cfg.RateLimitRPM, cfg.RateLimitBurst),
		timeout: cfg.Timeout,
	}, nil
}

// Complete implements providers.ChatCompleter.
func (c *Client) Complete(ctx context.Context, req providers.ChatRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	if err := llm.Throttle(ctx, c.limiter, providerName, model); err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromText(req.User, genai.RoleUser)}, genCfg)
	if err != nil {
		llm.RecordRequest(ctx, providerName, model, time.Since(start), err)
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}

	text, err := candidateText(resp)
	llm.RecordRequest(ctx, providerName, model, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("gemini completion failed: %w", err)
	}
	return text, nil
}

// Close stops the rate limiter.
func (c *Client) Close() {
	c.limiter.Stop()
}

func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no response candidates")
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return "", errors.New("empty candidate content")
	}

	var out strings.Builder
	for _, part := range content.Parts {
		if part != nil && part.Text != "" {
			out.WriteString(part.Text)
		}
	}
	return out.String(), nil
}
