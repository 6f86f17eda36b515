package services

import (
	"context"

	"github.com/jpo-explorer/backend/internal/domain/entities"
	"github.com/jpo-explorer/backend/internal/domain/providers"
)

// IntentSource asks an external oracle to interpret a query. It returns the
// oracle's raw text; structure is recovered by ResponseParser.
type IntentSource interface {
	ExtractIntent(ctx context.Context, query string, records []*entities.Record) (string, error)
}

// IntentExtractorConfig tunes the model call.
type IntentExtractorConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	SampleSize  int
}

// DefaultIntentExtractorConfig returns a low-temperature, compact setup with
// a five-record grounding sample.
func DefaultIntentExtractorConfig() IntentExtractorConfig {
	return IntentExtractorConfig{
		Temperature: 0.2,
		MaxTokens:   1024,
		SampleSize:  5,
	}
}

// IntentExtractor implements IntentSource with a chat model.
type IntentExtractor struct {
	completer providers.ChatCompleter
	cfg       IntentExtractorConfig
}

// NewIntentExtractor creates a new intent extractor
func NewIntentExtractor(completer providers.ChatCompleter, cfg IntentExtractorConfig) *IntentExtractor {
	if cfg.SampleSize < 0 {
		cfg.SampleSize = 0
	}
	return &IntentExtractor{completer: completer, cfg: cfg}
}

// ExtractIntent sends the query with the first SampleSize records as
// grounding. Transport errors are returned as-is; an empty answer is not an
// error here.
func (e *IntentExtractor) ExtractIntent(ctx context.Context, query string, records []*entities.Record) (string, error) {
	sample := records
	if len(sample) > e.cfg.SampleSize {
		sample = sample[:e.cfg.SampleSize]
	}

	user, err := buildIntentUserPrompt(query, sample, len(records))
	if err != nil {
		return "", err
	}

	return e.completer.Complete(ctx, providers.ChatRequest{
		Model:       e.cfg.Model,
		System:      intentSystemPrompt,
		User:        user,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	})
}
