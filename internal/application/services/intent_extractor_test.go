package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpo-explorer/backend/internal/domain/entities"
	"github.com/jpo-explorer/backend/internal/domain/providers"
)

type recordingCompleter struct {
	requests []providers.ChatRequest
	answer   string
	err      error
}

func (c *recordingCompleter) Complete(_ context.Context, req providers.ChatRequest) (string, error) {
	c.requests = append(c.requests, req)
	return c.answer, c.err
}

func manyRecords(n int) []*entities.Record {
	records := make([]*entities.Record, n)
	for i := range records {
		records[i] = &entities.Record{
			ID:    int64(i + 1),
			Title: entities.StringPtr(fmt.Sprintf("Formation %d", i+1)),
		}
	}
	return records
}

func TestIntentExtractor_SendsSampleAndSettings(t *testing.T) {
	completer := &recordingCompleter{answer: `{"keywords":[]}`}
	cfg := DefaultIntentExtractorConfig()
	cfg.Model = "mistral-small-latest"
	extractor := NewIntentExtractor(completer, cfg)

	raw, err := extractor.ExtractIntent(context.Background(), "droit à Paris", manyRecords(12))
	require.NoError(t, err)
	assert.Equal(t, `{"keywords":[]}`, raw)

	require.Len(t, completer.requests, 1)
	req := completer.requests[0]
	assert.Equal(t, "mistral-small-latest", req.Model)
	assert.InDelta(t, 0.2, req.Temperature, 1e-9)
	assert.Equal(t, 1024, req.MaxTokens)
	assert.Equal(t, intentSystemPrompt, req.System)

	assert.Contains(t, req.User, `"droit à Paris"`)
	assert.Contains(t, req.User, "sample of 5 records")
	assert.Contains(t, req.User, "contains 12 records")
	assert.Contains(t, req.User, "Formation 5")
	assert.NotContains(t, req.User, "Formation 6")
}

func TestIntentExtractor_SmallStoreSendsEverything(t *testing.T) {
	completer := &recordingCompleter{}
	extractor := NewIntentExtractor(completer, DefaultIntentExtractorConfig())

	_, err := extractor.ExtractIntent(context.Background(), "licence", manyRecords(2))
	require.NoError(t, err)
	assert.Contains(t, completer.requests[0].User, "sample of 2 records")
}

func TestIntentExtractor_PropagatesTransportErrors(t *testing.T) {
	cause := errors.New("429 too many requests")
	extractor := NewIntentExtractor(&recordingCompleter{err: cause}, DefaultIntentExtractorConfig())

	_, err := extractor.ExtractIntent(context.Background(), "licence", manyRecords(1))
	assert.ErrorIs(t, err, cause)
}
