package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerTo_JSONWithServiceField(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	InitLoggerTo(&buf, "jpo-search", "production", "debug")

	LoggerFromContext(context.Background()).Debug().Str("query", "droit").Msg("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "jpo-search", line["service"])
	assert.Equal(t, "droit", line["query"])
	assert.Equal(t, "debug", line["level"])
}

func TestInitLoggerTo_InvalidLevelDefaultsToInfo(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	InitLoggerTo(&buf, "jpo-search", "production", "loud")

	GetLogger().Debug().Msg("hidden")
	assert.Empty(t, buf.String())
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestInitMetrics_AndRecorders(t *testing.T) {
	metrics, err := InitMetrics()
	require.NoError(t, err)
	require.NotNil(t, metrics)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, metrics, "POST", "/api/enhanced-search", 200, time.Millisecond)
		RecordDBMetric(ctx, metrics, "list_records", time.Millisecond)
		RecordCacheHit(ctx, metrics, "memory")
		RecordCacheMiss(ctx, metrics)
		RecordIntentFallback(ctx, metrics)
		RecordPipeline(ctx, metrics, "ok", time.Millisecond)
	})
}

func TestRecorders_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordRequestMetric(ctx, nil, "GET", "/health", 200, 0)
		RecordDBMetric(ctx, nil, "x", 0)
		RecordCacheHit(ctx, nil, "memory")
		RecordCacheMiss(ctx, nil)
		RecordIntentFallback(ctx, nil)
		RecordPipeline(ctx, nil, "ok", 0)
	})
}
