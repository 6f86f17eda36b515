package llm

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type llmMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	rateLimitWait   metric.Float64Histogram
}

var (
	metricsOnce sync.Once
	metrics     *llmMetrics
)

func ensureMetrics() *llmMetrics {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/jpo-explorer/backend/llm")

		requestCount, err := meter.Int64Counter(
			"ai.llm.request.count",
			metric.WithDescription("Number of language-model requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"ai.llm.request.duration",
			metric.WithDescription("Language-model request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"ai.llm.request.errors",
			metric.WithDescription("Number of language-model request errors"),
		)
		if err != nil {
			return
		}
		rateLimitWait, err := meter.Float64Histogram(
			"ai.llm.rate_limit.wait",
			metric.WithDescription("Time spent waiting for the language-model rate limiter in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}

		metrics = &llmMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
			rateLimitWait:   rateLimitWait,
		}
	})
	return metrics
}

func attrs(provider, model string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("ai.provider", provider),
		attribute.String("ai.model", model),
	)
}

// RecordRequest records one completed (or failed) model call.
func RecordRequest(ctx context.Context, provider, model string, duration time.Duration, err error) {
	m := ensureMetrics()
	if m == nil {
		return
	}
	opt := attrs(provider, model)
	m.requestCount.Add(ctx, 1, opt)
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), opt)
	if err != nil {
		m.requestErrors.Add(ctx, 1, opt)
	}
}

// RecordRateLimitWait records time spent blocked on a TokenBucket.
func RecordRateLimitWait(ctx context.Context, provider, model string, wait time.Duration) {
	m := ensureMetrics()
	if m == nil {
		return
	}
	m.rateLimitWait.Record(ctx, float64(wait.Milliseconds()), attrs(provider, model))
}

// Throttle waits on bucket and records the wait. A nil bucket never blocks.
func Throttle(ctx context.Context, bucket *TokenBucket, provider, model string) error {
	if bucket == nil {
		return nil
	}
	start := time.Now()
	if err := bucket.Wait(ctx); err != nil {
		RecordRequest(ctx, provider, model, 0, err)
		return err
	}
	RecordRateLimitWait(ctx, provider, model, time.Since(start))
	return nil
}
