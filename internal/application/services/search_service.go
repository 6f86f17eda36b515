package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/jpo-explorer/backend/internal/domain/entities"
	"github.com/jpo-explorer/backend/internal/domain/providers"
	"github.com/jpo-explorer/backend/internal/domain/repositories"
	"github.com/jpo-explorer/backend/internal/infrastructure/observability"
	apperrors "github.com/jpo-explorer/backend/pkg/errors"
)

const (
	// NoRecordsMessage accompanies the bundle returned for an empty store.
	NoRecordsMessage = "No open-day records are available."

	facetsOnlyExplanation = "No free-text query; results are filtered by facets only."
)

// SearchResult is a bundle plus whether it was served from cache.
type SearchResult struct {
	Bundle   *entities.ResultBundle
	CacheHit bool
}

// SearchService orchestrates the ranking pipeline: cache lookup, record
// fetch, intent extraction and parsing, scoring, recommendation merge and
// facet filtering, then cache write.
type SearchService struct {
	records   repositories.RecordRepository
	extractor IntentSource
	parser    *ResponseParser
	scorer    *RelevanceScorer
	cache     providers.ResultCache
	flights   *singleflight.Group
	metrics   *observability.Metrics
}

// SearchOption configures a SearchService.
type SearchOption func(*SearchService)

// WithSingleFlight shares one pipeline run among concurrent misses on the
// same fingerprint.
func WithSingleFlight(enabled bool) SearchOption {
	return func(s *SearchService) {
		if enabled {
			s.flights = &singleflight.Group{}
		} else {
			s.flights = nil
		}
	}
}

// WithSearchMetrics records pipeline metrics.
func WithSearchMetrics(metrics *observability.Metrics) SearchOption {
	return func(s *SearchService) { s.metrics = metrics }
}

// NewSearchService creates a new search service
func NewSearchService(
	records repositories.RecordRepository,
	extractor IntentSource,
	cache providers.ResultCache,
	opts ...SearchOption,
) *SearchService {
	s := &SearchService{
		records:   records,
		extractor: extractor,
		parser:    NewResponseParser(),
		scorer:    NewRelevanceScorer(),
		cache:     cache,
		flights:   &singleflight.Group{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fingerprint is the cache key for req: its trimmed query and canonical
// facets, serialized as JSON.
func Fingerprint(req entities.SearchRequest) string {
	key, _ := json.Marshal(entities.SearchRequest{
		Query:  strings.TrimSpace(req.Query),
		Facets: req.Facets.Canonical(),
	})
	return string(key)
}

// Search runs req through the pipeline. It fails only when the record store
// or the language-model call fails; unusable model output degrades to the
// fallback Intent.
func (s *SearchService) Search(ctx context.Context, req entities.SearchRequest) (*SearchResult, error) {
	ctx, span := observability.StartSpan(ctx, "search")
	defer span.End()

	key := Fingerprint(req)
	if entry, ok := s.cache.Get(ctx, key); ok {
		observability.SetSpanAttributes(span, attribute.Bool("search.cache_hit", true))
		return &SearchResult{Bundle: entry.Bundle, CacheHit: true}, nil
	}
	observability.SetSpanAttributes(span, attribute.Bool("search.cache_hit", false))

	// A started run always completes; callers going away do not abort it.
	runCtx := context.WithoutCancel(ctx)

	if s.flights == nil {
		bundle, err := s.run(runCtx, req, key)
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		return &SearchResult{Bundle: bundle}, nil
	}

	v, err, _ := s.flights.Do(key, func() (interface{}, error) {
		if entry, ok := s.cache.Get(runCtx, key); ok {
			return entry.Bundle, nil
		}
		return s.run(runCtx, req, key)
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return &SearchResult{Bundle: v.(*entities.ResultBundle)}, nil
}

func (s *SearchService) run(ctx context.Context, req entities.SearchRequest, key string) (*entities.ResultBundle, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx)

	records, err := s.fetchRecords(ctx)
	if err != nil {
		observability.RecordPipeline(ctx, s.metrics, "record_store_error", time.Since(start))
		return nil, err
	}

	if len(records) == 0 {
		logger.Info().Str("query", req.Query).Msg("record store is empty, skipping intent extraction")
		observability.RecordPipeline(ctx, s.metrics, "empty", time.Since(start))
		return &entities.ResultBundle{
			Results: []entities.ScoredRecord{},
			Message: NoRecordsMessage,
		}, nil
	}

	intent, err := s.interpret(ctx, req, records)
	if err != nil {
		observability.RecordPipeline(ctx, s.metrics, "language_model_error", time.Since(start))
		return nil, err
	}

	_, span := observability.StartSpan(ctx, "search.rank")
	scored := s.scorer.Score(records, intent.Keywords)
	merged := MergeRecommendations(scored, intent.RecommendedIDs)
	results := ApplyFacets(merged, req.Facets)
	span.SetAttributes(
		attribute.Int("search.records", len(records)),
		attribute.Int("search.results", len(results)),
	)
	span.End()

	bundle := &entities.ResultBundle{
		Results:      results,
		Intent:       intent,
		TotalResults: len(results),
	}
	s.cache.Put(ctx, key, bundle)

	logger.Debug().
		Str("query", req.Query).
		Int("records", len(records)).
		Int("results", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("search pipeline completed")
	observability.RecordPipeline(ctx, s.metrics, "ok", time.Since(start))
	return bundle, nil
}

func (s *SearchService) fetchRecords(ctx context.Context) ([]*entities.Record, error) {
	ctx, span := observability.StartSpan(ctx, "search.fetch_records")
	defer span.End()

	records, err := s.records.ListAll(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewUpstreamError("record store", err)
	}
	span.SetAttributes(attribute.Int("search.records", len(records)))
	return records, nil
}

// interpret produces the Intent for req. A blank query never reaches the
// language model.
func (s *SearchService) interpret(ctx context.Context, req entities.SearchRequest, records []*entities.Record) (*entities.Intent, error) {
	if !req.HasQuery() {
		return facetsOnlyIntent(), nil
	}
	query := strings.TrimSpace(req.Query)

	ctx, span := observability.StartSpan(ctx, "search.extract_intent")
	defer span.End()

	raw, err := s.extractor.ExtractIntent(ctx, query, records)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewUpstreamError("language model", err)
	}

	intent, strategy := s.parser.Parse(ctx, query, raw)
	span.SetAttributes(attribute.String("search.parse_strategy", string(strategy)))
	if strategy == StrategyFallback {
		observability.RecordIntentFallback(ctx, s.metrics)
	}
	return intent, nil
}

func facetsOnlyIntent() *entities.Intent {
	return &entities.Intent{
		Keywords:       []string{},
		Explanation:    facetsOnlyExplanation,
		RecommendedIDs: entities.RecordIDs{},
	}
}

// FacetOptions returns the values offered for each facet.
func (s *SearchService) FacetOptions(ctx context.Context) (*entities.FacetOptions, error) {
	options, err := s.records.FacetOptions(ctx)
	if err != nil {
		return nil, apperrors.NewUpstreamError("record store", err)
	}
	return options, nil
}

// Records returns every record in store order.
func (s *SearchService) Records(ctx context.Context) ([]*entities.Record, error) {
	return s.fetchRecords(ctx)
}
