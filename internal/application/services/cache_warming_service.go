package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/jpo-explorer/backend/internal/domain/entities"
	"github.com/jpo-explorer/backend/internal/infrastructure/observability"
)

// Searcher is the part of SearchService the warmer needs.
type Searcher interface {
	Search(ctx context.Context, req entities.SearchRequest) (*SearchResult, error)
}

// CacheWarmingService pre-computes results for popular queries so the first
// visitor does not pay for the language-model round trip.
type CacheWarmingService struct {
	search      Searcher
	queries     []string
	concurrency int
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(search Searcher, queries []string, concurrency int) *CacheWarmingService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &CacheWarmingService{
		search:      search,
		queries:     queries,
		concurrency: concurrency,
	}
}

// WarmCache searches every configured query without facets, in parallel.
// It returns how many searches succeeded; individual failures are logged.
func (s *CacheWarmingService) WarmCache(ctx context.Context) (int, error) {
	if len(s.queries) == 0 {
		return 0, nil
	}
	logger := observability.LoggerFromContext(ctx)

	pool, err := ants.NewPool(s.concurrency)
	if err != nil {
		return 0, fmt.Errorf("failed to create warming pool: %w", err)
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		warmed atomic.Int64
	)
	for _, query := range s.queries {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			if _, err := s.search.Search(ctx, entities.SearchRequest{Query: query}); err != nil {
				logger.Warn().Err(err).Str("query", query).Msg("cache warming search failed")
				return
			}
			warmed.Add(1)
		})
		if submitErr != nil {
			wg.Done()
			logger.Warn().Err(submitErr).Str("query", query).Msg("failed to schedule cache warming")
		}
	}
	wg.Wait()

	logger.Info().Int64("warmed", warmed.Load()).Int("queries", len(s.queries)).Msg("cache warming completed")
	return int(warmed.Load()), ctx.Err()
}

// StartPeriodicWarming warms once, then again every interval until ctx ends.
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if len(s.queries) == 0 || interval <= 0 {
		return
	}
	logger := observability.LoggerFromContext(ctx)

	go func() {
		if _, err := s.WarmCache(ctx); err != nil {
			logger.Warn().Err(err).Msg("initial cache warming interrupted")
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("stopping cache warming service")
				return
			case <-ticker.C:
				if _, err := s.WarmCache(ctx); err != nil {
					logger.Warn().Err(err).Msg("periodic cache warming interrupted")
				}
			}
		}
	}()
	logger.Info().Dur("interval", interval).Int("queries", len(s.queries)).Msg("started periodic cache warming")
}
