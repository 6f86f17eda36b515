package evaluation

import (
	"context"
	"time"

	"github.com/jpo-explorer/backend/internal/application/services"
	"github.com/jpo-explorer/backend/internal/domain/entities"
	"github.com/jpo-explorer/backend/internal/infrastructure/observability"
)

// DefaultK is the rank cutoff used when none is configured.
const DefaultK = 10

// Searcher is the part of the search pipeline the runner drives.
type Searcher interface {
	Search(ctx context.Context, req entities.SearchRequest) (*services.SearchResult, error)
}

// Runner runs evaluation across a set of golden queries.
type Runner struct {
	searcher Searcher
	k        int
	now      func() time.Time
}

// NewRunner creates a runner scoring the top k results of each search.
func NewRunner(searcher Searcher, k int) *Runner {
	if k <= 0 {
		k = DefaultK
	}
	return &Runner{searcher: searcher, k: k, now: time.Now}
}

// Run searches every golden query in order. A failed search is recorded and
// excluded from the averages; only a cancelled context stops the run.
func (r *Runner) Run(ctx context.Context, queries []GoldenQuery) (*EvalSummary, error) {
	logger := observability.LoggerFromContext(ctx)
	summary := &EvalSummary{
		K:            r.k,
		TotalQueries: len(queries),
		ByDifficulty: make(map[Difficulty]*DifficultySummary),
		Results:      make([]EvalResult, 0, len(queries)),
	}

	for _, gq := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := r.now()
		res, err := r.searcher.Search(ctx, gq.Request())
		latency := r.now().Sub(start)

		if err != nil {
			logger.Warn().Err(err).Str("query_id", gq.ID).Msg("golden query search failed")
			summary.Failed++
			summary.Results = append(summary.Results, EvalResult{
				QueryID:    gq.ID,
				Query:      gq.Query,
				Difficulty: gq.Difficulty,
				Latency:    latency,
				Error:      err.Error(),
			})
			continue
		}

		r.record(summary, r.score(gq, res, latency))
	}

	r.finalize(summary)
	return summary, nil
}

func (r *Runner) score(gq GoldenQuery, res *services.SearchResult, latency time.Duration) EvalResult {
	result := EvalResult{
		QueryID:      gq.ID,
		Query:        gq.Query,
		Difficulty:   gq.Difficulty,
		RetrievedIDs: []int64{},
		CacheHit:     res.CacheHit,
		Latency:      latency,
	}

	bundle := res.Bundle
	if bundle == nil {
		return result
	}
	for _, rec := range bundle.Results {
		result.RetrievedIDs = append(result.RetrievedIDs, rec.ID)
	}
	result.ResultCount = bundle.TotalResults
	result.Fallback = bundle.Intent != nil && bundle.Intent.Explanation == services.FallbackExplanation
	result.Recall = RecallAtK(gq.ExpectedIDs, result.RetrievedIDs, r.k)
	result.MRR = MRRAtK(gq.ExpectedIDs, result.RetrievedIDs, r.k)
	return result
}

func (r *Runner) record(s *EvalSummary, res EvalResult) {
	s.Results = append(s.Results, res)
	s.Evaluated++
	s.AvgRecall += res.Recall
	s.AvgMRR += res.MRR
	s.AvgLatency += res.Latency
	if res.ResultCount > 0 {
		s.QueriesWithHits++
	}
	if res.Fallback {
		s.Fallbacks++
	}

	ds, ok := s.ByDifficulty[res.Difficulty]
	if !ok {
		ds = &DifficultySummary{}
		s.ByDifficulty[res.Difficulty] = ds
	}
	ds.Count++
	ds.AvgRecall += res.Recall
	ds.AvgMRR += res.MRR
}

func (r *Runner) finalize(s *EvalSummary) {
	if s.Evaluated > 0 {
		n := float64(s.Evaluated)
		s.AvgRecall /= n
		s.AvgMRR /= n
		s.AvgLatency /= time.Duration(s.Evaluated)
	}

	for _, ds := range s.ByDifficulty {
		if ds.Count > 0 {
			n := float64(ds.Count)
			ds.AvgRecall /= n
			ds.AvgMRR /= n
		}
	}
}
