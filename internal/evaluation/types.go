package evaluation

import (
	"time"

	"github.com/jpo-explorer/backend/internal/domain/entities"
)

// Difficulty buckets golden queries for reporting.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"   // e.g., "licence droit paris"
	DifficultyMedium Difficulty = "medium" // e.g., "études de sécurité informatique"
	DifficultyHard   Difficulty = "hard"   // e.g., "je veux construire des avions"
)

// IsValid checks if the difficulty is one of the defined constants.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// GoldenQuery is a labeled search with the open days a good ranking should
// put near the top.
type GoldenQuery struct {
	ID          string          `json:"id"`
	Query       string          `json:"query"`
	Facets      entities.Facets `json:"facets"`
	ExpectedIDs []int64         `json:"expected_ids"`
	Difficulty  Difficulty      `json:"difficulty"`
}

// Request converts the golden query into a search request.
func (q GoldenQuery) Request() entities.SearchRequest {
	return entities.SearchRequest{Query: q.Query, Facets: q.Facets}
}

// EvalResult holds the outcome for a single query.
type EvalResult struct {
	QueryID      string        `json:"query_id"`
	Query        string        `json:"query"`
	Difficulty   Difficulty    `json:"difficulty"`
	Recall       float64       `json:"recall"`
	MRR          float64       `json:"mrr"`
	ResultCount  int           `json:"result_count"`
	RetrievedIDs []int64       `json:"retrieved_ids"`
	Fallback     bool          `json:"fallback"`
	CacheHit     bool          `json:"cache_hit"`
	Latency      time.Duration `json:"latency_ns"`
	Error        string        `json:"error,omitempty"`
}

// EvalSummary aggregates metrics across a golden set. Averages only cover
// queries whose search succeeded.
type EvalSummary struct {
	K               int                               `json:"k"`
	TotalQueries    int                               `json:"total_queries"`
	Evaluated       int                               `json:"evaluated"`
	Failed          int                               `json:"failed"`
	AvgRecall       float64                           `json:"avg_recall"`
	AvgMRR          float64                           `json:"avg_mrr"`
	AvgLatency      time.Duration                     `json:"avg_latency_ns"`
	QueriesWithHits int                               `json:"queries_with_hits"`
	Fallbacks       int                               `json:"fallbacks"`
	ByDifficulty    map[Difficulty]*DifficultySummary `json:"by_difficulty"`
	Results         []EvalResult                      `json:"results"`
}

// DifficultySummary holds metrics grouped by difficulty.
type DifficultySummary struct {
	Count     int     `json:"count"`
	AvgRecall float64 `json:"avg_recall"`
	AvgMRR    float64 `json:"avg_mrr"`
}
