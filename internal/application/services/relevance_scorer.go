package services

import (
	"regexp"
	"slices"
	"strings"

	"github.com/jpo-explorer/backend/internal/domain/entities"
)

// RelevanceScorer counts keyword matches across a fixed set of record fields.
type RelevanceScorer struct{}

// NewRelevanceScorer creates a new relevance scorer
func NewRelevanceScorer() *RelevanceScorer {
	return &RelevanceScorer{}
}

// scoredFields are inspected in this order; nil fields are skipped. The city
// name follows the five descriptive fields so that a place named in the query,
// as in "informatique Lyon", counts toward relevance.
func scoredFields(r *entities.Record) []*string {
	return []*string{
		r.Title,
		r.Institution,
		r.ComponentName,
		r.Outcomes,
		r.DiplomaName,
		r.City,
	}
}

// Score annotates every record with the number of (keyword, field) pairs
// that match, then stable-sorts by descending score. With no usable keywords
// the input order is kept and every score is zero.
func (s *RelevanceScorer) Score(records []*entities.Record, keywords []string) []entities.ScoredRecord {
	scored := make([]entities.ScoredRecord, len(records))
	for i, r := range records {
		scored[i] = entities.ScoredRecord{Record: *r}
	}

	matchers := compileKeywords(keywords)
	if len(matchers) == 0 {
		return scored
	}

	for i := range scored {
		fields := scoredFields(&scored[i].Record)
		for _, m := range matchers {
			for _, f := range fields {
				if f != nil && m.MatchString(*f) {
					scored[i].RelevanceScore++
				}
			}
		}
	}

	slices.SortStableFunc(scored, func(a, b entities.ScoredRecord) int {
		return b.RelevanceScore - a.RelevanceScore
	})
	return scored
}

// compileKeywords builds case-insensitive literal matchers, skipping blanks.
// Invalid UTF-8 in a keyword is replaced with U+FFFD.
func compileKeywords(keywords []string) []*regexp.Regexp {
	matchers := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(strings.ToValidUTF8(kw, "\uFFFD"))
		if kw == "" {
			continue
		}
		m, err := regexp.Compile("(?i)" + regexp.QuoteMeta(kw))
		if err != nil {
			continue
		}
		matchers = append(matchers, m)
	}
	return matchers
}

// MergeRecommendations moves records whose identifier is recommended ahead
// of the rest. It is a stable partition: each side keeps its incoming order,
// whatever order the identifiers were recommended in.
func MergeRecommendations(records []entities.ScoredRecord, recommended entities.RecordIDs) []entities.ScoredRecord {
	if len(recommended) == 0 {
		return records
	}

	set := recommended.Set()
	merged := make([]entities.ScoredRecord, 0, len(records))
	for _, r := range records {
		if _, ok := set[r.ID]; ok {
			merged = append(merged, r)
		}
	}
	for _, r := range records {
		if _, ok := set[r.ID]; !ok {
			merged = append(merged, r)
		}
	}
	return merged
}

// ApplyFacets keeps the records matching every constrained facet exactly.
// A record missing the faceted field never matches a concrete value.
func ApplyFacets(records []entities.ScoredRecord, facets entities.Facets) []entities.ScoredRecord {
	type predicate struct {
		want  string
		field func(*entities.Record) *string
	}
	predicates := []predicate{
		{facets.Region, func(r *entities.Record) *string { return r.Region }},
		{facets.DiplomaType, func(r *entities.Record) *string { return r.DiplomaName }},
		{facets.City, func(r *entities.Record) *string { return r.City }},
		{facets.Institution, func(r *entities.Record) *string { return r.Institution }},
	}

	active := predicates[:0]
	for _, p := range predicates {
		if entities.IsConstrained(p.want) {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return records
	}

	out := make([]entities.ScoredRecord, 0, len(records))
	for i := range records {
		keep := true
		for _, p := range active {
			v := p.field(&records[i].Record)
			if v == nil || *v != p.want {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, records[i])
		}
	}
	return out
}
