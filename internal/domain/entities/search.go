package entities

import (
	"strings"
	"time"
)

// FacetAll is the sentinel value meaning "no constraint" for a facet.
const FacetAll = "all"

// Facets are the caller-supplied exact-match constraints. An empty value
// is treated the same as FacetAll.
type Facets struct {
	Region      string `json:"region"`
	City        string `json:"city"`
	Institution string `json:"institution"`
	DiplomaType string `json:"diplomaType"`
}

// IsConstrained reports whether value narrows the result set.
func IsConstrained(value string) bool {
	return value != "" && value != FacetAll
}

// Any reports whether at least one facet is constrained.
func (f Facets) Any() bool {
	return IsConstrained(f.Region) || IsConstrained(f.City) ||
		IsConstrained(f.Institution) || IsConstrained(f.DiplomaType)
}

// Canonical returns a copy where unconstrained facets all read FacetAll, so
// that equivalent requests share one cache fingerprint.
func (f Facets) Canonical() Facets {
	canon := func(v string) string {
		if IsConstrained(v) {
			return v
		}
		return FacetAll
	}
	return Facets{
		Region:      canon(f.Region),
		City:        canon(f.City),
		Institution: canon(f.Institution),
		DiplomaType: canon(f.DiplomaType),
	}
}

// SearchRequest is a free-text query plus optional facets.
type SearchRequest struct {
	Query  string `json:"query"`
	Facets Facets `json:"facets"`
}

// HasQuery reports whether the free-text part carries any terms.
func (r SearchRequest) HasQuery() bool {
	return strings.TrimSpace(r.Query) != ""
}

// ResultBundle is the outcome of one search: the ranked records, the Intent
// that ranked them and the final count.
type ResultBundle struct {
	Results      []ScoredRecord `json:"results"`
	Intent       *Intent        `json:"intent,omitempty"`
	TotalResults int            `json:"totalResults"`
	Message      string         `json:"message,omitempty"`
}

// CacheEntry is a cached bundle stamped with its creation time.
type CacheEntry struct {
	CreatedAt time.Time     `json:"createdAt"`
	Bundle    *ResultBundle `json:"bundle"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) < ttl
}
