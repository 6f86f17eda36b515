package entities

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Intent is the structured interpretation of a free-text query. It is either
// decoded from the language model's answer or built by a deterministic
// fallback; a search never proceeds without one.
type Intent struct {
	EnhancedQuery  string           `json:"enhancedQuery"`
	Keywords       []string         `json:"keywords"`
	Filters        SuggestedFilters `json:"filters"`
	Explanation    string           `json:"explanation"`
	RecommendedIDs RecordIDs        `json:"recommendations"`
}

// SuggestedFilters holds facet values the model thinks apply. A nil slice
// means the model made no suggestion for that facet.
type SuggestedFilters struct {
	Region  []string `json:"region"`
	City    []string `json:"ville"`
	Diploma []string `json:"diplome"`
}

// RecordIDs is an ordered list of record identifiers, highest confidence
// first. Models return these as numbers or numeric strings, so decoding
// accepts both and drops anything that is not an integer.
type RecordIDs []int64

// UnmarshalJSON implements json.Unmarshaler.
func (ids *RecordIDs) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*ids = nil
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(RecordIDs, 0, len(raw))
	for _, item := range raw {
		if id, ok := decodeID(item); ok {
			out = append(out, id)
		}
	}
	*ids = out
	return nil
}

// Set returns the identifiers as a membership set.
func (ids RecordIDs) Set() map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func decodeID(item json.RawMessage) (int64, bool) {
	var n json.Number
	if err := json.Unmarshal(item, &n); err == nil {
		if id, err := n.Int64(); err == nil {
			return id, true
		}
		return 0, false
	}

	var s string
	if err := json.Unmarshal(item, &s); err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
