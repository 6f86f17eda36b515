package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadGoldenQueries reads and parses a golden query set from a JSON file.
func LoadGoldenQueries(path string) ([]GoldenQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden queries file: %w", err)
	}

	var queries []GoldenQuery
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("failed to parse golden queries: %w", err)
	}

	return queries, nil
}

// ValidateGoldenQueries checks that all golden queries have required fields and valid values.
func ValidateGoldenQueries(queries []GoldenQuery) error {
	seen := make(map[string]struct{}, len(queries))

	for i, q := range queries {
		if q.ID == "" {
			return fmt.Errorf("query at index %d: missing id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("query at index %d: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = struct{}{}

		if q.Query == "" && !q.Facets.Any() {
			return fmt.Errorf("query %q: needs query text or a facet", q.ID)
		}
		if len(q.ExpectedIDs) == 0 {
			return fmt.Errorf("query %q: no expected_ids", q.ID)
		}
		ids := make(map[int64]struct{}, len(q.ExpectedIDs))
		for _, id := range q.ExpectedIDs {
			if _, dup := ids[id]; dup {
				return fmt.Errorf("query %q: expected id %d listed twice", q.ID, id)
			}
			ids[id] = struct{}{}
		}
		if !q.Difficulty.IsValid() {
			return fmt.Errorf("query %q: invalid difficulty %q (must be easy/medium/hard)", q.ID, q.Difficulty)
		}
	}

	return nil
}
