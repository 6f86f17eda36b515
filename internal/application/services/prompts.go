package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jpo-explorer/backend/internal/domain/entities"
)

const intentSystemPrompt = `You help students find French higher-education open days (journées portes ouvertes).
For the user's query:
1. Extract the relevant keywords (trainings, disciplines, fields of study), keeping the user's language.
2. Detect geographic constraints (cities, regions) and the kind of diploma sought.
3. Recommend the open days that best match, using their id_jpo identifiers.

Answer ONLY with a JSON object of this exact shape:
{
  "enhancedQuery": string,
  "keywords": string[],
  "filters": {
    "region": string[] | null,
    "ville": string[] | null,
    "diplome": string[] | null
  },
  "explanation": string,
  "recommendations": number[]
}
"enhancedQuery" is the query reworded and enriched. "explanation" is one or two short sentences describing how the query was understood. "recommendations" lists id_jpo values, most relevant first.`

func buildIntentUserPrompt(query string, sample []*entities.Record, total int) (string, error) {
	data, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode record sample: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User query: %q\n\n", query)
	fmt.Fprintf(&b, "Available data (sample of %d records):\n%s\n\n", len(sample), data)
	fmt.Fprintf(&b, "The full data set contains %d records.\n", total)
	b.WriteString("Analyse the query and suggest the most relevant records. Return ONLY a valid JSON object, with no other text.")
	return b.String(), nil
}
