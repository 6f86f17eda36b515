package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpo-explorer/backend/internal/domain/entities"
)

const modelJSON = `{
  "enhancedQuery": "licence informatique à Lyon",
  "keywords": ["informatique", "Lyon"],
  "filters": {"region": null, "ville": ["Lyon"], "diplome": ["Licence"]},
  "explanation": "Recherche d'une licence en informatique à Lyon.",
  "recommendations": [1, "7"]
}`

func TestParse_Strategies(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		strategy ParseStrategy
	}{
		{"bare json", modelJSON, StrategyBareJSON},
		{"bare json with whitespace", "\n  " + modelJSON + "\n", StrategyBareJSON},
		{"labeled fence", "Voici le résultat :\n```json\n" + modelJSON + "\n```\nBonne recherche !", StrategyFencedLabeled},
		{"labeled fence uppercase", "```JSON\n" + modelJSON + "```", StrategyFencedLabeled},
		{"unlabeled fence", "```\n" + modelJSON + "\n```", StrategyFencedUnlabeled},
		{"embedded object", "Analyse terminée. " + modelJSON + " Fin de l'analyse.", StrategyEmbeddedObject},
	}

	parser := NewResponseParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, strategy := parser.Parse(context.Background(), "informatique Lyon", tt.raw)

			assert.Equal(t, tt.strategy, strategy)
			require.NotNil(t, intent)
			assert.Equal(t, "licence informatique à Lyon", intent.EnhancedQuery)
			assert.Equal(t, []string{"informatique", "Lyon"}, intent.Keywords)
			assert.Nil(t, intent.Filters.Region)
			assert.Equal(t, []string{"Lyon"}, intent.Filters.City)
			assert.Equal(t, []string{"Licence"}, intent.Filters.Diploma)
			assert.Equal(t, entities.RecordIDs{1, 7}, intent.RecommendedIDs)
		})
	}
}

func TestParse_EmbeddedObjectWithNestedBracesAndStrings(t *testing.T) {
	raw := `Réponse: {"keywords": ["droit"], "explanation": "accolade } dans une chaîne", "filters": {"region": ["Bretagne"]}} merci`

	intent, strategy := NewResponseParser().Parse(context.Background(), "droit", raw)

	assert.Equal(t, StrategyEmbeddedObject, strategy)
	assert.Equal(t, []string{"droit"}, intent.Keywords)
	assert.Equal(t, "accolade } dans une chaîne", intent.Explanation)
	assert.Equal(t, []string{"Bretagne"}, intent.Filters.Region)
	assert.Equal(t, "droit", intent.EnhancedQuery)
	assert.Equal(t, entities.RecordIDs{}, intent.RecommendedIDs)
}

func TestParse_ProseFallsBack(t *testing.T) {
	query := "licence informatique à Lyon"
	intent, strategy := NewResponseParser().Parse(context.Background(), query,
		"Je ne peux pas répondre à cette question.")

	assert.Equal(t, StrategyFallback, strategy)
	assert.Equal(t, query, intent.EnhancedQuery)
	assert.Equal(t, []string{"licence", "informatique", "Lyon"}, intent.Keywords)
	assert.Equal(t, FallbackExplanation, intent.Explanation)
	assert.Empty(t, intent.RecommendedIDs)
	assert.Nil(t, intent.Filters.Region)
	assert.Nil(t, intent.Filters.City)
	assert.Nil(t, intent.Filters.Diploma)
}

func TestParse_EmptyAndMalformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "{not json", "```json\n{\"keywords\": \"droit\"}\n```", "[1, 2, 3]"} {
		intent, strategy := NewResponseParser().Parse(context.Background(), "droit des affaires", raw)
		assert.Equal(t, StrategyFallback, strategy, "raw=%q", raw)
		assert.Equal(t, []string{"droit", "affaires"}, intent.Keywords, "raw=%q", raw)
	}
}

func TestFallbackIntent_CountsRunesNotBytes(t *testing.T) {
	intent := FallbackIntent("été BTS arts île")
	assert.Equal(t, []string{"arts"}, intent.Keywords)
	assert.NotNil(t, intent.RecommendedIDs)
}

func TestEmbeddedObjects_SkipsUnbalanced(t *testing.T) {
	got := embeddedObjects(`{ oops {"a": 1} `)
	assert.Equal(t, []string{`{"a": 1}`}, got)
}
