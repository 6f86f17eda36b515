package services

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jpo-explorer/backend/internal/domain/entities"
	"github.com/jpo-explorer/backend/internal/infrastructure/observability"
)

// FallbackExplanation is the explanation carried by every fallback Intent.
const FallbackExplanation = "Query analysis could not be performed."

// ParseStrategy names one way of locating a JSON object in model output.
type ParseStrategy string

const (
	StrategyBareJSON        ParseStrategy = "bare_json"
	StrategyFencedLabeled   ParseStrategy = "fenced_labeled"
	StrategyFencedUnlabeled ParseStrategy = "fenced_unlabeled"
	StrategyEmbeddedObject  ParseStrategy = "embedded_object"
	StrategyFallback        ParseStrategy = "fallback"
)

var (
	labeledFence   = regexp.MustCompile("(?is)```json[ \\t]*\\r?\\n?(.*?)```")
	unlabeledFence = regexp.MustCompile("(?s)```[ \\t]*\\r?\\n?(.*?)```")

	errNoCandidate = errors.New("no candidate found")
	errNotObject   = errors.New("candidate is not a JSON object")
)

type strategy struct {
	name    ParseStrategy
	extract func(raw string) []string
}

// strategies are tried in order; the first candidate that decodes wins.
var strategies = []strategy{
	{StrategyBareJSON, func(raw string) []string { return []string{raw} }},
	{StrategyFencedLabeled, fenced(labeledFence)},
	{StrategyFencedUnlabeled, fenced(unlabeledFence)},
	{StrategyEmbeddedObject, embeddedObjects},
}

func fenced(re *regexp.Regexp) func(string) []string {
	return func(raw string) []string {
		var out []string
		for _, m := range re.FindAllStringSubmatch(raw, -1) {
			out = append(out, m[1])
		}
		return out
	}
}

// embeddedObjects returns balanced {...} spans, starting from each opening
// brace in turn. String literals are honoured so braces inside them do not
// count.
func embeddedObjects(raw string) []string {
	var out []string
	for start := strings.IndexByte(raw, '{'); start >= 0; {
		if end := matchBrace(raw, start); end > start {
			out = append(out, raw[start:end+1])
		}
		next := strings.IndexByte(raw[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return out
}

func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ResponseParser turns raw model output into an Intent. It never fails: when
// no strategy yields a usable object it returns FallbackIntent.
type ResponseParser struct{}

// NewResponseParser creates a new response parser
func NewResponseParser() *ResponseParser {
	return &ResponseParser{}
}

// Parse returns the decoded Intent and the strategy that produced it.
func (p *ResponseParser) Parse(ctx context.Context, query, raw string) (*entities.Intent, ParseStrategy) {
	logger := observability.LoggerFromContext(ctx)

	if strings.TrimSpace(raw) == "" {
		logger.Warn().Str("query", query).Msg("language model returned no content, using fallback intent")
		return FallbackIntent(query), StrategyFallback
	}

	var failures []string
	for _, s := range strategies {
		candidates := s.extract(raw)
		if len(candidates) == 0 {
			failures = append(failures, string(s.name)+": "+errNoCandidate.Error())
			continue
		}
		for _, candidate := range candidates {
			intent, err := decodeIntent(candidate)
			if err == nil {
				normalizeIntent(intent, query)
				return intent, s.name
			}
			failures = append(failures, string(s.name)+": "+err.Error())
		}
	}

	logger.Warn().
		Str("query", query).
		Strs("failures", failures).
		Str("raw", raw).
		Msg("could not parse language model response, using fallback intent")
	return FallbackIntent(query), StrategyFallback
}

func decodeIntent(candidate string) (*entities.Intent, error) {
	trimmed := strings.TrimSpace(candidate)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, errNotObject
	}
	var intent entities.Intent
	if err := json.Unmarshal([]byte(trimmed), &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

func normalizeIntent(intent *entities.Intent, query string) {
	if intent.EnhancedQuery == "" {
		intent.EnhancedQuery = query
	}
	if intent.Keywords == nil {
		intent.Keywords = []string{}
	}
	if intent.RecommendedIDs == nil {
		intent.RecommendedIDs = entities.RecordIDs{}
	}
}

// FallbackIntent is the deterministic Intent used when the model's answer is
// unusable: the query's own tokens longer than three characters become the
// keywords.
func FallbackIntent(query string) *entities.Intent {
	keywords := []string{}
	for _, token := range strings.Fields(query) {
		if utf8.RuneCountInString(token) > 3 {
			keywords = append(keywords, token)
		}
	}
	return &entities.Intent{
		EnhancedQuery:  query,
		Keywords:       keywords,
		Explanation:    FallbackExplanation,
		RecommendedIDs: entities.RecordIDs{},
	}
}
