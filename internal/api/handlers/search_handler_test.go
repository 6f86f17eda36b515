package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jpo-explorer/backend/internal/api/handlers"
	"github.com/jpo-explorer/backend/internal/application/services"
	"github.com/jpo-explorer/backend/internal/domain/entities"
	apperrors "github.com/jpo-explorer/backend/pkg/errors"
)

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, req entities.SearchRequest) (*services.SearchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SearchResult), args.Error(1)
}

func postSearch(t *testing.T, h *handlers.SearchHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/enhanced-search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.EnhancedSearch(rec, req)
	return rec
}

func TestSearchHandler_ReturnsBundle(t *testing.T) {
	svc := new(MockSearchService)
	bundle := &entities.ResultBundle{
		Results: []entities.ScoredRecord{
			{Record: entities.Record{ID: 1, Title: entities.StringPtr("Licence Informatique")}, RelevanceScore: 2},
		},
		Intent: &entities.Intent{
			EnhancedQuery:  "informatique Lyon",
			Keywords:       []string{"informatique", "Lyon"},
			Explanation:    "ok",
			RecommendedIDs: entities.RecordIDs{1},
		},
		TotalResults: 1,
	}
	expected := entities.SearchRequest{
		Query:  "informatique Lyon",
		Facets: entities.Facets{Region: "Auvergne-Rhône-Alpes", City: "all"},
	}
	svc.On("Search", mock.Anything, expected).Return(&services.SearchResult{Bundle: bundle}, nil)

	rec := postSearch(t, handlers.NewSearchHandler(svc),
		`{"query":"informatique Lyon","facets":{"region":"Auvergne-Rhône-Alpes","city":"all"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 1, body["totalResults"])
	assert.NotContains(t, body, "message")

	results := body["results"].([]any)
	first := results[0].(map[string]any)
	assert.EqualValues(t, 1, first["id_jpo"])
	assert.EqualValues(t, 2, first["relevanceScore"])
	assert.Equal(t, "Licence Informatique", first["intitule"])

	intent := body["intent"].(map[string]any)
	assert.Equal(t, []any{float64(1)}, intent["recommendations"])
	svc.AssertExpectations(t)
}

func TestSearchHandler_LegacyFilters(t *testing.T) {
	svc := new(MockSearchService)
	expected := entities.SearchRequest{
		Query:  "droit",
		Facets: entities.Facets{Region: "all", City: "Paris", Institution: "all", DiplomaType: "Licence"},
	}
	svc.On("Search", mock.Anything, expected).
		Return(&services.SearchResult{Bundle: &entities.ResultBundle{Results: []entities.ScoredRecord{}}, CacheHit: true}, nil)

	rec := postSearch(t, handlers.NewSearchHandler(svc),
		`{"query":"droit","filters":{"regionFilter":"all","villeFilter":"Paris","etablissementFilter":"all","typeFilter":"Licence"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	svc.AssertExpectations(t)
}

func TestSearchHandler_EmptyBodyIsBlankQuery(t *testing.T) {
	svc := new(MockSearchService)
	svc.On("Search", mock.Anything, entities.SearchRequest{}).
		Return(&services.SearchResult{Bundle: &entities.ResultBundle{Results: []entities.ScoredRecord{}}}, nil)

	rec := postSearch(t, handlers.NewSearchHandler(svc), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestSearchHandler_EmptyStoreMessage(t *testing.T) {
	svc := new(MockSearchService)
	svc.On("Search", mock.Anything, mock.Anything).Return(&services.SearchResult{Bundle: &entities.ResultBundle{
		Results: []entities.ScoredRecord{},
		Message: services.NoRecordsMessage,
	}}, nil)

	rec := postSearch(t, handlers.NewSearchHandler(svc), `{"query":"droit"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[],"totalResults":0,"message":"`+services.NoRecordsMessage+`"}`, rec.Body.String())
}

func TestSearchHandler_InvalidJSON(t *testing.T) {
	svc := new(MockSearchService)

	rec := postSearch(t, handlers.NewSearchHandler(svc), `{"query":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid request body"}`, rec.Body.String())
	svc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestSearchHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "record store down",
			err:     apperrors.NewUpstreamError("record store", errors.New("dial tcp")),
			status:  http.StatusBadGateway,
			message: "record store unavailable",
		},
		{
			name:    "language model down",
			err:     apperrors.NewUpstreamError("language model", errors.New("503")),
			status:  http.StatusBadGateway,
			message: "language model unavailable",
		},
		{
			name:    "unexpected",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSearchService)
			svc.On("Search", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := postSearch(t, handlers.NewSearchHandler(svc), `{"query":"droit"}`)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["error"])
		})
	}
}
