package routes_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpo-explorer/backend/internal/adapters/cache"
	"github.com/jpo-explorer/backend/internal/api/handlers"
	"github.com/jpo-explorer/backend/internal/api/routes"
	"github.com/jpo-explorer/backend/internal/application/services"
	"github.com/jpo-explorer/backend/internal/domain/entities"
	"github.com/jpo-explorer/backend/internal/infrastructure/clients/llm"
)

type memoryRecords struct {
	records []*entities.Record
}

func (m *memoryRecords) ListAll(context.Context) ([]*entities.Record, error) {
	return m.records, nil
}

func (m *memoryRecords) FacetOptions(context.Context) (*entities.FacetOptions, error) {
	return &entities.FacetOptions{
		Regions:      []string{"Auvergne-Rhône-Alpes", "Île-de-France"},
		Cities:       []string{"Lyon", "Paris"},
		Institutions: []string{},
		Diplomas:     []string{"Licence"},
	}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := &memoryRecords{records: []*entities.Record{
		{ID: 1, Title: entities.StringPtr("Licence Informatique"), City: entities.StringPtr("Lyon")},
		{ID: 2, Title: entities.StringPtr("Licence Droit"), City: entities.StringPtr("Paris")},
	}}
	resultCache, err := cache.NewResultCache(16, time.Hour)
	require.NoError(t, err)

	extractor := services.NewIntentExtractor(llm.NewOffline(), services.DefaultIntentExtractorConfig())
	search := services.NewSearchService(store, extractor, resultCache)

	router := routes.NewRouter(
		handlers.NewSearchHandler(search),
		handlers.NewRecordsHandler(search),
		nil,
		nil,
		nil,
	)
	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return server
}

func TestRouter_Health(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRouter_EnhancedSearchCachesResults(t *testing.T) {
	server := newTestServer(t)
	body := `{"query":"informatique Lyon","facets":{"region":"all","city":"all","institution":"all","diplomaType":"all"}}`

	search := func() (*http.Response, entities.ResultBundle) {
		resp, err := http.Post(server.URL+"/api/enhanced-search", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		var bundle entities.ResultBundle
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&bundle))
		return resp, bundle
	}

	resp, first := search()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Equal(t, 2, first.TotalResults)
	assert.Equal(t, int64(1), first.Results[0].ID)
	assert.Equal(t, 2, first.Results[0].RelevanceScore)
	assert.Equal(t, services.FallbackExplanation, first.Intent.Explanation)

	resp, second := search()
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, first, second)
}

func TestRouter_MethodAndPathMatching(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/enhanced-search")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(server.URL+"/api/embed", "application/json", strings.NewReader(`{"text":"x"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_Filters(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/filters")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var options entities.FacetOptions
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&options))
	assert.Equal(t, []string{"Lyon", "Paris"}, options.Cities)
}
