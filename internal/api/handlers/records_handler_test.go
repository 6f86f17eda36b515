package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jpo-explorer/backend/internal/api/handlers"
	"github.com/jpo-explorer/backend/internal/domain/entities"
)

type MockRecordCatalog struct {
	mock.Mock
}

func (m *MockRecordCatalog) Records(ctx context.Context) ([]*entities.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Record), args.Error(1)
}

func (m *MockRecordCatalog) FacetOptions(ctx context.Context) (*entities.FacetOptions, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.FacetOptions), args.Error(1)
}

func TestRecordsHandler_ListRecords(t *testing.T) {
	catalog := new(MockRecordCatalog)
	catalog.On("Records", mock.Anything).Return([]*entities.Record{
		{ID: 7},
	}, nil)

	rec := httptest.NewRecorder()
	handlers.NewRecordsHandler(catalog).ListRecords(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id_jpo":7`)
	assert.Contains(t, rec.Body.String(), `"nom_ville":null`)
}

func TestRecordsHandler_ListRecordsEmpty(t *testing.T) {
	catalog := new(MockRecordCatalog)
	catalog.On("Records", mock.Anything).Return(nil, nil)

	rec := httptest.NewRecorder()
	handlers.NewRecordsHandler(catalog).ListRecords(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRecordsHandler_ListRecordsFailure(t *testing.T) {
	catalog := new(MockRecordCatalog)
	catalog.On("Records", mock.Anything).Return(nil, errors.New("down"))

	rec := httptest.NewRecorder()
	handlers.NewRecordsHandler(catalog).ListRecords(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to load open days"}`, rec.Body.String())
}

func TestRecordsHandler_GetFilters(t *testing.T) {
	catalog := new(MockRecordCatalog)
	catalog.On("FacetOptions", mock.Anything).Return(&entities.FacetOptions{
		Regions:      []string{"Bretagne"},
		Cities:       []string{"Rennes"},
		Institutions: []string{"Université de Rennes"},
		Diplomas:     []string{"Master"},
	}, nil)

	rec := httptest.NewRecorder()
	handlers.NewRecordsHandler(catalog).GetFilters(rec, httptest.NewRequest(http.MethodGet, "/api/filters", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"regions":["Bretagne"],"villes":["Rennes"],"etablissements":["Université de Rennes"],"diplomes":["Master"]}`, rec.Body.String())
}

func TestRecordsHandler_GetFiltersFailure(t *testing.T) {
	catalog := new(MockRecordCatalog)
	catalog.On("FacetOptions", mock.Anything).Return(nil, errors.New("down"))

	rec := httptest.NewRecorder()
	handlers.NewRecordsHandler(catalog).GetFilters(rec, httptest.NewRequest(http.MethodGet, "/api/filters", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
