package handlers

import (
	"context"
	"net/http"

	"github.com/jpo-explorer/backend/internal/domain/entities"
	"github.com/jpo-explorer/backend/internal/infrastructure/observability"
)

// RecordCatalog exposes the raw record collection and its facet values.
type RecordCatalog interface {
	Records(ctx context.Context) ([]*entities.Record, error)
	FacetOptions(ctx context.Context) (*entities.FacetOptions, error)
}

// RecordsHandler serves the unranked record listing and facet options
type RecordsHandler struct {
	catalog RecordCatalog
}

// NewRecordsHandler creates a new records handler
func NewRecordsHandler(catalog RecordCatalog) *RecordsHandler {
	return &RecordsHandler{catalog: catalog}
}

// ListRecords handles GET /api/data
func (h *RecordsHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.catalog.Records(r.Context())
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("failed to list records")
		respondWithError(w, http.StatusInternalServerError, "failed to load open days")
		return
	}
	if records == nil {
		records = []*entities.Record{}
	}
	respondWithJSON(w, http.StatusOK, records)
}

// GetFilters handles GET /api/filters
func (h *RecordsHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	options, err := h.catalog.FacetOptions(r.Context())
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("failed to load facet options")
		respondWithError(w, http.StatusInternalServerError, "failed to load filters")
		return
	}
	respondWithJSON(w, http.StatusOK, options)
}
