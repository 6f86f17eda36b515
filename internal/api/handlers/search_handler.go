package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jpo-explorer/backend/internal/application/services"
	"github.com/jpo-explorer/backend/internal/domain/entities"
	"github.com/jpo-explorer/backend/internal/infrastructure/observability"
)

const maxSearchBody = 64 << 10

// SearchService is what the search handler needs from the orchestrator.
type SearchService interface {
	Search(ctx context.Context, req entities.SearchRequest) (*services.SearchResult, error)
}

// SearchHandler handles enhanced-search requests
type SearchHandler struct {
	service SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(service SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// searchRequest is the request body. Filters is the shape older browser
// clients send; Facets wins when both are present.
type searchRequest struct {
	Query   string           `json:"query"`
	Facets  *entities.Facets `json:"facets"`
	Filters *legacyFilters   `json:"filters"`
}

type legacyFilters struct {
	Region      string `json:"regionFilter"`
	City        string `json:"villeFilter"`
	Institution string `json:"etablissementFilter"`
	DiplomaType string `json:"typeFilter"`
}

func (r searchRequest) toDomain() entities.SearchRequest {
	req := entities.SearchRequest{Query: r.Query}
	switch {
	case r.Facets != nil:
		req.Facets = *r.Facets
	case r.Filters != nil:
		req.Facets = entities.Facets{
			Region:      r.Filters.Region,
			City:        r.Filters.City,
			Institution: r.Filters.Institution,
			DiplomaType: r.Filters.DiplomaType,
		}
	}
	return req
}

// EnhancedSearch handles POST /api/enhanced-search
func (h *SearchHandler) EnhancedSearch(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxSearchBody))
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Search(r.Context(), body.toDomain())
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("query", body.Query).Msg("enhanced search failed")
		respondWithAppError(w, err)
		return
	}

	if result.CacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	respondWithJSON(w, http.StatusOK, result.Bundle)
}
