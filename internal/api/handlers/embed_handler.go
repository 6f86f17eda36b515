package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/jpo-explorer/backend/internal/domain/providers"
	"github.com/jpo-explorer/backend/internal/infrastructure/observability"
)

const maxEmbedBody = 256 << 10

// EmbedHandler exposes the configured embedding model. It is not used for
// ranking.
type EmbedHandler struct {
	embedder providers.Embedder
}

// NewEmbedHandler creates a new embed handler. embedder may be nil.
func NewEmbedHandler(embedder providers.Embedder) *EmbedHandler {
	return &EmbedHandler{embedder: embedder}
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed handles POST /api/embed
func (h *EmbedHandler) Embed(w http.ResponseWriter, r *http.Request) {
	var req embedRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEmbedBody)).Decode(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		respondWithError(w, http.StatusBadRequest, "text is required")
		return
	}

	if h.embedder == nil {
		respondWithError(w, http.StatusServiceUnavailable, "embeddings are not configured")
		return
	}

	vector, err := h.embedder.EmbedText(r.Context(), req.Text)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("embedding request failed")
		respondWithError(w, http.StatusBadGateway, "embedding service unavailable")
		return
	}
	respondWithJSON(w, http.StatusOK, embedResponse{Embedding: vector})
}
