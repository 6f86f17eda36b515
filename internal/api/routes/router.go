package routes

import (
	"net/http"

	"github.com/jpo-explorer/backend/internal/api/handlers"
	"github.com/jpo-explorer/backend/internal/api/middleware"
	"github.com/jpo-explorer/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	searchHandler  *handlers.SearchHandler
	recordsHandler *handlers.RecordsHandler
	embedHandler   *handlers.EmbedHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	searchHandler *handlers.SearchHandler,
	recordsHandler *handlers.RecordsHandler,
	embedHandler *handlers.EmbedHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		searchHandler:  searchHandler,
		recordsHandler: recordsHandler,
		embedHandler:   embedHandler,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Open-day records
	r.mux.HandleFunc("GET /api/data", r.recordsHandler.ListRecords)
	r.mux.HandleFunc("GET /api/filters", r.recordsHandler.GetFilters)

	// Search
	r.mux.HandleFunc("POST /api/enhanced-search", r.searchHandler.EnhancedSearch)

	if r.embedHandler != nil {
		r.mux.HandleFunc("POST /api/embed", r.embedHandler.Embed)
	}

	// Last wrap is outermost. CORS sits outside everything so error
	// responses carry its headers too.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CacheControl(handler)
	handler = middleware.Compression(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
