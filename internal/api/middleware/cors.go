package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSMiddleware returns a handler wrapper allowing the browser client at
// allowedOrigins. An empty list allows any origin.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{"X-Cache", RequestIDHeader},
		MaxAge:         600,
	})
	return c.Handler
}
