package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSConfig holds the allowed browser origins for the REST API.
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         int
	// AllowAll admits any origin; only used in development.
	AllowAll bool
}

// CORS returns the cross-origin middleware for the REST API.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	origins := cfg.AllowedOrigins
	if cfg.AllowAll && len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           cfg.MaxAge,
	})
}
