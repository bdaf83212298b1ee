/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for admin frontends

ROUTE GROUPS:
  /api/units/*       Unit registration and lookup
  /api/convert       Value conversion
  /api/conversions   Conversion log
  /api/catalogs/*    Preset unit sets

SECURITY NOTE:
  No authentication middleware. Authentication and tenant scoping are
  the embedding system's responsibility.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Unit routes
		r.Route("/units", func(r chi.Router) {
			r.Get("/", h.ListUnits)
			r.Post("/", h.CreateUnit)
			r.Get("/base/{type}", h.GetBaseUnit)
			r.Get("/{id}", h.GetUnit)
			r.Patch("/{id}", h.UpdateUnit)
			r.Delete("/{id}", h.DeleteUnit)
		})

		// Conversion routes
		r.Post("/convert", h.Convert)
		r.Get("/conversions", h.ListConversions)

		// Catalog routes
		r.Route("/catalogs", func(r chi.Router) {
			r.Get("/", h.ListCatalogs)
			r.Post("/load", h.LoadCatalog)
		})
	})

	// Landing page: a minimal endpoint index.
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Measure Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Measure Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/units">/api/units</a> - List units</li>
<li><a href="/api/conversions">/api/conversions</a> - Conversion log</li>
<li><a href="/api/catalogs">/api/catalogs</a> - Preset unit sets</li>
</ul>
</body>
</html>`))
	})

	return r
}
