// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/datum-viz/datum/cmd/datum-api/handlers"
	"github.com/datum-viz/datum/cmd/datum-api/middleware"
	"github.com/datum-viz/datum/internal/config"
	"github.com/datum-viz/datum/internal/observability"
	"github.com/datum-viz/datum/internal/storage"
	"github.com/datum-viz/datum/pkg/engine"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, eng *engine.Engine, db storage.DB) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Server.ReadTimeout))

	// Health check (unauthenticated)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"datum-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ready"}`))
	})

	vizRepo := storage.NewVisualizationRepository(db)
	colRepo := storage.NewCollectionRepository(db)

	chartHandler := handlers.NewChartHandler(logger, eng)
	vizHandler := handlers.NewVisualizationHandler(logger, vizRepo, eng)
	colHandler := handlers.NewCollectionHandler(logger, colRepo, vizRepo)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Authentication middleware for all API routes
		r.Use(middleware.Auth(middleware.AuthConfig{
			Enabled: cfg.Auth.Enabled,
			Token:   cfg.Auth.Token,
		}))

		r.Get("/templates", chartHandler.Templates)

		// Stateless chart pipeline routes
		r.Route("/charts", func(r chi.Router) {
			r.Post("/parse", chartHandler.Parse)
			r.Post("/generate", chartHandler.Generate)
			r.Post("/validate", chartHandler.Validate)
		})

		// Stored visualization routes
		r.Route("/visualizations", func(r chi.Router) {
			r.Get("/", vizHandler.List)
			r.Post("/", vizHandler.Create)
			r.Get("/slug/{slug}", vizHandler.GetBySlug)
			r.Get("/{id}", vizHandler.Get)
			r.Put("/{id}", vizHandler.Update)
			r.Delete("/{id}", vizHandler.Delete)
			r.Post("/{id}/publish", vizHandler.Publish)
		})

		// Collection routes
		r.Route("/collections", func(r chi.Router) {
			r.Get("/", colHandler.List)
			r.Post("/", colHandler.Create)
			r.Get("/{id}", colHandler.Get)
			r.Delete("/{id}", colHandler.Delete)
			r.Get("/{id}/visualizations", colHandler.Visualizations)
		})
	})

	return r
}
