package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iconidentify/reddex/internal/api/handler"
	mw "github.com/iconidentify/reddex/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	embedHandler *handler.EmbedHandler,
	mediaHandler *handler.MediaHandler,
	healthHandler *handler.HealthHandler,
	eventHandler *handler.EventHandler,
	apiKey string,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(15 * time.Second))

	// Health endpoints (no auth)
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// Stable media path: published in embeds, dereferenced forever.
	r.Get("/v/{token}", mediaHandler.Resolve)

	// Post thread URLs in every shape Reddit links them.
	r.Get("/comments/{postID}", embedHandler.Thread)
	r.Get("/r/{subreddit}/comments/{postID}", embedHandler.Thread)
	r.Get("/r/{subreddit}/comments/{postID}/{slug}", embedHandler.Thread)
	r.Get("/r/{subreddit}/comments/{postID}/{slug}/{commentID}", embedHandler.Thread)

	// Operational API (authenticated)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(apiKey))

		r.Get("/events", eventHandler.List)
		r.Get("/events/stats", eventHandler.Stats)
	})

	return r
}
