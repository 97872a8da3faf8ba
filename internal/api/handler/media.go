package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/reddex/internal/domain"
	"github.com/iconidentify/reddex/internal/metrics"
)

// HandleResolver dereferences a stable media token to a live URL.
type HandleResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// MediaHandler serves the stable media path /v/{token}.
type MediaHandler struct {
	registry HandleResolver
	logger   *slog.Logger
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(registry HandleResolver, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{
		registry: registry,
		logger:   logger,
	}
}

// Resolve handles GET /v/{token}: a fresh upstream lookup followed by a
// redirect. The redirect target is never cached here; the published token
// stays stable while the underlying URL keeps changing.
func (h *MediaHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		http.NotFound(w, r)
		return
	}

	liveURL, err := h.registry.Resolve(r.Context(), token)
	if err != nil {
		h.writeFailure(w, r, token, err)
		return
	}

	metrics.MediaResolves.WithLabelValues("ok").Inc()
	w.Header().Set("Cache-Control", "private, max-age=0")
	http.Redirect(w, r, liveURL, http.StatusFound)
}

func (h *MediaHandler) writeFailure(w http.ResponseWriter, r *http.Request, token string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		metrics.MediaResolves.WithLabelValues("invalid").Inc()
		http.NotFound(w, r)

	case errors.Is(err, domain.ErrMediaNotFound), errors.Is(err, domain.ErrSuppressed):
		metrics.MediaResolves.WithLabelValues("not_found").Inc()
		http.NotFound(w, r)

	case errors.Is(err, domain.ErrUpstreamTimeout):
		metrics.MediaResolves.WithLabelValues("timeout").Inc()
		http.Error(w, "upstream timed out", http.StatusGatewayTimeout)

	case errors.Is(err, domain.ErrRateLimited):
		metrics.MediaResolves.WithLabelValues("rate_limited").Inc()
		w.Header().Set("Retry-After", "30")
		http.Error(w, "rate limited by upstream", http.StatusTooManyRequests)

	default:
		metrics.MediaResolves.WithLabelValues("error").Inc()
		h.logger.Error("media resolve failed", "token", token, "error", err)
		http.Error(w, "media unavailable", http.StatusBadGateway)
	}
}
