package handler

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/reddex/internal/config"
	"github.com/iconidentify/reddex/internal/domain"
	"github.com/iconidentify/reddex/internal/metrics"
	"github.com/iconidentify/reddex/internal/service"
)

// EmbedHandler serves embed documents for post URLs.
type EmbedHandler struct {
	embedSvc     *service.EmbedService
	logger       *slog.Logger
	upstreamBase string
	cacheMaxAge  time.Duration

	// errorEmbedRate and randFloat drive the anti-cache-poisoning policy:
	// unexpected failures serve a minimal valid embed with this
	// probability so intermediate caches cannot pin an error page for a
	// post that recovers. randFloat is a field so tests can pin the draw.
	errorEmbedRate float64
	randFloat      func() float64
}

// NewEmbedHandler creates a new embed handler.
func NewEmbedHandler(embedSvc *service.EmbedService, cfg config.EmbedConfig, upstreamBase string, logger *slog.Logger) *EmbedHandler {
	return &EmbedHandler{
		embedSvc:       embedSvc,
		logger:         logger,
		upstreamBase:   strings.TrimSuffix(upstreamBase, "/"),
		cacheMaxAge:    cfg.CacheMaxAge,
		errorEmbedRate: cfg.ErrorEmbedRate,
		randFloat:      rand.Float64,
	}
}

// Thread handles GET /r/{subreddit}/comments/{postID} and its longer
// slug/comment variants.
func (h *EmbedHandler) Thread(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	if postID == "" {
		http.NotFound(w, r)
		return
	}
	commentID := chi.URLParam(r, "commentID")
	canonical := h.upstreamBase + r.URL.Path

	// The user agent only picks the response mode: crawlers get the meta
	// document, humans get sent to the real page.
	if !isBot(r.UserAgent()) {
		http.Redirect(w, r, canonical, http.StatusFound)
		return
	}

	result, err := h.embedSvc.BuildEmbed(r.Context(), postID, commentID)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	maxAge := int(h.cacheMaxAge.Seconds())
	if result.Degraded {
		// Reduced-fidelity output should age out quickly.
		maxAge = 300
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
	w.WriteHeader(http.StatusOK)
	w.Write(renderDocument(result.Directives, canonical))
}

// writeFailure maps pipeline failures onto responses. Failure pages are
// served with a short max-age so intermediate caches cannot hold them
// past the failure's real duration.
func (h *EmbedHandler) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSuppressed):
		// Deliberately silent: a blank success with nothing to unfurl.
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=300")
		w.WriteHeader(http.StatusOK)
		w.Write(renderDocument(nil, h.upstreamBase))

	case errors.Is(err, domain.ErrRateLimited):
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Retry-After", "30")
		http.Error(w, "rate limited by upstream, try again shortly", http.StatusTooManyRequests)

	case errors.Is(err, domain.ErrUpstreamTimeout):
		w.Header().Set("Cache-Control", "public, max-age=60")
		http.Error(w, "upstream timed out", http.StatusGatewayTimeout)

	default:
		if h.randFloat() < h.errorEmbedRate {
			// Serve a minimal but valid embed: if a cache keeps this
			// response, readers still see something sensible.
			metrics.ErrorEmbedsServed.Inc()
			var minimal domain.Directives
			minimal = minimal.Add(domain.PropTitle, "Reddit post")
			minimal = minimal.Add(domain.PropSiteName, "reddex")
			minimal = minimal.Add(domain.PropCard, "summary")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("Cache-Control", "public, max-age=60")
			w.WriteHeader(http.StatusOK)
			w.Write(renderDocument(minimal, h.upstreamBase))
			return
		}
		h.logger.Error("embed failed", "error", err)
		w.Header().Set("Cache-Control", "public, max-age=60")
		http.Error(w, "embed unavailable", http.StatusInternalServerError)
	}
}

// botMarkers identifies embed crawlers by user agent substring.
var botMarkers = []string{
	"discordbot",
	"telegrambot",
	"twitterbot",
	"slackbot",
	"whatsapp",
	"facebookexternalhit",
	"linkedinbot",
	"embedly",
}

// isBot reports whether the user agent belongs to an embed crawler.
func isBot(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, marker := range botMarkers {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

// twitterNames maps Open Graph properties to their Twitter Card
// counterparts. The core emits og: names once; duplication happens here.
var twitterNames = map[string]string{
	domain.PropTitle:       "twitter:title",
	domain.PropDescription: "twitter:description",
	domain.PropImage:       "twitter:image",
	domain.PropVideo:       "twitter:player",
	domain.PropVideoWidth:  "twitter:player:width",
	domain.PropVideoHeight: "twitter:player:height",
}

// renderDocument serializes directives into a document head. Properties in
// the og: family are written with a property attribute, everything else
// with a name attribute.
func renderDocument(directives domain.Directives, canonical string) []byte {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\"/>\n")

	if title, ok := directives.Find(domain.PropTitle); ok {
		fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	}
	fmt.Fprintf(&b, "<link rel=\"canonical\" href=\"%s\"/>\n", html.EscapeString(canonical))

	for _, d := range directives {
		content := html.EscapeString(d.Content)
		if strings.HasPrefix(d.Property, "og:") {
			fmt.Fprintf(&b, "<meta property=\"%s\" content=\"%s\"/>\n", d.Property, content)
			if twin, ok := twitterNames[d.Property]; ok {
				fmt.Fprintf(&b, "<meta name=\"%s\" content=\"%s\"/>\n", twin, content)
			}
		} else {
			fmt.Fprintf(&b, "<meta name=\"%s\" content=\"%s\"/>\n", d.Property, content)
		}
	}

	b.WriteString("</head>\n<body></body>\n</html>\n")
	return []byte(b.String())
}
