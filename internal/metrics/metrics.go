package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for operational visibility. Rate-limit hits in particular must
// be observable; everything else explains degraded output after the fact.
var (
	EmbedsCompiled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reddex_embeds_compiled_total",
		Help: "Embed documents compiled, by post hint.",
	}, []string{"hint"})

	UpstreamRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reddex_upstream_rate_limited_total",
		Help: "Primary fetches rejected upstream with HTTP 429.",
	})

	UpstreamSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reddex_upstream_suppressed_total",
		Help: "Primary fetches answered upstream with HTTP 403.",
	})

	DegradedEmbeds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reddex_degraded_embeds_total",
		Help: "Embeds served at reduced fidelity, by failed enrichment stage.",
	}, []string{"stage"})

	MediaResolves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reddex_media_resolves_total",
		Help: "Stable media handle dereferences, by outcome.",
	}, []string{"outcome"})

	ErrorEmbedsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reddex_error_embeds_served_total",
		Help: "Minimal valid embeds served in place of an error status.",
	})
)
