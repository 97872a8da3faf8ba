package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/reddex/internal/domain"
)

type fakeHandleResolver struct {
	url string
	err error
}

func (f *fakeHandleResolver) Resolve(ctx context.Context, token string) (string, error) {
	return f.url, f.err
}

func mediaRouter(h *MediaHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/v/{token}", h.Resolve)
	return r
}

func TestMediaResolve_RedirectsToLiveURL(t *testing.T) {
	h := NewMediaHandler(&fakeHandleResolver{url: "https://v.redd.it/abc123/DASH_720.mp4?sig=now"}, discardLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v/sometoken", nil)

	mediaRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "https://v.redd.it/abc123/DASH_720.mp4?sig=now" {
		t.Errorf("location = %q", loc)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "private, max-age=0" {
		t.Errorf("cache control = %q, redirect targets must not be cached", cc)
	}
}

func TestMediaResolve_FailureStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid token", err: domain.ErrInvalidToken, want: http.StatusNotFound},
		{name: "media gone", err: domain.ErrMediaNotFound, want: http.StatusNotFound},
		{name: "suppressed", err: domain.ErrSuppressed, want: http.StatusNotFound},
		{name: "timeout", err: domain.ErrUpstreamTimeout, want: http.StatusGatewayTimeout},
		{name: "rate limited", err: domain.ErrRateLimited, want: http.StatusTooManyRequests},
		{name: "anything else", err: errors.New("boom"), want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMediaHandler(&fakeHandleResolver{err: tt.err}, discardLogger())
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/v/sometoken", nil)

			mediaRouter(h).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestMediaResolve_RateLimitedCarriesRetryAfter(t *testing.T) {
	h := NewMediaHandler(&fakeHandleResolver{err: domain.ErrRateLimited}, discardLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v/sometoken", nil)

	mediaRouter(h).ServeHTTP(rec, req)
	if ra := rec.Header().Get("Retry-After"); ra != "30" {
		t.Errorf("retry-after = %q, want 30", ra)
	}
}

func TestHealth_Endpoints(t *testing.T) {
	h := NewHealthHandler("1.2.3")

	for _, probe := range []http.HandlerFunc{h.Live, h.Ready} {
		rec := httptest.NewRecorder()
		probe(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var body HealthResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Status != "ok" || body.Version != "1.2.3" {
			t.Errorf("body = %+v", body)
		}
	}
}
