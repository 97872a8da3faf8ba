package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iconidentify/reddex/internal/config"
)

const testPage = `<!DOCTYPE html>
<html>
<head>
<meta property="og:image" content="https://img.example/thumb.jpg"/>
<meta name="twitter:player" content="https://player.example/embed"/>
</head>
<body>
<shreddit-player packaged-media-json='{"playback_mp4s":{}}'></shreddit-player>
</body>
</html>`

func newTestScraper() *Scraper {
	return NewScraper(config.UpstreamConfig{
		ResolveTimeout: 5 * time.Second,
		UserAgent:      "test-agent",
	})
}

func servePage(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMetaContent(t *testing.T) {
	srv := servePage(t, testPage, http.StatusOK)
	s := newTestScraper()

	meta, err := s.MetaContent(context.Background(), srv.URL, "og:image", "twitter:player", "og:missing")
	if err != nil {
		t.Fatalf("MetaContent() error = %v", err)
	}
	if meta["og:image"] != "https://img.example/thumb.jpg" {
		t.Errorf("og:image = %q", meta["og:image"])
	}
	if meta["twitter:player"] != "https://player.example/embed" {
		t.Errorf("twitter:player = %q", meta["twitter:player"])
	}
	if _, ok := meta["og:missing"]; ok {
		t.Error("absent meta tag should be absent from the result")
	}
}

func TestElementAttr(t *testing.T) {
	srv := servePage(t, testPage, http.StatusOK)
	s := newTestScraper()

	value, err := s.ElementAttr(context.Background(), srv.URL, "shreddit-player", "packaged-media-json")
	if err != nil {
		t.Fatalf("ElementAttr() error = %v", err)
	}
	if value != `{"playback_mp4s":{}}` {
		t.Errorf("attr = %q", value)
	}
}

func TestElementAttr_AbsentElement(t *testing.T) {
	srv := servePage(t, testPage, http.StatusOK)
	s := newTestScraper()

	value, err := s.ElementAttr(context.Background(), srv.URL, "video-player", "src")
	if err != nil {
		t.Fatalf("ElementAttr() error = %v", err)
	}
	if value != "" {
		t.Errorf("attr = %q, want empty for an absent element", value)
	}
}

func TestFetch_NonOKStatus(t *testing.T) {
	srv := servePage(t, "", http.StatusForbidden)
	s := newTestScraper()

	if _, err := s.MetaContent(context.Background(), srv.URL, "og:image"); err == nil {
		t.Error("MetaContent() = nil error, want failure on non-200 status")
	}
}
