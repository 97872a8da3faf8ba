package scrape

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"github.com/iconidentify/reddex/internal/config"
)

// Scraper fetches HTML pages and extracts exact attribute values. Used by
// the video resolver for packaged-media manifests and by domain handlers
// for pre-embedded player metadata.
type Scraper struct {
	client    *http.Client
	userAgent string
}

// NewScraper creates a new page scraper. Scrape fetches are enrichment
// only, so they share the heavier resolve timeout.
func NewScraper(cfg config.UpstreamConfig) *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: cfg.ResolveTimeout,
		},
		userAgent: cfg.UserAgent,
	}
}

// MetaContent fetches pageURL and returns the content values of the meta
// tags with the given property or name attributes. A missing tag is simply
// absent from the result, not an error.
func (s *Scraper) MetaContent(ctx context.Context, pageURL string, names ...string) (map[string]string, error) {
	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	found := make(map[string]string, len(names))
	for _, name := range names {
		sel := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, name, name)
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			found[name] = content
		}
	}
	return found, nil
}

// ElementAttr fetches pageURL and returns the named attribute of the first
// element matching selector. An absent element or attribute yields "".
func (s *Scraper) ElementAttr(ctx context.Context, pageURL, selector, attr string) (string, error) {
	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	value, _ := doc.Find(selector).First().Attr(attr)
	return value, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}
