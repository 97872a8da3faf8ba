package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iconidentify/reddex/internal/config"
)

// StreamAPI resolves video ids into direct stream URLs through an external
// embed-resolution endpoint.
type StreamAPI struct {
	client   *http.Client
	endpoint string
}

// NewStreamAPI creates a new stream resolution client. Resolution calls
// are enrichment, so they share the heavier resolve timeout.
func NewStreamAPI(cfg config.UpstreamConfig) *StreamAPI {
	return &StreamAPI{
		client: &http.Client{
			Timeout: cfg.ResolveTimeout,
		},
		endpoint: cfg.StreamResolverURL,
	}
}

// streamResponse is the resolver's JSON shape. Width and height arrive as
// numeric-looking strings.
type streamResponse struct {
	URL       string `json:"url"`
	Width     string `json:"width"`
	Height    string `json:"height"`
	Thumbnail string `json:"thumbnail_url"`
	Error     string `json:"error"`
}

// ResolveStream fetches a direct stream for a video id. An error field in
// the response body counts as failure; callers fall back to a
// thumbnail-only card.
func (a *StreamAPI) ResolveStream(ctx context.Context, videoID string) (*StreamInfo, error) {
	reqURL := fmt.Sprintf("%s?id=%s", a.endpoint, url.QueryEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver status %d", resp.StatusCode)
	}

	var body streamResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("resolver error: %s", body.Error)
	}
	if body.URL == "" {
		return nil, fmt.Errorf("resolver returned no stream URL")
	}

	info := &StreamInfo{
		URL:       body.URL,
		Thumbnail: body.Thumbnail,
	}
	// Dimensions are best-effort; unparseable values stay zero.
	if w, err := strconv.Atoi(body.Width); err == nil {
		info.Width = w
	}
	if h, err := strconv.Atoi(body.Height); err == nil {
		info.Height = h
	}
	return info, nil
}
