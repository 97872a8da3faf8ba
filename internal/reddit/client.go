package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/iconidentify/reddex/internal/config"
	"github.com/iconidentify/reddex/internal/domain"
)

// Client fetches post threads from Reddit's JSON endpoints.
type Client struct {
	// fetchClient is used for ordinary post fetches with a short timeout.
	fetchClient *http.Client
	// resolveClient is used for media-handle refresh fetches, which are
	// heavier and get a longer timeout.
	resolveClient *http.Client
	baseURL       string
	userAgent     string
}

// NewClient creates a new Reddit client.
func NewClient(cfg config.UpstreamConfig) *Client {
	return &Client{
		fetchClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		resolveClient: &http.Client{
			Timeout: cfg.ResolveTimeout,
		},
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
	}
}

// BaseURL returns the configured upstream base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchThread retrieves a post and its inline comment forest.
func (c *Client) FetchThread(ctx context.Context, postID string) (*PostData, []CommentChild, error) {
	url := fmt.Sprintf("%s/comments/%s.json?raw_json=1", c.baseURL, postID)
	return c.fetchThread(ctx, c.fetchClient, url)
}

// RefreshPost re-fetches a post to obtain currently-valid media URLs.
// It uses the longer resolve timeout and discards the comment forest.
func (c *Client) RefreshPost(ctx context.Context, postID string) (*PostData, error) {
	url := fmt.Sprintf("%s/comments/%s.json?raw_json=1", c.baseURL, postID)
	post, _, err := c.fetchThread(ctx, c.resolveClient, url)
	return post, err
}

func (c *Client) fetchThread(ctx context.Context, client *http.Client, url string) (*PostData, []CommentChild, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	// Make the request look like a real browser to avoid blocks
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		if d := retryAfter(resp); d > 0 {
			return nil, nil, fmt.Errorf("retry after %s: %w", d, domain.ErrRateLimited)
		}
		return nil, nil, domain.ErrRateLimited
	}
	if err := mapStatus(resp.StatusCode); err != nil {
		return nil, nil, err
	}

	// The comments endpoint answers with a two-element array: the post
	// listing followed by the comment listing.
	var envelope []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, nil, fmt.Errorf("decode thread: %w", domain.ErrMalformedPayload)
	}
	if len(envelope) == 0 {
		return nil, nil, fmt.Errorf("empty thread envelope: %w", domain.ErrMalformedPayload)
	}

	var postListing Listing
	if err := json.Unmarshal(envelope[0], &postListing); err != nil {
		return nil, nil, fmt.Errorf("decode post listing: %w", domain.ErrMalformedPayload)
	}
	if len(postListing.Data.Children) == 0 {
		return nil, nil, fmt.Errorf("thread has no post: %w", domain.ErrMalformedPayload)
	}
	post := postListing.Data.Children[0].Data

	var comments []CommentChild
	if len(envelope) > 1 {
		var commentListing CommentListing
		// A broken comment listing degrades to no comments.
		if err := json.Unmarshal(envelope[1], &commentListing); err == nil {
			comments = commentListing.Data.Children
		}
	}

	return &post, comments, nil
}

// mapStatus converts an upstream HTTP status into a domain error.
func mapStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusForbidden:
		return domain.ErrSuppressed
	case code == http.StatusNotFound:
		return domain.ErrMediaNotFound
	case code == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case code >= 500:
		return fmt.Errorf("upstream status %d: %w", code, domain.ErrUpstreamUnavailable)
	default:
		return fmt.Errorf("unexpected upstream status %d", code)
	}
}

// mapTransportError distinguishes timeouts from other transport failures.
func mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%v: %w", err, domain.ErrUpstreamTimeout)
	}
	return fmt.Errorf("upstream request: %w", err)
}

// retryAfter reports a parsed Retry-After duration for 429 responses,
// capped so a hostile header cannot stall a worker.
func retryAfter(resp *http.Response) time.Duration {
	const maxWait = 30 * time.Second
	if resp == nil {
		return 0
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err != nil || seconds < 0 {
		return 0
	}
	d := time.Duration(seconds) * time.Second
	if d > maxWait {
		return maxWait
	}
	return d
}
