package domain

import "errors"

// Domain errors.
var (
	// ErrMalformedPayload is returned when the upstream payload is missing
	// required structural fields or exceeds the crosspost depth ceiling.
	ErrMalformedPayload = errors.New("malformed upstream payload")

	// ErrNoPlayableVariant is returned when a hosted-video post publishes
	// no variants at all.
	ErrNoPlayableVariant = errors.New("no playable video variant")

	// ErrUpstreamTimeout is returned when an upstream fetch exceeds its
	// deadline. Fatal for the primary fetch, degrading for enrichment.
	ErrUpstreamTimeout = errors.New("upstream request timed out")

	// ErrRateLimited is returned when upstream answers 429.
	ErrRateLimited = errors.New("rate limited by upstream")

	// ErrSuppressed is returned when upstream answers 403. This almost
	// always means disallowed content, not a fault, so it is never logged.
	ErrSuppressed = errors.New("content suppressed by upstream")

	// ErrUpstreamUnavailable is returned for upstream 5xx responses.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMediaNotFound is returned when a media handle no longer resolves
	// to anything upstream.
	ErrMediaNotFound = errors.New("media not found")

	// ErrInvalidToken is returned when a media token fails decoding or
	// its integrity check.
	ErrInvalidToken = errors.New("invalid media token")
)

// PostError wraps an error with post context.
type PostError struct {
	PostID string
	Op     string
	Err    error
}

func (e *PostError) Error() string {
	if e.PostID != "" {
		return e.Op + " [" + e.PostID + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// NewPostError creates a new PostError.
func NewPostError(postID, op string, err error) *PostError {
	return &PostError{PostID: postID, Op: op, Err: err}
}
