package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iconidentify/reddex/internal/domain"
	"github.com/iconidentify/reddex/internal/metrics"
	"github.com/iconidentify/reddex/internal/normalizer"
	"github.com/iconidentify/reddex/internal/reddit"
)

// ThreadFetcher retrieves a post and its inline comment forest.
type ThreadFetcher interface {
	FetchThread(ctx context.Context, postID string) (*reddit.PostData, []reddit.CommentChild, error)
}

// VariantResolver selects the best playable variant for a video post.
type VariantResolver interface {
	Resolve(ctx context.Context, post *domain.Post) (domain.MediaVariant, error)
}

// EmbedCompiler compiles a post into meta directives.
type EmbedCompiler interface {
	Compile(ctx context.Context, post *domain.Post) domain.Directives
}

// EmbedResult is a compiled embed for one post.
type EmbedResult struct {
	Post       *domain.Post
	Directives domain.Directives
	// Degraded is set when an enrichment fetch failed and the embed was
	// served at reduced fidelity.
	Degraded bool
}

// EmbedService orchestrates the embed pipeline: primary fetch, post
// normalization, video and domain enrichment, directive compilation.
// Primary-fetch failures propagate; enrichment failures only degrade.
type EmbedService struct {
	fetcher  ThreadFetcher
	resolver VariantResolver
	compiler EmbedCompiler
	events   *EventService
	logger   *slog.Logger
}

// NewEmbedService creates a new embed service.
func NewEmbedService(fetcher ThreadFetcher, resolver VariantResolver, compiler EmbedCompiler, events *EventService, logger *slog.Logger) *EmbedService {
	return &EmbedService{
		fetcher:  fetcher,
		resolver: resolver,
		compiler: compiler,
		events:   events,
		logger:   logger,
	}
}

// BuildEmbed produces the directive set for one post, optionally locating
// a comment by id within the thread.
func (s *EmbedService) BuildEmbed(ctx context.Context, postID, commentID string) (*EmbedResult, error) {
	raw, comments, err := s.fetcher.FetchThread(ctx, postID)
	if err != nil {
		s.recordFetchFailure(postID, err)
		return nil, err
	}

	post, err := normalizer.Normalize(raw, comments, commentID)
	if err != nil {
		return nil, domain.NewPostError(postID, "normalize", err)
	}

	degraded := false
	if post.HasVideo() {
		best, err := s.resolver.Resolve(ctx, post)
		if err == nil {
			// Publish only the selected variant's dimensions; the handle
			// re-resolves the URL itself at dereference time.
			post.Variants = []domain.MediaVariant{best}
		} else if !errors.Is(err, domain.ErrNoPlayableVariant) {
			degraded = true
			metrics.DegradedEmbeds.WithLabelValues("video").Inc()
			s.logger.Warn("video enrichment failed", "post_id", postID, "error", err)
		}
	}

	directives := s.compiler.Compile(ctx, post)
	metrics.EmbedsCompiled.WithLabelValues(string(post.Hint)).Inc()

	return &EmbedResult{
		Post:       post,
		Directives: directives,
		Degraded:   degraded,
	}, nil
}

// recordFetchFailure gives each primary-fetch failure mode its required
// visibility. Suppressed content is deliberately silent: it overwhelmingly
// means disallowed content, not a fault.
func (s *EmbedService) recordFetchFailure(postID string, err error) {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		metrics.UpstreamRateLimited.Inc()
		s.events.EmitWarning(domain.EventCategoryUpstream, "embed",
			"upstream rate limited", domain.EventMetadata{"post_id": postID})

	case errors.Is(err, domain.ErrSuppressed):
		metrics.UpstreamSuppressed.Inc()

	case errors.Is(err, domain.ErrUpstreamTimeout):
		s.logger.Warn("primary fetch timed out", "post_id", postID)

	default:
		s.logger.Error("primary fetch failed", "post_id", postID, "error", err)
	}
}
