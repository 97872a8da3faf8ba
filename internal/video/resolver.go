package video

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/iconidentify/reddex/internal/domain"
)

// PageScraper extracts a single attribute value from a fetched HTML page.
type PageScraper interface {
	ElementAttr(ctx context.Context, pageURL, selector, attr string) (string, error)
}

// ResolveBestVariant selects the preferred encoding from a candidate set.
// Audio-bearing variants win over silent ones; among equals the higher
// bitrate rank wins; rank ties go to the variant supplied last. Upstream
// happens to list increasing quality last, but the ordering here is
// explicit rather than assumed.
func ResolveBestVariant(candidates []domain.MediaVariant) (domain.MediaVariant, error) {
	if len(candidates) == 0 {
		return domain.MediaVariant{}, domain.ErrNoPlayableVariant
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if betterVariant(c, best) {
			best = c
		}
	}
	return best, nil
}

// betterVariant reports whether candidate should replace current. Equal
// candidates return true so the later sequence position wins ties.
func betterVariant(candidate, current domain.MediaVariant) bool {
	if candidate.HasAudio != current.HasAudio {
		return candidate.HasAudio
	}
	if candidate.BitrateRank != current.BitrateRank {
		return candidate.BitrateRank > current.BitrateRank
	}
	return true
}

// Resolver selects video variants, falling back to a secondary fetch of
// the post's canonical page when the payload variants are all silent.
type Resolver struct {
	scraper PageScraper
	baseURL string
	logger  *slog.Logger
}

// NewResolver creates a new variant resolver.
func NewResolver(scraper PageScraper, baseURL string, logger *slog.Logger) *Resolver {
	return &Resolver{
		scraper: scraper,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Resolve returns the best playable variant for a hosted-video post. When
// no supplied variant carries audio it re-runs selection over the post
// page's packaged-media set; if that is also silent, the best silent
// variant is accepted rather than failing the post.
func (r *Resolver) Resolve(ctx context.Context, post *domain.Post) (domain.MediaVariant, error) {
	best, err := ResolveBestVariant(post.Variants)
	if err != nil {
		return domain.MediaVariant{}, err
	}
	if best.HasAudio {
		return best, nil
	}

	alternates := r.packagedVariants(ctx, post)
	if len(alternates) > 0 {
		if alt, err := ResolveBestVariant(alternates); err == nil && alt.HasAudio {
			return alt, nil
		}
	}

	return best, nil
}

// packagedMedia is the manifest embedded in the post page's player element.
type packagedMedia struct {
	PlaybackMP4s struct {
		Permutations []struct {
			Source struct {
				URL        string `json:"url"`
				Dimensions struct {
					Width  int `json:"width"`
					Height int `json:"height"`
				} `json:"dimensions"`
			} `json:"source"`
		} `json:"permutations"`
	} `json:"playback_mp4s"`
}

// packagedVariants scrapes the post's canonical page for the embedded
// packaged-media manifest. The packaged renditions are muxed with audio.
// Any failure here degrades to an empty set; the caller keeps the best
// silent variant instead.
func (r *Resolver) packagedVariants(ctx context.Context, post *domain.Post) []domain.MediaVariant {
	raw, err := r.scraper.ElementAttr(ctx, post.CanonicalURL(r.baseURL), "shreddit-player", "packaged-media-json")
	if err != nil {
		r.logger.Warn("packaged media fetch failed", "post_id", post.ID, "error", err)
		return nil
	}
	if raw == "" {
		return nil
	}

	var manifest packagedMedia
	if err := json.Unmarshal([]byte(raw), &manifest); err != nil {
		r.logger.Warn("packaged media manifest unreadable", "post_id", post.ID, "error", err)
		return nil
	}

	variants := make([]domain.MediaVariant, 0, len(manifest.PlaybackMP4s.Permutations))
	for i, p := range manifest.PlaybackMP4s.Permutations {
		if p.Source.URL == "" {
			continue
		}
		variants = append(variants, domain.MediaVariant{
			URL:         p.Source.URL,
			Width:       p.Source.Dimensions.Width,
			Height:      p.Source.Dimensions.Height,
			HasAudio:    true,
			BitrateRank: i,
		})
	}
	return variants
}
