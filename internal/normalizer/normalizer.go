package normalizer

import (
	"fmt"
	"strings"

	"github.com/iconidentify/reddex/internal/domain"
	"github.com/iconidentify/reddex/internal/reddit"
)

// maxCrosspostDepth bounds crosspost recursion. Upstream payloads are not
// supposed to be cyclic; if one ever is, we fail closed instead of looping.
const maxCrosspostDepth = 10

// Normalize converts a raw thread payload into a canonical Post. When
// commentID is non-empty the inline comment forest is searched for it;
// absence of the comment is not an error.
func Normalize(raw *reddit.PostData, comments []reddit.CommentChild, commentID string) (*domain.Post, error) {
	post, err := normalizePost(raw, 0)
	if err != nil {
		return nil, err
	}

	if commentID != "" {
		post.Comment = findComment(comments, commentID)
	}

	return post, nil
}

func normalizePost(raw *reddit.PostData, depth int) (*domain.Post, error) {
	if depth > maxCrosspostDepth {
		return nil, fmt.Errorf("crosspost depth %d: %w", depth, domain.ErrMalformedPayload)
	}
	if raw.ID == "" || raw.Subreddit == "" || raw.Author == "" {
		return nil, fmt.Errorf("missing id, subreddit or author: %w", domain.ErrMalformedPayload)
	}

	post := &domain.Post{
		ID:         raw.ID,
		Subreddit:  raw.Subreddit,
		Title:      raw.Title,
		AuthorName: raw.Author,
		SelfText:   raw.Selftext,
		Permalink:  raw.Permalink,
		NSFW:       raw.Over18,
	}

	post.Hint = resolveHint(raw)

	switch post.Hint {
	case domain.HintImage:
		post.PrimaryMedia = previewMedia(raw)
	case domain.HintHostedVideo:
		post.Variants = videoVariants(raw)
		post.PrimaryMedia = previewMedia(raw)
	case domain.HintGallery:
		post.Gallery = galleryMedia(raw)
	case domain.HintPoll:
		post.Poll = pollOptions(raw)
	case domain.HintLink:
		post.ExternalLink = raw.URL
		post.PrimaryMedia = previewMedia(raw)
	}

	if oe := raw.OEmbed(); oe != nil && (oe.Width > 0 || oe.Height > 0) {
		post.OEmbed = &domain.OEmbedHint{Width: oe.Width, Height: oe.Height}
	}

	// A crosspost republishes another post's media. The fork keeps its own
	// title and author but inherits media fields it lacks from the parent.
	if len(raw.CrosspostParentList) > 0 {
		parent, err := normalizePost(&raw.CrosspostParentList[0], depth+1)
		if err != nil {
			return nil, err
		}
		mergeCrosspost(post, parent)
	}

	return post, nil
}

// resolveHint maps upstream's explicit hint to a branch, inferring from the
// payload shape when the hint is missing or unrecognized. Unrecognized
// posts degrade to text-only rather than erroring.
func resolveHint(raw *reddit.PostData) domain.PostHint {
	switch raw.PostHint {
	case "image":
		return domain.HintImage
	case "hosted:video":
		return domain.HintHostedVideo
	case "link", "rich:video":
		return domain.HintLink
	case "self":
		if raw.PollData != nil {
			return domain.HintPoll
		}
		return domain.HintText
	}

	// Hint absent or unknown: infer from which payloads are present.
	switch {
	case raw.IsVideo || raw.Video() != nil:
		return domain.HintHostedVideo
	case raw.IsGallery || raw.GalleryData != nil:
		return domain.HintGallery
	case raw.PollData != nil:
		return domain.HintPoll
	case looksLikeImage(raw.URL):
		return domain.HintImage
	case raw.URL != "" && !strings.HasPrefix(raw.URL, "/r/") && raw.Selftext == "":
		return domain.HintLink
	default:
		return domain.HintText
	}
}

func looksLikeImage(url string) bool {
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.HasSuffix(url, ext) {
			return true
		}
	}
	return false
}

// mergeCrosspost inherits absent media fields from the origin post. Title
// and author always remain the fork's own.
func mergeCrosspost(post, parent *domain.Post) {
	post.CrosspostOrigin = parent

	if post.PrimaryMedia == nil {
		post.PrimaryMedia = parent.PrimaryMedia
	}
	if len(post.Variants) == 0 {
		post.Variants = parent.Variants
	}
	if len(post.Gallery) == 0 {
		post.Gallery = parent.Gallery
	}
	if post.OEmbed == nil {
		post.OEmbed = parent.OEmbed
	}

	// The fork's own hint says text when all its media lives on the parent.
	if post.Hint == domain.HintText || post.Hint == domain.HintLink {
		switch parent.Hint {
		case domain.HintImage, domain.HintHostedVideo, domain.HintGallery:
			post.Hint = parent.Hint
		}
	}
}

func previewMedia(raw *reddit.PostData) *domain.Media {
	if raw.Preview == nil || len(raw.Preview.Images) == 0 {
		if looksLikeImage(raw.URL) {
			return &domain.Media{URL: raw.URL}
		}
		return nil
	}
	src := raw.Preview.Images[0].Source
	if src.URL == "" {
		return nil
	}
	return &domain.Media{
		URL:    src.URL,
		Width:  src.Width,
		Height: src.Height,
	}
}

func videoVariants(raw *reddit.PostData) []domain.MediaVariant {
	video := raw.Video()
	if video == nil || video.FallbackURL == "" {
		return nil
	}
	variants := []domain.MediaVariant{{
		URL:         video.FallbackURL,
		Width:       video.Width,
		Height:      video.Height,
		HasAudio:    video.HasAudio,
		BitrateRank: video.BitrateKbps,
	}}
	if video.ScrubberMediaURL != "" {
		variants = append(variants, domain.MediaVariant{
			URL:         video.ScrubberMediaURL,
			HasAudio:    false,
			BitrateRank: 0,
		})
	}
	return variants
}

// galleryMedia preserves upstream's display order from gallery_data and
// resolves each entry through media_metadata. Broken entries are skipped.
func galleryMedia(raw *reddit.PostData) []domain.Media {
	if raw.GalleryData == nil || raw.MediaMetadata == nil {
		return nil
	}

	media := make([]domain.Media, 0, len(raw.GalleryData.Items))
	for _, item := range raw.GalleryData.Items {
		meta, ok := raw.MediaMetadata[item.MediaID]
		if !ok || meta.Source == nil || meta.Status == "failed" {
			continue
		}
		url := meta.Source.URL
		if url == "" {
			url = meta.Source.GIF
		}
		if url == "" {
			continue
		}
		media = append(media, domain.Media{
			URL:      url,
			Width:    meta.Source.Width,
			Height:   meta.Source.Height,
			MimeType: meta.Mime,
		})
	}
	return media
}

// pollOptions keeps absent vote counts and text absent. Rendering shows
// "no data" for them, never a synthesized zero.
func pollOptions(raw *reddit.PostData) []domain.PollOption {
	if raw.PollData == nil {
		return nil
	}
	options := make([]domain.PollOption, 0, len(raw.PollData.Options))
	for _, opt := range raw.PollData.Options {
		options = append(options, domain.PollOption{
			Text:      opt.Text,
			VoteCount: opt.VoteCount,
		})
	}
	return options
}

// findComment walks the comment forest depth-first looking for id.
func findComment(children []reddit.CommentChild, id string) *domain.Comment {
	for i := range children {
		child := &children[i]
		if child.Kind != "t1" {
			continue
		}
		if child.Data.ID == id {
			return buildComment(&child.Data)
		}
		if child.Data.Replies.Listing != nil {
			if found := findComment(child.Data.Replies.Listing.Data.Children, id); found != nil {
				return found
			}
		}
	}
	return nil
}

// buildComment converts a raw comment subtree into owned nodes.
func buildComment(raw *reddit.CommentData) *domain.Comment {
	comment := &domain.Comment{
		ID:     raw.ID,
		Author: raw.Author,
		Body:   raw.Body,
	}
	if raw.Replies.Listing != nil {
		for i := range raw.Replies.Listing.Data.Children {
			child := &raw.Replies.Listing.Data.Children[i]
			if child.Kind != "t1" {
				continue
			}
			comment.Children = append(comment.Children, buildComment(&child.Data))
		}
	}
	return comment
}
