package embed

import (
	"context"
	"fmt"
	"strings"

	"github.com/iconidentify/reddex/internal/domain"
	"github.com/iconidentify/reddex/internal/media"
	"github.com/iconidentify/reddex/internal/video"
)

// siteName is the published og:site_name.
const siteName = "reddex"

// defaultGalleryLimit caps gallery image directives; Discord-class clients
// render at most four images per embed.
const defaultGalleryLimit = 4

// HandleIssuer mints stable media handles for expiring upstream URLs.
type HandleIssuer interface {
	Issue(post *domain.Post, ref media.Ref) media.Handle
}

// LinkDispatcher resolves specialized embeds for external links.
type LinkDispatcher interface {
	Dispatch(ctx context.Context, rawURL string, post *domain.Post) domain.Directives
}

// Compiler turns a normalized Post into the ordered meta directive set for
// its embed document.
type Compiler struct {
	issuer       HandleIssuer
	dispatcher   LinkDispatcher
	publicBase   string
	upstreamBase string
	galleryLimit int
}

// NewCompiler creates a new embed compiler. publicBase is this service's
// externally visible origin; upstreamBase is the source platform origin
// used for canonical URLs.
func NewCompiler(issuer HandleIssuer, dispatcher LinkDispatcher, publicBase, upstreamBase string, galleryLimit int) *Compiler {
	if galleryLimit <= 0 {
		galleryLimit = defaultGalleryLimit
	}
	return &Compiler{
		issuer:       issuer,
		dispatcher:   dispatcher,
		publicBase:   strings.TrimSuffix(publicBase, "/"),
		upstreamBase: strings.TrimSuffix(upstreamBase, "/"),
		galleryLimit: galleryLimit,
	}
}

// Compile emits the ordered directive set for a post, branching strictly
// on the post hint.
func (c *Compiler) Compile(ctx context.Context, post *domain.Post) domain.Directives {
	var out domain.Directives
	out = out.Add(domain.PropTitle, c.title(post))
	out = out.Add(domain.PropSiteName, siteName)
	out = out.Add(domain.PropURL, post.CanonicalURL(c.upstreamBase))

	// Chat clients unfurl embeds without any click-through gate, so media
	// from posts marked adult is suppressed entirely.
	if post.NSFW {
		out = c.appendDescription(out, post, "NSFW post, open on Reddit to view.")
		return out.Add(domain.PropCard, "summary")
	}

	switch post.Hint {
	case domain.HintImage:
		out = c.appendDescription(out, post, "")
		out = c.imageDirectives(out, post)

	case domain.HintHostedVideo:
		out = c.appendDescription(out, post, "")
		out = c.videoDirectives(out, post)

	case domain.HintGallery:
		out = c.galleryDirectives(out, post)

	case domain.HintPoll:
		out = c.appendDescription(out, post, pollSummary(post.Poll))
		out = out.Add(domain.PropCard, "summary")

	case domain.HintLink:
		if specialized := c.dispatcher.Dispatch(ctx, post.ExternalLink, post); len(specialized) > 0 {
			out = c.appendDescription(out, post, "")
			out = append(out, specialized...)
		} else {
			// Generic link card: title plus site name.
			out = c.appendDescription(out, post, post.ExternalLink)
			out = out.Add(domain.PropCard, "summary")
		}

	default:
		out = c.appendDescription(out, post, "")
		out = out.Add(domain.PropCard, "summary")
	}

	return out
}

func (c *Compiler) title(post *domain.Post) string {
	if post.Subreddit == "" {
		return post.Title
	}
	return fmt.Sprintf("%s · r/%s", post.Title, post.Subreddit)
}

// appendDescription assembles the description. A located comment is
// prepended regardless of the post branch.
func (c *Compiler) appendDescription(out domain.Directives, post *domain.Post, body string) domain.Directives {
	if body == "" {
		body = excerpt(post.SelfText, 320)
	}
	if post.Comment != nil {
		quoted := fmt.Sprintf("u/%s: %s", post.Comment.Author, excerpt(post.Comment.Body, 240))
		if body != "" {
			body = quoted + "\n\n" + body
		} else {
			body = quoted
		}
	}
	if body == "" {
		return out
	}
	return out.Add(domain.PropDescription, body)
}

func (c *Compiler) imageDirectives(out domain.Directives, post *domain.Post) domain.Directives {
	if post.PrimaryMedia == nil || post.PrimaryMedia.URL == "" {
		return out.Add(domain.PropCard, "summary")
	}

	handle := c.issuer.Issue(post, media.Ref{Kind: media.RefImage})
	out = out.Add(domain.PropCard, "summary_large_image")
	out = out.Add(domain.PropImage, c.publicBase+handle.Path())
	if post.PrimaryMedia.Width > 0 {
		out = out.Add(domain.PropImageWidth, fmt.Sprintf("%d", post.PrimaryMedia.Width))
	}
	if post.PrimaryMedia.Height > 0 {
		out = out.Add(domain.PropImageHeight, fmt.Sprintf("%d", post.PrimaryMedia.Height))
	}
	return out
}

// videoDirectives publishes the stable handle path, never the raw resolved
// URL: the upstream URL expires while published embeds do not.
func (c *Compiler) videoDirectives(out domain.Directives, post *domain.Post) domain.Directives {
	best, err := video.ResolveBestVariant(post.Variants)
	if err != nil {
		// No playable variant left; degrade to a still image when one
		// exists, otherwise a plain card.
		return c.imageDirectives(out, post)
	}

	handle := c.issuer.Issue(post, media.Ref{Kind: media.RefVideo})
	out = out.Add(domain.PropCard, "player")
	out = out.Add(domain.PropType, "video.other")
	out = out.Add(domain.PropVideo, c.publicBase+handle.Path())
	out = out.Add(domain.PropVideoType, "video/mp4")
	if best.Width > 0 {
		out = out.Add(domain.PropVideoWidth, fmt.Sprintf("%d", best.Width))
	}
	if best.Height > 0 {
		out = out.Add(domain.PropVideoHeight, fmt.Sprintf("%d", best.Height))
	}
	if post.PrimaryMedia != nil && post.PrimaryMedia.URL != "" {
		imageHandle := c.issuer.Issue(post, media.Ref{Kind: media.RefImage})
		out = out.Add(domain.PropImage, c.publicBase+imageHandle.Path())
	}
	return out
}

// galleryDirectives emits at most galleryLimit images in upstream's
// display order, with a count indicator when the gallery holds more.
func (c *Compiler) galleryDirectives(out domain.Directives, post *domain.Post) domain.Directives {
	total := len(post.Gallery)

	indicator := ""
	if total > c.galleryLimit {
		indicator = fmt.Sprintf("Gallery: %d images (showing first %d)", total, c.galleryLimit)
	}
	out = c.appendDescription(out, post, indicator)
	out = out.Add(domain.PropCard, "summary_large_image")

	shown := total
	if shown > c.galleryLimit {
		shown = c.galleryLimit
	}
	for i := 0; i < shown; i++ {
		handle := c.issuer.Issue(post, media.Ref{Kind: media.RefGallery, Index: i})
		out = out.Add(domain.PropImage, c.publicBase+handle.Path())
	}
	return out
}

// pollSummary renders poll options one per line. Options whose text or
// votes upstream withheld show "no data" instead of a fabricated zero.
func pollSummary(options []domain.PollOption) string {
	if len(options) == 0 {
		return ""
	}

	lines := make([]string, 0, len(options)+1)
	lines = append(lines, "📊 Poll")
	for _, opt := range options {
		text := "no data"
		if opt.Text != nil && *opt.Text != "" {
			text = *opt.Text
		}
		votes := "no data"
		if opt.VoteCount != nil {
			votes = fmt.Sprintf("%d votes", *opt.VoteCount)
		}
		lines = append(lines, fmt.Sprintf("• %s: %s", text, votes))
	}
	return strings.Join(lines, "\n")
}

// excerpt trims text to at most n runes on a word boundary.
func excerpt(text string, n int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	cut := string(runes[:n])
	if idx := strings.LastIndexByte(cut, ' '); idx > n/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
