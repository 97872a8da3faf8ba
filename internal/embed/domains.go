package embed

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/iconidentify/reddex/internal/domain"
)

// handlerKind is the closed set of specialized embed strategies. Adding a
// host means adding a variant here and a mapping entry below, nothing else.
type handlerKind int

const (
	kindClipHost handlerKind = iota
	kindVideoHost
	kindImageHost
	kindSourceLink
)

// hostKinds maps exact hostnames to their handler variant.
var hostKinds = map[string]handlerKind{
	"clips.twitch.tv": kindClipHost,
	"www.twitch.tv":   kindClipHost,
	"twitch.tv":       kindClipHost,

	"www.youtube.com": kindVideoHost,
	"youtube.com":     kindVideoHost,
	"m.youtube.com":   kindVideoHost,
	"youtu.be":        kindVideoHost,

	"i.redd.it":   kindImageHost,
	"i.imgur.com": kindImageHost,
	"imgur.com":   kindImageHost,

	"www.reddit.com": kindSourceLink,
	"old.reddit.com": kindSourceLink,
	"reddit.com":     kindSourceLink,
}

// MetaScraper extracts meta tag contents from a fetched HTML page.
type MetaScraper interface {
	MetaContent(ctx context.Context, pageURL string, names ...string) (map[string]string, error)
}

// StreamInfo is a resolved direct video stream.
type StreamInfo struct {
	URL       string
	Width     int
	Height    int
	Thumbnail string
}

// StreamResolver turns a video id into a direct, audio-bearing stream URL.
type StreamResolver interface {
	ResolveStream(ctx context.Context, videoID string) (*StreamInfo, error)
}

// Dispatcher selects a specialized embed strategy for external links by
// hostname. A hostname with no handler yields nil directives and the
// caller falls back to a generic link card.
type Dispatcher struct {
	scraper   MetaScraper
	streams   StreamResolver
	ancestors []string
	logger    *slog.Logger
}

// NewDispatcher creates a new domain handler dispatcher. ancestors is the
// frame-ancestors allow-list appended to clip player URLs.
func NewDispatcher(scraper MetaScraper, streams StreamResolver, ancestors []string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		scraper:   scraper,
		streams:   streams,
		ancestors: ancestors,
		logger:    logger,
	}
}

// Dispatch returns specialized embed directives for a link post, or nil
// when no handler matches or the handler declines.
func (d *Dispatcher) Dispatch(ctx context.Context, rawURL string, post *domain.Post) domain.Directives {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	kind, ok := hostKinds[u.Hostname()]
	if !ok {
		return nil
	}

	switch kind {
	case kindClipHost:
		return d.twitchClip(u, post)
	case kindVideoHost:
		return d.youtube(ctx, u)
	case kindImageHost:
		return d.imageHost(u)
	case kindSourceLink:
		return d.sourceLink(u)
	}
	return nil
}

// twitchClip builds a player embed for a Twitch clip. The clip player
// enforces a frame-ancestors CSP, so every origin in the embedding chain
// (including the embed proxy chat clients route through) must be listed as
// a parent parameter or the player refuses to render.
func (d *Dispatcher) twitchClip(u *url.URL, post *domain.Post) domain.Directives {
	slug := twitchClipSlug(u)
	if slug == "" {
		return nil
	}

	q := url.Values{}
	q.Set("clip", slug)
	for _, origin := range d.ancestors {
		q.Add("parent", origin)
	}
	player := url.URL{
		Scheme:   "https",
		Host:     "clips.twitch.tv",
		Path:     "/embed",
		RawQuery: q.Encode(),
	}

	width, height := 1280, 720
	if post.OEmbed != nil && post.OEmbed.Width > 500 && post.OEmbed.Height > 500 {
		width, height = post.OEmbed.Width, post.OEmbed.Height
	}

	var out domain.Directives
	out = out.Add(domain.PropCard, "player")
	out = out.Add(domain.PropType, "video.other")
	out = out.Add(domain.PropVideo, player.String())
	out = out.Add(domain.PropVideoType, "text/html")
	out = out.Add(domain.PropVideoWidth, fmt.Sprintf("%d", width))
	out = out.Add(domain.PropVideoHeight, fmt.Sprintf("%d", height))
	return out
}

// twitchClipSlug extracts the clip slug from either host shape: on the
// clips subdomain the slug is the whole path, on the primary site it
// follows the "clip" path segment.
func twitchClipSlug(u *url.URL) string {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return ""
	}

	if u.Hostname() == "clips.twitch.tv" {
		return segments[0]
	}

	for i, seg := range segments {
		if seg == "clip" && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	return ""
}

// youtube embeds a YouTube link. Plain videos go through the stream
// resolver because the chat clients we serve do not render YouTube's own
// iframe; clip sub-resources carry no derivable video id, so their page
// is scraped for the pre-embedded player instead.
func (d *Dispatcher) youtube(ctx context.Context, u *url.URL) domain.Directives {
	if strings.Contains(u.Path, "/clip/") {
		return d.youtubeClip(ctx, u)
	}

	id := youtubeVideoID(u)
	if id == "" {
		return nil
	}

	info, err := d.streams.ResolveStream(ctx, id)
	if err != nil || info == nil || info.URL == "" {
		if err != nil {
			d.logger.Warn("stream resolution failed", "video_id", id, "error", err)
		}
		return youtubeThumbnailCard(id, info)
	}

	var out domain.Directives
	out = out.Add(domain.PropCard, "player")
	out = out.Add(domain.PropType, "video.other")
	out = out.Add(domain.PropVideo, info.URL)
	out = out.Add(domain.PropVideoType, "video/mp4")
	if info.Width > 0 {
		out = out.Add(domain.PropVideoWidth, fmt.Sprintf("%d", info.Width))
	}
	if info.Height > 0 {
		out = out.Add(domain.PropVideoHeight, fmt.Sprintf("%d", info.Height))
	}
	out = out.Add(domain.PropImage, thumbnailURL(id, info))
	return out
}

// youtubeThumbnailCard is the fallback when no direct stream is available.
func youtubeThumbnailCard(id string, info *StreamInfo) domain.Directives {
	var out domain.Directives
	out = out.Add(domain.PropCard, "summary_large_image")
	out = out.Add(domain.PropImage, thumbnailURL(id, info))
	return out
}

func thumbnailURL(id string, info *StreamInfo) string {
	if info != nil && info.Thumbnail != "" {
		return info.Thumbnail
	}
	return fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", id)
}

// youtubeVideoID extracts the canonical video id: the first path segment
// on the short-link host, the v query parameter on canonical hosts.
func youtubeVideoID(u *url.URL) string {
	if u.Hostname() == "youtu.be" {
		return strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)[0]
	}
	if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
		return strings.SplitN(rest, "/", 2)[0]
	}
	return u.Query().Get("v")
}

// youtubeClip scrapes a clip page for its pre-embedded player and
// thumbnail. Declines when the page exposes no player.
func (d *Dispatcher) youtubeClip(ctx context.Context, u *url.URL) domain.Directives {
	meta, err := d.scraper.MetaContent(ctx, u.String(), "twitter:player", "og:image")
	if err != nil {
		d.logger.Warn("clip page scrape failed", "url", u.String(), "error", err)
		return nil
	}

	player := meta["twitter:player"]
	if player == "" {
		return nil
	}

	var out domain.Directives
	out = out.Add(domain.PropCard, "player")
	out = out.Add(domain.PropType, "video.other")
	out = out.Add(domain.PropVideo, player)
	out = out.Add(domain.PropVideoType, "text/html")
	if image := meta["og:image"]; image != "" {
		out = out.Add(domain.PropImage, image)
	}
	return out
}

// imageHost embeds external image hosts directly. Bare imgur page links
// are canonicalized to their direct-file form.
func (d *Dispatcher) imageHost(u *url.URL) domain.Directives {
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return nil
	}

	imageURL := u.String()
	if u.Hostname() == "imgur.com" {
		id := strings.SplitN(path, "/", 2)[0]
		// Albums and galleries have no single direct file.
		if id == "a" || id == "gallery" || id == "" {
			return nil
		}
		id = strings.TrimSuffix(id, ".jpg")
		imageURL = "https://i.imgur.com/" + id + ".jpg"
	}

	var out domain.Directives
	out = out.Add(domain.PropCard, "summary_large_image")
	out = out.Add(domain.PropImage, imageURL)
	return out
}

// sourceLink handles links back to Reddit itself, pointing the card at the
// canonical thread. Declines when no post id is present in the path.
func (d *Dispatcher) sourceLink(u *url.URL) domain.Directives {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	var postID string
	for i, seg := range segments {
		if seg == "comments" && i+1 < len(segments) {
			postID = segments[i+1]
			break
		}
	}
	if postID == "" {
		return nil
	}

	var out domain.Directives
	out = out.Add(domain.PropCard, "summary")
	out = out.Add(domain.PropURL, u.String())
	return out
}
