package embed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	"github.com/iconidentify/reddex/internal/domain"
)

type fakeMetaScraper struct {
	meta map[string]string
	err  error
}

func (f *fakeMetaScraper) MetaContent(ctx context.Context, pageURL string, names ...string) (map[string]string, error) {
	return f.meta, f.err
}

type fakeStreamResolver struct {
	info *StreamInfo
	err  error
}

func (f *fakeStreamResolver) ResolveStream(ctx context.Context, videoID string) (*StreamInfo, error) {
	return f.info, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(scraper MetaScraper, streams StreamResolver) *Dispatcher {
	if scraper == nil {
		scraper = &fakeMetaScraper{}
	}
	if streams == nil {
		streams = &fakeStreamResolver{}
	}
	return NewDispatcher(scraper, streams, []string{"reddex.app", "cdn.embedly.com", "discord.com"}, discardLogger())
}

func TestTwitchClipSlug(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://clips.twitch.tv/AbcXyz123", "AbcXyz123"},
		{"https://clips.twitch.tv/AbcXyz123/", "AbcXyz123"},
		{"https://www.twitch.tv/someuser/clip/AbcXyz123", "AbcXyz123"},
		{"https://twitch.tv/someuser/clip/AbcXyz123?featured=false", "AbcXyz123"},
		{"https://www.twitch.tv/someuser", ""},
		{"https://www.twitch.tv/someuser/clip", ""},
		{"https://clips.twitch.tv/", ""},
	}

	for _, tt := range tests {
		u, err := url.Parse(tt.url)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.url, err)
		}
		if got := twitchClipSlug(u); got != tt.want {
			t.Errorf("twitchClipSlug(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestDispatch_TwitchClipPlayer(t *testing.T) {
	d := newTestDispatcher(nil, nil)
	post := &domain.Post{ID: "abc123"}

	out := d.Dispatch(context.Background(), "https://clips.twitch.tv/AbcXyz123", post)
	if out == nil {
		t.Fatal("expected directives for a twitch clip")
	}

	player, ok := out.Find(domain.PropVideo)
	if !ok {
		t.Fatal("no og:video directive")
	}
	pu, err := url.Parse(player)
	if err != nil {
		t.Fatalf("player URL unparseable: %v", err)
	}
	if pu.Host != "clips.twitch.tv" || pu.Path != "/embed" {
		t.Errorf("player = %s, want the clips embed endpoint", player)
	}
	if got := pu.Query().Get("clip"); got != "AbcXyz123" {
		t.Errorf("clip param = %q, want AbcXyz123", got)
	}
	parents := pu.Query()["parent"]
	if len(parents) != 3 {
		t.Fatalf("parent params = %v, want one per allowed origin", parents)
	}
	for i, want := range []string{"reddex.app", "cdn.embedly.com", "discord.com"} {
		if parents[i] != want {
			t.Errorf("parent[%d] = %q, want %q", i, parents[i], want)
		}
	}

	if w, _ := out.Find(domain.PropVideoWidth); w != "1280" {
		t.Errorf("width = %q, want default 1280", w)
	}
	if h, _ := out.Find(domain.PropVideoHeight); h != "720" {
		t.Errorf("height = %q, want default 720", h)
	}
	if card, _ := out.Find(domain.PropCard); card != "player" {
		t.Errorf("card = %q, want player", card)
	}
}

func TestDispatch_TwitchClipPrimaryHostShape(t *testing.T) {
	d := newTestDispatcher(nil, nil)
	post := &domain.Post{ID: "abc123"}

	out := d.Dispatch(context.Background(), "https://www.twitch.tv/someuser/clip/AbcXyz123", post)
	if out == nil {
		t.Fatal("expected directives for a primary-site clip link")
	}
	player, _ := out.Find(domain.PropVideo)
	if !strings.Contains(player, "clip=AbcXyz123") {
		t.Errorf("player = %s, want the clip slug not the channel name", player)
	}
}

func TestDispatch_TwitchClipOEmbedDimensions(t *testing.T) {
	d := newTestDispatcher(nil, nil)

	tests := []struct {
		name       string
		oembed     *domain.OEmbedHint
		wantWidth  string
		wantHeight string
	}{
		{name: "large dims override", oembed: &domain.OEmbedHint{Width: 1920, Height: 1080}, wantWidth: "1920", wantHeight: "1080"},
		{name: "small dims ignored", oembed: &domain.OEmbedHint{Width: 400, Height: 300}, wantWidth: "1280", wantHeight: "720"},
		{name: "one small dim ignored", oembed: &domain.OEmbedHint{Width: 1920, Height: 400}, wantWidth: "1280", wantHeight: "720"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := &domain.Post{ID: "abc123", OEmbed: tt.oembed}
			out := d.Dispatch(context.Background(), "https://clips.twitch.tv/AbcXyz123", post)
			if w, _ := out.Find(domain.PropVideoWidth); w != tt.wantWidth {
				t.Errorf("width = %q, want %q", w, tt.wantWidth)
			}
			if h, _ := out.Find(domain.PropVideoHeight); h != tt.wantHeight {
				t.Errorf("height = %q, want %q", h, tt.wantHeight)
			}
		})
	}
}

func TestYoutubeVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/channel/whatever", ""},
	}

	for _, tt := range tests {
		u, err := url.Parse(tt.url)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.url, err)
		}
		if got := youtubeVideoID(u); got != tt.want {
			t.Errorf("youtubeVideoID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestDispatch_YouTubeDirectStream(t *testing.T) {
	streams := &fakeStreamResolver{info: &StreamInfo{
		URL:       "https://streams.example/direct.mp4",
		Width:     1920,
		Height:    1080,
		Thumbnail: "https://streams.example/thumb.jpg",
	}}
	d := newTestDispatcher(nil, streams)

	out := d.Dispatch(context.Background(), "https://youtu.be/dQw4w9WgXcQ", &domain.Post{})
	if out == nil {
		t.Fatal("expected directives")
	}
	if v, _ := out.Find(domain.PropVideo); v != "https://streams.example/direct.mp4" {
		t.Errorf("og:video = %q, want the direct stream", v)
	}
	if vt, _ := out.Find(domain.PropVideoType); vt != "video/mp4" {
		t.Errorf("video type = %q, want video/mp4", vt)
	}
	if img, _ := out.Find(domain.PropImage); img != "https://streams.example/thumb.jpg" {
		t.Errorf("og:image = %q, want the resolver thumbnail", img)
	}
}

func TestDispatch_YouTubeStreamFailureFallsBackToThumbnail(t *testing.T) {
	streams := &fakeStreamResolver{err: errors.New("resolver down")}
	d := newTestDispatcher(nil, streams)

	out := d.Dispatch(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", &domain.Post{})
	if out == nil {
		t.Fatal("expected a thumbnail fallback, got nil")
	}
	if card, _ := out.Find(domain.PropCard); card != "summary_large_image" {
		t.Errorf("card = %q, want summary_large_image", card)
	}
	if img, _ := out.Find(domain.PropImage); img != "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg" {
		t.Errorf("og:image = %q, want the derived thumbnail", img)
	}
	if _, ok := out.Find(domain.PropVideo); ok {
		t.Error("fallback card should carry no og:video")
	}
}

func TestDispatch_YouTubeClipScrapesPlayer(t *testing.T) {
	scraper := &fakeMetaScraper{meta: map[string]string{
		"twitter:player": "https://www.youtube.com/embed/xyz?clip=abc",
		"og:image":       "https://i.ytimg.com/vi/xyz/hqdefault.jpg",
	}}
	d := newTestDispatcher(scraper, nil)

	out := d.Dispatch(context.Background(), "https://www.youtube.com/clip/UgkxClipToken", &domain.Post{})
	if out == nil {
		t.Fatal("expected directives from the scraped clip page")
	}
	if v, _ := out.Find(domain.PropVideo); v != "https://www.youtube.com/embed/xyz?clip=abc" {
		t.Errorf("og:video = %q, want the scraped player", v)
	}
	if vt, _ := out.Find(domain.PropVideoType); vt != "text/html" {
		t.Errorf("video type = %q, want text/html", vt)
	}
}

func TestDispatch_YouTubeClipWithoutPlayerDeclines(t *testing.T) {
	scraper := &fakeMetaScraper{meta: map[string]string{}}
	d := newTestDispatcher(scraper, nil)

	out := d.Dispatch(context.Background(), "https://www.youtube.com/clip/UgkxClipToken", &domain.Post{})
	if out != nil {
		t.Errorf("directives = %v, want nil when the clip page exposes no player", out)
	}
}

func TestDispatch_ImageHosts(t *testing.T) {
	d := newTestDispatcher(nil, nil)

	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "direct reddit image", url: "https://i.redd.it/abcdef.jpg", want: "https://i.redd.it/abcdef.jpg"},
		{name: "direct imgur image", url: "https://i.imgur.com/abcdef.png", want: "https://i.imgur.com/abcdef.png"},
		{name: "imgur page link canonicalized", url: "https://imgur.com/abcdef", want: "https://i.imgur.com/abcdef.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := d.Dispatch(context.Background(), tt.url, &domain.Post{})
			if out == nil {
				t.Fatal("expected directives")
			}
			if img, _ := out.Find(domain.PropImage); img != tt.want {
				t.Errorf("og:image = %q, want %q", img, tt.want)
			}
		})
	}
}

func TestDispatch_ImgurAlbumDeclines(t *testing.T) {
	d := newTestDispatcher(nil, nil)

	for _, raw := range []string{"https://imgur.com/a/abcdef", "https://imgur.com/gallery/abcdef", "https://imgur.com/"} {
		if out := d.Dispatch(context.Background(), raw, &domain.Post{}); out != nil {
			t.Errorf("Dispatch(%q) = %v, want nil", raw, out)
		}
	}
}

func TestDispatch_SourceLink(t *testing.T) {
	d := newTestDispatcher(nil, nil)

	out := d.Dispatch(context.Background(), "https://www.reddit.com/r/golang/comments/zzz999/title/", &domain.Post{})
	if out == nil {
		t.Fatal("expected directives for a cross-link")
	}
	if card, _ := out.Find(domain.PropCard); card != "summary" {
		t.Errorf("card = %q, want summary", card)
	}
	if u, _ := out.Find(domain.PropURL); !strings.Contains(u, "zzz999") {
		t.Errorf("og:url = %q, want the linked thread", u)
	}
}

func TestDispatch_SourceLinkWithoutPostIDDeclines(t *testing.T) {
	d := newTestDispatcher(nil, nil)

	if out := d.Dispatch(context.Background(), "https://www.reddit.com/r/golang/", &domain.Post{}); out != nil {
		t.Errorf("directives = %v, want nil for a non-thread link", out)
	}
}

func TestDispatch_UnknownHost(t *testing.T) {
	d := newTestDispatcher(nil, nil)

	if out := d.Dispatch(context.Background(), "https://example.com/article", &domain.Post{}); out != nil {
		t.Errorf("directives = %v, want nil for an unhandled host", out)
	}
}
