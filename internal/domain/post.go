package domain

// PostHint discriminates which media/embedding branch applies to a Post.
type PostHint string

const (
	HintImage       PostHint = "image"
	HintHostedVideo PostHint = "hosted_video"
	HintLink        PostHint = "link"
	HintGallery     PostHint = "gallery"
	HintPoll        PostHint = "poll"
	HintText        PostHint = "text"
)

// Media describes one resolved media asset.
type Media struct {
	URL      string
	Width    int
	Height   int
	MimeType string
}

// MediaVariant is one candidate encoding of a hosted video.
// Variants come from upstream in no guaranteed order; selection is
// explicit in the video package.
type MediaVariant struct {
	URL         string
	Width       int
	Height      int
	HasAudio    bool
	BitrateRank int
}

// OEmbedHint carries embed dimensions published by upstream's oEmbed field.
type OEmbedHint struct {
	Width  int
	Height int
}

// PollOption is a single poll choice. Nil fields mean upstream omitted the
// value; they render as "no data", never as a synthesized zero.
type PollOption struct {
	Text      *string
	VoteCount *int
}

// Comment is one node of the inline comment tree. Children are owned by
// their parent; the tree never holds back-references.
type Comment struct {
	ID       string
	Author   string
	Body     string
	Children []*Comment
}

// Post is the canonical, normalized representation of one submission.
// It is built once per request from the raw upstream payload and discarded
// after the response is written.
type Post struct {
	ID         string
	Subreddit  string
	Title      string
	AuthorName string
	SelfText   string
	Permalink  string
	NSFW       bool

	Hint PostHint

	// PrimaryMedia is set for image and hosted-video posts.
	PrimaryMedia *Media

	// Variants holds the candidate encodings of a hosted video.
	Variants []MediaVariant

	// OEmbed is an optional dimension hint from upstream.
	OEmbed *OEmbedHint

	// ExternalLink is the raw target URL when Hint is HintLink.
	ExternalLink string

	// Gallery preserves upstream's display order. Consumers cap the count
	// they render; the slice itself is unbounded.
	Gallery []Media

	Poll []PollOption

	// Comment is the single comment located by id, when one was requested
	// and found.
	Comment *Comment

	// CrosspostOrigin points at the post this one was forked from.
	// It is a back-reference, not ownership.
	CrosspostOrigin *Post
}

// HasVideo reports whether the post carries a playable hosted video.
func (p *Post) HasVideo() bool {
	return p.Hint == HintHostedVideo && len(p.Variants) > 0
}

// CanonicalURL returns the upstream page URL for the post.
func (p *Post) CanonicalURL(base string) string {
	if p.Permalink == "" {
		return base
	}
	return base + p.Permalink
}
