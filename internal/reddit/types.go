package reddit

import (
	"encoding/json"
)

// Listing is the generic Reddit listing envelope.
type Listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []Child `json:"children"`
	} `json:"data"`
}

// Child wraps one post entry in a listing.
type Child struct {
	Kind string   `json:"kind"`
	Data PostData `json:"data"`
}

// PostData is the raw shape of one submission. Fields that upstream may
// omit entirely are pointers so absence is distinguishable from zero.
type PostData struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Subreddit         string `json:"subreddit"`
	Title             string `json:"title"`
	Author            string `json:"author"`
	Selftext          string `json:"selftext"`
	URL               string `json:"url"`
	Domain            string `json:"domain"`
	Permalink         string `json:"permalink"`
	PostHint          string `json:"post_hint"`
	Over18            bool   `json:"over_18"`
	IsVideo           bool   `json:"is_video"`
	IsGallery         bool   `json:"is_gallery"`
	RemovedByCategory string `json:"removed_by_category"`

	Preview       *Preview                 `json:"preview"`
	Media         *MediaField              `json:"media"`
	SecureMedia   *MediaField              `json:"secure_media"`
	GalleryData   *GalleryData             `json:"gallery_data"`
	MediaMetadata map[string]MediaMetadata `json:"media_metadata"`
	PollData      *PollData                `json:"poll_data"`

	CrosspostParentList []PostData `json:"crosspost_parent_list"`
}

// Video returns the hosted-video payload from secure_media or media,
// whichever is present.
func (p *PostData) Video() *RedditVideo {
	if p.SecureMedia != nil && p.SecureMedia.RedditVideo != nil {
		return p.SecureMedia.RedditVideo
	}
	if p.Media != nil && p.Media.RedditVideo != nil {
		return p.Media.RedditVideo
	}
	return nil
}

// OEmbed returns the oEmbed payload from secure_media or media.
func (p *PostData) OEmbed() *OEmbed {
	if p.SecureMedia != nil && p.SecureMedia.OEmbed != nil {
		return p.SecureMedia.OEmbed
	}
	if p.Media != nil && p.Media.OEmbed != nil {
		return p.Media.OEmbed
	}
	return nil
}

// MediaField holds the media / secure_media union.
type MediaField struct {
	RedditVideo *RedditVideo `json:"reddit_video"`
	OEmbed      *OEmbed      `json:"oembed"`
}

// RedditVideo describes upstream's hosted video representation.
type RedditVideo struct {
	BitrateKbps       int    `json:"bitrate_kbps"`
	FallbackURL       string `json:"fallback_url"`
	Width             int    `json:"width"`
	Height            int    `json:"height"`
	ScrubberMediaURL  string `json:"scrubber_media_url"`
	DashURL           string `json:"dash_url"`
	HLSURL            string `json:"hls_url"`
	Duration          int    `json:"duration"`
	IsGif             bool   `json:"is_gif"`
	HasAudio          bool   `json:"has_audio"`
	TranscodingStatus string `json:"transcoding_status"`
}

// OEmbed is upstream's oEmbed-style hint block.
type OEmbed struct {
	ProviderName string `json:"provider_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Preview holds preview images for link and image posts.
type Preview struct {
	Images []PreviewImage `json:"images"`
}

// PreviewImage is one preview image with its source and scaled resolutions.
type PreviewImage struct {
	ID          string          `json:"id"`
	Source      PreviewSource   `json:"source"`
	Resolutions []PreviewSource `json:"resolutions"`
}

// PreviewSource is a single sized image URL.
type PreviewSource struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// GalleryData preserves upstream's gallery display order.
type GalleryData struct {
	Items []GalleryItem `json:"items"`
}

// GalleryItem references one gallery entry by media id.
type GalleryItem struct {
	ID      int    `json:"id"`
	MediaID string `json:"media_id"`
}

// MediaMetadata describes one gallery asset keyed by media id.
type MediaMetadata struct {
	Status string           `json:"status"`
	Kind   string           `json:"e"`
	Mime   string           `json:"m"`
	Source *MediaMetaSource `json:"s"`
}

// MediaMetaSource is the full-size rendition of a gallery asset.
type MediaMetaSource struct {
	URL    string `json:"u"`
	GIF    string `json:"gif"`
	MP4    string `json:"mp4"`
	Width  int    `json:"x"`
	Height int    `json:"y"`
}

// PollData is upstream's poll payload. Vote counts are hidden while a poll
// is running, so options carry nullable fields.
type PollData struct {
	Options        []PollOption `json:"options"`
	TotalVoteCount *int         `json:"total_vote_count"`
}

// PollOption is one poll choice with possibly-absent text and votes.
type PollOption struct {
	ID        string  `json:"id"`
	Text      *string `json:"text"`
	VoteCount *int    `json:"vote_count"`
}

// CommentListing is the comment half of the two-listing response.
type CommentListing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []CommentChild `json:"children"`
	} `json:"data"`
}

// CommentChild wraps one comment node. Kind "more" entries carry no body
// and are skipped during traversal.
type CommentChild struct {
	Kind string      `json:"kind"`
	Data CommentData `json:"data"`
}

// CommentData is the raw shape of one comment.
type CommentData struct {
	ID      string       `json:"id"`
	Author  string       `json:"author"`
	Body    string       `json:"body"`
	Replies RepliesField `json:"replies"`
}

// RepliesField tolerates upstream's quirk of encoding an empty reply set
// as the empty string instead of an object.
type RepliesField struct {
	Listing *CommentListing
}

// UnmarshalJSON decodes a replies field, treating "" and null as empty.
func (r *RepliesField) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || b[0] == '"' || string(b) == "null" {
		return nil
	}
	var l CommentListing
	if err := json.Unmarshal(b, &l); err != nil {
		return err
	}
	r.Listing = &l
	return nil
}
