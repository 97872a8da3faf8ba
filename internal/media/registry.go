package media

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/iconidentify/reddex/internal/config"
	"github.com/iconidentify/reddex/internal/domain"
	"github.com/iconidentify/reddex/internal/normalizer"
	"github.com/iconidentify/reddex/internal/reddit"
)

// RefKind names which media asset of a post a handle points at.
type RefKind string

const (
	RefVideo   RefKind = "v"
	RefImage   RefKind = "i"
	RefGallery RefKind = "g"
)

// Ref identifies one media asset within a post. Index is only meaningful
// for gallery entries.
type Ref struct {
	Kind  RefKind
	Index int
}

// Handle is a stable public identifier for an expiring upstream media URL.
// Tokens are deterministic: the same post and ref always produce the same
// token, so third-party caches of published embeds keep working.
type Handle struct {
	Token string
}

// Path returns the public dereference path for the handle.
func (h Handle) Path() string {
	return "/v/" + h.Token
}

// PostRefresher re-fetches a post to obtain currently-valid media URLs.
type PostRefresher interface {
	RefreshPost(ctx context.Context, postID string) (*reddit.PostData, error)
}

// VariantResolver selects the best playable variant for a video post.
type VariantResolver interface {
	Resolve(ctx context.Context, post *domain.Post) (domain.MediaVariant, error)
}

// Registry issues stable media handles and resolves them back to live
// upstream URLs. Issue is pure; Resolve re-fetches upstream on every
// dereference because the underlying URL changes over time while the
// published token does not. Nothing is persisted or cached here.
type Registry struct {
	key       []byte
	refresher PostRefresher
	variants  VariantResolver
	logger    *slog.Logger
}

// macLen is the truncated integrity tag length appended to tokens.
const macLen = 8

// NewRegistry creates a new media handle registry.
func NewRegistry(cfg config.MediaConfig, refresher PostRefresher, variants VariantResolver, logger *slog.Logger) *Registry {
	key := blake2b.Sum256([]byte(cfg.TokenSecret))
	return &Registry{
		key:       key[:],
		refresher: refresher,
		variants:  variants,
		logger:    logger,
	}
}

// Issue derives the stable handle for one of a post's media assets.
// No I/O: the token encodes the reference itself plus a keyed tag, so
// resolution needs no server-side mapping.
func (r *Registry) Issue(post *domain.Post, ref Ref) Handle {
	payload := fmt.Sprintf("%s|%s|%d", post.ID, ref.Kind, ref.Index)
	token := base64.RawURLEncoding.EncodeToString([]byte(payload)) +
		"." + base64.RawURLEncoding.EncodeToString(r.seal(payload))
	return Handle{Token: token}
}

// Resolve dereferences a token to a currently-valid upstream URL. Every
// call performs a fresh upstream fetch; stale URLs are never served.
func (r *Registry) Resolve(ctx context.Context, token string) (string, error) {
	postID, ref, err := r.decode(token)
	if err != nil {
		return "", err
	}

	raw, err := r.refresher.RefreshPost(ctx, postID)
	if err != nil {
		return "", fmt.Errorf("refresh post: %w", err)
	}

	post, err := normalizer.Normalize(raw, nil, "")
	if err != nil {
		return "", fmt.Errorf("normalize refreshed post: %w", err)
	}

	return r.liveURL(ctx, post, ref)
}

func (r *Registry) liveURL(ctx context.Context, post *domain.Post, ref Ref) (string, error) {
	switch ref.Kind {
	case RefVideo:
		variant, err := r.variants.Resolve(ctx, post)
		if err != nil {
			return "", fmt.Errorf("%v: %w", err, domain.ErrMediaNotFound)
		}
		return variant.URL, nil

	case RefImage:
		if post.PrimaryMedia == nil || post.PrimaryMedia.URL == "" {
			return "", domain.ErrMediaNotFound
		}
		return post.PrimaryMedia.URL, nil

	case RefGallery:
		if ref.Index < 0 || ref.Index >= len(post.Gallery) {
			return "", domain.ErrMediaNotFound
		}
		return post.Gallery[ref.Index].URL, nil

	default:
		return "", domain.ErrInvalidToken
	}
}

// decode validates a token's integrity tag and unpacks the reference.
func (r *Registry) decode(token string) (string, Ref, error) {
	encPayload, encMAC, ok := strings.Cut(token, ".")
	if !ok {
		return "", Ref{}, domain.ErrInvalidToken
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(encPayload)
	if err != nil {
		return "", Ref{}, domain.ErrInvalidToken
	}
	mac, err := base64.RawURLEncoding.DecodeString(encMAC)
	if err != nil {
		return "", Ref{}, domain.ErrInvalidToken
	}

	payload := string(payloadBytes)
	if subtle.ConstantTimeCompare(mac, r.seal(payload)) != 1 {
		return "", Ref{}, domain.ErrInvalidToken
	}

	parts := strings.Split(payload, "|")
	if len(parts) != 3 || parts[0] == "" {
		return "", Ref{}, domain.ErrInvalidToken
	}
	index, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", Ref{}, domain.ErrInvalidToken
	}

	return parts[0], Ref{Kind: RefKind(parts[1]), Index: index}, nil
}

// seal computes the truncated keyed tag for a payload.
func (r *Registry) seal(payload string) []byte {
	mac, _ := blake2b.New256(r.key)
	mac.Write([]byte(payload))
	return mac.Sum(nil)[:macLen]
}
