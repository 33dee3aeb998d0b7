// Package youtube implements upstream.Client on top of the YouTube Data API
// v3. Every request passes through the retry wrapper, a worker-pool slot and
// a client-side rate limiter, in that order.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/tbourn/yt-vantage/internal/domain"
	"github.com/tbourn/yt-vantage/internal/observability"
	"github.com/tbourn/yt-vantage/internal/retry"
	"github.com/tbourn/yt-vantage/internal/upstream"
)

// Ranking limits.
const (
	MaxUploadsScanned = 50
	TopN              = 3
)

// Config holds client construction parameters.
type Config struct {
	APIKey  string
	Workers int
	// RPS is the client-side request rate. Zero or less disables limiting.
	RPS   float64
	Burst int
	Retry retry.Policy
}

// Client is a rate-limited, retrying YouTube Data API accessor.
type Client struct {
	svc     *yt.Service
	pool    *upstream.Pool
	limiter *rate.Limiter
	policy  retry.Policy
}

var _ upstream.Client = (*Client)(nil)

// New builds a Client. Extra options are appended after the API key, which
// lets tests point the client at a local server.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	all := make([]option.ClientOption, 0, len(opts)+1)
	if cfg.APIKey != "" {
		all = append(all, option.WithAPIKey(cfg.APIKey))
	}
	all = append(all, opts...)

	svc, err := yt.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("youtube: create service: %w", err)
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		svc:     svc,
		pool:    upstream.NewPool(cfg.Workers),
		limiter: rate.NewLimiter(limit, burst),
		policy:  cfg.Retry,
	}, nil
}

// Pool exposes the worker pool, mainly for health reporting.
func (c *Client) Pool() *upstream.Pool { return c.pool }

// SearchChannel returns the best channel match for name.
func (c *Client) SearchChannel(ctx context.Context, name string) (upstream.ChannelRef, bool, error) {
	resp, err := call(ctx, c, "search.channel", func(ctx context.Context) (*yt.SearchListResponse, error) {
		return c.svc.Search.List([]string{"snippet"}).
			Q(name).
			Type("channel").
			MaxResults(1).
			Context(ctx).
			Do()
	})
	if err != nil {
		return upstream.ChannelRef{}, false, err
	}
	for _, item := range resp.Items {
		ref := upstream.ChannelRef{}
		if item.Snippet != nil {
			ref.ID = item.Snippet.ChannelId
			ref.Title = item.Snippet.ChannelTitle
			if ref.Title == "" {
				ref.Title = item.Snippet.Title
			}
		}
		if ref.ID == "" && item.Id != nil {
			ref.ID = item.Id.ChannelId
		}
		if ref.ID != "" {
			return ref, true, nil
		}
	}
	return upstream.ChannelRef{}, false, nil
}

// GetVODs returns the most viewed of the channel's latest uploads.
func (c *Client) GetVODs(ctx context.Context, channelID string) ([]domain.Video, error) {
	resp, err := call(ctx, c, "playlistItems.list", func(ctx context.Context) (*yt.PlaylistItemListResponse, error) {
		return c.svc.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(UploadsPlaylistID(channelID)).
			MaxResults(MaxUploadsScanned).
			Context(ctx).
			Do()
	})
	if err != nil {
		if noUploads(channelID, err) {
			return []domain.Video{}, nil
		}
		return nil, err
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
			ids = append(ids, item.ContentDetails.VideoId)
		}
	}
	videos, err := c.videoDetails(ctx, ids, domain.KindVOD)
	if err != nil {
		return nil, err
	}
	return rank(videos, TopN), nil
}

// GetShorts returns the channel's most viewed Shorts.
func (c *Client) GetShorts(ctx context.Context, channelID string) ([]domain.Video, error) {
	resp, err := call(ctx, c, "search.shorts", func(ctx context.Context) (*yt.SearchListResponse, error) {
		return c.svc.Search.List([]string{"id"}).
			ChannelId(channelID).
			Type("video").
			VideoDuration("short").
			Order("viewCount").
			MaxResults(TopN).
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	videos, err := c.videoDetails(ctx, ids, domain.KindShort)
	if err != nil {
		return nil, err
	}
	// Search ordering is not guaranteed to match the statistics we just read.
	return rank(videos, TopN), nil
}

// videoDetails loads snippet and statistics for ids and returns them in the
// order of ids. Videos the API no longer returns are skipped.
func (c *Client) videoDetails(ctx context.Context, ids []string, kind domain.VideoKind) ([]domain.Video, error) {
	if len(ids) == 0 {
		return []domain.Video{}, nil
	}
	resp, err := call(ctx, c, "videos.list", func(ctx context.Context) (*yt.VideoListResponse, error) {
		return c.svc.Videos.List([]string{"snippet", "statistics"}).
			Id(ids...).
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*yt.Video, len(resp.Items))
	for _, v := range resp.Items {
		byID[v.Id] = v
	}
	out := make([]domain.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, toVideo(v, kind))
		}
	}
	return out, nil
}

func toVideo(v *yt.Video, kind domain.VideoKind) domain.Video {
	out := domain.Video{
		VideoID: v.Id,
		Title:   "Unknown",
		URL:     domain.VideoURL(v.Id, kind),
		Kind:    kind,
	}
	if s := v.Snippet; s != nil {
		if s.Title != "" {
			out.Title = s.Title
		}
		if ts, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
			out.PublishedAt = ts.UTC()
		}
	}
	if st := v.Statistics; st != nil {
		out.ViewCount = st.ViewCount
		out.LikeCount = st.LikeCount
		out.CommentCount = st.CommentCount
	}
	return out
}

// rank stable-sorts by views descending and keeps at most n entries.
func rank(videos []domain.Video, n int) []domain.Video {
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].ViewCount > videos[j].ViewCount
	})
	if len(videos) > n {
		videos = videos[:n]
	}
	return videos
}

// noUploads reports whether err means a well-formed channel has never
// uploaded: its derived uploads playlist does not exist. Any other 404 (a
// malformed or non-channel ID) stays an error so it is not cached as empty.
func noUploads(channelID string, err error) bool {
	var ue *upstream.Error
	if !errors.As(err, &ue) || ue.Status != http.StatusNotFound || ue.Reason != upstream.ReasonPlaylistNotFound {
		return false
	}
	return UploadsPlaylistID(channelID) != channelID
}

// UploadsPlaylistID converts a "UC..." channel ID into the ID of its uploads
// playlist ("UU..."). Other IDs are returned unchanged.
func UploadsPlaylistID(channelID string) string {
	if len(channelID) > 2 && channelID[:2] == "UC" {
		return "UU" + channelID[2:]
	}
	return channelID
}

// call runs one API request through retry, the worker pool and the limiter.
func call[T any](ctx context.Context, c *Client, op string, fn func(context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, c.policy, func(ctx context.Context) (T, error) {
		return upstream.Run(ctx, c.pool, func(ctx context.Context) (T, error) {
			var zero T
			if err := c.limiter.Wait(ctx); err != nil {
				return zero, &upstream.Error{Op: op, Err: err}
			}
			v, err := fn(ctx)
			if err != nil {
				err = classify(op, err)
			}
			observability.UpstreamCalls.WithLabelValues(op, upstream.Outcome(err)).Inc()
			return v, err
		})
	})
}

// classify maps API client errors into the upstream taxonomy.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		ue := &upstream.Error{Op: op, Status: gerr.Code, Err: err}
		for _, item := range gerr.Errors {
			if item.Reason != "" {
				ue.Reason = item.Reason
				break
			}
		}
		return ue
	}
	return &upstream.Error{Op: op, Err: err}
}
