package domain

import (
	"fmt"
	"strings"
	"time"
)

// VideoKind distinguishes long-form uploads from Shorts.
type VideoKind string

const (
	KindVOD   VideoKind = "VOD"
	KindShort VideoKind = "Short"
)

// Video is a ranked upload as returned by the upstream platform or rebuilt
// from a cached payload. Values are never mutated after construction.
type Video struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	ViewCount    uint64    `json:"view_count"`
	LikeCount    uint64    `json:"like_count"`
	CommentCount uint64    `json:"comment_count"`
	PublishedAt  time.Time `json:"published_at"`
	URL          string    `json:"url"`
	Kind         VideoKind `json:"type"`
}

// VideoURL returns the public watch URL for a video of the given kind.
func VideoURL(id string, kind VideoKind) string {
	if kind == KindShort {
		return "https://www.youtube.com/shorts/" + id
	}
	return "https://www.youtube.com/watch?v=" + id
}

// ChannelURL returns the public URL of a channel page.
func ChannelURL(channelID string) string {
	return "https://www.youtube.com/channel/" + channelID
}

// Mode selects between the VOD-ranking and Short-ranking views of a channel.
// Its string value doubles as the cache key namespace.
type Mode string

const (
	ModeVODs   Mode = "vods"
	ModeShorts Mode = "shorts"
)

// ParseMode accepts the canonical tags as well as the display labels used in
// chat keyboards ("VODs", "Shorts", "short", "vod"). An empty string yields
// ModeVODs.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vods", "vod":
		return ModeVODs, nil
	case "shorts", "short":
		return ModeShorts, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Label is the human-readable name of the mode.
func (m Mode) Label() string {
	if m == ModeShorts {
		return "Shorts"
	}
	return "VODs"
}

// Other returns the opposite mode, used by "switch view" interactions.
func (m Mode) Other() Mode {
	if m == ModeShorts {
		return ModeVODs
	}
	return ModeShorts
}

// CacheKey returns the cache key for a channel's video list in this mode.
func (m Mode) CacheKey(channelID string) string {
	return string(m) + ":" + channelID
}

// ShownChannel is one entry of a message's state: a channel rendered in the
// report attached to that message.
type ShownChannel struct {
	ChannelID string `json:"channel_id"`
	Title     string `json:"title"`
}
