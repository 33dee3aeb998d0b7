package upstream

import (
	"context"

	"github.com/tbourn/yt-vantage/internal/domain"
)

// ChannelRef is a channel identity as reported by the platform's search.
type ChannelRef struct {
	ID    string
	Title string
}

// Client is the platform accessor consumed by the services.
//
// found=false from SearchChannel means the search genuinely matched nothing.
// GetVODs and GetShorts return an empty slice only when the channel has no
// matching videos, never to signal an error.
type Client interface {
	SearchChannel(ctx context.Context, name string) (ref ChannelRef, found bool, err error)
	GetVODs(ctx context.Context, channelID string) ([]domain.Video, error)
	GetShorts(ctx context.Context, channelID string) ([]domain.Video, error)
}
