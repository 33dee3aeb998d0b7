package services

import (
	"context"
	"time"

	"github.com/tbourn/yt-vantage/internal/domain"
)

// CacheStore is the key/value cache contract. *repo.Store implements it.
type CacheStore interface {
	// GetCache returns the payload if it was written less than ttl ago.
	GetCache(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	// SetCache upserts payload under key with the current time.
	SetCache(ctx context.Context, key, payload string) error
}

// MappingStore persists name→channel mappings.
type MappingStore interface {
	GetMapping(ctx context.Context, name string) (domain.ChannelMapping, bool, error)
	SetMapping(ctx context.Context, name, channelID, title string) error
}

// MessageStateStore persists the channels shown in a message.
type MessageStateStore interface {
	GetMessageState(ctx context.Context, chatID, messageID int64) ([]domain.ShownChannel, bool, error)
	// SaveMessageState is write-once; created is false if state already existed.
	SaveMessageState(ctx context.Context, chatID, messageID int64, entries []domain.ShownChannel) (created bool, err error)
}

// FavoriteStore persists per-user favorites.
type FavoriteStore interface {
	AddFavorite(ctx context.Context, userID int64, channelID, title string) error
	RemoveFavorite(ctx context.Context, userID int64, channelID string) (bool, error)
	ListFavorites(ctx context.Context, userID int64) ([]domain.Favorite, error)
	IsFavorite(ctx context.Context, userID int64, channelID string) (bool, error)
}
