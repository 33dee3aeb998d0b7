package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/yt-vantage/internal/domain"
)

// Store binds the repository functions to a database handle and a clock.
// It satisfies the store contracts the services depend on.
type Store struct {
	DB  *gorm.DB
	Now func() time.Time
}

// NewStore returns a Store that stamps rows with the wall clock in UTC.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

func (s *Store) GetCache(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	return GetCache(ctx, s.DB, key, ttl, s.now())
}

func (s *Store) SetCache(ctx context.Context, key, payload string) error {
	return SetCache(ctx, s.DB, key, payload, s.now())
}

func (s *Store) PruneCache(ctx context.Context, ttl time.Duration) (int64, error) {
	return PruneCache(ctx, s.DB, ttl, s.now())
}

// GetMapping returns the mapping for name; ok is false when none exists.
func (s *Store) GetMapping(ctx context.Context, name string) (domain.ChannelMapping, bool, error) {
	m, err := GetMapping(ctx, s.DB, name)
	if errors.Is(err, ErrNotFound) {
		return domain.ChannelMapping{}, false, nil
	}
	if err != nil {
		return domain.ChannelMapping{}, false, err
	}
	return *m, true, nil
}

func (s *Store) SetMapping(ctx context.Context, name, channelID, title string) error {
	return SetMapping(ctx, s.DB, name, channelID, title, s.now())
}

// GetMessageState returns the recorded entries; ok is false when none exist.
func (s *Store) GetMessageState(ctx context.Context, chatID, messageID int64) ([]domain.ShownChannel, bool, error) {
	entries, err := GetMessageState(ctx, s.DB, chatID, messageID)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

func (s *Store) SaveMessageState(ctx context.Context, chatID, messageID int64, entries []domain.ShownChannel) (bool, error) {
	return SaveMessageState(ctx, s.DB, chatID, messageID, entries, s.now())
}

func (s *Store) PruneMessageStates(ctx context.Context, olderThan time.Duration) (int64, error) {
	return PruneMessageStates(ctx, s.DB, olderThan, s.now())
}

func (s *Store) AddFavorite(ctx context.Context, userID int64, channelID, title string) error {
	return AddFavorite(ctx, s.DB, userID, channelID, title, s.now())
}

func (s *Store) RemoveFavorite(ctx context.Context, userID int64, channelID string) (bool, error) {
	return RemoveFavorite(ctx, s.DB, userID, channelID)
}

func (s *Store) ListFavorites(ctx context.Context, userID int64) ([]domain.Favorite, error) {
	return ListFavorites(ctx, s.DB, userID)
}

func (s *Store) IsFavorite(ctx context.Context, userID int64, channelID string) (bool, error) {
	return IsFavorite(ctx, s.DB, userID, channelID)
}
