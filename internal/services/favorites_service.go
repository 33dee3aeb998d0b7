package services

import (
	"context"
	"strings"

	"github.com/tbourn/yt-vantage/internal/domain"
)

// FavoritesService is a thin validation layer over FavoriteStore.
type FavoritesService struct {
	Store FavoriteStore
}

// NewFavoritesService constructs a FavoritesService.
func NewFavoritesService(store FavoriteStore) *FavoritesService {
	return &FavoritesService{Store: store}
}

// Add saves channelID for userID. A blank title falls back to the channel ID.
func (s *FavoritesService) Add(ctx context.Context, userID int64, channelID, title string) error {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return ErrInvalidInput
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = channelID
	}
	return s.Store.AddFavorite(ctx, userID, channelID, title)
}

// Remove deletes a favorite; removed is false if it did not exist.
func (s *FavoritesService) Remove(ctx context.Context, userID int64, channelID string) (removed bool, err error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return false, ErrInvalidInput
	}
	return s.Store.RemoveFavorite(ctx, userID, channelID)
}

// List returns the user's favorites, oldest first.
func (s *FavoritesService) List(ctx context.Context, userID int64) ([]domain.Favorite, error) {
	return s.Store.ListFavorites(ctx, userID)
}

// IsFavorite reports whether userID saved channelID.
func (s *FavoritesService) IsFavorite(ctx context.Context, userID int64, channelID string) (bool, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return false, ErrInvalidInput
	}
	return s.Store.IsFavorite(ctx, userID, channelID)
}
