package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/yt-vantage/internal/domain"
)

// AddFavorite saves channelID for userID. Adding an existing favorite
// refreshes its title and keeps the original CreatedAt.
func AddFavorite(ctx context.Context, db *gorm.DB, userID int64, channelID, title string, now time.Time) error {
	f := domain.Favorite{UserID: userID, ChannelID: channelID, Title: title, CreatedAt: now.UTC()}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "channel_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title"}),
		}).
		Create(&f).Error
	return wrap("add_favorite", err)
}

// RemoveFavorite deletes a favorite. removed is false when nothing matched.
func RemoveFavorite(ctx context.Context, db *gorm.DB, userID int64, channelID string) (removed bool, err error) {
	res := db.WithContext(ctx).
		Where("user_id = ? AND channel_id = ?", userID, channelID).
		Delete(&domain.Favorite{})
	if res.Error != nil {
		return false, wrap("remove_favorite", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListFavorites returns a user's favorites, oldest first.
func ListFavorites(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Favorite, error) {
	out := []domain.Favorite{}
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc, channel_id asc").
		Find(&out).Error
	if err != nil {
		return nil, wrap("list_favorites", err)
	}
	return out, nil
}

// IsFavorite reports whether userID has saved channelID.
func IsFavorite(ctx context.Context, db *gorm.DB, userID int64, channelID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Favorite{}).
		Where("user_id = ? AND channel_id = ?", userID, channelID).
		Count(&n).Error
	if err != nil {
		return false, wrap("is_favorite", err)
	}
	return n > 0, nil
}
