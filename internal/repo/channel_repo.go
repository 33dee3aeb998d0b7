package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/yt-vantage/internal/domain"
)

// GetMapping looks up the channel mapping for name. The name is normalized
// first, so lookups are case-insensitive. Returns ErrNotFound when absent.
func GetMapping(ctx context.Context, db *gorm.DB, name string) (*domain.ChannelMapping, error) {
	var m domain.ChannelMapping
	err := db.WithContext(ctx).Where("name = ?", domain.NormalizeName(name)).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("get_mapping", err)
	}
	return &m, nil
}

// SetMapping upserts the mapping for name with a fresh LastResolvedAt.
func SetMapping(ctx context.Context, db *gorm.DB, name, channelID, title string, now time.Time) error {
	m := domain.ChannelMapping{
		Name:           domain.NormalizeName(name),
		ChannelID:      channelID,
		Title:          title,
		LastResolvedAt: now.UTC(),
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"channel_id", "title", "last_resolved_at"}),
		}).
		Create(&m).Error
	return wrap("set_mapping", err)
}
