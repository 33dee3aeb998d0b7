// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the generic key/value cache used for
// upstream payloads and negative resolution results.
//
// Freshness is a read-time decision: the caller supplies a TTL on every read
// and the row is considered absent once now-timestamp reaches it. Prune uses
// the same boundary so a row is either readable or prunable, never both.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/yt-vantage/internal/domain"
)

// GetCache returns the payload stored under key if it was written less than
// ttl before now. ok is false for a missing row and for an expired one.
func GetCache(ctx context.Context, db *gorm.DB, key string, ttl time.Duration, now time.Time) (payload string, ok bool, err error) {
	var row domain.CacheEntry
	err = db.WithContext(ctx).Where("key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap("get_cache", err)
	}
	if now.UTC().UnixNano()-row.Timestamp >= int64(ttl) {
		return "", false, nil
	}
	return row.Payload, true, nil
}

// SetCache upserts payload under key, stamping it with now.
func SetCache(ctx context.Context, db *gorm.DB, key, payload string, now time.Time) error {
	row := domain.CacheEntry{Key: key, Payload: payload, Timestamp: now.UTC().UnixNano()}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "timestamp"}),
		}).
		Create(&row).Error
	return wrap("set_cache", err)
}

// PruneCache deletes every row whose age at now is ttl or more and returns the
// number of rows removed.
func PruneCache(ctx context.Context, db *gorm.DB, ttl time.Duration, now time.Time) (int64, error) {
	cutoff := now.UTC().UnixNano() - int64(ttl)
	res := db.WithContext(ctx).Where("timestamp <= ?", cutoff).Delete(&domain.CacheEntry{})
	if res.Error != nil {
		return 0, wrap("prune_cache", res.Error)
	}
	return res.RowsAffected, nil
}
