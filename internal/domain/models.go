// Package domain defines the persistence models for channel mappings, cached
// upstream payloads, per-message interactive state, and user favorites. These
// types are mapped with GORM and form the core data layer of the bot.
package domain

import "time"

// ChannelMapping maps a normalized, human-typed channel name to a stable
// platform channel identifier.
//
// Fields:
//   - Name: lower-cased lookup key (primary key, one row per normalized name).
//   - ChannelID: opaque YouTube channel identifier (e.g. "UC...").
//   - Title: channel display name as reported upstream at resolution time.
//   - LastResolvedAt: when the mapping was last confirmed upstream (UTC).
type ChannelMapping struct {
	Name           string    `json:"name"             gorm:"type:TEXT;primaryKey"`
	ChannelID      string    `json:"channel_id"       gorm:"type:TEXT;not null"`
	Title          string    `json:"title"            gorm:"type:TEXT;not null"`
	LastResolvedAt time.Time `json:"last_resolved_at" gorm:"not null"`
}

// TableName returns the database table name for ChannelMapping.
func (ChannelMapping) TableName() string { return "channel_map" }

// CacheEntry is a generic key/value cache row. Freshness is not stored with
// the row: callers pass a TTL on every read, so the same row can be fresh for
// one reader and stale for another.
//
// Timestamp holds the write time in Unix nanoseconds (UTC) so age comparisons
// are exact and do not depend on how the driver serializes time values.
type CacheEntry struct {
	Key       string `gorm:"type:TEXT;primaryKey"`
	Payload   string `gorm:"type:TEXT;not null"`
	Timestamp int64  `gorm:"type:INTEGER;not null;index"`
}

// TableName returns the database table name for CacheEntry.
func (CacheEntry) TableName() string { return "cache" }

// MessageState records which channels were shown in a posted chat message, in
// report order. Rows are written once per (chat, message) and never mutated.
//
// Entries holds a JSON array of ShownChannel records.
type MessageState struct {
	ChatID    int64     `gorm:"type:INTEGER;primaryKey;autoIncrement:false"`
	MessageID int64     `gorm:"type:INTEGER;primaryKey;autoIncrement:false"`
	Entries   string    `gorm:"type:TEXT;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName returns the database table name for MessageState.
func (MessageState) TableName() string { return "message_state" }

// Favorite is a channel saved by a user. One row per (user, channel).
type Favorite struct {
	UserID    int64     `json:"user_id"    gorm:"type:INTEGER;primaryKey;autoIncrement:false"`
	ChannelID string    `json:"channel_id" gorm:"type:TEXT;primaryKey"`
	Title     string    `json:"title"      gorm:"type:TEXT;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string { return "favorites" }
