package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/yt-vantage/internal/domain"
)

// legacyTitle is used for entries persisted as bare channel IDs.
const legacyTitle = "Channel"

// SaveMessageState stores the ordered entries shown in (chatID, messageID).
// State is write-once: if a row already exists it is left untouched and
// created is false.
func SaveMessageState(ctx context.Context, db *gorm.DB, chatID, messageID int64, entries []domain.ShownChannel, now time.Time) (created bool, err error) {
	if entries == nil {
		entries = []domain.ShownChannel{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return false, err
	}
	row := domain.MessageState{
		ChatID:    chatID,
		MessageID: messageID,
		Entries:   string(raw),
		CreatedAt: now.UTC(),
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return false, wrap("save_message_state", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetMessageState returns the entries recorded for (chatID, messageID) in
// their original order. Returns ErrNotFound when no state was recorded.
func GetMessageState(ctx context.Context, db *gorm.DB, chatID, messageID int64) ([]domain.ShownChannel, error) {
	var row domain.MessageState
	err := db.WithContext(ctx).
		Where("chat_id = ? AND message_id = ?", chatID, messageID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrap("get_message_state", err)
	}
	return decodeEntries(row.Entries)
}

// PruneMessageStates deletes states created more than olderThan before now.
// A non-positive olderThan disables retention and deletes nothing.
func PruneMessageStates(ctx context.Context, db *gorm.DB, olderThan time.Duration, now time.Time) (int64, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Where("created_at < ?", now.UTC().Add(-olderThan)).
		Delete(&domain.MessageState{})
	if res.Error != nil {
		return 0, wrap("prune_message_state", res.Error)
	}
	return res.RowsAffected, nil
}

// decodeEntries accepts the current {"channel_id","title"} records as well as
// older rows holding bare ID strings or {"id","title"} objects.
func decodeEntries(raw string) ([]domain.ShownChannel, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLegacyState, err)
	}
	out := make([]domain.ShownChannel, 0, len(items))
	for i, item := range items {
		var id string
		if err := json.Unmarshal(item, &id); err == nil {
			if id == "" {
				return nil, fmt.Errorf("%w: empty id at %d", ErrLegacyState, i)
			}
			out = append(out, domain.ShownChannel{ChannelID: id, Title: legacyTitle})
			continue
		}
		var rec struct {
			ChannelID string `json:"channel_id"`
			ID        string `json:"id"`
			Title     string `json:"title"`
		}
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, fmt.Errorf("%w: entry %d", ErrLegacyState, i)
		}
		if rec.ChannelID == "" {
			rec.ChannelID = rec.ID
		}
		if rec.ChannelID == "" {
			return nil, fmt.Errorf("%w: entry %d has no channel id", ErrLegacyState, i)
		}
		if rec.Title == "" {
			rec.Title = legacyTitle
		}
		out = append(out, domain.ShownChannel{ChannelID: rec.ChannelID, Title: rec.Title})
	}
	return out, nil
}
