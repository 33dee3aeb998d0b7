package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/yt-vantage/internal/domain"
	"github.com/tbourn/yt-vantage/internal/observability"
)

// MessageStateService records which channels a posted message showed so that
// later mode switches on that message can skip name resolution.
type MessageStateService struct {
	Store MessageStateStore
}

// NewMessageStateService constructs a MessageStateService.
func NewMessageStateService(store MessageStateStore) *MessageStateService {
	return &MessageStateService{Store: store}
}

// RecordShownChannels persists entries in order for (chatID, messageID).
// State is write-once; created is false when the message already had state.
func (s *MessageStateService) RecordShownChannels(ctx context.Context, chatID, messageID int64, entries []domain.ShownChannel) (created bool, err error) {
	tr := observability.Tracer("services/MessageStateService")
	ctx, span := tr.Start(ctx, "RecordShownChannels",
		trace.WithAttributes(
			attribute.Int64("chat.id", chatID),
			attribute.Int64("message.id", messageID),
			attribute.Int("entries", len(entries)),
		),
	)
	defer span.End()

	clean := make([]domain.ShownChannel, 0, len(entries))
	for _, e := range entries {
		id := strings.TrimSpace(e.ChannelID)
		if id == "" {
			return false, ErrInvalidInput
		}
		clean = append(clean, domain.ShownChannel{ChannelID: id, Title: strings.TrimSpace(e.Title)})
	}
	return s.Store.SaveMessageState(ctx, chatID, messageID, clean)
}

// GetShownChannels returns the recorded entries; ok is false if none exist.
func (s *MessageStateService) GetShownChannels(ctx context.Context, chatID, messageID int64) ([]domain.ShownChannel, bool, error) {
	return s.Store.GetMessageState(ctx, chatID, messageID)
}
