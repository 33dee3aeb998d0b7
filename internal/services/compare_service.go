// Package services – CompareService
//
// CompareService drives a multi-channel report: resolve every name
// concurrently, then fetch every resolved channel concurrently. Each channel
// succeeds or fails on its own; the batch as a whole only fails on invalid
// input.
package services

import (
	"context"
	"html"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/yt-vantage/internal/domain"
	"github.com/tbourn/yt-vantage/internal/observability"
)

// DefaultMaxNames caps the number of channels in one comparison.
const DefaultMaxNames = 10

// Resolver is the name-resolution contract used by CompareService.
type Resolver interface {
	Resolve(ctx context.Context, name string) (Resolution, bool, error)
}

// Fetcher is the video-fetch contract used by CompareService.
type Fetcher interface {
	FetchForChannel(ctx context.Context, channelID, title string, mode domain.Mode) (Report, error)
}

// OutcomeStatus is the final state of one channel in a batch.
type OutcomeStatus string

const (
	StatusFetched          OutcomeStatus = "fetched"
	StatusFailed           OutcomeStatus = "failed"
	StatusNotFound         OutcomeStatus = "not_found"
	StatusResolutionFailed OutcomeStatus = "resolution_failed"
)

// Outcome is the result for one requested channel.
type Outcome struct {
	// Name is the name as typed; empty for mode switches.
	Name    string              `json:"name,omitempty"`
	Status  OutcomeStatus       `json:"status"`
	Channel domain.ShownChannel `json:"channel"`
	Report  *Report             `json:"report,omitempty"`
	Err     error               `json:"-"`
}

// Batch is an ordered set of outcomes rendered for one message.
type Batch struct {
	Mode     domain.Mode `json:"mode"`
	Outcomes []Outcome   `json:"outcomes"`
}

// Channels returns the resolved channels in report order. This is what gets
// recorded as message state.
func (b *Batch) Channels() []domain.ShownChannel {
	out := []domain.ShownChannel{}
	for _, o := range b.Outcomes {
		if o.Status == StatusFetched || o.Status == StatusFailed {
			out = append(out, o.Channel)
		}
	}
	return out
}

// NotFound returns the names that matched no channel.
func (b *Batch) NotFound() []string {
	return b.names(StatusNotFound)
}

func (b *Batch) names(st OutcomeStatus) []string {
	var out []string
	for _, o := range b.Outcomes {
		if o.Status == st {
			out = append(out, o.Name)
		}
	}
	return out
}

// Text renders the combined Telegram HTML message.
func (b *Batch) Text() string {
	var parts []string
	for _, o := range b.Outcomes {
		switch o.Status {
		case StatusFetched:
			parts = append(parts, o.Report.Text)
		case StatusFailed:
			parts = append(parts, FailureText(o.Channel.Title, o.Channel.ChannelID, b.Mode))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "❌ No valid channels found.")
	}
	if names := b.names(StatusResolutionFailed); len(names) > 0 {
		parts = append(parts, "\n⚠️ <b>Lookup failed, try again later: </b>"+escapeJoin(names))
	}
	if names := b.NotFound(); len(names) > 0 {
		parts = append(parts, "\n⚠️ <b>Not found: </b>"+escapeJoin(names))
	}
	return strings.Join(parts, "\n\n")
}

func escapeJoin(names []string) string {
	esc := make([]string, len(names))
	for i, n := range names {
		esc[i] = html.EscapeString(n)
	}
	return strings.Join(esc, ", ")
}

// CompareService orchestrates resolve and fetch fan-outs.
type CompareService struct {
	Resolver Resolver
	Fetcher  Fetcher
	States   MessageStateStore
	MaxNames int
}

// NewCompareService constructs a CompareService.
func NewCompareService(r Resolver, f Fetcher, states MessageStateStore) *CompareService {
	return &CompareService{Resolver: r, Fetcher: f, States: states, MaxNames: DefaultMaxNames}
}

// Compare resolves names and fetches each resolved channel in mode. Blank and
// repeated names (case-insensitively) are dropped before resolution.
func (s *CompareService) Compare(ctx context.Context, names []string, mode domain.Mode) (*Batch, error) {
	tr := observability.Tracer("services/CompareService")
	ctx, span := tr.Start(ctx, "Compare",
		trace.WithAttributes(
			attribute.Int("names", len(names)),
			attribute.String("mode", string(mode)),
		),
	)
	defer span.End()

	if mode != domain.ModeVODs && mode != domain.ModeShorts {
		return nil, ErrInvalidInput
	}
	uniq := dedupeNames(names)
	if len(uniq) == 0 {
		return nil, ErrInvalidInput
	}
	if len(uniq) > s.maxNames() {
		return nil, ErrTooManyNames
	}

	batch := &Batch{Mode: mode, Outcomes: make([]Outcome, len(uniq))}

	var g errgroup.Group
	for i, name := range uniq {
		g.Go(func() error {
			o := &batch.Outcomes[i]
			o.Name = name
			res, found, err := s.Resolver.Resolve(ctx, name)
			switch {
			case err != nil:
				o.Status, o.Err = StatusResolutionFailed, err
			case !found:
				o.Status = StatusNotFound
			default:
				o.Channel = domain.ShownChannel{ChannelID: res.ChannelID, Title: res.Title}
			}
			return nil
		})
	}
	_ = g.Wait()

	s.fetchAll(ctx, batch)
	return batch, nil
}

// SwitchMode re-renders the channels recorded for a message in another mode
// without resolving names again.
func (s *CompareService) SwitchMode(ctx context.Context, chatID, messageID int64, mode domain.Mode) (*Batch, error) {
	tr := observability.Tracer("services/CompareService")
	ctx, span := tr.Start(ctx, "SwitchMode",
		trace.WithAttributes(
			attribute.Int64("chat.id", chatID),
			attribute.Int64("message.id", messageID),
			attribute.String("mode", string(mode)),
		),
	)
	defer span.End()

	if mode != domain.ModeVODs && mode != domain.ModeShorts {
		return nil, ErrInvalidInput
	}
	entries, ok, err := s.States.GetMessageState(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if !ok || len(entries) == 0 {
		return nil, ErrStateNotFound
	}

	batch := &Batch{Mode: mode, Outcomes: make([]Outcome, len(entries))}
	for i, e := range entries {
		batch.Outcomes[i] = Outcome{Channel: e}
	}
	s.fetchAll(ctx, batch)
	return batch, nil
}

// fetchAll fetches every outcome that has a channel and no status yet.
func (s *CompareService) fetchAll(ctx context.Context, batch *Batch) {
	var g errgroup.Group
	for i := range batch.Outcomes {
		o := &batch.Outcomes[i]
		if o.Status != "" {
			continue
		}
		g.Go(func() error {
			rep, err := s.Fetcher.FetchForChannel(ctx, o.Channel.ChannelID, o.Channel.Title, batch.Mode)
			if err != nil {
				o.Status, o.Err = StatusFailed, err
				return nil
			}
			o.Status, o.Report = StatusFetched, &rep
			return nil
		})
	}
	_ = g.Wait()
}

func (s *CompareService) maxNames() int {
	if s.MaxNames <= 0 {
		return DefaultMaxNames
	}
	return s.MaxNames
}

func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := domain.NormalizeName(n)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}
