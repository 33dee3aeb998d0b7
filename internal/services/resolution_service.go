// Package services – ResolutionService
//
// ResolutionService turns a human-typed channel name into a stable channel
// identity. Lookups go negative cache → stored mapping → upstream search.
// Definitive misses are remembered for NegativeTTL so repeated typos cost one
// search per hour. Transient upstream failures are reported as
// *ResolutionFailure and leave no trace in the cache.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/yt-vantage/internal/domain"
	"github.com/tbourn/yt-vantage/internal/observability"
	"github.com/tbourn/yt-vantage/internal/upstream"
)

// Resolution defaults.
const (
	DefaultNegativeTTL = time.Hour
	DefaultStaleAfter  = 30 * 24 * time.Hour

	negativePrefix  = "not_found:"
	negativePayload = "null"
)

// Resolution is a resolved channel identity.
type Resolution struct {
	ChannelID    string `json:"channel_id"`
	Title        string `json:"title"`
	OriginalName string `json:"original_name"`
}

// ResolutionService resolves channel names with positive and negative caching.
type ResolutionService struct {
	Cache    CacheStore
	Mappings MappingStore
	Client   upstream.Client

	// NegativeTTL bounds how long a definitive miss suppresses searches.
	NegativeTTL time.Duration
	// StaleAfter is the age at which a stored mapping is re-confirmed upstream.
	StaleAfter time.Duration
	// Now is the clock used for mapping staleness.
	Now func() time.Time

	group singleflight.Group
}

// NewResolutionService constructs a ResolutionService with default windows.
func NewResolutionService(cache CacheStore, mappings MappingStore, client upstream.Client) *ResolutionService {
	return &ResolutionService{
		Cache:       cache,
		Mappings:    mappings,
		Client:      client,
		NegativeTTL: DefaultNegativeTTL,
		StaleAfter:  DefaultStaleAfter,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

type lookup struct {
	id, title string
	found     bool
}

// Resolve returns the channel for name. found is false when the name matched
// nothing, now or within the negative TTL. Concurrent calls for the same
// normalized name share one lookup.
func (s *ResolutionService) Resolve(ctx context.Context, name string) (Resolution, bool, error) {
	tr := observability.Tracer("services/ResolutionService")
	ctx, span := tr.Start(ctx, "Resolve",
		trace.WithAttributes(attribute.String("channel.name", name)),
	)
	defer span.End()

	norm := domain.NormalizeName(name)
	if norm == "" {
		return Resolution{}, false, ErrInvalidInput
	}

	// The shared lookup must survive any single caller giving up. The
	// upstream search sees the name as typed by whichever caller runs it.
	query := strings.TrimSpace(name)
	v, err, shared := s.group.Do(norm, func() (any, error) {
		return s.lookup(context.WithoutCancel(ctx), norm, query)
	})
	span.SetAttributes(attribute.Bool("resolve.shared", shared))
	if err != nil {
		span.RecordError(err)
		return Resolution{}, false, err
	}
	res := v.(lookup)
	if !res.found {
		return Resolution{}, false, nil
	}
	return Resolution{ChannelID: res.id, Title: res.title, OriginalName: name}, true, nil
}

// lookup resolves norm, searching upstream for query on a miss.
func (s *ResolutionService) lookup(ctx context.Context, norm, query string) (lookup, error) {
	logger := log.Ctx(ctx).With().Str("name", norm).Logger()
	negKey := negativePrefix + norm

	if _, hit, err := s.Cache.GetCache(ctx, negKey, s.negativeTTL()); err != nil {
		return lookup{}, err
	} else if hit {
		observability.CacheLookups.WithLabelValues("negative", "hit").Inc()
		return lookup{}, nil
	}
	observability.CacheLookups.WithLabelValues("negative", "miss").Inc()

	m, ok, err := s.Mappings.GetMapping(ctx, norm)
	if err != nil {
		return lookup{}, err
	}
	if ok && s.now().Sub(m.LastResolvedAt) < s.staleAfter() {
		observability.CacheLookups.WithLabelValues("mapping", "hit").Inc()
		return lookup{id: m.ChannelID, title: m.Title, found: true}, nil
	}
	if ok {
		observability.CacheLookups.WithLabelValues("mapping", "stale").Inc()
	} else {
		observability.CacheLookups.WithLabelValues("mapping", "miss").Inc()
	}

	ref, found, err := s.Client.SearchChannel(ctx, query)
	switch {
	case err != nil && upstream.IsDefinitive(err):
		logger.Info().Err(err).Msg("channel search rejected; caching as not found")
		return lookup{}, s.Cache.SetCache(ctx, negKey, negativePayload)
	case err != nil:
		logger.Warn().Err(err).Msg("channel search failed")
		return lookup{}, &ResolutionFailure{Name: norm, Err: err}
	case !found:
		logger.Debug().Msg("channel not found")
		return lookup{}, s.Cache.SetCache(ctx, negKey, negativePayload)
	}

	if err := s.Mappings.SetMapping(ctx, norm, ref.ID, ref.Title); err != nil {
		return lookup{}, err
	}
	logger.Debug().Str("channel_id", ref.ID).Msg("channel resolved")
	return lookup{id: ref.ID, title: ref.Title, found: true}, nil
}

func (s *ResolutionService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

func (s *ResolutionService) negativeTTL() time.Duration {
	if s.NegativeTTL <= 0 {
		return DefaultNegativeTTL
	}
	return s.NegativeTTL
}

func (s *ResolutionService) staleAfter() time.Duration {
	if s.StaleAfter <= 0 {
		return DefaultStaleAfter
	}
	return s.StaleAfter
}
