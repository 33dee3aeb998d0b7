// Package services – FetchService
//
// FetchService returns the ranked videos of a channel for one mode, reading
// through a mode-scoped cache. Upstream success is cached even when empty;
// upstream failure is returned as *FetchFailure and never cached.
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/yt-vantage/internal/domain"
	"github.com/tbourn/yt-vantage/internal/observability"
	"github.com/tbourn/yt-vantage/internal/upstream"
)

// DefaultVideoTTL is how long a fetched video list is served from cache.
const DefaultVideoTTL = 6 * time.Hour

// Report is the rendered result for one channel.
type Report struct {
	ChannelID string         `json:"channel_id"`
	Title     string         `json:"title"`
	Mode      domain.Mode    `json:"mode"`
	Text      string         `json:"text"`
	Videos    []domain.Video `json:"videos"`
	Cached    bool           `json:"cached"`

	// CacheErr is set when the upstream result could not be written back to
	// the cache. The report itself is still valid.
	CacheErr error `json:"-"`
}

// FetchService retrieves and caches video lists.
type FetchService struct {
	Cache  CacheStore
	Client upstream.Client
	TTL    time.Duration
}

// NewFetchService constructs a FetchService with the default TTL.
func NewFetchService(cache CacheStore, client upstream.Client) *FetchService {
	return &FetchService{Cache: cache, Client: client, TTL: DefaultVideoTTL}
}

// FetchForChannel returns the report for channelID in mode. title is used for
// rendering only.
func (s *FetchService) FetchForChannel(ctx context.Context, channelID, title string, mode domain.Mode) (Report, error) {
	tr := observability.Tracer("services/FetchService")
	ctx, span := tr.Start(ctx, "FetchForChannel",
		trace.WithAttributes(
			attribute.String("channel.id", channelID),
			attribute.String("mode", string(mode)),
		),
	)
	defer span.End()

	if channelID == "" || (mode != domain.ModeVODs && mode != domain.ModeShorts) {
		return Report{}, ErrInvalidInput
	}
	logger := log.Ctx(ctx).With().Str("channel_id", channelID).Str("mode", string(mode)).Logger()
	key := mode.CacheKey(channelID)

	payload, hit, err := s.Cache.GetCache(ctx, key, s.ttl())
	if err != nil {
		span.RecordError(err)
		return Report{}, err
	}
	if hit {
		var videos []domain.Video
		derr := json.Unmarshal([]byte(payload), &videos)
		if derr == nil {
			observability.CacheLookups.WithLabelValues("videos", "hit").Inc()
			return s.report(channelID, title, mode, videos, true), nil
		}
		observability.CacheLookups.WithLabelValues("videos", "corrupt").Inc()
		logger.Warn().Err(derr).Msg("discarding unreadable cached video list")
	} else {
		observability.CacheLookups.WithLabelValues("videos", "miss").Inc()
	}

	// A caller that goes away must not abort a call that will populate the cache.
	uctx := context.WithoutCancel(ctx)
	var videos []domain.Video
	if mode == domain.ModeShorts {
		videos, err = s.Client.GetShorts(uctx, channelID)
	} else {
		videos, err = s.Client.GetVODs(uctx, channelID)
	}
	if err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Msg("video fetch failed")
		return Report{}, &FetchFailure{ChannelID: channelID, Mode: mode, Err: err}
	}
	if videos == nil {
		videos = []domain.Video{}
	}

	raw, err := json.Marshal(videos)
	if err == nil {
		err = s.Cache.SetCache(uctx, key, string(raw))
	}
	rep := s.report(channelID, title, mode, videos, false)
	if err != nil {
		span.RecordError(err)
		observability.CacheWriteFailures.WithLabelValues("videos").Inc()
		logger.Error().Err(err).Msg("caching video list failed")
		rep.CacheErr = err
	}
	return rep, nil
}

func (s *FetchService) report(channelID, title string, mode domain.Mode, videos []domain.Video, cached bool) Report {
	if videos == nil {
		videos = []domain.Video{}
	}
	return Report{
		ChannelID: channelID,
		Title:     title,
		Mode:      mode,
		Text:      RenderReport(title, channelID, mode, videos),
		Videos:    videos,
		Cached:    cached,
	}
}

func (s *FetchService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultVideoTTL
	}
	return s.TTL
}
