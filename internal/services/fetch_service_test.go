package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/yt-vantage/internal/domain"
	"github.com/tbourn/yt-vantage/internal/repo"
	"github.com/tbourn/yt-vantage/internal/upstream"
)

func TestFetch_EmptyListIsCached(t *testing.T) {
	st, _ := newStore(t)
	fc := &fakeClient{} // zero uploads
	s := NewFetchService(st, fc)
	ctx := context.Background()

	r1, err := s.FetchForChannel(ctx, "UC1", "Quiet", domain.ModeVODs)
	if err != nil || len(r1.Videos) != 0 || r1.Cached {
		t.Fatalf("first fetch = (%+v, %v)", r1, err)
	}
	if !strings.Contains(r1.Text, "No VODs found or accessible.") {
		t.Fatalf("unexpected text %q", r1.Text)
	}
	r2, err := s.FetchForChannel(ctx, "UC1", "Quiet", domain.ModeVODs)
	if err != nil || len(r2.Videos) != 0 || !r2.Cached {
		t.Fatalf("second fetch = (%+v, %v)", r2, err)
	}
	if _, v, _ := fc.calls(); v != 1 {
		t.Fatalf("vod calls = %d; want 1", v)
	}
}

func TestFetch_FailureIsNotCachedAndRetriesNextTime(t *testing.T) {
	st, _ := newStore(t)
	cause := &upstream.Error{Op: "videos.list", Status: 500}
	fc := &fakeClient{shorts: func(string) ([]domain.Video, error) { return nil, cause }}
	s := NewFetchService(st, fc)
	ctx := context.Background()

	_, err := s.FetchForChannel(ctx, "UC1", "Busy", domain.ModeShorts)
	var ff *FetchFailure
	if !errors.As(err, &ff) || !errors.Is(err, ErrFetchFailed) || !errors.Is(err, cause) {
		t.Fatalf("expected FetchFailure, got %v", err)
	}
	if ff.ChannelID != "UC1" || ff.Mode != domain.ModeShorts {
		t.Fatalf("unexpected failure fields: %+v", ff)
	}
	if _, hit, _ := st.GetCache(ctx, "shorts:UC1", time.Hour); hit {
		t.Fatalf("failure must not write a cache entry")
	}

	fc.mu.Lock()
	fc.shorts = func(string) ([]domain.Video, error) {
		return []domain.Video{vid("s1", 10, domain.KindShort)}, nil
	}
	fc.mu.Unlock()
	r, err := s.FetchForChannel(ctx, "UC1", "Busy", domain.ModeShorts)
	if err != nil || len(r.Videos) != 1 {
		t.Fatalf("retry fetch = (%+v, %v)", r, err)
	}
	if _, _, sh := fc.calls(); sh != 2 {
		t.Fatalf("short calls = %d; want 2", sh)
	}
}

func TestFetch_ModesUseSeparateCacheEntries(t *testing.T) {
	st, _ := newStore(t)
	fc := &fakeClient{
		vods:   func(string) ([]domain.Video, error) { return []domain.Video{vid("v", 5, domain.KindVOD)}, nil },
		shorts: func(string) ([]domain.Video, error) { return []domain.Video{vid("s", 7, domain.KindShort)}, nil },
	}
	s := NewFetchService(st, fc)
	ctx := context.Background()

	v, _ := s.FetchForChannel(ctx, "UC1", "Both", domain.ModeVODs)
	sh, _ := s.FetchForChannel(ctx, "UC1", "Both", domain.ModeShorts)
	if v.Videos[0].VideoID != "v" || sh.Videos[0].VideoID != "s" {
		t.Fatalf("modes crossed: %+v / %+v", v.Videos, sh.Videos)
	}
	v2, _ := s.FetchForChannel(ctx, "UC1", "Both", domain.ModeVODs)
	if !v2.Cached || v2.Videos[0].VideoID != "v" || v2.Videos[0].Kind != domain.KindVOD {
		t.Fatalf("cached vods mismatch: %+v", v2)
	}
}

func TestFetch_TTLExpiryRefetches(t *testing.T) {
	st, clk := newStore(t)
	fc := &fakeClient{}
	s := NewFetchService(st, fc)
	ctx := context.Background()

	_, _ = s.FetchForChannel(ctx, "UC1", "x", domain.ModeVODs)
	clk.Advance(6*time.Hour - time.Nanosecond)
	_, _ = s.FetchForChannel(ctx, "UC1", "x", domain.ModeVODs)
	if _, v, _ := fc.calls(); v != 1 {
		t.Fatalf("vod calls inside ttl = %d; want 1", v)
	}
	clk.Advance(time.Nanosecond)
	_, _ = s.FetchForChannel(ctx, "UC1", "x", domain.ModeVODs)
	if _, v, _ := fc.calls(); v != 2 {
		t.Fatalf("vod calls at ttl = %d; want 2", v)
	}
}

func TestFetch_CorruptPayloadIsAMiss(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()
	if err := st.SetCache(ctx, "vods:UC1", "{not json"); err != nil {
		t.Fatal(err)
	}
	fc := &fakeClient{vods: func(string) ([]domain.Video, error) {
		return []domain.Video{vid("a", 1, domain.KindVOD)}, nil
	}}
	s := NewFetchService(st, fc)

	r, err := s.FetchForChannel(ctx, "UC1", "x", domain.ModeVODs)
	if err != nil || r.Cached || len(r.Videos) != 1 {
		t.Fatalf("expected upstream refetch, got (%+v, %v)", r, err)
	}
	if payload, hit, _ := st.GetCache(ctx, "vods:UC1", time.Hour); !hit || !strings.HasPrefix(payload, "[") {
		t.Fatalf("expected corrupt payload to be overwritten, got %q", payload)
	}
}

func TestFetch_CacheWriteFailureStillReturnsResult(t *testing.T) {
	st, _ := newStore(t)
	fc := &fakeClient{vods: func(string) ([]domain.Video, error) {
		return []domain.Video{vid("a", 1, domain.KindVOD)}, nil
	}}
	s := NewFetchService(failingCache{CacheStore: st, failSet: true}, fc)

	r, err := s.FetchForChannel(context.Background(), "UC1", "x", domain.ModeVODs)
	if err != nil || len(r.Videos) != 1 {
		t.Fatalf("expected result despite cache write failure, got (%+v, %v)", r, err)
	}
	if !repo.IsStoreError(r.CacheErr) {
		t.Fatalf("cache write failure must surface on the report, got %v", r.CacheErr)
	}

	ok, err := NewFetchService(st, fc).FetchForChannel(context.Background(), "UC2", "y", domain.ModeVODs)
	if err != nil || ok.CacheErr != nil {
		t.Fatalf("successful write must leave CacheErr nil, got (%v, %v)", ok.CacheErr, err)
	}
}

func TestFetch_CacheReadFailurePropagates(t *testing.T) {
	st, _ := newStore(t)
	fc := &fakeClient{}
	s := NewFetchService(failingCache{CacheStore: st, failGet: true}, fc)

	_, err := s.FetchForChannel(context.Background(), "UC1", "x", domain.ModeVODs)
	if !repo.IsStoreError(err) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if _, v, _ := fc.calls(); v != 0 {
		t.Fatalf("store read failure must not fall through to upstream")
	}
}

// cancelingClient cancels the caller's context mid-call and records what the
// upstream call observed afterwards.
type cancelingClient struct {
	fakeClient
	cancel context.CancelFunc
	seen   error
}

func (c *cancelingClient) GetVODs(ctx context.Context, id string) ([]domain.Video, error) {
	c.cancel()
	c.seen = ctx.Err()
	return []domain.Video{vid("a", 1, domain.KindVOD)}, nil
}

func TestFetch_UpstreamOutlivesCallerCancellation(t *testing.T) {
	st, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cc := &cancelingClient{cancel: cancel}
	s := NewFetchService(st, cc)

	r, err := s.FetchForChannel(ctx, "UC1", "x", domain.ModeVODs)
	if err != nil || len(r.Videos) != 1 {
		t.Fatalf("FetchForChannel = (%+v, %v)", r, err)
	}
	if cc.seen != nil {
		t.Fatalf("upstream call saw cancelled context: %v", cc.seen)
	}
	// The result was still cached for the next caller.
	if _, hit, _ := st.GetCache(context.Background(), "vods:UC1", time.Hour); !hit {
		t.Fatalf("expected result to be cached after caller cancelled")
	}
}

func TestFetch_InvalidInput(t *testing.T) {
	st, _ := newStore(t)
	s := NewFetchService(st, &fakeClient{})
	if _, err := s.FetchForChannel(context.Background(), "", "x", domain.ModeVODs); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty id, got %v", err)
	}
	if _, err := s.FetchForChannel(context.Background(), "UC1", "x", domain.Mode("live")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad mode, got %v", err)
	}
}
