package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/yt-vantage/internal/domain"
	"github.com/tbourn/yt-vantage/internal/repo"
	"github.com/tbourn/yt-vantage/internal/upstream"
)

// ---------- test helpers ----------

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *testClock {
	return &testClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newStore(t *testing.T) (*repo.Store, *testClock) {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	clk := newClock()
	return &repo.Store{DB: db, Now: clk.Now}, clk
}

// fakeClient is a scripted upstream.Client that counts calls.
type fakeClient struct {
	mu          sync.Mutex
	searchCalls int
	vodCalls    int
	shortCalls  int

	search func(name string) (upstream.ChannelRef, bool, error)
	vods   func(id string) ([]domain.Video, error)
	shorts func(id string) ([]domain.Video, error)
}

func (f *fakeClient) SearchChannel(ctx context.Context, name string) (upstream.ChannelRef, bool, error) {
	f.mu.Lock()
	f.searchCalls++
	fn := f.search
	f.mu.Unlock()
	if fn == nil {
		return upstream.ChannelRef{}, false, nil
	}
	return fn(name)
}

func (f *fakeClient) GetVODs(ctx context.Context, id string) ([]domain.Video, error) {
	f.mu.Lock()
	f.vodCalls++
	fn := f.vods
	f.mu.Unlock()
	if fn == nil {
		return []domain.Video{}, nil
	}
	return fn(id)
}

func (f *fakeClient) GetShorts(ctx context.Context, id string) ([]domain.Video, error) {
	f.mu.Lock()
	f.shortCalls++
	fn := f.shorts
	f.mu.Unlock()
	if fn == nil {
		return []domain.Video{}, nil
	}
	return fn(id)
}

func (f *fakeClient) calls() (search, vods, shorts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls, f.vodCalls, f.shortCalls
}

// failingCache fails reads or writes with a StoreError.
type failingCache struct {
	CacheStore
	failGet, failSet bool
}

func (f failingCache) GetCache(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if f.failGet {
		return "", false, &repo.StoreError{Op: "get_cache", Err: fmt.Errorf("disk I/O error")}
	}
	return f.CacheStore.GetCache(ctx, key, ttl)
}

func (f failingCache) SetCache(ctx context.Context, key, payload string) error {
	if f.failSet {
		return &repo.StoreError{Op: "set_cache", Err: fmt.Errorf("disk I/O error")}
	}
	return f.CacheStore.SetCache(ctx, key, payload)
}

func vid(id string, views uint64, kind domain.VideoKind) domain.Video {
	return domain.Video{VideoID: id, Title: "t-" + id, ViewCount: views, URL: domain.VideoURL(id, kind), Kind: kind}
}
