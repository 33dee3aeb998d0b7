package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tbourn/yt-vantage/internal/config"
	"github.com/tbourn/yt-vantage/internal/domain"
	"github.com/tbourn/yt-vantage/internal/upstream"
)

type stubClient struct{}

func (stubClient) SearchChannel(_ context.Context, name string) (upstream.ChannelRef, bool, error) {
	return upstream.ChannelRef{ID: "UC" + name, Title: name}, true, nil
}
func (stubClient) GetVODs(context.Context, string) ([]domain.Video, error)   { return nil, nil }
func (stubClient) GetShorts(context.Context, string) ([]domain.Video, error) { return nil, nil }

func isolateEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "bot.db")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("YOUTUBE_API_KEY", "")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
	return dbPath
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	want := map[string]bool{"serve": false, "prune": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestPruneCmd_RunsOnce(t *testing.T) {
	isolateEnv(t)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"prune"})

	if err := root.Execute(); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if !strings.Contains(out.String(), "pruned 0 cache rows, 0 message states") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestServeCmd_RequiresAPIKey(t *testing.T) {
	isolateEnv(t)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"serve"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "YOUTUBE_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestRootCmd_MissingEnvFileIgnored(t *testing.T) {
	isolateEnv(t)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "absent.env"), "prune"})
	if err := root.Execute(); err != nil {
		t.Fatalf("prune with absent env file: %v", err)
	}
}

func TestBuildServer_ServesAPI(t *testing.T) {
	isolateEnv(t)
	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}

	a, err := openStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.close()
	a.buildServer(stubClient{})

	srv := a.httpServer()
	if srv.Addr != ":"+cfg.Port || srv.ReadHeaderTimeout != cfg.ReadHeaderTimeout {
		t.Fatalf("server not configured from cfg: %+v", srv)
	}

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health = %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, cfg.APIBasePath+"/channels/resolve?name=alpha", nil)
	srv.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "UCalpha") {
		t.Fatalf("resolve = %d %s", w.Code, w.Body.String())
	}
}

func TestNewYouTube_FromConfig(t *testing.T) {
	cfg := config.Config{Upstream: config.UpstreamConfig{
		APIKey: "k", Workers: 2, RPS: 1, Burst: 1,
		RetryMaxAttempts: 2, RetryInitialDelay: 1, RetryBackoff: 2,
	}}
	c, err := newYouTube(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c.Pool().Size() != 2 {
		t.Fatalf("pool size = %d", c.Pool().Size())
	}
}
