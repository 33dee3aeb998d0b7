package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/yt-vantage/internal/config"
	"github.com/tbourn/yt-vantage/internal/domain"
	"github.com/tbourn/yt-vantage/internal/http/handlers"
	"github.com/tbourn/yt-vantage/internal/repo"
	"github.com/tbourn/yt-vantage/internal/services"
	"github.com/tbourn/yt-vantage/internal/upstream"
)

// stubClient answers every search with a channel derived from the name.
type stubClient struct{}

func (stubClient) SearchChannel(_ context.Context, name string) (upstream.ChannelRef, bool, error) {
	key := strings.ToLower(name)
	if key == "nobody" {
		return upstream.ChannelRef{}, false, nil
	}
	return upstream.ChannelRef{ID: "UC-" + key, Title: strings.ToUpper(name)}, true, nil
}

func (stubClient) GetVODs(_ context.Context, id string) ([]domain.Video, error) {
	return []domain.Video{{VideoID: "v1", Title: "first", ViewCount: 2_500_000, URL: domain.VideoURL("v1", domain.KindVOD), Kind: domain.KindVOD}}, nil
}

func (stubClient) GetShorts(_ context.Context, id string) ([]domain.Video, error) {
	return []domain.Video{}, nil
}

func newDeps(t *testing.T) handlers.Deps {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	store := repo.NewStore(db)
	client := stubClient{}
	resolver := services.NewResolutionService(store, store, client)
	fetcher := services.NewFetchService(store, client)
	return handlers.Deps{
		Resolver:  resolver,
		Fetcher:   fetcher,
		Comparer:  services.NewCompareService(resolver, fetcher, store),
		States:    services.NewMessageStateService(store),
		Favorites: services.NewFavoritesService(store),
	}
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:  "/api/v1",
		MaxBodyBytes: 1 << 20,
		RateRPS:      100,
		RateBurst:    100,
		OTEL:         config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newDeps(t), cfg)
	return r
}

func do(r http.Handler, method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_Health_Metrics_Fallbacks(t *testing.T) {
	r := newRouter(t, testConfig())

	w := do(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("GET /health = %d, rid=%q", w.Code, w.Header().Get("X-Request-ID"))
	}

	w = do(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	w = do(r, http.MethodGet, "/nope", "", nil)
	var er handlers.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("404 body: %v", err)
	}
	if w.Code != http.StatusNotFound || er.Code != handlers.ErrCodeNotFound || er.RequestID == "" {
		t.Fatalf("NoRoute = %d %+v", w.Code, er)
	}

	if w := do(r, http.MethodPost, "/health", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORS(t *testing.T) {
	r := newRouter(t, testConfig())
	w := do(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://anywhere.test"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-all expected '*', got %q", got)
	}

	cfg := testConfig()
	cfg.CORS.AllowedOrigins = []string{"http://allowed.test"}
	r = newRouter(t, cfg)
	w = do(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://allowed.test"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://allowed.test" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
	w = do(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://evil.test"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("disallowed origin expected 403, got %d", w.Code)
	}
}

func TestRegisterRoutes_Gzip(t *testing.T) {
	r := newRouter(t, testConfig())
	w := do(r, http.MethodGet, "/health", "", map[string]string{"Accept-Encoding": "gzip"})
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, headers=%v", w.Header())
	}
}

func TestRegisterRoutes_EndToEnd(t *testing.T) {
	r := newRouter(t, testConfig())

	w := do(r, http.MethodGet, "/api/v1/channels/resolve?name=Linus", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"channel_id":"UC-linus"`) {
		t.Fatalf("resolve = %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/api/v1/channels/UC-linus/videos?title=LINUS", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "2.5M") {
		t.Fatalf("videos = %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/api/v1/compare", `{"names":["linus","nobody"],"chat_id":1,"message_id":2}`, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"recorded":true`) {
		t.Fatalf("compare = %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/api/v1/chats/1/messages/2/switch", `{"mode":"shorts"}`, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "No Shorts found or accessible.") {
		t.Fatalf("switch = %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/api/v1/chats/1/messages/2/channels", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"channel_id":"UC-linus"`) {
		t.Fatalf("state = %d %s", w.Code, w.Body.String())
	}

	if w := do(r, http.MethodPost, "/api/v1/users/7/favorites", `{"channel_id":"UC-linus","title":"LINUS"}`, nil); w.Code != http.StatusCreated {
		t.Fatalf("add favorite = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/users/7/favorites/UC-linus", "", nil); !strings.Contains(w.Body.String(), `"favorite":true`) {
		t.Fatalf("get favorite = %s", w.Body.String())
	}
	if w := do(r, http.MethodDelete, "/api/v1/users/7/favorites/UC-linus", "", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete favorite = %d", w.Code)
	}
}

func TestRegisterRoutes_RateLimitedPerChat(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r := newRouter(t, cfg)

	if w := do(r, http.MethodGet, "/api/v1/chats/1/messages/2/channels", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("first = %d", w.Code)
	}
	w := do(r, http.MethodGet, "/api/v1/chats/1/messages/3/channels", "", nil)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Fatalf("second = %d, retry-after=%q", w.Code, w.Header().Get("Retry-After"))
	}
	if w := do(r, http.MethodGet, "/api/v1/chats/9/messages/3/channels", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("other chat = %d", w.Code)
	}
	// Health is outside the API group and never limited.
	for i := 0; i < 3; i++ {
		if w := do(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
			t.Fatalf("health %d = %d", i, w.Code)
		}
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, w.Code, w.Body.String())
		}
	}
}
