package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestKeyByConversation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var keys []string
	r := gin.New()
	record := func(c *gin.Context) { keys = append(keys, KeyByConversation()(c)); c.Status(http.StatusNoContent) }
	r.GET("/chats/:chatID/messages/:messageID/channels", record)
	r.GET("/users/:userID/favorites", record)
	r.GET("/compare", record)

	for _, p := range []string{"/chats/-100/messages/5/channels", "/users/9/favorites", "/compare"} {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	want := []string{"chat:-100", "user:9", "ip:203.0.113.9"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("key %d = %q; want %q", i, keys[i], want[i])
		}
	}
}

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/chats/:chatID/ping", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimiter_RejectsOverBurstAndRefills(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(1, 2, nil)
	rl.now = clk.Now
	r := newLimitedRouter(rl)

	for i := 0; i < 2; i++ {
		if w := serve(r, http.MethodGet, "/chats/1/ping"); w.Code != http.StatusOK {
			t.Fatalf("request %d -> %d", i, w.Code)
		}
	}

	w := serve(r, http.MethodGet, "/chats/1/ping")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Fatalf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body["code"] != "too_many_requests" || body["request_id"] == "" {
		t.Fatalf("unexpected envelope: %v", body)
	}

	// Another chat has its own bucket.
	if w := serve(r, http.MethodGet, "/chats/2/ping"); w.Code != http.StatusOK {
		t.Fatalf("other chat -> %d", w.Code)
	}

	// A rejected request does not consume a token.
	clk.Advance(time.Second)
	if w := serve(r, http.MethodGet, "/chats/1/ping"); w.Code != http.StatusOK {
		t.Fatalf("after refill -> %d", w.Code)
	}
}

func TestRateLimiter_DisabledAndBurstCoercion(t *testing.T) {
	rl := NewRateLimiter(0, 0, nil)
	if rl.burst != 1 {
		t.Fatalf("burst coercion failed, got %d", rl.burst)
	}
	r := newLimitedRouter(rl)
	for i := 0; i < 50; i++ {
		if w := serve(r, http.MethodGet, "/chats/1/ping"); w.Code != http.StatusOK {
			t.Fatalf("request %d -> %d with limiting disabled", i, w.Code)
		}
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(1, 1, nil)
	rl.now = clk.Now

	a := rl.limiter("a")
	if rl.limiter("a") != a {
		t.Fatalf("expected bucket reuse")
	}
	clk.Advance(rl.idleTTL + time.Second)
	rl.limiter("b")
	if rl.Len() != 1 {
		t.Fatalf("idle bucket not swept, len=%d", rl.Len())
	}
	if rl.limiter("a") == a {
		t.Fatalf("expected a fresh bucket for a swept key")
	}
}
