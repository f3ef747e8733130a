package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-invitations-backend/internal/domain"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")

	if got := KeyByUserOrIP()(c); got != "ip:203.0.113.9" {
		t.Fatalf("anonymous key = %q", got)
	}
	c.Set(userIDKey, "alice")
	if got := KeyByUserOrIP()(c); got != "user:alice" {
		t.Fatalf("authenticated key = %q", got)
	}
}

func TestNewRateLimiter_BurstFloorAndReuse(t *testing.T) {
	rl := NewRateLimiter(2, 0, KeyByUserOrIP())
	if rl.burst != 1 {
		t.Fatalf("burst = %d, want 1", rl.burst)
	}
	now := time.Now()
	a := rl.limiterFor("alice", now)
	if rl.limiterFor("alice", now) != a {
		t.Fatalf("bucket not reused")
	}
	if rl.limiterFor("bob", now) == a {
		t.Fatalf("bob shares alice's bucket")
	}
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, KeyByUserOrIP())
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	rl.limiterFor("idle", t0)
	rl.limiterFor("busy", t0.Add(5*time.Minute))

	// Inside sweepEvery of the last sweep: nothing is dropped yet.
	rl.limiterFor("busy", t0.Add(5*time.Minute+30*time.Second))
	if _, ok := rl.buckets["idle"]; !ok {
		t.Fatalf("idle bucket swept early")
	}

	rl.limiterFor("fresh", t0.Add(bucketIdle+time.Minute))
	if _, ok := rl.buckets["idle"]; ok {
		t.Fatalf("idle bucket survived the sweep")
	}
	for _, k := range []string{"busy", "fresh"} {
		if _, ok := rl.buckets[k]; !ok {
			t.Fatalf("%s bucket dropped", k)
		}
	}
}

func TestIsRateBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if IsRateBypass(c) {
		t.Fatalf("bypass without a user")
	}
	c.Set(userKey, &domain.User{Username: "alice"})
	if IsRateBypass(c) {
		t.Fatalf("bypass for an account user")
	}
	c.Set(userKey, &domain.User{Username: "alice", Secret: true})
	if !IsRateBypass(c) {
		t.Fatalf("no bypass for a shared-secret user")
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 0.5 rps: a rejected caller waits two seconds for the next token.
	rl := NewRateLimiter(0.5, 1, KeyByUserOrIP())
	frozen := time.Now()
	rl.now = func() time.Time { return frozen }

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Header(requestIDHeader, "rid-1")
		if u := c.Query("u"); u != "" {
			c.Set(userIDKey, u)
		}
		if c.Query("svc") != "" {
			c.Set(userKey, &domain.User{Username: c.Query("u"), Secret: true})
		}
		c.Next()
	})
	r.Use(rl.Handler())
	r.GET("/invitations", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	get := func(query string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invitations"+query, nil))
		return w
	}

	base := testutil.ToFloat64(rateLimited)

	if w := get("?u=alice"); w.Code != http.StatusOK {
		t.Fatalf("first alice: %d", w.Code)
	}
	w := get("?u=alice")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second alice: %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("Retry-After = %q, want 2", got)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["code"] != "TooManyRequestsError" || body["message"] != "rate limit exceeded" || body["request_id"] != "rid-1" {
		t.Fatalf("body = %v", body)
	}
	// A rejection does not consume the token it was refused.
	if w := get("?u=alice"); w.Header().Get("Retry-After") != "2" {
		t.Fatalf("third alice Retry-After = %q", w.Header().Get("Retry-After"))
	}
	if got := testutil.ToFloat64(rateLimited); got != base+2 {
		t.Fatalf("rate_limited_total = %v, want %v", got, base+2)
	}

	if w := get("?u=bob"); w.Code != http.StatusOK {
		t.Fatalf("bob shares alice's bucket: %d", w.Code)
	}
	for i := 0; i < 3; i++ {
		if w := get("?u=alice&svc=1"); w.Code != http.StatusOK {
			t.Fatalf("shared-secret caller limited on #%d: %d", i, w.Code)
		}
	}

	frozen = frozen.Add(2 * time.Second)
	if w := get("?u=alice"); w.Code != http.StatusOK {
		t.Fatalf("alice after refill: %d", w.Code)
	}
}

func TestRetryAfter(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "1",
		300 * time.Millisecond:  "1",
		1500 * time.Millisecond: "2",
		rate.InfDuration:        "1",
	}
	for d, want := range cases {
		if got := retryAfter(d); got != want {
			t.Errorf("retryAfter(%v) = %q, want %q", d, got, want)
		}
	}
}
