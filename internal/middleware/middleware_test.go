package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/lumenbooth/firefly-booth/internal/config"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func signed(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func serve(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func guarded(secret string, roles ...string) *echo.Echo {
	e := echo.New()
	g := e.Group("", JWTAuth(secret), RequireRole(roles...))
	g.GET("/who", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"sub": c.Get("user_id"), "role": c.Get("role")})
	})
	return e
}

func TestJWTAuthAndRole(t *testing.T) {
	const secret = "booth-secret"
	exp := time.Now().Add(time.Hour).Unix()
	e := guarded(secret, RoleStaff, RoleAdmin)

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", signed(t, "other", jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a", "role": RoleStaff, "exp": exp}), http.StatusUnauthorized},
		{"expired", signed(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a", "role": RoleStaff, "exp": time.Now().Add(-time.Minute).Unix()}), http.StatusUnauthorized},
		{"unknown role", signed(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a", "role": "GUEST", "exp": exp}), http.StatusForbidden},
		{"staff", signed(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a", "role": RoleStaff, "exp": exp}), http.StatusOK},
		{"admin", signed(t, secret, jwt.SigningMethodHS512, jwt.MapClaims{"sub": "b", "role": RoleAdmin, "exp": exp}), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := serve(e, http.MethodGet, "/who", tc.token); rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestRequireRoleAdminOnly(t *testing.T) {
	const secret = "booth-secret"
	e := guarded(secret, RoleAdmin)
	tok := signed(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a", "role": RoleStaff, "exp": time.Now().Add(time.Hour).Unix()})
	if rec := serve(e, http.MethodGet, "/who", tok); rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestTokenBucketLimitsPerCaller(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            time.Hour,
		Prefix:         "test:rl",
	}
	e := echo.New()
	setCaller := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("user_id", c.Request().Header.Get("X-Caller"))
			return next(c)
		}
	}
	e.POST("/v1/checkins", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, setCaller, NewTokenBucket(cfg, rdb))

	do := func(caller string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/checkins", nil)
		req.Header.Set("X-Caller", caller)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := do("kiosk-a"); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	rec := do("kiosk-a")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
	if rec := do("kiosk-b"); rec.Code != http.StatusNoContent {
		t.Fatalf("other caller: status = %d, want 204", rec.Code)
	}
}

func TestTokenBucketFailsOpenWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "x"}
	e := echo.New()
	e.POST("/p", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, rdb))
	for i := 0; i < 3; i++ {
		if rec := serve(e, http.MethodPost, "/p", ""); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d, want 204", i, rec.Code)
		}
	}
}

func TestRedisCacheServesSecondGetFromRedis(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "test:cache", MaxBodyBytes: 1 << 10}
	calls := 0
	e := echo.New()
	e.GET("/v1/sections", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, []echo.Map{{"id": 1, "name": "Meadow"}})
	}, NewResponseCache(cfg, rdb).Middleware())

	first := serve(e, http.MethodGet, "/v1/sections", "")
	second := serve(e, http.MethodGet, "/v1/sections", "")
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
	if first.Header().Get("X-Cache") != "MISS" || second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("X-Cache = %q then %q", first.Header().Get("X-Cache"), second.Header().Get("X-Cache"))
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("cached body %q differs from %q", second.Body.String(), first.Body.String())
	}
}

func TestRedisCacheSkipsErrorsAndLargeBodies(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "test:cache", MaxBodyBytes: 8}
	calls := 0
	e := echo.New()
	e.GET("/big", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"payload": "much more than eight bytes"})
	}, NewResponseCache(cfg, rdb).Middleware())
	e.GET("/missing", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusNotFound, echo.Map{"error": "nope"})
	}, NewResponseCache(cfg, rdb).Middleware())

	for _, path := range []string{"/big", "/big", "/missing", "/missing"} {
		serve(e, http.MethodGet, path, "")
	}
	if calls != 4 {
		t.Fatalf("handler calls = %d, want 4", calls)
	}
}

func TestCallerID(t *testing.T) {
	e := echo.New()
	cases := []struct {
		in   interface{}
		want string
	}{
		{nil, "anon"},
		{"", "anon"},
		{"door-staff", "door-staff"},
		{float64(42), "42"},
	}
	for _, tc := range cases {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if tc.in != nil {
			c.Set("user_id", tc.in)
		}
		if got := callerID(c); got != tc.want {
			t.Errorf("callerID(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResponseCacheInvalidate(t *testing.T) {
	rdb := newRedis(t)
	rc := NewResponseCache(config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "test:cache", MaxBodyBytes: 1 << 10}, rdb)
	calls := 0
	e := echo.New()
	e.GET("/v1/sections", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"n": calls})
	}, rc.Middleware())

	serve(e, http.MethodGet, "/v1/sections", "")
	if err := rc.Invalidate(context.Background(), "/v1/sections"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if rec := serve(e, http.MethodGet, "/v1/sections", ""); rec.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("X-Cache = %q after invalidate, want MISS", rec.Header().Get("X-Cache"))
	}
	if calls != 2 {
		t.Fatalf("handler calls = %d, want 2", calls)
	}

	var inert *ResponseCache
	if err := inert.Invalidate(context.Background(), "/v1/sections"); err != nil {
		t.Fatalf("nil cache Invalidate: %v", err)
	}
}
