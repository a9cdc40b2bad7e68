package middleware

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-ticketing/internal/config"
    "github.com/iliyamo/bus-ticketing/internal/utils"
)

const secret = "test-secret"

func staffServer() *echo.Echo {
    e := echo.New()
    g := e.Group("/v1", JWTAuth(secret), RequireRole(RoleStaff, RoleAdmin))
    g.GET("/whoami", func(c echo.Context) error {
        id, scoped := CompanyScope(c)
        return c.JSON(http.StatusOK, echo.Map{"sub": Subject(c), "company": id, "scoped": scoped})
    })
    return e
}

func call(e *echo.Echo, token string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
    if token != "" {
        req.Header.Set("Authorization", "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuthAndRoles(t *testing.T) {
    e := staffServer()

    if rec := call(e, ""); rec.Code != http.StatusUnauthorized {
        t.Fatalf("missing token: expected 401, got %d", rec.Code)
    }
    if rec := call(e, "garbage"); rec.Code != http.StatusUnauthorized {
        t.Fatalf("bad token: expected 401, got %d", rec.Code)
    }

    cust, _ := utils.NewStaffToken(secret, "9", "CUSTOMER", 0, time.Hour)
    if rec := call(e, cust.Token); rec.Code != http.StatusForbidden {
        t.Fatalf("customer: expected 403, got %d", rec.Code)
    }

    staff, _ := utils.NewStaffToken(secret, "7", RoleStaff, 3, time.Hour)
    rec := call(e, staff.Token)
    if rec.Code != http.StatusOK {
        t.Fatalf("staff: expected 200, got %d", rec.Code)
    }
    if body := rec.Body.String(); !strings.Contains(body, `"company":3`) || !strings.Contains(body, `"scoped":true`) || !strings.Contains(body, `"sub":"7"`) {
        t.Fatalf("unexpected body %s", body)
    }

    admin, _ := utils.NewStaffToken(secret, "1", RoleAdmin, 0, time.Hour)
    rec = call(e, admin.Token)
    if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"scoped":false`) {
        t.Fatalf("admin: got %d %s", rec.Code, rec.Body.String())
    }
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
    e := echo.New()
    hits := 0
    h := func(c echo.Context) error {
        hits++
        return c.String(http.StatusOK, "ok")
    }
    e.GET("/a", h, NewRedisCache(config.CacheConfig{Enabled: false}, nil), NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil))
    e.POST("/b", h, NewCachePurge(config.CacheConfig{Enabled: true}, nil))
    for _, r := range []*http.Request{httptest.NewRequest(http.MethodGet, "/a", nil), httptest.NewRequest(http.MethodPost, "/b", nil)} {
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, r)
        if rec.Code != http.StatusOK || rec.Header().Get("X-Cache") != "" {
            t.Fatalf("%s: unexpected %d %v", r.URL.Path, rec.Code, rec.Header())
        }
    }
    if hits != 2 {
        t.Fatalf("expected 2 handler calls, got %d", hits)
    }
}

func TestCacheKey(t *testing.T) {
    e := echo.New()
    cfg := config.CacheConfig{Prefix: "bus-cache", KeyStrategy: "route_query"}
    key := func(target string, id string) string {
        c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
        c.SetPath("/v1/seat-plans/:id")
        c.SetParamNames("id")
        c.SetParamValues(id)
        return cacheKey(cfg, c)
    }
    a := key("/v1/seat-plans/1?x=1&y=2", "1")
    if !strings.HasPrefix(a, "bus-cache:") {
        t.Fatalf("missing prefix: %s", a)
    }
    if a != key("/v1/seat-plans/1?y=2&x=1", "1") {
        t.Fatalf("query order should not matter")
    }
    if a == key("/v1/seat-plans/2?x=1&y=2", "2") {
        t.Fatalf("different ids must not share a key")
    }

    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/seat-plans/1", nil), httptest.NewRecorder())
    c.SetPath("/v1/seat-plans/:id")
    c.Set(CtxRole, RoleStaff)
    c.Set(CtxCompanyID, uint64(1))
    staffOne := cacheKey(cfg, c)
    c.Set(CtxCompanyID, uint64(2))
    if staffOne == cacheKey(cfg, c) {
        t.Fatalf("staff of different companies must not share a key")
    }
}

func TestRateKey(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/schedules/4/tickets", nil)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.8")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/schedules/:id/tickets")

    cfg := config.RateLimitConfig{Prefix: "bus-rl"}
    if got := rateKey(cfg, c); got != "bus-rl:ip:10.0.0.8:route:POST /v1/schedules/:id/tickets" {
        t.Fatalf("unexpected key %q", got)
    }
    cfg.KeyStrategy = "ip_user"
    if got := rateKey(cfg, c); got != "bus-rl:ip:10.0.0.8:user:anon" {
        t.Fatalf("unexpected key %q", got)
    }
    if retryAfterSeconds(1500) != 2 || retryAfterSeconds(-3) != 0 {
        t.Fatalf("unexpected retry-after rounding")
    }
}

func TestBodyRecorderOverflow(t *testing.T) {
    rec := &bodyRecorder{ResponseWriter: httptest.NewRecorder(), limit: 4}
    _, _ = rec.Write([]byte("abc"))
    if rec.overflow || rec.buf.String() != "abc" {
        t.Fatalf("unexpected state after small write")
    }
    _, _ = rec.Write([]byte("def"))
    if !rec.overflow || rec.buf.Len() != 0 {
        t.Fatalf("expected overflow")
    }
}
