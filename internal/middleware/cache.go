package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "log"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/bus-ticketing/internal/config"
)

// cachedResponse is what a cache entry holds.  Headers are kept so a hit
// is byte-for-byte the same as the original response.
type cachedResponse struct {
    Status int         `json:"s"`
    Header http.Header `json:"h"`
    Body   []byte      `json:"b"`
}

// bodyRecorder tees the response body into buf up to limit bytes.
// overflow is set when the body did not fit; such responses are not cached.
type bodyRecorder struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (r *bodyRecorder) WriteHeader(code int) {
    r.status = code
    r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
    if !r.overflow {
        if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
            r.overflow = true
            r.buf.Reset()
        } else {
            r.buf.Write(b)
        }
    }
    return r.ResponseWriter.Write(b)
}

// cacheKey hashes the parts selected by cfg.KeyStrategy under cfg.Prefix.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = []string{"route", c.Path()}
    case "path":
        parts = []string{"path", r.URL.Path}
    case "path_query":
        parts = []string{"path", r.URL.Path, "q", r.URL.Query().Encode()}
    default: // route_query
        parts = []string{"route", c.Path(), "p", strings.Join(c.ParamValues(), ","), "q", r.URL.Query().Encode()}
    }
    if Role(c) != "" {
        // Staff reads are company scoped, so entries must be too.
        company, scoped := CompanyScope(c)
        parts = append(parts, "scope", fmt.Sprintf("%t/%d", scoped, company))
    }
    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// NewRedisCache serves repeated reads of schedule search and seat plans
// from Redis.  Only 200 responses are stored, for cfg.TTL.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[c.Request().Method] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, c)

            if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var hit cachedResponse
                if json.Unmarshal(raw, &hit) == nil {
                    return writeCached(c, hit)
                }
            }

            rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if rec.status != http.StatusOK || rec.overflow {
                return nil
            }
            entry := cachedResponse{Status: rec.status, Header: c.Response().Header().Clone(), Body: rec.buf.Bytes()}
            entry.Header.Del("X-Cache")
            entry.Header.Del(echo.HeaderXRequestID)
            if payload, err := json.Marshal(entry); err == nil {
                if err := rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
                    log.Printf("cache: store %s: %v", key, err)
                }
            }
            return nil
        }
    }
}

func writeCached(c echo.Context, hit cachedResponse) error {
    h := c.Response().Header()
    for k, vals := range hit.Header {
        if strings.EqualFold(k, echo.HeaderContentLength) {
            continue
        }
        for _, v := range vals {
            h.Add(k, v)
        }
    }
    h.Set("X-Cache", "HIT")
    c.Response().WriteHeader(hit.Status)
    _, err := c.Response().Write(hit.Body)
    return err
}

// NewCachePurge drops every cached read after a successful write passes
// through it.  It is mounted on the staff routes so a new schedule or a
// changed plan is visible without waiting for the TTL.
func NewCachePurge(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            err := next(c)
            if c.Request().Method == http.MethodGet || c.Response().Status >= 300 {
                return err
            }
            if n, perr := purge(context.WithoutCancel(c.Request().Context()), rdb, cfg.Prefix+":*"); perr != nil {
                log.Printf("cache: purge after %s %s: %v", c.Request().Method, c.Path(), perr)
            } else if n > 0 {
                log.Printf("cache: purged %d entries after %s %s", n, c.Request().Method, c.Path())
            }
            return err
        }
    }
}

// purge deletes keys matching pattern in pipelined batches.
func purge(ctx context.Context, rdb *redis.Client, pattern string) (int, error) {
    const batch = 100
    iter := rdb.Scan(ctx, 0, pattern, batch).Iterator()
    pipe := rdb.Pipeline()
    total, pending := 0, 0
    for iter.Next(ctx) {
        pipe.Del(ctx, iter.Val())
        pending++
        if pending == batch {
            if _, err := pipe.Exec(ctx); err != nil {
                return total, err
            }
            total += pending
            pending = 0
        }
    }
    if err := iter.Err(); err != nil {
        return total, err
    }
    if pending > 0 {
        if _, err := pipe.Exec(ctx); err != nil {
            return total, err
        }
        total += pending
    }
    return total, nil
}
