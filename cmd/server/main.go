package main // entry point of the ticketing API

import (
    "context"
    "errors"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/bus-ticketing/internal/booking"
    "github.com/iliyamo/bus-ticketing/internal/config"
    "github.com/iliyamo/bus-ticketing/internal/database"
    "github.com/iliyamo/bus-ticketing/internal/directory"
    "github.com/iliyamo/bus-ticketing/internal/fare"
    "github.com/iliyamo/bus-ticketing/internal/handler"
    "github.com/iliyamo/bus-ticketing/internal/middleware"
    "github.com/iliyamo/bus-ticketing/internal/queue"
    "github.com/iliyamo/bus-ticketing/internal/repository"
    "github.com/iliyamo/bus-ticketing/internal/router"
    "github.com/iliyamo/bus-ticketing/internal/service"
)

func main() {
    if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
        log.Printf("env: .env not loaded: %v", err)
    }
    cfg := config.Load()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    db, err := database.Open(database.Options{User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName})
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()
    if cfg.Booking.MigrateOnStart {
        if err := database.Migrate(ctx, db); err != nil {
            log.Fatalf("migrate: %v", err)
        }
    }

    policy, err := fare.ParsePolicy(cfg.Booking.DiscountPolicy)
    if err != nil {
        log.Fatalf("config: %v", err)
    }

    store := repository.NewStore(db)
    dir := directory.NewMySQL(db)
    opts := booking.Options{
        Fares:        fare.Calculator{Policy: policy},
        HoldTTL:      cfg.Booking.HoldTTL,
        TicketPrefix: cfg.Booking.TicketPrefix,
        Stoppages:    dir,
    }
    if cfg.RabbitMQURL != "" {
        opts.Events = service.NewQueuePublisher(cfg.RabbitMQURL)
        go func() {
            if err := queue.StartTicketConsumer(ctx, cfg.RabbitMQURL, cfg.LogDir); err != nil && !errors.Is(err, context.Canceled) {
                log.Printf("booking-consumer: stopped: %v", err)
            }
        }()
    }
    manager := booking.NewManager(store, opts)
    catalog := service.NewCatalog(store, manager, dir)

    rdb := config.NewRedisClient()
    if rdb != nil {
        defer rdb.Close()
    }
    cacheCfg := config.LoadCacheConfig()
    cache := middleware.NewRedisCache(cacheCfg, rdb)
    purge := middleware.NewCachePurge(cacheCfg, rdb)
    limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.RequestID())
    e.Use(echomw.Logger())
    e.Use(echomw.Recover())

    router.RegisterRoutes(e, db)
    router.RegisterPublic(e, handler.NewPublicHandler(store, catalog, manager), handler.NewBookingHandler(manager, catalog, dir), cache, limit)
    router.RegisterStaff(e, handler.NewStaffHandler(catalog, manager), cfg.JWTSecret, cache, purge)

    addr := ":" + cfg.Port
    go func() {
        log.Printf("listening on %s (env=%s, discount=%s, hold=%s)", addr, cfg.Env, policy, cfg.Booking.HoldTTL)
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal(err)
        }
    }()

    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Printf("shutdown: %v", err)
    }
}
