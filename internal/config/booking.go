package config

import (
    "time"
)

// BookingConfig tunes the booking engine.  DiscountPolicy is parsed by the
// fare package ("flat" or "percent").
type BookingConfig struct {
    HoldTTL        time.Duration
    TicketPrefix   string
    DiscountPolicy string
    MigrateOnStart bool
}

func LoadBookingConfig() BookingConfig {
    cfg := BookingConfig{
        HoldTTL:        envDur("HOLD_TTL", 10*time.Minute),
        TicketPrefix:   envStr("TICKET_PREFIX", "TK"),
        DiscountPolicy: envStr("DISCOUNT_POLICY", "flat"),
        MigrateOnStart: envBool("MIGRATE_ON_START", false),
    }
    if cfg.HoldTTL < time.Minute {
        cfg.HoldTTL = time.Minute
    }
    return cfg
}
