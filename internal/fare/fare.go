// Package fare prices a set of seats on a schedule.  All amounts are int64
// minor currency units.
package fare

import (
    "errors"
    "fmt"
    "strings"

    "github.com/iliyamo/bus-ticketing/internal/model"
)

// ErrInvalidDiscount is returned for a negative discount or one larger than
// the total fare.
var ErrInvalidDiscount = errors.New("invalid discount")

// Policy decides how the caller supplied discount value is read.
type Policy string

const (
    // PolicyFlat treats the discount as an amount of money.
    PolicyFlat Policy = "flat"
    // PolicyPercent treats the discount as basis points of the total
    // (1000 = 10%).
    PolicyPercent Policy = "percent"
)

// ParsePolicy maps a config string to a Policy; empty means flat.
func ParsePolicy(s string) (Policy, error) {
    switch Policy(strings.ToLower(strings.TrimSpace(s))) {
    case "", PolicyFlat:
        return PolicyFlat, nil
    case PolicyPercent:
        return PolicyPercent, nil
    default:
        return "", fmt.Errorf("unknown discount policy %q", s)
    }
}

// Quote is the priced result for a seat set.  Fares holds the fare of each
// seat in input order.
type Quote struct {
    Fares          []int64 `json:"fares"`
    TotalFare      int64   `json:"total_fare"`
    DiscountAmount int64   `json:"discount_amount"`
    FinalAmount    int64   `json:"final_amount"`
}

// Calculator prices seats under a discount policy.  The zero value uses
// the flat policy.
type Calculator struct {
    Policy Policy
}

// SeatFare returns the seat's override fare or the schedule's base price.
func SeatFare(basePrice int64, seat model.ScheduleSeat) int64 {
    if seat.Fare != nil {
        return *seat.Fare
    }
    return basePrice
}

// Price sums the per-seat fares and applies the discount.
func (c Calculator) Price(basePrice int64, seats []model.ScheduleSeat, discount int64) (Quote, error) {
    q := Quote{Fares: make([]int64, len(seats))}
    for i, s := range seats {
        f := SeatFare(basePrice, s)
        q.Fares[i] = f
        q.TotalFare += f
    }
    if discount < 0 {
        return Quote{}, fmt.Errorf("%w: %d is negative", ErrInvalidDiscount, discount)
    }
    switch c.Policy {
    case PolicyPercent:
        if discount > 10000 {
            return Quote{}, fmt.Errorf("%w: %d basis points exceeds 100%%", ErrInvalidDiscount, discount)
        }
        q.DiscountAmount = q.TotalFare * discount / 10000
    default:
        q.DiscountAmount = discount
    }
    if q.DiscountAmount > q.TotalFare {
        return Quote{}, fmt.Errorf("%w: %d exceeds total fare %d", ErrInvalidDiscount, q.DiscountAmount, q.TotalFare)
    }
    q.FinalAmount = q.TotalFare - q.DiscountAmount
    if q.FinalAmount < 0 {
        q.FinalAmount = 0
    }
    return q, nil
}
