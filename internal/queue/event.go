// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/iliyamo/bus-ticketing/internal/model"
)

// Queue names.  Each event kind has its own durable queue whose name is the
// kind itself.
const (
    TicketBookedQueue    = "ticket.booked"
    TicketCancelledQueue = "ticket.cancelled"
)

// TicketEvent is published when a ticket is booked or cancelled.  It
// carries enough for downstream consumers to log, notify, or trigger
// analytics without querying the primary database.
type TicketEvent struct {
    Kind           string   `json:"kind"`
    TicketID       string   `json:"ticket_id"`
    TicketNumber   string   `json:"ticket_number"`
    ScheduleID     uint64   `json:"schedule_id"`
    PassengerName  string   `json:"passenger_name"`
    PassengerPhone string   `json:"passenger_phone"`
    Seats          []string `json:"seats"`
    TotalFare      int64    `json:"total_fare"`
    DiscountAmount int64    `json:"discount_amount"`
    FinalAmount    int64    `json:"final_amount"`
    Status         string   `json:"status"`
    OccurredAt     string   `json:"occurred_at"`
}

// NewTicketEvent builds the payload for a ticket change of the given kind.
func NewTicketEvent(kind string, t *model.Ticket, at time.Time) TicketEvent {
    seats := make([]string, 0, len(t.Seats))
    for _, s := range t.Seats {
        seats = append(seats, model.SeatCell{SeatNumber: s.SeatNumber, SeatName: s.SeatName}.Label())
    }
    return TicketEvent{
        Kind:           kind,
        TicketID:       t.ID.String(),
        TicketNumber:   t.TicketNumber,
        ScheduleID:     t.ScheduleID,
        PassengerName:  t.Passenger.Name,
        PassengerPhone: t.Passenger.Phone,
        Seats:          seats,
        TotalFare:      t.TotalFare,
        DiscountAmount: t.DiscountAmount,
        FinalAmount:    t.FinalAmount,
        Status:         t.Status,
        OccurredAt:     at.UTC().Format(time.RFC3339),
    }
}
