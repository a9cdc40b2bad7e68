package model

import (
    "time"

    "github.com/google/uuid"
)

// Ticket statuses.  A ticket only ever moves CONFIRMED -> CANCELLED.
const (
    TicketPending   = "PENDING"
    TicketConfirmed = "CONFIRMED"
    TicketCancelled = "CANCELLED"
)

// Passenger holds the contact details printed on a ticket.
type Passenger struct {
    Name  string  `json:"name"`
    Phone string  `json:"phone"`
    Email *string `json:"email,omitempty"`
    NID   *string `json:"nid,omitempty"`
}

// TicketSeat is a seat sold on a ticket together with the fare charged for it.
type TicketSeat struct {
    Row        int     `json:"row"`
    Column     int     `json:"column"`
    SeatNumber int     `json:"seat_number"`
    SeatName   *string `json:"seat_name,omitempty"`
    Fare       int64   `json:"fare"`
}

// Pos returns the grid position of the sold seat.
func (s TicketSeat) Pos() Position { return Position{Row: s.Row, Column: s.Column} }

// Ticket is a confirmed booking of one or more seats on a schedule.  Amounts
// are in minor currency units; FinalAmount = TotalFare - DiscountAmount.
//
// Fields:
//  ID              – tickets.id (uuid)
//  ScheduleID      – trip the seats belong to
//  Passenger       – contact details
//  Seats           – sold seats with their fares
//  TotalFare       – sum of seat fares
//  Discount        – discount as requested by the caller
//  DiscountAmount  – discount actually applied
//  FinalAmount     – payable amount
//  BoardingPointID – optional stoppage on the route
//  DroppingPointID – optional stoppage on the route
//  TicketNumber    – unique caller-visible number
//  Status          – PENDING, CONFIRMED or CANCELLED
//  BookingDate     – when the ticket was issued
//  CancelledAt     – when the ticket was cancelled (nil while live)
type Ticket struct {
    ID              uuid.UUID    `json:"id"`
    ScheduleID      uint64       `json:"schedule_id"`
    Passenger       Passenger    `json:"passenger"`
    Seats           []TicketSeat `json:"seats"`
    TotalFare       int64        `json:"total_fare"`
    Discount        int64        `json:"discount"`
    DiscountAmount  int64        `json:"discount_amount"`
    FinalAmount     int64        `json:"final_amount"`
    BoardingPointID *uint64      `json:"boarding_point_id,omitempty"`
    DroppingPointID *uint64      `json:"dropping_point_id,omitempty"`
    TicketNumber    string       `json:"ticket_number"`
    Status          string       `json:"status"`
    BookingDate     time.Time    `json:"booking_date"`
    CancelledAt     *time.Time   `json:"cancelled_at,omitempty"`
}

// Positions returns the grid positions of every seat on the ticket.
func (t *Ticket) Positions() []Position {
    out := make([]Position, 0, len(t.Seats))
    for _, s := range t.Seats {
        out = append(out, s.Pos())
    }
    return out
}

// CloneTicket deep copies a ticket.
func CloneTicket(t *Ticket) *Ticket {
    if t == nil {
        return nil
    }
    out := *t
    out.Passenger.Email = cloneString(t.Passenger.Email)
    out.Passenger.NID = cloneString(t.Passenger.NID)
    out.Seats = make([]TicketSeat, len(t.Seats))
    for i, s := range t.Seats {
        s.SeatName = cloneString(s.SeatName)
        out.Seats[i] = s
    }
    if t.BoardingPointID != nil {
        v := *t.BoardingPointID
        out.BoardingPointID = &v
    }
    if t.DroppingPointID != nil {
        v := *t.DroppingPointID
        out.DroppingPointID = &v
    }
    if t.CancelledAt != nil {
        v := *t.CancelledAt
        out.CancelledAt = &v
    }
    return &out
}

func cloneString(p *string) *string {
    if p == nil {
        return nil
    }
    v := *p
    return &v
}

// SeatHold is a short-lived claim on seats during checkout.  Holding seats
// makes them unavailable to everyone except a booking presenting Token.
type SeatHold struct {
    Token      string     `json:"token"`
    ScheduleID uint64     `json:"schedule_id"`
    Seats      []Position `json:"seats"`
    ExpiresAt  time.Time  `json:"expires_at"`
}
