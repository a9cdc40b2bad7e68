package model

import (
    "time"

    "github.com/google/uuid"
)

// Schedule statuses.  COMPLETED and CANCELLED are terminal.
const (
    ScheduleScheduled = "SCHEDULED"
    ScheduleDelayed   = "DELAYED"
    ScheduleCompleted = "COMPLETED"
    ScheduleCancelled = "CANCELLED"
)

// SeatStatus is the booking state of one seat on one schedule.
type SeatStatus string

// Seat statuses.  HELD is the optional checkout hold.
const (
    SeatAvailable SeatStatus = "AVAILABLE"
    SeatHeld      SeatStatus = "HELD"
    SeatBooked    SeatStatus = "BOOKED"
)

// Schedule is one trip of a bus on a route.  SeatInventory is derived once
// from the bus layout at creation time (aisle cells excluded) and is owned by
// the schedule from then on.
//
// Fields:
//  ID            – schedules.id
//  CompanyID     – operating company
//  BusID         – bus running the trip
//  RouteID       – route (external directory record)
//  DepartureTime – UTC departure
//  ArrivalTime   – UTC arrival
//  Price         – default per-seat fare in minor currency units
//  Status        – SCHEDULED, DELAYED, COMPLETED, CANCELLED
//  ShowOnWeb     – visible to public search
//  SeatInventory – per-seat booking state
type Schedule struct {
    ID            uint64         `json:"id"`
    CompanyID     uint64         `json:"company_id"`
    BusID         uint64         `json:"bus_id"`
    RouteID       uint64         `json:"route_id"`
    DepartureTime time.Time      `json:"departure_time"`
    ArrivalTime   time.Time      `json:"arrival_time"`
    Price         int64          `json:"price"`
    Status        string         `json:"status"`
    ShowOnWeb     bool           `json:"show_on_web"`
    SeatInventory []ScheduleSeat `json:"seat_inventory,omitempty"`
    CreatedAt     time.Time      `json:"created_at"`
    UpdatedAt     time.Time      `json:"updated_at"`
}

// IsTerminal reports whether the schedule can no longer change state.
func (s *Schedule) IsTerminal() bool {
    return s.Status == ScheduleCompleted || s.Status == ScheduleCancelled
}

// ScheduleSeat is a seat cell plus its trip-scoped booking state.
//
// Fields:
//  Fare          – per-seat override of Schedule.Price (nil = use schedule price)
//  Status        – AVAILABLE, HELD or BOOKED
//  TicketID      – ticket holding the seat when BOOKED
//  HoldToken     – hold owning the seat when HELD
//  HoldExpiresAt – when the hold lapses
type ScheduleSeat struct {
    SeatCell
    Fare          *int64     `json:"fare,omitempty"`
    Status        SeatStatus `json:"status"`
    TicketID      *uuid.UUID `json:"ticket_id,omitempty"`
    HoldToken     *string    `json:"-"`
    HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}

// Clone returns a deep copy of the seat.
func (s ScheduleSeat) Clone() ScheduleSeat {
    out := s
    out.SeatCell = s.SeatCell.Clone()
    if s.Fare != nil {
        v := *s.Fare
        out.Fare = &v
    }
    if s.TicketID != nil {
        v := *s.TicketID
        out.TicketID = &v
    }
    if s.HoldToken != nil {
        v := *s.HoldToken
        out.HoldToken = &v
    }
    if s.HoldExpiresAt != nil {
        v := *s.HoldExpiresAt
        out.HoldExpiresAt = &v
    }
    return out
}

// Reset returns the seat to AVAILABLE with no ticket or hold.
func (s *ScheduleSeat) Reset() {
    s.Status = SeatAvailable
    s.TicketID = nil
    s.HoldToken = nil
    s.HoldExpiresAt = nil
}

// CloneSchedule deep copies a schedule including its inventory.
func CloneSchedule(s *Schedule) *Schedule {
    if s == nil {
        return nil
    }
    out := *s
    out.SeatInventory = make([]ScheduleSeat, 0, len(s.SeatInventory))
    for _, seat := range s.SeatInventory {
        out.SeatInventory = append(out.SeatInventory, seat.Clone())
    }
    return &out
}
