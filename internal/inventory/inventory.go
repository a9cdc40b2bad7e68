// Package inventory holds the per-trip booking state of every bookable seat
// on a schedule.  An Inventory is not safe for concurrent use; callers
// serialize access per schedule (see package booking).
package inventory

import (
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/bus-ticketing/internal/model"
)

var (
    // ErrSeatNotFound means the position is not part of the schedule's
    // inventory (an aisle cell or outside the grid).
    ErrSeatNotFound = errors.New("seat not found")
    // ErrSeatBroken means the seat exists but is marked out of service.
    ErrSeatBroken = errors.New("seat is out of service")
    // ErrDuplicateSeat means the same position was requested twice.
    ErrDuplicateSeat = errors.New("seat requested twice")
    // ErrSeatTaken is wrapped by SeatTakenError.
    ErrSeatTaken = errors.New("seat already taken")
    // ErrClosed is returned by mutators once the schedule is cancelled.
    ErrClosed = errors.New("schedule inventory is closed")
)

// SeatTakenError names the first seat that blocked a reservation.
type SeatTakenError struct {
    Seat model.SeatCell
}

func (e *SeatTakenError) Error() string {
    return fmt.Sprintf("seat %s (%d,%d) already taken", e.Seat.Label(), e.Seat.Row, e.Seat.Column)
}

func (e *SeatTakenError) Unwrap() error { return ErrSeatTaken }

// Instantiate derives the initial seat inventory of a schedule from a bus
// layout.  Aisle cells are dropped; every seat starts AVAILABLE with no
// ticket and no fare override.
func Instantiate(layout model.SeatLayout) []model.ScheduleSeat {
    seats := make([]model.ScheduleSeat, 0, len(layout.Cells))
    for _, c := range layout.Cells {
        if c.IsAisle {
            continue
        }
        seats = append(seats, model.ScheduleSeat{SeatCell: c.Clone(), Status: model.SeatAvailable})
    }
    return seats
}

// Inventory indexes a schedule's seats by position and applies the booking
// state transitions to them in place.
type Inventory struct {
    seats  []model.ScheduleSeat
    index  map[model.Position]int
    closed bool
}

// New wraps seats (not copied; mutations are visible to the caller).
func New(seats []model.ScheduleSeat, closed bool) *Inventory {
    inv := &Inventory{seats: seats, index: make(map[model.Position]int, len(seats)), closed: closed}
    for i := range seats {
        inv.index[seats[i].Pos()] = i
    }
    return inv
}

// FromSchedule wraps the schedule's own inventory.  A cancelled schedule
// yields a closed inventory.
func FromSchedule(s *model.Schedule) *Inventory {
    return New(s.SeatInventory, s.Status == model.ScheduleCancelled)
}

// Closed reports whether the schedule was cancelled.
func (inv *Inventory) Closed() bool { return inv.closed }

// Seats returns a deep copy of every seat.
func (inv *Inventory) Seats() []model.ScheduleSeat {
    out := make([]model.ScheduleSeat, 0, len(inv.seats))
    for _, s := range inv.seats {
        out = append(out, s.Clone())
    }
    return out
}

// ListAvailable returns the seats a new booking could take at now: status
// AVAILABLE or HELD with a lapsed hold, and not broken.
func (inv *Inventory) ListAvailable(now time.Time) []model.ScheduleSeat {
    out := []model.ScheduleSeat{}
    if inv.closed {
        return out
    }
    for _, s := range inv.seats {
        if s.IsBroken || s.IsAisle {
            continue
        }
        if isFree(&s, "", now) {
            out = append(out, s.Clone())
        }
    }
    return out
}

// StatusOf returns the stored status of the seat at (row, column).
func (inv *Inventory) StatusOf(row, column int) (model.SeatStatus, error) {
    s, err := inv.seat(model.Position{Row: row, Column: column})
    if err != nil {
        return "", err
    }
    return s.Status, nil
}

// Lookup returns a copy of the seat at pos.
func (inv *Inventory) Lookup(pos model.Position) (model.ScheduleSeat, error) {
    s, err := inv.seat(pos)
    if err != nil {
        return model.ScheduleSeat{}, err
    }
    return s.Clone(), nil
}

// Resolve checks a requested seat list (non-empty, no duplicates, every
// seat present and in service) and returns copies of the seats in request
// order.
func (inv *Inventory) Resolve(positions []model.Position) ([]model.ScheduleSeat, error) {
    seen := make(map[model.Position]struct{}, len(positions))
    out := make([]model.ScheduleSeat, 0, len(positions))
    for _, p := range positions {
        if _, dup := seen[p]; dup {
            return nil, fmt.Errorf("%w: (%d,%d)", ErrDuplicateSeat, p.Row, p.Column)
        }
        seen[p] = struct{}{}
        s, err := inv.seat(p)
        if err != nil {
            return nil, err
        }
        if s.IsBroken {
            return nil, fmt.Errorf("%w: %s (%d,%d)", ErrSeatBroken, s.Label(), p.Row, p.Column)
        }
        out = append(out, s.Clone())
    }
    return out, nil
}

// FirstTaken returns the first requested seat that is BOOKED, or HELD by a
// hold other than holdToken that has not lapsed at now.  Unknown positions
// are skipped; Resolve reports them.
func (inv *Inventory) FirstTaken(positions []model.Position, holdToken string, now time.Time) *model.ScheduleSeat {
    for _, p := range positions {
        i, ok := inv.index[p]
        if !ok {
            continue
        }
        if !isFree(&inv.seats[i], holdToken, now) {
            s := inv.seats[i].Clone()
            return &s
        }
    }
    return nil
}

// MarkBooked moves every position to BOOKED for ticketID.  It changes
// nothing unless every seat is free for holdToken at now.
func (inv *Inventory) MarkBooked(positions []model.Position, ticketID uuid.UUID, holdToken string, now time.Time) error {
    if inv.closed {
        return ErrClosed
    }
    if _, err := inv.Resolve(positions); err != nil {
        return err
    }
    if taken := inv.FirstTaken(positions, holdToken, now); taken != nil {
        return &SeatTakenError{Seat: taken.SeatCell}
    }
    for _, p := range positions {
        s := &inv.seats[inv.index[p]]
        s.Reset()
        id := ticketID
        s.Status = model.SeatBooked
        s.TicketID = &id
    }
    return nil
}

// Release returns the given seats to AVAILABLE.  Unknown positions are
// ignored.
func (inv *Inventory) Release(positions []model.Position) {
    for _, p := range positions {
        if i, ok := inv.index[p]; ok {
            inv.seats[i].Reset()
        }
    }
}

// ReleaseTicket frees every seat booked by ticketID and returns their
// positions.
func (inv *Inventory) ReleaseTicket(ticketID uuid.UUID) []model.Position {
    var freed []model.Position
    for i := range inv.seats {
        s := &inv.seats[i]
        if s.Status == model.SeatBooked && s.TicketID != nil && *s.TicketID == ticketID {
            s.Reset()
            freed = append(freed, s.Pos())
        }
    }
    return freed
}

// Hold marks the seats HELD under token until expiresAt.  Like MarkBooked
// it is all or nothing.
func (inv *Inventory) Hold(positions []model.Position, token string, expiresAt, now time.Time) error {
    if inv.closed {
        return ErrClosed
    }
    if _, err := inv.Resolve(positions); err != nil {
        return err
    }
    if taken := inv.FirstTaken(positions, token, now); taken != nil {
        return &SeatTakenError{Seat: taken.SeatCell}
    }
    for _, p := range positions {
        s := &inv.seats[inv.index[p]]
        s.Reset()
        tok, exp := token, expiresAt
        s.Status = model.SeatHeld
        s.HoldToken = &tok
        s.HoldExpiresAt = &exp
    }
    return nil
}

// ReleaseHold frees the seats held under token and returns how many were
// freed.
func (inv *Inventory) ReleaseHold(token string) int {
    n := 0
    for i := range inv.seats {
        s := &inv.seats[i]
        if s.Status == model.SeatHeld && s.HoldToken != nil && *s.HoldToken == token {
            s.Reset()
            n++
        }
    }
    return n
}

// ExpireHolds frees every hold that lapsed at or before now.
func (inv *Inventory) ExpireHolds(now time.Time) int {
    n := 0
    for i := range inv.seats {
        s := &inv.seats[i]
        if s.Status == model.SeatHeld && holdLapsed(s, now) {
            s.Reset()
            n++
        }
    }
    return n
}

// LiveHolds returns the number of seats held past now.
func (inv *Inventory) LiveHolds(now time.Time) int {
    n := 0
    for i := range inv.seats {
        s := &inv.seats[i]
        if s.Status == model.SeatHeld && !holdLapsed(s, now) {
            n++
        }
    }
    return n
}

// BookedCount returns the number of BOOKED seats.
func (inv *Inventory) BookedCount() int {
    n := 0
    for _, s := range inv.seats {
        if s.Status == model.SeatBooked {
            n++
        }
    }
    return n
}

// Close releases every seat and blocks further reservations.
func (inv *Inventory) Close() {
    for i := range inv.seats {
        inv.seats[i].Reset()
    }
    inv.closed = true
}

func (inv *Inventory) seat(p model.Position) (*model.ScheduleSeat, error) {
    i, ok := inv.index[p]
    if !ok {
        return nil, fmt.Errorf("%w: (%d,%d)", ErrSeatNotFound, p.Row, p.Column)
    }
    return &inv.seats[i], nil
}

func isFree(s *model.ScheduleSeat, holdToken string, now time.Time) bool {
    switch s.Status {
    case model.SeatAvailable:
        return true
    case model.SeatHeld:
        if holdToken != "" && s.HoldToken != nil && *s.HoldToken == holdToken {
            return true
        }
        return holdLapsed(s, now)
    default:
        return false
    }
}

func holdLapsed(s *model.ScheduleSeat, now time.Time) bool {
    return s.HoldExpiresAt == nil || !s.HoldExpiresAt.After(now)
}
