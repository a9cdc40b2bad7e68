// Package booking implements the seat reservation protocol: validating a
// requested seat set, reserving it atomically per schedule, pricing it and
// issuing a ticket, plus cancellation, holds and schedule cancellation.
package booking

import (
    "context"
    "errors"
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/bus-ticketing/internal/fare"
    "github.com/iliyamo/bus-ticketing/internal/inventory"
    "github.com/iliyamo/bus-ticketing/internal/model"
)

// maxNumberAttempts bounds ticket number regeneration on collisions.
const maxNumberAttempts = 5

// DefaultHoldTTL is used when Options.HoldTTL is zero.
const DefaultHoldTTL = 10 * time.Minute

// BookRequest is the input to Manager.Book.  Discount is read according to
// the manager's fare policy.  HoldToken lets a caller book seats it holds.
type BookRequest struct {
    ScheduleID      uint64
    Passenger       model.Passenger
    Cells           []model.Position
    Discount        int64
    BoardingPointID *uint64
    DroppingPointID *uint64
    HoldToken       string
}

// Options configures a Manager.  Only the store is required.
type Options struct {
    Fares        fare.Calculator
    HoldTTL      time.Duration
    TicketPrefix string
    Stoppages    StoppageChecker
    Events       EventPublisher
    Now          func() time.Time
}

// Manager serializes every mutation of a schedule's inventory behind a
// per-schedule lock and delegates the atomic write to the Store.  Calls
// for different schedules never wait on each other.
type Manager struct {
    store   Store
    fares   fare.Calculator
    holdTTL time.Duration
    prefix  string
    stops   StoppageChecker
    events  EventPublisher
    now     func() time.Time
    locks   *keyedMutex
}

// NewManager builds a Manager and panics when store is nil.
func NewManager(store Store, opts Options) *Manager {
    if store == nil {
        panic("nil store passed to NewManager")
    }
    m := &Manager{
        store:   store,
        fares:   opts.Fares,
        holdTTL: opts.HoldTTL,
        prefix:  opts.TicketPrefix,
        stops:   opts.Stoppages,
        events:  opts.Events,
        now:     opts.Now,
        locks:   newKeyedMutex(),
    }
    if m.holdTTL <= 0 {
        m.holdTTL = DefaultHoldTTL
    }
    if m.prefix == "" {
        m.prefix = DefaultTicketPrefix
    }
    if m.now == nil {
        m.now = func() time.Time { return time.Now().UTC() }
    }
    return m
}

// Book reserves the requested seats and issues a confirmed ticket.  It
// fails with ErrInvalidSeatRequest, ErrScheduleClosed, *SeatConflictError,
// ErrInvalidDiscount or ErrInvalidStoppage and then leaves nothing behind.
func (m *Manager) Book(ctx context.Context, req BookRequest) (*model.Ticket, error) {
    if err := validatePassenger(req.Passenger); err != nil {
        return nil, err
    }
    if len(req.Cells) == 0 {
        return nil, fmt.Errorf("%w: no seats requested", ErrInvalidSeatRequest)
    }

    unlock, err := m.locks.Lock(ctx, req.ScheduleID)
    if err != nil {
        return nil, err
    }
    defer unlock()

    sched, err := m.store.GetSchedule(ctx, req.ScheduleID)
    if err != nil {
        return nil, err
    }
    if sched.IsTerminal() {
        return nil, fmt.Errorf("%w: schedule %d is %s", ErrScheduleClosed, sched.ID, sched.Status)
    }
    inv := inventory.FromSchedule(sched)
    seats, err := inv.Resolve(req.Cells)
    if err != nil {
        return nil, fmt.Errorf("%w: %w", ErrInvalidSeatRequest, err)
    }
    now := m.now()
    if taken := inv.FirstTaken(req.Cells, req.HoldToken, now); taken != nil {
        return nil, &SeatConflictError{Seat: taken.SeatCell}
    }
    if err := m.checkStoppages(ctx, sched.RouteID, req.BoardingPointID, req.DroppingPointID); err != nil {
        return nil, err
    }
    quote, err := m.fares.Price(sched.Price, seats, req.Discount)
    if err != nil {
        return nil, err
    }

    ticket := &model.Ticket{
        ID:              uuid.New(),
        ScheduleID:      sched.ID,
        Passenger:       req.Passenger,
        Seats:           make([]model.TicketSeat, len(seats)),
        TotalFare:       quote.TotalFare,
        Discount:        req.Discount,
        DiscountAmount:  quote.DiscountAmount,
        FinalAmount:     quote.FinalAmount,
        BoardingPointID: req.BoardingPointID,
        DroppingPointID: req.DroppingPointID,
        Status:          model.TicketConfirmed,
        BookingDate:     now,
    }
    for i, s := range seats {
        ticket.Seats[i] = model.TicketSeat{
            Row:        s.Row,
            Column:     s.Column,
            SeatNumber: s.SeatNumber,
            SeatName:   s.SeatName,
            Fare:       quote.Fares[i],
        }
    }

    for attempt := 1; ; attempt++ {
        number, err := NewTicketNumber(m.prefix, now)
        if err != nil {
            return nil, err
        }
        ticket.TicketNumber = number
        err = m.store.CreateTicket(ctx, ticket, req.HoldToken, now)
        if err == nil {
            break
        }
        if !errors.Is(err, ErrTicketNumberTaken) {
            return nil, err
        }
        if attempt >= maxNumberAttempts {
            return nil, fmt.Errorf("booking: no free ticket number after %d attempts", attempt)
        }
        log.Printf("booking: ticket number %s collided, retrying", number)
    }

    m.publish(ctx, EventTicketBooked, ticket)
    return ticket, nil
}

// Cancel cancels a ticket and frees its seats.  Cancelling a cancelled
// ticket is a no-op.
func (m *Manager) Cancel(ctx context.Context, ticketID uuid.UUID) error {
    t, err := m.store.GetTicket(ctx, ticketID)
    if err != nil {
        return err
    }
    if t.Status == model.TicketCancelled {
        return nil
    }
    unlock, err := m.locks.Lock(ctx, t.ScheduleID)
    if err != nil {
        return err
    }
    defer unlock()

    now := m.now()
    changed, err := m.store.CancelTicket(ctx, ticketID, now)
    if err != nil {
        return err
    }
    if changed {
        t.Status = model.TicketCancelled
        t.CancelledAt = &now
        m.publish(ctx, EventTicketCancelled, t)
    }
    return nil
}

// Ticket returns a ticket by id.
func (m *Manager) Ticket(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
    return m.store.GetTicket(ctx, id)
}

// Tickets lists the tickets sold on a schedule.
func (m *Manager) Tickets(ctx context.Context, scheduleID uint64) ([]model.Ticket, error) {
    if _, err := m.store.GetSchedule(ctx, scheduleID); err != nil {
        return nil, err
    }
    return m.store.ListTickets(ctx, scheduleID)
}

// ListAvailableSeats returns the seats that can be booked right now.
func (m *Manager) ListAvailableSeats(ctx context.Context, scheduleID uint64) ([]model.ScheduleSeat, error) {
    sched, err := m.store.GetSchedule(ctx, scheduleID)
    if err != nil {
        return nil, err
    }
    if sched.IsTerminal() {
        return []model.ScheduleSeat{}, nil
    }
    return inventory.FromSchedule(sched).ListAvailable(m.now()), nil
}

// SeatMap returns every seat of the schedule with lapsed holds shown as
// AVAILABLE.
func (m *Manager) SeatMap(ctx context.Context, scheduleID uint64) ([]model.ScheduleSeat, error) {
    sched, err := m.store.GetSchedule(ctx, scheduleID)
    if err != nil {
        return nil, err
    }
    inv := inventory.FromSchedule(sched)
    inv.ExpireHolds(m.now())
    return inv.Seats(), nil
}

// Hold places a short-lived hold on seats.  The returned token lets the
// holder book them; nobody else can until the hold lapses.
func (m *Manager) Hold(ctx context.Context, scheduleID uint64, cells []model.Position) (*model.SeatHold, error) {
    if len(cells) == 0 {
        return nil, fmt.Errorf("%w: no seats requested", ErrInvalidSeatRequest)
    }
    unlock, err := m.locks.Lock(ctx, scheduleID)
    if err != nil {
        return nil, err
    }
    defer unlock()

    sched, err := m.store.GetSchedule(ctx, scheduleID)
    if err != nil {
        return nil, err
    }
    if sched.IsTerminal() {
        return nil, fmt.Errorf("%w: schedule %d is %s", ErrScheduleClosed, sched.ID, sched.Status)
    }
    inv := inventory.FromSchedule(sched)
    if _, err := inv.Resolve(cells); err != nil {
        return nil, fmt.Errorf("%w: %w", ErrInvalidSeatRequest, err)
    }
    now := m.now()
    if taken := inv.FirstTaken(cells, "", now); taken != nil {
        return nil, &SeatConflictError{Seat: taken.SeatCell}
    }
    hold := &model.SeatHold{
        Token:      uuid.NewString(),
        ScheduleID: scheduleID,
        Seats:      append([]model.Position(nil), cells...),
        ExpiresAt:  now.Add(m.holdTTL),
    }
    if err := m.store.HoldSeats(ctx, hold, now); err != nil {
        return nil, err
    }
    return hold, nil
}

// ReleaseHold drops a hold before it lapses.
func (m *Manager) ReleaseHold(ctx context.Context, scheduleID uint64, token string) error {
    unlock, err := m.locks.Lock(ctx, scheduleID)
    if err != nil {
        return err
    }
    defer unlock()

    n, err := m.store.ReleaseHold(ctx, scheduleID, token)
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrHoldNotFound
    }
    return nil
}

// CancelSchedule voids a trip: every seat is released, every live ticket
// cancelled and further bookings refused.  Cancelling twice is a no-op; a
// completed schedule cannot be cancelled.
func (m *Manager) CancelSchedule(ctx context.Context, scheduleID uint64) error {
    unlock, err := m.locks.Lock(ctx, scheduleID)
    if err != nil {
        return err
    }
    defer unlock()

    sched, err := m.store.GetSchedule(ctx, scheduleID)
    if err != nil {
        return err
    }
    switch sched.Status {
    case model.ScheduleCancelled:
        return nil
    case model.ScheduleCompleted:
        return fmt.Errorf("%w: schedule %d is completed", ErrScheduleClosed, scheduleID)
    }
    ids, err := m.store.CancelSchedule(ctx, scheduleID, m.now())
    if err != nil {
        return err
    }
    log.Printf("booking: schedule %d cancelled, %d tickets voided", scheduleID, len(ids))
    for _, id := range ids {
        t, err := m.store.GetTicket(ctx, id)
        if err != nil {
            log.Printf("booking: load cancelled ticket %s: %v", id, err)
            continue
        }
        m.publish(ctx, EventTicketCancelled, t)
    }
    return nil
}

// Exclusive runs fn while holding the schedule's lock so that catalog
// changes (status updates, inventory regeneration) never interleave with
// bookings on the same schedule.
func (m *Manager) Exclusive(ctx context.Context, scheduleID uint64, fn func() error) error {
    unlock, err := m.locks.Lock(ctx, scheduleID)
    if err != nil {
        return err
    }
    defer unlock()
    return fn()
}

func (m *Manager) checkStoppages(ctx context.Context, routeID uint64, points ...*uint64) error {
    if m.stops == nil {
        return nil
    }
    for _, p := range points {
        if p == nil {
            continue
        }
        ok, err := m.stops.RouteHasStoppage(ctx, routeID, *p)
        if err != nil {
            return err
        }
        if !ok {
            return fmt.Errorf("%w: stoppage %d, route %d", ErrInvalidStoppage, *p, routeID)
        }
    }
    return nil
}

func (m *Manager) publish(ctx context.Context, kind string, t *model.Ticket) {
    if m.events == nil {
        return
    }
    if err := m.events.PublishTicketEvent(ctx, kind, t); err != nil {
        log.Printf("booking: publish %s for %s failed: %v", kind, t.TicketNumber, err)
    }
}

func validatePassenger(p model.Passenger) error {
    if strings.TrimSpace(p.Name) == "" {
        return fmt.Errorf("%w: passenger name is required", ErrInvalidSeatRequest)
    }
    if strings.TrimSpace(p.Phone) == "" {
        return fmt.Errorf("%w: passenger phone is required", ErrInvalidSeatRequest)
    }
    return nil
}
