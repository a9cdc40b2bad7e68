package booking

import (
    "context"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/bus-ticketing/internal/model"
)

// Store persists schedules with their seat inventory and tickets.  Every
// write method is one atomic unit: on error nothing is changed.
type Store interface {
    // GetSchedule loads a schedule with its full seat inventory or returns
    // ErrScheduleNotFound.
    GetSchedule(ctx context.Context, id uint64) (*model.Schedule, error)

    // GetTicket loads a ticket with its seats or returns ErrTicketNotFound.
    GetTicket(ctx context.Context, id uuid.UUID) (*model.Ticket, error)

    // CreateTicket moves the ticket's seats to BOOKED and inserts the
    // ticket.  A seat is free when AVAILABLE, HELD under holdToken or held
    // with a hold that lapsed at now; otherwise *SeatConflictError.  A
    // duplicate ticket number yields ErrTicketNumberTaken, a cancelled
    // schedule ErrScheduleClosed.
    CreateTicket(ctx context.Context, t *model.Ticket, holdToken string, now time.Time) error

    // CancelTicket marks a live ticket CANCELLED at `at` and frees its
    // seats.  It reports false when the ticket was already cancelled.
    CancelTicket(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

    // HoldSeats marks the hold's seats HELD with the same freeness rule
    // as CreateTicket.
    HoldSeats(ctx context.Context, hold *model.SeatHold, now time.Time) error

    // ReleaseHold frees the seats held under token and returns how many
    // were freed.
    ReleaseHold(ctx context.Context, scheduleID uint64, token string) (int, error)

    // CancelSchedule sets the schedule CANCELLED, frees every seat and
    // cancels every live ticket, returning the cancelled ticket ids.
    CancelSchedule(ctx context.Context, scheduleID uint64, at time.Time) ([]uuid.UUID, error)

    // ListTickets returns every ticket of a schedule, newest first.
    ListTickets(ctx context.Context, scheduleID uint64) ([]model.Ticket, error)
}

// StoppageChecker answers whether a stoppage lies on a route.
type StoppageChecker interface {
    RouteHasStoppage(ctx context.Context, routeID, stoppageID uint64) (bool, error)
}

// Event kinds passed to EventPublisher.
const (
    EventTicketBooked    = "ticket.booked"
    EventTicketCancelled = "ticket.cancelled"
)

// EventPublisher receives committed ticket changes.  Publishing is best
// effort: errors are logged and never undo the change.
type EventPublisher interface {
    PublishTicketEvent(ctx context.Context, kind string, t *model.Ticket) error
}
