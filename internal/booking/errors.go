package booking

import (
    "errors"
    "fmt"

    "github.com/iliyamo/bus-ticketing/internal/fare"
    "github.com/iliyamo/bus-ticketing/internal/inventory"
    "github.com/iliyamo/bus-ticketing/internal/model"
)

var (
    // ErrInvalidSeatRequest covers an empty or malformed seat list, unknown
    // or out of service seats and missing passenger details.
    ErrInvalidSeatRequest = errors.New("invalid seat request")
    // ErrSeatNotFound is wrapped inside ErrInvalidSeatRequest for seats the
    // schedule does not have.
    ErrSeatNotFound = inventory.ErrSeatNotFound
    // ErrSeatConflict is wrapped by SeatConflictError.
    ErrSeatConflict = errors.New("seat conflict")
    // ErrInvalidDiscount is the fare calculator's discount rejection.
    ErrInvalidDiscount = fare.ErrInvalidDiscount
    // ErrTicketNumberTaken is reported by stores when the generated ticket
    // number already exists.  The manager retries with a fresh number.
    ErrTicketNumberTaken = errors.New("ticket number already taken")
    // ErrScheduleClosed means the schedule is cancelled or completed.
    ErrScheduleClosed = errors.New("schedule is closed")
    // ErrScheduleNotFound is returned for unknown schedule ids.
    ErrScheduleNotFound = errors.New("schedule not found")
    // ErrTicketNotFound is returned for unknown ticket ids.
    ErrTicketNotFound = errors.New("ticket not found")
    // ErrHoldNotFound is returned when a hold token matches no seat.
    ErrHoldNotFound = errors.New("hold not found")
    // ErrInvalidStoppage means a boarding or dropping point is not on the
    // schedule's route.
    ErrInvalidStoppage = errors.New("stoppage is not on the route")
    // ErrInventoryLocked means an inventory cannot be regenerated because
    // the schedule already has live tickets.
    ErrInventoryLocked = errors.New("schedule inventory has live tickets")
)

// SeatConflictError names the first requested seat that was already taken.
type SeatConflictError struct {
    Seat model.SeatCell
}

func (e *SeatConflictError) Error() string {
    return fmt.Sprintf("seat %s (row %d, column %d) is already booked", e.Seat.Label(), e.Seat.Row, e.Seat.Column)
}

func (e *SeatConflictError) Unwrap() error { return ErrSeatConflict }

// ConflictFromInventory converts an inventory SeatTakenError into a
// SeatConflictError; other errors are returned unchanged.
func ConflictFromInventory(err error) error {
    var taken *inventory.SeatTakenError
    if errors.As(err, &taken) {
        return &SeatConflictError{Seat: taken.Seat}
    }
    if errors.Is(err, inventory.ErrClosed) {
        return ErrScheduleClosed
    }
    return err
}
