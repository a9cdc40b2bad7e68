package handler

import (
    "context"
    "errors"
    "log"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-ticketing/internal/booking"
    "github.com/iliyamo/bus-ticketing/internal/directory"
    "github.com/iliyamo/bus-ticketing/internal/repository"
    "github.com/iliyamo/bus-ticketing/internal/seatplan"
    "github.com/iliyamo/bus-ticketing/internal/service"
)

// errForbidden is returned when a STAFF token touches another company's data.
var errForbidden = errors.New("forbidden")

// respondError writes err as {"error": ...} with the matching status code.
// Seat conflicts also carry the contested seat.  Unknown errors are logged
// and hidden behind a generic 500.
func respondError(c echo.Context, err error) error {
    var conflict *booking.SeatConflictError
    switch {
    case errors.As(err, &conflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "seat": conflict.Seat})
    case errors.Is(err, errForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    case isBadRequest(err):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case isNotFound(err):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    case errors.Is(err, booking.ErrScheduleClosed),
        errors.Is(err, booking.ErrInventoryLocked),
        errors.Is(err, repository.ErrConflict),
        errors.Is(err, service.ErrBusInactive):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "schedule is busy, retry"})
    }
    log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func isBadRequest(err error) bool {
    for _, target := range []error{
        booking.ErrInvalidSeatRequest,
        booking.ErrInvalidDiscount,
        booking.ErrInvalidStoppage,
        seatplan.ErrInvalidLayout,
        seatplan.ErrInvalidCount,
        service.ErrInvalidInput,
    } {
        if errors.Is(err, target) {
            return true
        }
    }
    return false
}

func isNotFound(err error) bool {
    for _, target := range []error{
        booking.ErrScheduleNotFound,
        booking.ErrTicketNotFound,
        booking.ErrHoldNotFound,
        booking.ErrSeatNotFound,
        repository.ErrSeatPlanNotFound,
        repository.ErrBusNotFound,
        directory.ErrNotFound,
    } {
        if errors.Is(err, target) {
            return true
        }
    }
    return false
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
