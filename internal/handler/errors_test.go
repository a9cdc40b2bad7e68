package handler

import (
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-ticketing/internal/booking"
    "github.com/iliyamo/bus-ticketing/internal/directory"
    "github.com/iliyamo/bus-ticketing/internal/model"
    "github.com/iliyamo/bus-ticketing/internal/repository"
    "github.com/iliyamo/bus-ticketing/internal/seatplan"
    "github.com/iliyamo/bus-ticketing/internal/service"
)

func TestRespondErrorStatus(t *testing.T) {
    cases := []struct {
        err  error
        code int
    }{
        {fmt.Errorf("%w: %w", booking.ErrInvalidSeatRequest, booking.ErrSeatNotFound), http.StatusBadRequest},
        {booking.ErrInvalidDiscount, http.StatusBadRequest},
        {booking.ErrInvalidStoppage, http.StatusBadRequest},
        {fmt.Errorf("compile: %w", seatplan.ErrInvalidLayout), http.StatusBadRequest},
        {seatplan.ErrInvalidCount, http.StatusBadRequest},
        {service.ErrInvalidInput, http.StatusBadRequest},
        {booking.ErrScheduleNotFound, http.StatusNotFound},
        {booking.ErrTicketNotFound, http.StatusNotFound},
        {booking.ErrHoldNotFound, http.StatusNotFound},
        {repository.ErrBusNotFound, http.StatusNotFound},
        {repository.ErrSeatPlanNotFound, http.StatusNotFound},
        {directory.ErrNotFound, http.StatusNotFound},
        {booking.ErrScheduleClosed, http.StatusConflict},
        {booking.ErrInventoryLocked, http.StatusConflict},
        {repository.ErrConflict, http.StatusConflict},
        {service.ErrBusInactive, http.StatusConflict},
        {errForbidden, http.StatusForbidden},
        {errors.New("boom"), http.StatusInternalServerError},
    }
    e := echo.New()
    for _, tc := range cases {
        rec := httptest.NewRecorder()
        c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
        if err := respondError(c, tc.err); err != nil {
            t.Fatalf("respondError(%v): %v", tc.err, err)
        }
        if rec.Code != tc.code {
            t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
        }
    }
}

func TestRespondErrorSeatConflict(t *testing.T) {
    e := echo.New()
    rec := httptest.NewRecorder()
    c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
    name := "C2"
    _ = respondError(c, &booking.SeatConflictError{Seat: model.SeatCell{Row: 2, Column: 1, SeatNumber: 8, SeatName: &name}})
    if rec.Code != http.StatusConflict {
        t.Fatalf("expected 409, got %d", rec.Code)
    }
    if body := rec.Body.String(); !strings.Contains(body, `"seat":{"row":2,"column":1`) {
        t.Fatalf("conflict body does not name the seat: %s", body)
    }

    rec = httptest.NewRecorder()
    c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
    _ = respondError(c, errors.New("dsn password leaked"))
    if strings.Contains(rec.Body.String(), "leaked") {
        t.Fatalf("internal error text must not reach clients")
    }
}
