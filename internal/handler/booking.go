package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-ticketing/internal/booking"
    "github.com/iliyamo/bus-ticketing/internal/directory"
    "github.com/iliyamo/bus-ticketing/internal/model"
    "github.com/iliyamo/bus-ticketing/internal/service"
    "github.com/iliyamo/bus-ticketing/internal/ticketdoc"
)

// BookingHandler exposes holds, bookings and ticket lookups.  Ticket ids
// are random UUIDs and act as the passenger's capability to view or
// cancel a ticket.
type BookingHandler struct {
    Manager *booking.Manager
    Catalog *service.Catalog
    Dir     directory.Directory
}

func NewBookingHandler(manager *booking.Manager, catalog *service.Catalog, dir directory.Directory) *BookingHandler {
    return &BookingHandler{Manager: manager, Catalog: catalog, Dir: dir}
}

type holdRequest struct {
    Seats []model.Position `json:"seats"`
}

type bookRequest struct {
    Passenger       model.Passenger  `json:"passenger"`
    Seats           []model.Position `json:"seats"`
    Discount        int64            `json:"discount"`
    BoardingPointID *uint64          `json:"boarding_point_id"`
    DroppingPointID *uint64          `json:"dropping_point_id"`
    HoldToken       string           `json:"hold_token"`
}

// HoldSeats places a timed hold.  POST /v1/schedules/:id/holds
func (h *BookingHandler) HoldSeats(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return badRequest(c, "invalid schedule id")
    }
    var req holdRequest
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    hold, err := h.Manager.Hold(c.Request().Context(), id, req.Seats)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, hold)
}

// ReleaseHold drops a hold early.  DELETE /v1/schedules/:id/holds/:token
func (h *BookingHandler) ReleaseHold(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return badRequest(c, "invalid schedule id")
    }
    if err := h.Manager.ReleaseHold(c.Request().Context(), id, c.Param("token")); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Book issues a ticket.  POST /v1/schedules/:id/tickets
func (h *BookingHandler) Book(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return badRequest(c, "invalid schedule id")
    }
    var req bookRequest
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    t, err := h.Manager.Book(c.Request().Context(), booking.BookRequest{
        ScheduleID:      id,
        Passenger:       req.Passenger,
        Cells:           req.Seats,
        Discount:        req.Discount,
        BoardingPointID: req.BoardingPointID,
        DroppingPointID: req.DroppingPointID,
        HoldToken:       req.HoldToken,
    })
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, t)
}

func (h *BookingHandler) GetTicket(c echo.Context) error {
    id, ok := ticketParam(c)
    if !ok {
        return badRequest(c, "invalid ticket id")
    }
    t, err := h.Manager.Ticket(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, t)
}

// CancelTicket frees the ticket's seats; repeating it returns the same
// cancelled ticket.  POST /v1/tickets/:id/cancel
func (h *BookingHandler) CancelTicket(c echo.Context) error {
    id, ok := ticketParam(c)
    if !ok {
        return badRequest(c, "invalid ticket id")
    }
    ctx := c.Request().Context()
    if err := h.Manager.Cancel(ctx, id); err != nil {
        return respondError(c, err)
    }
    t, err := h.Manager.Ticket(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, t)
}

// TicketPDF streams the printable e-ticket.  GET /v1/tickets/:id/pdf
func (h *BookingHandler) TicketPDF(c echo.Context) error {
    id, ok := ticketParam(c)
    if !ok {
        return badRequest(c, "invalid ticket id")
    }
    ctx := c.Request().Context()
    t, err := h.Manager.Ticket(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    s, err := h.Catalog.GetSchedule(ctx, t.ScheduleID)
    if err != nil {
        return respondError(c, err)
    }
    trip := ticketdoc.Trip{Schedule: s}
    if bus, err := h.Catalog.GetBus(ctx, s.BusID); err == nil {
        trip.BusNumber = bus.Number
    }
    if h.Dir != nil && s.RouteID != 0 {
        if r, err := h.Dir.Route(ctx, s.RouteID); err == nil {
            trip.Route = r.Name
        }
    }
    body, filename, err := ticketdoc.ETicket(t, trip)
    if err != nil {
        return respondError(c, err)
    }
    c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+strconv.Quote(filename))
    return c.Blob(http.StatusOK, "application/pdf", body)
}
