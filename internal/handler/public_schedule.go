package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-ticketing/internal/booking"
    "github.com/iliyamo/bus-ticketing/internal/model"
    "github.com/iliyamo/bus-ticketing/internal/repository"
    "github.com/iliyamo/bus-ticketing/internal/service"
)

// ScheduleSearcher is the trip search backing GET /v1/schedules/search.
type ScheduleSearcher interface {
    SearchSchedules(ctx context.Context, q repository.ScheduleSearchQuery, now time.Time) ([]repository.PublicScheduleRow, int64, error)
}

// PublicHandler serves the unauthenticated schedule endpoints used by the
// web and counter frontends.
type PublicHandler struct {
    Search  ScheduleSearcher
    Catalog *service.Catalog
    Manager *booking.Manager
}

func NewPublicHandler(search ScheduleSearcher, catalog *service.Catalog, manager *booking.Manager) *PublicHandler {
    return &PublicHandler{Search: search, Catalog: catalog, Manager: manager}
}

// SearchSchedules lists upcoming bookable trips.
// Query: from, to (city names), date (YYYY-MM-DD), page, page_size.
func (h *PublicHandler) SearchSchedules(c echo.Context) error {
    date := strings.TrimSpace(c.QueryParam("date"))
    if date != "" {
        if _, err := time.Parse("2006-01-02", date); err != nil {
            return badRequest(c, "date must be YYYY-MM-DD")
        }
    }
    page, _ := strconv.Atoi(c.QueryParam("page"))
    if page < 1 {
        page = 1
    }
    size, _ := strconv.Atoi(c.QueryParam("page_size"))
    if size < 1 {
        size = 20
    }
    if size > 100 {
        size = 100
    }
    q := repository.ScheduleSearchQuery{
        From:     strings.TrimSpace(c.QueryParam("from")),
        To:       strings.TrimSpace(c.QueryParam("to")),
        Date:     date,
        Page:     page,
        PageSize: size,
    }
    items, total, err := h.Search.SearchSchedules(c.Request().Context(), q, time.Now().UTC())
    if err != nil {
        return respondError(c, err)
    }
    if items == nil {
        items = []repository.PublicScheduleRow{}
    }
    return c.JSON(http.StatusOK, echo.Map{
        "data":      items,
        "total":     total,
        "page":      page,
        "page_size": size,
    })
}

func (h *PublicHandler) GetSchedule(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return badRequest(c, "invalid schedule id")
    }
    s, err := h.Catalog.GetSchedule(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, s)
}

// ListAvailableSeats returns the seats that can be booked now.
func (h *PublicHandler) ListAvailableSeats(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return badRequest(c, "invalid schedule id")
    }
    seats, err := h.Manager.ListAvailableSeats(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"schedule_id": id, "count": len(seats), "seats": seats})
}

// SeatMap returns the bus grid with every seat's current status.  Aisle
// columns come from the bus layout so the frontend can draw the gap.
func (h *PublicHandler) SeatMap(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return badRequest(c, "invalid schedule id")
    }
    ctx := c.Request().Context()
    s, err := h.Catalog.GetSchedule(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    bus, err := h.Catalog.GetBus(ctx, s.BusID)
    if err != nil {
        return respondError(c, err)
    }
    seats, err := h.Manager.SeatMap(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    counts := map[model.SeatStatus]int{}
    for _, st := range seats {
        if st.IsBroken {
            counts["BROKEN"]++
            continue
        }
        counts[st.Status]++
    }
    return c.JSON(http.StatusOK, echo.Map{
        "schedule_id":   id,
        "status":        s.Status,
        "rows":          bus.SeatLayout.Rows,
        "columns":       bus.SeatLayout.Columns,
        "aisle_columns": bus.SeatLayout.AisleColumns,
        "seats":         seats,
        "summary":       counts,
    })
}
