package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bus-ticketing/internal/booking"
    "github.com/iliyamo/bus-ticketing/internal/seatplan"
    "github.com/iliyamo/bus-ticketing/internal/service"
)

// StaffHandler serves the back-office endpoints: seat plans, buses and
// schedules.  Every route sits behind JWTAuth and RequireRole, and STAFF
// tokens only see their own company.
type StaffHandler struct {
    Catalog *service.Catalog
    Manager *booking.Manager
}

func NewStaffHandler(catalog *service.Catalog, manager *booking.Manager) *StaffHandler {
    return &StaffHandler{Catalog: catalog, Manager: manager}
}

// ---- Seat plans ----

// PreviewSeatPlan compiles a description without saving it.
func (h *StaffHandler) PreviewSeatPlan(c echo.Context) error {
    var d seatplan.Description
    if err := c.Bind(&d); err != nil {
        return badRequest(c, "invalid body")
    }
    compiled, err := h.Catalog.PreviewSeatPlan(d)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"layout": compiled, "total_seats": compiled.SeatCount()})
}

func (h *StaffHandler) CreateSeatPlan(c echo.Context) error {
    var in service.SeatPlanInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    company, err := companyFor(c, in.CompanyID)
    if err != nil {
        return respondError(c, err)
    }
    in.CompanyID = company
    p, err := h.Catalog.CreateSeatPlan(c.Request().Context(), in)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, p)
}

func (h *StaffHandler) UpdateSeatPlan(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return badRequest(c, "invalid seat plan id")
    }
    var in service.SeatPlanInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    ctx := c.Request().Context()
    cur, err := h.Catalog.GetSeatPlan(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    if err := ensureCompany(c, cur.CompanyID); err != nil {
        return respondError(c, err)
    }
    p, err := h.Catalog.UpdateSeatPlan(ctx, id, in)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, p)
}

func (h *StaffHandler) GetSeatPlan(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return badRequest(c, "invalid seat plan id")
    }
    p, err := h.Catalog.GetSeatPlan(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    if err := ensureCompany(c, p.CompanyID); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, p)
}

// ListSeatPlans lists a company's plans.  ADMIN passes ?company_id=.
func (h *StaffHandler) ListSeatPlans(c echo.Context) error {
    company, err := h.queryCompany(c)
    if err != nil {
        return respondError(c, err)
    }
    plans, err := h.Catalog.ListSeatPlans(c.Request().Context(), company)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"data": plans})
}

// ---- Buses ----

func (h *StaffHandler) CreateBus(c echo.Context) error {
    var in service.BusInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    company, err := companyFor(c, in.CompanyID)
    if err != nil {
        return respondError(c, err)
    }
    in.CompanyID = company
    b, err := h.Catalog.CreateBus(c.Request().Context(), in)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, b)
}

func (h *StaffHandler) GetBus(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return badRequest(c, "invalid bus id")
    }
    b, err := h.Catalog.GetBus(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    if err := ensureCompany(c, b.CompanyID); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

func (h *StaffHandler) ListBuses(c echo.Context) error {
    company, err := h.queryCompany(c)
    if err != nil {
        return respondError(c, err)
    }
    buses, err := h.Catalog.ListBuses(c.Request().Context(), company)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"data": buses})
}

// UpdateBusLayout re-lays out a bus and reports which schedules were rebuilt.
func (h *StaffHandler) UpdateBusLayout(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return badRequest(c, "invalid bus id")
    }
    var in service.BusLayoutInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    ctx := c.Request().Context()
    if err := h.ownBus(c, id); err != nil {
        return respondError(c, err)
    }
    change, err := h.Catalog.UpdateBusLayout(ctx, id, in)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, change)
}

func (h *StaffHandler) ListBusSchedules(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return badRequest(c, "invalid bus id")
    }
    if err := h.ownBus(c, id); err != nil {
        return respondError(c, err)
    }
    list, err := h.Catalog.ListSchedulesByBus(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"data": list})
}

// ---- Schedules ----

func (h *StaffHandler) CreateSchedule(c echo.Context) error {
    var in service.ScheduleInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    if err := h.ownBus(c, in.BusID); err != nil {
        return respondError(c, err)
    }
    s, err := h.Catalog.CreateSchedule(c.Request().Context(), in)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, s)
}

type statusRequest struct {
    Status string `json:"status"`
}

// SetScheduleStatus moves a schedule to SCHEDULED, DELAYED, COMPLETED or
// CANCELLED.  PATCH /v1/schedules/:id/status
func (h *StaffHandler) SetScheduleStatus(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return badRequest(c, "invalid schedule id")
    }
    var req statusRequest
    if err := c.Bind(&req); err != nil || req.Status == "" {
        return badRequest(c, "status is required")
    }
    if err := h.ownSchedule(c, id); err != nil {
        return respondError(c, err)
    }
    s, err := h.Catalog.SetScheduleStatus(c.Request().Context(), id, req.Status)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, s)
}

// ListScheduleTickets is the passenger manifest of a schedule.
func (h *StaffHandler) ListScheduleTickets(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return badRequest(c, "invalid schedule id")
    }
    if err := h.ownSchedule(c, id); err != nil {
        return respondError(c, err)
    }
    tickets, err := h.Manager.Tickets(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"data": tickets, "total": len(tickets)})
}

func (h *StaffHandler) queryCompany(c echo.Context) (uint64, error) {
    var requested uint64
    if raw := c.QueryParam("company_id"); raw != "" {
        n, err := strconv.ParseUint(raw, 10, 64)
        if err != nil {
            return 0, service.ErrInvalidInput
        }
        requested = n
    }
    company, err := companyFor(c, requested)
    if err != nil {
        return 0, err
    }
    if company == 0 {
        return 0, service.ErrInvalidInput
    }
    return company, nil
}

func (h *StaffHandler) ownBus(c echo.Context, id uint64) error {
    b, err := h.Catalog.GetBus(c.Request().Context(), id)
    if err != nil {
        return err
    }
    return ensureCompany(c, b.CompanyID)
}

func (h *StaffHandler) ownSchedule(c echo.Context, id uint64) error {
    s, err := h.Catalog.GetSchedule(c.Request().Context(), id)
    if err != nil {
        return err
    }
    return ensureCompany(c, s.CompanyID)
}
