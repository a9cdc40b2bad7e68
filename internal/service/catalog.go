// Package service holds the application services that sit between the HTTP
// handlers and the stores: the seat plan / bus / schedule catalog and the
// RabbitMQ event publisher.
package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/iliyamo/bus-ticketing/internal/booking"
    "github.com/iliyamo/bus-ticketing/internal/directory"
    "github.com/iliyamo/bus-ticketing/internal/inventory"
    "github.com/iliyamo/bus-ticketing/internal/model"
    "github.com/iliyamo/bus-ticketing/internal/seatplan"
)

var (
    // ErrInvalidInput covers catalog requests that fail validation.
    ErrInvalidInput = errors.New("invalid input")
    // ErrBusInactive means schedules cannot be created for the bus.
    ErrBusInactive = errors.New("bus is not active")
)

// CatalogStore is the persistence the catalog needs.  repository.Store and
// repository.MemoryStore both implement it.
type CatalogStore interface {
    CreateSeatPlan(ctx context.Context, p *model.SeatPlan) error
    UpdateSeatPlan(ctx context.Context, p *model.SeatPlan) error
    GetSeatPlan(ctx context.Context, id uint64) (*model.SeatPlan, error)
    ListSeatPlans(ctx context.Context, companyID uint64) ([]model.SeatPlan, error)

    CreateBus(ctx context.Context, b *model.Bus) error
    GetBus(ctx context.Context, id uint64) (*model.Bus, error)
    ListBuses(ctx context.Context, companyID uint64) ([]model.Bus, error)
    UpdateBusLayout(ctx context.Context, b *model.Bus) error

    CreateSchedule(ctx context.Context, s *model.Schedule) error
    GetSchedule(ctx context.Context, id uint64) (*model.Schedule, error)
    ListSchedulesByBus(ctx context.Context, busID uint64) ([]model.Schedule, error)
    UpdateScheduleStatus(ctx context.Context, id uint64, status string) error
    ReplaceInventory(ctx context.Context, id uint64, seats []model.ScheduleSeat, now time.Time) error
}

// Catalog manages seat plans, buses and schedules.  Schedule mutations run
// under the booking manager's per-schedule lock so they never interleave
// with bookings.
type Catalog struct {
    store   CatalogStore
    manager *booking.Manager
    dir     directory.Directory
}

// NewCatalog wires a catalog.  dir may be nil, in which case company and
// route references are not checked.
func NewCatalog(store CatalogStore, manager *booking.Manager, dir directory.Directory) *Catalog {
    return &Catalog{store: store, manager: manager, dir: dir}
}

// SeatPlanInput is a create or update request for a seat plan.
type SeatPlanInput struct {
    CompanyID   uint64               `json:"company_id"`
    Name        string               `json:"name"`
    BusType     string               `json:"bus_type"`
    Status      string               `json:"status"`
    Description seatplan.Description `json:"description"`
}

// PreviewSeatPlan compiles a description without storing anything.
func (c *Catalog) PreviewSeatPlan(d seatplan.Description) (*seatplan.Compiled, error) {
    return seatplan.Compile(d)
}

func (c *Catalog) CreateSeatPlan(ctx context.Context, in SeatPlanInput) (*model.SeatPlan, error) {
    p, err := c.buildSeatPlan(in)
    if err != nil {
        return nil, err
    }
    if err := c.checkCompany(ctx, in.CompanyID); err != nil {
        return nil, err
    }
    p.CompanyID = in.CompanyID
    if err := c.store.CreateSeatPlan(ctx, p); err != nil {
        return nil, err
    }
    return p, nil
}

// UpdateSeatPlan recompiles and overwrites a plan.  Buses keep the layout
// they were created with.
func (c *Catalog) UpdateSeatPlan(ctx context.Context, id uint64, in SeatPlanInput) (*model.SeatPlan, error) {
    cur, err := c.store.GetSeatPlan(ctx, id)
    if err != nil {
        return nil, err
    }
    p, err := c.buildSeatPlan(in)
    if err != nil {
        return nil, err
    }
    p.ID = cur.ID
    p.CompanyID = cur.CompanyID
    if err := c.store.UpdateSeatPlan(ctx, p); err != nil {
        return nil, err
    }
    return p, nil
}

func (c *Catalog) buildSeatPlan(in SeatPlanInput) (*model.SeatPlan, error) {
    name := strings.TrimSpace(in.Name)
    if name == "" {
        return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
    }
    if in.Status == "" {
        in.Status = model.SeatPlanActive
    }
    switch in.Status {
    case model.SeatPlanActive, model.SeatPlanInactive:
    default:
        return nil, fmt.Errorf("%w: unknown seat plan status %q", ErrInvalidInput, in.Status)
    }
    compiled, err := seatplan.Compile(in.Description)
    if err != nil {
        return nil, err
    }
    p := &model.SeatPlan{Name: name, BusType: strings.TrimSpace(in.BusType), Status: in.Status}
    compiled.ApplyTo(p)
    return p, nil
}

func (c *Catalog) GetSeatPlan(ctx context.Context, id uint64) (*model.SeatPlan, error) {
    return c.store.GetSeatPlan(ctx, id)
}

func (c *Catalog) ListSeatPlans(ctx context.Context, companyID uint64) ([]model.SeatPlan, error) {
    return c.store.ListSeatPlans(ctx, companyID)
}

// LayoutInput is an explicit bus layout.  Seat numbers are kept as given.
type LayoutInput struct {
    Rows         int              `json:"rows"`
    Columns      int              `json:"columns"`
    AisleColumns []int            `json:"aisle_columns"`
    Cells        []model.SeatCell `json:"cells"`
}

// BusInput creates a bus.  Exactly one of SeatPlanID and Layout is set.
// Capacity zero means the layout's seat count.
type BusInput struct {
    CompanyID  uint64       `json:"company_id"`
    Number     string       `json:"number"`
    BusType    string       `json:"bus_type"`
    SeatPlanID *uint64      `json:"seat_plan_id"`
    Layout     *LayoutInput `json:"layout"`
    Capacity   int          `json:"capacity"`
}

func (c *Catalog) CreateBus(ctx context.Context, in BusInput) (*model.Bus, error) {
    number := strings.TrimSpace(in.Number)
    if number == "" {
        return nil, fmt.Errorf("%w: bus number is required", ErrInvalidInput)
    }
    if err := c.checkCompany(ctx, in.CompanyID); err != nil {
        return nil, err
    }
    b := &model.Bus{CompanyID: in.CompanyID, Number: number, BusType: strings.TrimSpace(in.BusType), Status: model.BusActive}
    if err := c.applyLayout(ctx, b, in.SeatPlanID, in.Layout, in.Capacity); err != nil {
        return nil, err
    }
    if err := c.store.CreateBus(ctx, b); err != nil {
        return nil, err
    }
    return b, nil
}

// applyLayout freezes the plan or explicit layout onto b and resolves its
// capacity.
func (c *Catalog) applyLayout(ctx context.Context, b *model.Bus, planID *uint64, layout *LayoutInput, capacity int) error {
    switch {
    case planID != nil && layout != nil:
        return fmt.Errorf("%w: give either seat_plan_id or layout, not both", ErrInvalidInput)
    case planID != nil:
        plan, err := c.store.GetSeatPlan(ctx, *planID)
        if err != nil {
            return err
        }
        if plan.CompanyID != b.CompanyID {
            return fmt.Errorf("%w: seat plan %d belongs to another company", ErrInvalidInput, plan.ID)
        }
        if plan.Status != model.SeatPlanActive {
            return fmt.Errorf("%w: seat plan %d is %s", ErrInvalidInput, plan.ID, plan.Status)
        }
        b.SeatLayout = seatplan.SnapshotFromPlan(plan)
        id := plan.ID
        b.SeatPlanID = &id
        if b.BusType == "" {
            b.BusType = plan.BusType
        }
    case layout != nil:
        l, err := seatplan.SnapshotFromCells(layout.Rows, layout.Columns, layout.AisleColumns, layout.Cells)
        if err != nil {
            return err
        }
        b.SeatLayout = l
        b.SeatPlanID = nil
    default:
        return fmt.Errorf("%w: seat_plan_id or layout is required", ErrInvalidInput)
    }
    n, err := seatplan.ResolveCapacity(b.SeatLayout, capacity)
    if err != nil {
        return err
    }
    b.Capacity = n
    return nil
}

func (c *Catalog) GetBus(ctx context.Context, id uint64) (*model.Bus, error) {
    return c.store.GetBus(ctx, id)
}

func (c *Catalog) ListBuses(ctx context.Context, companyID uint64) ([]model.Bus, error) {
    return c.store.ListBuses(ctx, companyID)
}

// BusLayoutInput replaces a bus's layout.
type BusLayoutInput struct {
    SeatPlanID *uint64      `json:"seat_plan_id"`
    Layout     *LayoutInput `json:"layout"`
    Capacity   int          `json:"capacity"`
}

// LayoutChange reports what happened to the bus's open schedules after a
// layout change.  Skipped schedules already have live tickets and keep the
// old inventory.
type LayoutChange struct {
    Bus         *model.Bus `json:"bus"`
    Regenerated []uint64   `json:"regenerated_schedules"`
    Skipped     []uint64   `json:"skipped_schedules"`
}

// UpdateBusLayout swaps the bus layout and rebuilds the inventory of every
// open schedule of the bus that has not sold a ticket yet.
func (c *Catalog) UpdateBusLayout(ctx context.Context, busID uint64, in BusLayoutInput) (*LayoutChange, error) {
    b, err := c.store.GetBus(ctx, busID)
    if err != nil {
        return nil, err
    }
    if err := c.applyLayout(ctx, b, in.SeatPlanID, in.Layout, in.Capacity); err != nil {
        return nil, err
    }
    if err := c.store.UpdateBusLayout(ctx, b); err != nil {
        return nil, err
    }
    out := &LayoutChange{Bus: b, Regenerated: []uint64{}, Skipped: []uint64{}}
    schedules, err := c.store.ListSchedulesByBus(ctx, busID)
    if err != nil {
        return nil, err
    }
    for _, s := range schedules {
        if s.IsTerminal() {
            continue
        }
        err := c.manager.Exclusive(ctx, s.ID, func() error {
            return c.store.ReplaceInventory(ctx, s.ID, inventory.Instantiate(b.SeatLayout), time.Now().UTC())
        })
        switch {
        case err == nil:
            out.Regenerated = append(out.Regenerated, s.ID)
        case errors.Is(err, booking.ErrInventoryLocked), errors.Is(err, booking.ErrScheduleClosed):
            out.Skipped = append(out.Skipped, s.ID)
        default:
            return nil, err
        }
    }
    log.Printf("catalog: bus %d relaid out, %d schedules regenerated, %d kept", busID, len(out.Regenerated), len(out.Skipped))
    return out, nil
}

// SeatFareInput overrides the fare of one seat on a new schedule.
type SeatFareInput struct {
    Row    int   `json:"row"`
    Column int   `json:"column"`
    Fare   int64 `json:"fare"`
}

// ScheduleInput creates a schedule.  Price is the default per-seat fare in
// minor units.
type ScheduleInput struct {
    BusID         uint64          `json:"bus_id"`
    RouteID       uint64          `json:"route_id"`
    DepartureTime time.Time       `json:"departure_time"`
    ArrivalTime   time.Time       `json:"arrival_time"`
    Price         int64           `json:"price"`
    ShowOnWeb     *bool           `json:"show_on_web"`
    SeatFares     []SeatFareInput `json:"seat_fares"`
}

// CreateSchedule creates a trip and instantiates its seat inventory from
// the bus layout.
func (c *Catalog) CreateSchedule(ctx context.Context, in ScheduleInput) (*model.Schedule, error) {
    if in.DepartureTime.IsZero() || !in.ArrivalTime.After(in.DepartureTime) {
        return nil, fmt.Errorf("%w: arrival must be after departure", ErrInvalidInput)
    }
    if in.Price < 0 {
        return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
    }
    b, err := c.store.GetBus(ctx, in.BusID)
    if err != nil {
        return nil, err
    }
    if b.Status != model.BusActive {
        return nil, fmt.Errorf("%w: bus %d is %s", ErrBusInactive, b.ID, b.Status)
    }
    if c.dir != nil {
        r, err := c.dir.Route(ctx, in.RouteID)
        if errors.Is(err, directory.ErrNotFound) {
            return nil, fmt.Errorf("%w: route %d not found", ErrInvalidInput, in.RouteID)
        }
        if err != nil {
            return nil, err
        }
        if r.CompanyID != b.CompanyID {
            return nil, fmt.Errorf("%w: route %d belongs to another company", ErrInvalidInput, r.ID)
        }
    }

    seats := inventory.Instantiate(b.SeatLayout)
    inv := inventory.New(seats, false)
    for _, f := range in.SeatFares {
        if f.Fare < 0 {
            return nil, fmt.Errorf("%w: negative fare for seat (%d,%d)", ErrInvalidInput, f.Row, f.Column)
        }
        if _, err := inv.Lookup(model.Position{Row: f.Row, Column: f.Column}); err != nil {
            return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
        }
    }
    for i := range seats {
        for _, f := range in.SeatFares {
            if seats[i].Row == f.Row && seats[i].Column == f.Column {
                v := f.Fare
                seats[i].Fare = &v
            }
        }
    }

    show := true
    if in.ShowOnWeb != nil {
        show = *in.ShowOnWeb
    }
    s := &model.Schedule{
        CompanyID:     b.CompanyID,
        BusID:         b.ID,
        RouteID:       in.RouteID,
        DepartureTime: in.DepartureTime.UTC(),
        ArrivalTime:   in.ArrivalTime.UTC(),
        Price:         in.Price,
        Status:        model.ScheduleScheduled,
        ShowOnWeb:     show,
        SeatInventory: seats,
    }
    if err := c.store.CreateSchedule(ctx, s); err != nil {
        return nil, err
    }
    return s, nil
}

func (c *Catalog) ListSchedulesByBus(ctx context.Context, busID uint64) ([]model.Schedule, error) {
    if _, err := c.store.GetBus(ctx, busID); err != nil {
        return nil, err
    }
    return c.store.ListSchedulesByBus(ctx, busID)
}

// GetSchedule returns a schedule without its inventory.
func (c *Catalog) GetSchedule(ctx context.Context, id uint64) (*model.Schedule, error) {
    s, err := c.store.GetSchedule(ctx, id)
    if err != nil {
        return nil, err
    }
    s.SeatInventory = nil
    return s, nil
}

// SetScheduleStatus moves a schedule through its lifecycle: SCHEDULED and
// DELAYED switch freely, either may become COMPLETED, and cancellation
// releases every seat and ticket.  Setting the current status is a no-op.
func (c *Catalog) SetScheduleStatus(ctx context.Context, id uint64, status string) (*model.Schedule, error) {
    if status == model.ScheduleCancelled {
        if err := c.manager.CancelSchedule(ctx, id); err != nil {
            return nil, err
        }
        return c.GetSchedule(ctx, id)
    }
    switch status {
    case model.ScheduleScheduled, model.ScheduleDelayed, model.ScheduleCompleted:
    default:
        return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
    }
    err := c.manager.Exclusive(ctx, id, func() error {
        s, err := c.store.GetSchedule(ctx, id)
        if err != nil {
            return err
        }
        if s.Status == status {
            return nil
        }
        if s.IsTerminal() {
            return fmt.Errorf("%w: schedule %d is %s", booking.ErrScheduleClosed, id, s.Status)
        }
        return c.store.UpdateScheduleStatus(ctx, id, status)
    })
    if err != nil {
        return nil, err
    }
    return c.GetSchedule(ctx, id)
}

func (c *Catalog) checkCompany(ctx context.Context, id uint64) error {
    if id == 0 {
        return fmt.Errorf("%w: company_id is required", ErrInvalidInput)
    }
    if c.dir == nil {
        return nil
    }
    _, err := c.dir.Company(ctx, id)
    if errors.Is(err, directory.ErrNotFound) {
        return fmt.Errorf("%w: company %d not found", ErrInvalidInput, id)
    }
    return err
}
