package service

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/iliyamo/bus-ticketing/internal/booking"
    "github.com/iliyamo/bus-ticketing/internal/directory"
    "github.com/iliyamo/bus-ticketing/internal/inventory"
    "github.com/iliyamo/bus-ticketing/internal/model"
    "github.com/iliyamo/bus-ticketing/internal/repository"
    "github.com/iliyamo/bus-ticketing/internal/seatplan"
)

type fakeDirectory struct {
    companies map[uint64]bool
    routes    map[uint64]*directory.Route
}

func (d fakeDirectory) Company(_ context.Context, id uint64) (*directory.Company, error) {
    if !d.companies[id] {
        return nil, directory.ErrNotFound
    }
    return &directory.Company{ID: id, Name: "Green Line", Status: "ACTIVE"}, nil
}

func (d fakeDirectory) Route(_ context.Context, id uint64) (*directory.Route, error) {
    r, ok := d.routes[id]
    if !ok {
        return nil, directory.ErrNotFound
    }
    return r, nil
}

func newCatalog(t *testing.T) (*Catalog, *booking.Manager, *repository.MemoryStore) {
    t.Helper()
    store := repository.NewMemoryStore()
    m := booking.NewManager(store, booking.Options{})
    dir := fakeDirectory{
        companies: map[uint64]bool{1: true, 2: true},
        routes:    map[uint64]*directory.Route{5: {ID: 5, CompanyID: 1, Name: "Dhaka - Sylhet"}},
    }
    return NewCatalog(store, m, dir), m, store
}

func shorthand(total int) seatplan.Description {
    return seatplan.Description{Layout: "2+2", TotalSeats: total}
}

func TestCreateSeatPlanAndBusFromPlan(t *testing.T) {
    c, _, _ := newCatalog(t)
    ctx := context.Background()

    plan, err := c.CreateSeatPlan(ctx, SeatPlanInput{CompanyID: 1, Name: "Hino 36", BusType: "AC", Description: shorthand(36)})
    if err != nil {
        t.Fatalf("create plan: %v", err)
    }
    if plan.ID == 0 || plan.Status != model.SeatPlanActive || model.CountSeats(plan.Cells) != 36 {
        t.Fatalf("unexpected plan: id=%d status=%s seats=%d", plan.ID, plan.Status, model.CountSeats(plan.Cells))
    }
    if _, err := c.CreateSeatPlan(ctx, SeatPlanInput{CompanyID: 1, Name: "Hino 36", Description: shorthand(36)}); !errors.Is(err, repository.ErrConflict) {
        t.Fatalf("expected ErrConflict for duplicate name, got %v", err)
    }
    if _, err := c.CreateSeatPlan(ctx, SeatPlanInput{CompanyID: 9, Name: "X", Description: shorthand(4)}); !errors.Is(err, ErrInvalidInput) {
        t.Fatalf("expected ErrInvalidInput for unknown company, got %v", err)
    }

    bus, err := c.CreateBus(ctx, BusInput{CompanyID: 1, Number: "DHA-1", SeatPlanID: &plan.ID})
    if err != nil {
        t.Fatalf("create bus: %v", err)
    }
    if bus.Capacity != 36 || bus.BusType != "AC" || bus.SeatPlanID == nil {
        t.Fatalf("unexpected bus: %+v", bus)
    }

    // Editing the plan must not touch the bus.
    if _, err := c.UpdateSeatPlan(ctx, plan.ID, SeatPlanInput{Name: "Hino 40", Description: shorthand(40)}); err != nil {
        t.Fatalf("update plan: %v", err)
    }
    got, err := c.GetBus(ctx, bus.ID)
    if err != nil {
        t.Fatalf("get bus: %v", err)
    }
    if got.SeatLayout.SeatCount() != 36 {
        t.Fatalf("bus layout changed with plan: %d seats", got.SeatLayout.SeatCount())
    }

    if _, err := c.CreateBus(ctx, BusInput{CompanyID: 2, Number: "X", SeatPlanID: &plan.ID}); !errors.Is(err, ErrInvalidInput) {
        t.Fatalf("expected ErrInvalidInput for foreign plan, got %v", err)
    }
    if _, err := c.CreateBus(ctx, BusInput{CompanyID: 1, Number: "Y", SeatPlanID: &plan.ID, Capacity: 10}); !errors.Is(err, seatplan.ErrInvalidCount) {
        t.Fatalf("expected ErrInvalidCount for small capacity, got %v", err)
    }
}

func TestCreateBusFromExplicitLayout(t *testing.T) {
    c, _, _ := newCatalog(t)
    cells := []model.SeatCell{
        {Row: 0, Column: 0, SeatNumber: 2}, {Row: 0, Column: 1, IsAisle: true}, {Row: 0, Column: 2, SeatNumber: 1},
    }
    bus, err := c.CreateBus(context.Background(), BusInput{CompanyID: 1, Number: "SYL-9", Layout: &LayoutInput{Rows: 1, Columns: 3, AisleColumns: []int{1}, Cells: cells}})
    if err != nil {
        t.Fatalf("create bus: %v", err)
    }
    if bus.Capacity != 2 || bus.SeatLayout.Cells[0].SeatNumber != 2 {
        t.Fatalf("explicit numbers not kept: %+v", bus.SeatLayout.Cells)
    }
    if _, err := c.CreateBus(context.Background(), BusInput{CompanyID: 1, Number: "Z"}); !errors.Is(err, ErrInvalidInput) {
        t.Fatalf("expected ErrInvalidInput without layout, got %v", err)
    }
}

func createTrip(t *testing.T, c *Catalog, busID uint64, fares ...SeatFareInput) *model.Schedule {
    t.Helper()
    dep := time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC)
    s, err := c.CreateSchedule(context.Background(), ScheduleInput{
        BusID: busID, RouteID: 5, DepartureTime: dep, ArrivalTime: dep.Add(6 * time.Hour), Price: 75000, SeatFares: fares,
    })
    if err != nil {
        t.Fatalf("create schedule: %v", err)
    }
    return s
}

func TestCreateScheduleInstantiatesInventory(t *testing.T) {
    c, m, _ := newCatalog(t)
    ctx := context.Background()
    bus, err := c.CreateBus(ctx, BusInput{CompanyID: 1, Number: "DHA-2", Layout: &LayoutInput{Rows: 1, Columns: 3, AisleColumns: []int{1}, Cells: []model.SeatCell{
        {Row: 0, Column: 0, SeatNumber: 1}, {Row: 0, Column: 1, IsAisle: true}, {Row: 0, Column: 2, SeatNumber: 2},
    }}})
    if err != nil {
        t.Fatalf("create bus: %v", err)
    }
    s := createTrip(t, c, bus.ID, SeatFareInput{Row: 0, Column: 2, Fare: 90000})
    if len(s.SeatInventory) != 2 {
        t.Fatalf("expected 2 inventory seats, got %d", len(s.SeatInventory))
    }
    avail, err := m.ListAvailableSeats(ctx, s.ID)
    if err != nil {
        t.Fatalf("available: %v", err)
    }
    if len(avail) != 2 || avail[1].Fare == nil || *avail[1].Fare != 90000 {
        t.Fatalf("unexpected available seats: %+v", avail)
    }

    dep := time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC)
    bad := []ScheduleInput{
        {BusID: bus.ID, RouteID: 5, DepartureTime: dep, ArrivalTime: dep},
        {BusID: bus.ID, RouteID: 5, DepartureTime: dep, ArrivalTime: dep.Add(time.Hour), Price: -1},
        {BusID: bus.ID, RouteID: 404, DepartureTime: dep, ArrivalTime: dep.Add(time.Hour)},
        {BusID: bus.ID, RouteID: 5, DepartureTime: dep, ArrivalTime: dep.Add(time.Hour), SeatFares: []SeatFareInput{{Row: 0, Column: 1, Fare: 1}}},
    }
    for i, in := range bad {
        if _, err := c.CreateSchedule(ctx, in); !errors.Is(err, ErrInvalidInput) {
            t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
        }
    }
}

func TestUpdateBusLayoutRegeneratesUnsoldSchedules(t *testing.T) {
    c, m, _ := newCatalog(t)
    ctx := context.Background()
    plan, err := c.CreateSeatPlan(ctx, SeatPlanInput{CompanyID: 1, Name: "small", Description: shorthand(8)})
    if err != nil {
        t.Fatalf("create plan: %v", err)
    }
    bus, err := c.CreateBus(ctx, BusInput{CompanyID: 1, Number: "DHA-3", SeatPlanID: &plan.ID})
    if err != nil {
        t.Fatalf("create bus: %v", err)
    }
    sold := createTrip(t, c, bus.ID)
    unsold := createTrip(t, c, bus.ID)
    held := createTrip(t, c, bus.ID)
    if _, err := m.Book(ctx, booking.BookRequest{
        ScheduleID: sold.ID,
        Passenger:  model.Passenger{Name: "Rina", Phone: "019"},
        Cells:      []model.Position{sold.SeatInventory[0].Pos()},
    }); err != nil {
        t.Fatalf("book: %v", err)
    }
    hold, err := m.Hold(ctx, held.ID, []model.Position{held.SeatInventory[0].Pos()})
    if err != nil {
        t.Fatalf("hold: %v", err)
    }

    big, err := c.CreateSeatPlan(ctx, SeatPlanInput{CompanyID: 1, Name: "big", Description: shorthand(12)})
    if err != nil {
        t.Fatalf("create plan: %v", err)
    }
    change, err := c.UpdateBusLayout(ctx, bus.ID, BusLayoutInput{SeatPlanID: &big.ID})
    if err != nil {
        t.Fatalf("update layout: %v", err)
    }
    if len(change.Regenerated) != 1 || change.Regenerated[0] != unsold.ID {
        t.Fatalf("unexpected regenerated list %v", change.Regenerated)
    }
    skipped := map[uint64]bool{}
    for _, id := range change.Skipped {
        skipped[id] = true
    }
    if len(change.Skipped) != 2 || !skipped[sold.ID] || !skipped[held.ID] {
        t.Fatalf("unexpected skipped list %v", change.Skipped)
    }
    for id, want := range map[uint64]int{unsold.ID: 12, sold.ID: 7, held.ID: 7} {
        avail, err := m.ListAvailableSeats(ctx, id)
        if err != nil {
            t.Fatalf("available: %v", err)
        }
        if len(avail) != want {
            t.Fatalf("schedule %d: expected %d available, got %d", id, want, len(avail))
        }
    }
    seats, err := m.SeatMap(ctx, held.ID)
    if err != nil {
        t.Fatalf("seat map: %v", err)
    }
    for _, st := range seats {
        if st.Pos() != held.SeatInventory[0].Pos() {
            continue
        }
        if st.Status != model.SeatHeld || st.HoldToken == nil || *st.HoldToken != hold.Token {
            t.Fatalf("hold lost after re-layout: %+v", st)
        }
    }
}

func TestSetScheduleStatusTransitions(t *testing.T) {
    c, m, store := newCatalog(t)
    ctx := context.Background()
    plan, err := c.CreateSeatPlan(ctx, SeatPlanInput{CompanyID: 1, Name: "p", Description: shorthand(4)})
    if err != nil {
        t.Fatalf("create plan: %v", err)
    }
    bus, err := c.CreateBus(ctx, BusInput{CompanyID: 1, Number: "DHA-4", SeatPlanID: &plan.ID})
    if err != nil {
        t.Fatalf("create bus: %v", err)
    }
    s := createTrip(t, c, bus.ID)

    steps := []struct {
        status string
        want   error
    }{
        {model.ScheduleDelayed, nil},
        {model.ScheduleScheduled, nil},
        {model.ScheduleScheduled, nil},
        {"BOARDING", ErrInvalidInput},
        {model.ScheduleCompleted, nil},
        {model.ScheduleDelayed, booking.ErrScheduleClosed},
        {model.ScheduleCancelled, booking.ErrScheduleClosed},
    }
    for _, st := range steps {
        _, err := c.SetScheduleStatus(ctx, s.ID, st.status)
        if st.want == nil && err != nil {
            t.Fatalf("%s: %v", st.status, err)
        }
        if st.want != nil && !errors.Is(err, st.want) {
            t.Fatalf("%s: expected %v, got %v", st.status, st.want, err)
        }
    }

    s2 := createTrip(t, c, bus.ID)
    if _, err := m.Book(ctx, booking.BookRequest{ScheduleID: s2.ID, Passenger: model.Passenger{Name: "A", Phone: "1"}, Cells: []model.Position{s2.SeatInventory[0].Pos()}}); err != nil {
        t.Fatalf("book: %v", err)
    }
    got, err := c.SetScheduleStatus(ctx, s2.ID, model.ScheduleCancelled)
    if err != nil {
        t.Fatalf("cancel: %v", err)
    }
    if got.Status != model.ScheduleCancelled {
        t.Fatalf("expected CANCELLED, got %s", got.Status)
    }
    full, _ := store.GetSchedule(ctx, s2.ID)
    if n := inventory.FromSchedule(full).BookedCount(); n != 0 {
        t.Fatalf("expected no booked seats after cancellation, got %d", n)
    }
}
