package repository

import (
    "context"
    "errors"
    "fmt"
    "sort"
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/bus-ticketing/internal/booking"
    "github.com/iliyamo/bus-ticketing/internal/inventory"
    "github.com/iliyamo/bus-ticketing/internal/model"
)

// MemoryStore keeps every record in process memory with the same
// semantics as Store.  Writes are applied to a copy and swapped in only on
// success, so a failed call changes nothing.  Tests of the booking engine
// and the catalog service run against it.
type MemoryStore struct {
    mu        sync.Mutex
    now       func() time.Time
    nextID    uint64
    plans     map[uint64]*model.SeatPlan
    buses     map[uint64]*model.Bus
    schedules map[uint64]*model.Schedule
    tickets   map[uuid.UUID]*model.Ticket
    numbers   map[string]uuid.UUID
}

var _ booking.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
    return &MemoryStore{
        now:       func() time.Time { return time.Now().UTC() },
        plans:     make(map[uint64]*model.SeatPlan),
        buses:     make(map[uint64]*model.Bus),
        schedules: make(map[uint64]*model.Schedule),
        tickets:   make(map[uuid.UUID]*model.Ticket),
        numbers:   make(map[string]uuid.UUID),
    }
}

func (m *MemoryStore) id() uint64 {
    m.nextID++
    return m.nextID
}

// GetSchedule returns a copy of the schedule with its inventory.
func (m *MemoryStore) GetSchedule(_ context.Context, id uint64) (*model.Schedule, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.schedules[id]
    if !ok {
        return nil, booking.ErrScheduleNotFound
    }
    return model.CloneSchedule(s), nil
}

// GetTicket returns a copy of the ticket.
func (m *MemoryStore) GetTicket(_ context.Context, id uuid.UUID) (*model.Ticket, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    t, ok := m.tickets[id]
    if !ok {
        return nil, booking.ErrTicketNotFound
    }
    return model.CloneTicket(t), nil
}

// CreateTicket books the ticket's seats and stores the ticket.
func (m *MemoryStore) CreateTicket(_ context.Context, t *model.Ticket, holdToken string, now time.Time) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    cur, ok := m.schedules[t.ScheduleID]
    if !ok {
        return booking.ErrScheduleNotFound
    }
    if cur.IsTerminal() {
        return fmt.Errorf("%w: schedule %d is %s", booking.ErrScheduleClosed, cur.ID, cur.Status)
    }
    if _, taken := m.numbers[t.TicketNumber]; taken {
        return booking.ErrTicketNumberTaken
    }
    next := model.CloneSchedule(cur)
    if err := inventory.FromSchedule(next).MarkBooked(t.Positions(), t.ID, holdToken, now); err != nil {
        return storeSeatError(err)
    }
    m.schedules[next.ID] = next
    m.tickets[t.ID] = model.CloneTicket(t)
    m.numbers[t.TicketNumber] = t.ID
    return nil
}

// CancelTicket cancels a live ticket and frees its seats.
func (m *MemoryStore) CancelTicket(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    t, ok := m.tickets[id]
    if !ok {
        return false, booking.ErrTicketNotFound
    }
    if t.Status == model.TicketCancelled {
        return false, nil
    }
    if s, ok := m.schedules[t.ScheduleID]; ok {
        inventory.FromSchedule(s).ReleaseTicket(id)
    }
    at = at.UTC()
    t.Status = model.TicketCancelled
    t.CancelledAt = &at
    return true, nil
}

// HoldSeats marks the hold's seats HELD.
func (m *MemoryStore) HoldSeats(_ context.Context, hold *model.SeatHold, now time.Time) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    cur, ok := m.schedules[hold.ScheduleID]
    if !ok {
        return booking.ErrScheduleNotFound
    }
    if cur.IsTerminal() {
        return fmt.Errorf("%w: schedule %d is %s", booking.ErrScheduleClosed, cur.ID, cur.Status)
    }
    next := model.CloneSchedule(cur)
    if err := inventory.FromSchedule(next).Hold(hold.Seats, hold.Token, hold.ExpiresAt, now); err != nil {
        return storeSeatError(err)
    }
    m.schedules[next.ID] = next
    return nil
}

// ReleaseHold frees the seats held under token.
func (m *MemoryStore) ReleaseHold(_ context.Context, scheduleID uint64, token string) (int, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.schedules[scheduleID]
    if !ok {
        return 0, booking.ErrScheduleNotFound
    }
    return inventory.FromSchedule(s).ReleaseHold(token), nil
}

// CancelSchedule voids the schedule and every live ticket on it.
func (m *MemoryStore) CancelSchedule(_ context.Context, scheduleID uint64, at time.Time) ([]uuid.UUID, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.schedules[scheduleID]
    if !ok {
        return nil, booking.ErrScheduleNotFound
    }
    if s.Status == model.ScheduleCancelled {
        return nil, nil
    }
    at = at.UTC()
    var ids []uuid.UUID
    for id, t := range m.tickets {
        if t.ScheduleID != scheduleID || t.Status == model.TicketCancelled {
            continue
        }
        ts := at
        t.Status = model.TicketCancelled
        t.CancelledAt = &ts
        ids = append(ids, id)
    }
    inventory.FromSchedule(s).Close()
    s.Status = model.ScheduleCancelled
    s.UpdatedAt = at
    return ids, nil
}

// ListTickets returns the schedule's tickets, newest first.
func (m *MemoryStore) ListTickets(_ context.Context, scheduleID uint64) ([]model.Ticket, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.Ticket{}
    for _, t := range m.tickets {
        if t.ScheduleID == scheduleID {
            out = append(out, *model.CloneTicket(t))
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].BookingDate.After(out[j].BookingDate) })
    return out, nil
}

// CreateSeatPlan stores a new plan; names are unique per company.
func (m *MemoryStore) CreateSeatPlan(_ context.Context, p *model.SeatPlan) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, other := range m.plans {
        if other.CompanyID == p.CompanyID && other.Name == p.Name {
            return ErrConflict
        }
    }
    if p.Status == "" {
        p.Status = model.SeatPlanActive
    }
    p.ID = m.id()
    p.CreatedAt = m.now()
    p.UpdatedAt = p.CreatedAt
    m.plans[p.ID] = cloneSeatPlan(p)
    return nil
}

// UpdateSeatPlan overwrites a stored plan.
func (m *MemoryStore) UpdateSeatPlan(_ context.Context, p *model.SeatPlan) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    cur, ok := m.plans[p.ID]
    if !ok {
        return ErrSeatPlanNotFound
    }
    for _, other := range m.plans {
        if other.ID != p.ID && other.CompanyID == cur.CompanyID && other.Name == p.Name {
            return ErrConflict
        }
    }
    p.CompanyID = cur.CompanyID
    p.CreatedAt = cur.CreatedAt
    p.UpdatedAt = m.now()
    m.plans[p.ID] = cloneSeatPlan(p)
    return nil
}

// GetSeatPlan returns a copy of the plan.
func (m *MemoryStore) GetSeatPlan(_ context.Context, id uint64) (*model.SeatPlan, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    p, ok := m.plans[id]
    if !ok {
        return nil, ErrSeatPlanNotFound
    }
    return cloneSeatPlan(p), nil
}

// ListSeatPlans returns the company's plans ordered by name.
func (m *MemoryStore) ListSeatPlans(_ context.Context, companyID uint64) ([]model.SeatPlan, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.SeatPlan{}
    for _, p := range m.plans {
        if p.CompanyID == companyID {
            out = append(out, *cloneSeatPlan(p))
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
    return out, nil
}

// CreateBus stores a new bus; numbers are unique per company.
func (m *MemoryStore) CreateBus(_ context.Context, b *model.Bus) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    for _, other := range m.buses {
        if other.CompanyID == b.CompanyID && other.Number == b.Number {
            return ErrConflict
        }
    }
    if b.Status == "" {
        b.Status = model.BusActive
    }
    b.ID = m.id()
    b.CreatedAt = m.now()
    b.UpdatedAt = b.CreatedAt
    m.buses[b.ID] = cloneBus(b)
    return nil
}

// GetBus returns a copy of the bus.
func (m *MemoryStore) GetBus(_ context.Context, id uint64) (*model.Bus, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    b, ok := m.buses[id]
    if !ok {
        return nil, ErrBusNotFound
    }
    return cloneBus(b), nil
}

// ListBuses returns the company's buses ordered by number.
func (m *MemoryStore) ListBuses(_ context.Context, companyID uint64) ([]model.Bus, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.Bus{}
    for _, b := range m.buses {
        if b.CompanyID == companyID {
            out = append(out, *cloneBus(b))
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
    return out, nil
}

// UpdateBusLayout replaces the bus's layout, capacity and plan reference.
func (m *MemoryStore) UpdateBusLayout(_ context.Context, b *model.Bus) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    cur, ok := m.buses[b.ID]
    if !ok {
        return ErrBusNotFound
    }
    next := cloneBus(cur)
    next.SeatLayout = b.SeatLayout.Clone()
    next.Capacity = b.Capacity
    next.SeatPlanID = b.SeatPlanID
    next.BusType = b.BusType
    next.UpdatedAt = m.now()
    m.buses[b.ID] = next
    return nil
}

// CreateSchedule stores a schedule with its inventory.
func (m *MemoryStore) CreateSchedule(_ context.Context, s *model.Schedule) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, ok := m.buses[s.BusID]; !ok {
        return ErrBusNotFound
    }
    if s.Status == "" {
        s.Status = model.ScheduleScheduled
    }
    s.ID = m.id()
    s.CreatedAt = m.now()
    s.UpdatedAt = s.CreatedAt
    m.schedules[s.ID] = model.CloneSchedule(s)
    return nil
}

// ListSchedulesByBus returns the bus's schedules without inventory.
func (m *MemoryStore) ListSchedulesByBus(_ context.Context, busID uint64) ([]model.Schedule, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := []model.Schedule{}
    for _, s := range m.schedules {
        if s.BusID == busID {
            c := *s
            c.SeatInventory = nil
            out = append(out, c)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.Before(out[j].DepartureTime) })
    return out, nil
}

// UpdateScheduleStatus sets the schedule status.
func (m *MemoryStore) UpdateScheduleStatus(_ context.Context, id uint64, status string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.schedules[id]
    if !ok {
        return booking.ErrScheduleNotFound
    }
    s.Status = status
    s.UpdatedAt = m.now()
    return nil
}

// ReplaceInventory swaps the inventory of a schedule without live tickets
// or unexpired holds.
func (m *MemoryStore) ReplaceInventory(_ context.Context, id uint64, seats []model.ScheduleSeat, now time.Time) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.schedules[id]
    if !ok {
        return booking.ErrScheduleNotFound
    }
    if s.IsTerminal() {
        return fmt.Errorf("%w: schedule %d is %s", booking.ErrScheduleClosed, id, s.Status)
    }
    for _, t := range m.tickets {
        if t.ScheduleID == id && t.Status != model.TicketCancelled {
            return booking.ErrInventoryLocked
        }
    }
    if inventory.FromSchedule(s).LiveHolds(now) > 0 {
        return booking.ErrInventoryLocked
    }
    next := make([]model.ScheduleSeat, 0, len(seats))
    for _, st := range seats {
        next = append(next, st.Clone())
    }
    s.SeatInventory = next
    s.UpdatedAt = m.now()
    return nil
}

// storeSeatError maps inventory errors to the errors Store reports.
func storeSeatError(err error) error {
    switch {
    case errors.Is(err, inventory.ErrSeatNotFound), errors.Is(err, inventory.ErrSeatBroken), errors.Is(err, inventory.ErrDuplicateSeat):
        return fmt.Errorf("%w: %w", booking.ErrInvalidSeatRequest, err)
    default:
        return booking.ConflictFromInventory(err)
    }
}

func cloneSeatPlan(p *model.SeatPlan) *model.SeatPlan {
    out := *p
    out.AisleColumns = append([]int{}, p.AisleColumns...)
    out.GapRows = append([]int(nil), p.GapRows...)
    if p.RowNames != nil {
        out.RowNames = make(map[int]string, len(p.RowNames))
        for k, v := range p.RowNames {
            out.RowNames[k] = v
        }
    }
    out.Cells = model.CloneCells(p.Cells)
    return &out
}

func cloneBus(b *model.Bus) *model.Bus {
    out := *b
    out.SeatLayout = b.SeatLayout.Clone()
    if b.SeatPlanID != nil {
        id := *b.SeatPlanID
        out.SeatPlanID = &id
    }
    return &out
}
