package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/bus-ticketing/internal/booking"
    "github.com/iliyamo/bus-ticketing/internal/model"
)

// Store bundles the MySQL repositories behind the method set the booking
// manager and the catalog service consume.
type Store struct {
    SeatPlans *SeatPlanRepo // SeatPlans persists seat plan templates
    Buses     *BusRepo      // Buses persists buses and their frozen layouts
    Schedules *ScheduleRepo // Schedules persists schedules and seat inventory
    Tickets   *TicketRepo   // Tickets persists tickets and sold seats
}

var _ booking.Store = (*Store)(nil)

// NewStore builds every repository on one DB handle.
func NewStore(db *sql.DB) *Store {
    return &Store{
        SeatPlans: NewSeatPlanRepo(db),
        Buses:     NewBusRepo(db),
        Schedules: NewScheduleRepo(db),
        Tickets:   NewTicketRepo(db),
    }
}

func (s *Store) GetSchedule(ctx context.Context, id uint64) (*model.Schedule, error) {
    return s.Schedules.GetByID(ctx, id)
}

func (s *Store) GetTicket(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
    return s.Tickets.GetByID(ctx, id)
}

func (s *Store) CreateTicket(ctx context.Context, t *model.Ticket, holdToken string, now time.Time) error {
    return s.Tickets.Create(ctx, t, holdToken, now)
}

func (s *Store) CancelTicket(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
    return s.Tickets.Cancel(ctx, id, at)
}

func (s *Store) HoldSeats(ctx context.Context, hold *model.SeatHold, now time.Time) error {
    return s.Schedules.HoldSeats(ctx, hold, now)
}

func (s *Store) ReleaseHold(ctx context.Context, scheduleID uint64, token string) (int, error) {
    return s.Schedules.ReleaseHold(ctx, scheduleID, token)
}

func (s *Store) CancelSchedule(ctx context.Context, scheduleID uint64, at time.Time) ([]uuid.UUID, error) {
    return s.Schedules.Cancel(ctx, scheduleID, at)
}

func (s *Store) ListTickets(ctx context.Context, scheduleID uint64) ([]model.Ticket, error) {
    return s.Tickets.ListBySchedule(ctx, scheduleID)
}

func (s *Store) CreateSeatPlan(ctx context.Context, p *model.SeatPlan) error {
    return s.SeatPlans.Create(ctx, p)
}

func (s *Store) UpdateSeatPlan(ctx context.Context, p *model.SeatPlan) error {
    return s.SeatPlans.Update(ctx, p)
}

func (s *Store) GetSeatPlan(ctx context.Context, id uint64) (*model.SeatPlan, error) {
    return s.SeatPlans.GetByID(ctx, id)
}

func (s *Store) ListSeatPlans(ctx context.Context, companyID uint64) ([]model.SeatPlan, error) {
    return s.SeatPlans.ListByCompany(ctx, companyID)
}

func (s *Store) CreateBus(ctx context.Context, b *model.Bus) error {
    return s.Buses.Create(ctx, b)
}

func (s *Store) GetBus(ctx context.Context, id uint64) (*model.Bus, error) {
    return s.Buses.GetByID(ctx, id)
}

func (s *Store) ListBuses(ctx context.Context, companyID uint64) ([]model.Bus, error) {
    return s.Buses.ListByCompany(ctx, companyID)
}

func (s *Store) UpdateBusLayout(ctx context.Context, b *model.Bus) error {
    return s.Buses.UpdateLayout(ctx, b)
}

func (s *Store) CreateSchedule(ctx context.Context, sc *model.Schedule) error {
    return s.Schedules.Create(ctx, sc)
}

func (s *Store) ListSchedulesByBus(ctx context.Context, busID uint64) ([]model.Schedule, error) {
    return s.Schedules.ListByBus(ctx, busID)
}

func (s *Store) UpdateScheduleStatus(ctx context.Context, id uint64, status string) error {
    return s.Schedules.UpdateStatus(ctx, id, status)
}

func (s *Store) ReplaceInventory(ctx context.Context, id uint64, seats []model.ScheduleSeat, now time.Time) error {
    return s.Schedules.ReplaceInventory(ctx, id, seats, now)
}

func (s *Store) SearchSchedules(ctx context.Context, q ScheduleSearchQuery, now time.Time) ([]PublicScheduleRow, int64, error) {
    return s.Schedules.Search(ctx, q, now)
}
