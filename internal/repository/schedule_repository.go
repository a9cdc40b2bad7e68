package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/bus-ticketing/internal/booking"
    "github.com/iliyamo/bus-ticketing/internal/model"
)

// ScheduleRepo manages persistence for schedules and their seat inventory.
// The inventory lives in schedule_seats, one row per bookable seat keyed by
// (schedule_id, seat_row, seat_col).
type ScheduleRepo struct {
    db *sql.DB
}

// NewScheduleRepo returns a new ScheduleRepo bound to the given database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning several repositories.
func (r *ScheduleRepo) DB() *sql.DB { return r.db }

const scheduleColumns = `id, company_id, bus_id, route_id, departure_time, arrival_time, price, status, show_on_web, created_at, updated_at`

const scheduleSeatColumns = `seat_row, seat_col, seat_number, seat_name, is_broken, fare, status, ticket_id, hold_token, hold_expires_at`

// Create inserts the schedule and its whole seat inventory in one
// transaction and populates the generated ID.
func (r *ScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if s.Status == "" {
        s.Status = model.ScheduleScheduled
    }
    const q = `INSERT INTO schedules (company_id, bus_id, route_id, departure_time, arrival_time, price, status, show_on_web) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, s.CompanyID, s.BusID, s.RouteID, s.DepartureTime.UTC(), s.ArrivalTime.UTC(), s.Price, s.Status, s.ShowOnWeb)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    if err := insertScheduleSeatsTx(ctx, tx, s.ID, s.SeatInventory); err != nil {
        return err
    }
    if err := tx.QueryRowContext(ctx, `SELECT created_at, updated_at FROM schedules WHERE id = ?`, s.ID).Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// insertScheduleSeatsTx bulk inserts inventory rows in a single statement.
func insertScheduleSeatsTx(ctx context.Context, tx *sql.Tx, scheduleID uint64, seats []model.ScheduleSeat) error {
    if len(seats) == 0 {
        return nil
    }
    query := `INSERT INTO schedule_seats (schedule_id, seat_row, seat_col, seat_number, seat_name, is_broken, fare, status) VALUES `
    args := make([]any, 0, len(seats)*8)
    for i, st := range seats {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?, ?)"
        status := st.Status
        if status == "" {
            status = model.SeatAvailable
        }
        args = append(args, scheduleID, st.Row, st.Column, st.SeatNumber, st.SeatName, st.IsBroken, st.Fare, string(status))
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// GetByID loads a schedule with its inventory or returns
// booking.ErrScheduleNotFound.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uint64) (*model.Schedule, error) {
    s, err := scanSchedule(r.db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, booking.ErrScheduleNotFound
    }
    if err != nil {
        return nil, err
    }
    rows, err := r.db.QueryContext(ctx, `SELECT `+scheduleSeatColumns+` FROM schedule_seats WHERE schedule_id = ? ORDER BY seat_row, seat_col`, id)
    if err != nil {
        return nil, err
    }
    s.SeatInventory, err = scanScheduleSeats(rows)
    if err != nil {
        return nil, err
    }
    return s, nil
}

// lockScheduleTx locks the schedule row for the rest of tx and returns its
// status.  Every inventory write goes through it, which serializes writers
// across processes.
func lockScheduleTx(ctx context.Context, tx *sql.Tx, id uint64) (string, error) {
    var status string
    err := tx.QueryRowContext(ctx, `SELECT status FROM schedules WHERE id = ? FOR UPDATE`, id).Scan(&status)
    if errors.Is(err, sql.ErrNoRows) {
        return "", booking.ErrScheduleNotFound
    }
    return status, err
}

// ListByBus returns the schedules that run on a bus, without inventory.
func (r *ScheduleRepo) ListByBus(ctx context.Context, busID uint64) ([]model.Schedule, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE bus_id = ? ORDER BY departure_time`, busID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Schedule{}
    for rows.Next() {
        s, err := scanSchedule(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// UpdateStatus sets the schedule status.  Cancellation goes through Cancel
// instead, which also releases the inventory.
func (r *ScheduleRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
    res, err := r.db.ExecContext(ctx, `UPDATE schedules SET status = ? WHERE id = ?`, status, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        var one int
        if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM schedules WHERE id = ?`, id).Scan(&one); err != nil {
            if errors.Is(err, sql.ErrNoRows) {
                return booking.ErrScheduleNotFound
            }
            return err
        }
    }
    return nil
}

// ReplaceInventory swaps the whole inventory of a schedule that has no
// live tickets and no hold running past now.  It returns
// booking.ErrInventoryLocked otherwise.
func (r *ScheduleRepo) ReplaceInventory(ctx context.Context, id uint64, seats []model.ScheduleSeat, now time.Time) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    status, err := lockScheduleTx(ctx, tx, id)
    if err != nil {
        return err
    }
    if status == model.ScheduleCancelled || status == model.ScheduleCompleted {
        return fmt.Errorf("%w: schedule %d is %s", booking.ErrScheduleClosed, id, status)
    }
    var live int
    if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets WHERE schedule_id = ? AND status <> ?`, id, model.TicketCancelled).Scan(&live); err != nil {
        return err
    }
    if live > 0 {
        return booking.ErrInventoryLocked
    }
    var held int
    if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedule_seats WHERE schedule_id = ? AND status = 'HELD' AND hold_expires_at > ?`, id, dbTime(now)).Scan(&held); err != nil {
        return err
    }
    if held > 0 {
        return booking.ErrInventoryLocked
    }
    if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_seats WHERE schedule_id = ?`, id); err != nil {
        return err
    }
    if err := insertScheduleSeatsTx(ctx, tx, id, seats); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

func scanSchedule(s rowScanner) (*model.Schedule, error) {
    var sc model.Schedule
    if err := s.Scan(&sc.ID, &sc.CompanyID, &sc.BusID, &sc.RouteID, &sc.DepartureTime, &sc.ArrivalTime, &sc.Price, &sc.Status, &sc.ShowOnWeb, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
        return nil, err
    }
    return &sc, nil
}

// scanScheduleSeats reads every inventory row and closes rows.
func scanScheduleSeats(rows *sql.Rows) ([]model.ScheduleSeat, error) {
    defer rows.Close()
    out := []model.ScheduleSeat{}
    for rows.Next() {
        var (
            st       model.ScheduleSeat
            name     sql.NullString
            fare     sql.NullInt64
            status   string
            ticketID uuid.NullUUID
            token    sql.NullString
            expires  sql.NullTime
        )
        if err := rows.Scan(&st.Row, &st.Column, &st.SeatNumber, &name, &st.IsBroken, &fare, &status, &ticketID, &token, &expires); err != nil {
            return nil, err
        }
        st.Status = model.SeatStatus(status)
        if name.Valid {
            v := name.String
            st.SeatName = &v
        }
        if fare.Valid {
            v := fare.Int64
            st.Fare = &v
        }
        if ticketID.Valid {
            v := ticketID.UUID
            st.TicketID = &v
        }
        if token.Valid {
            v := token.String
            st.HoldToken = &v
        }
        if expires.Valid {
            v := expires.Time.UTC()
            st.HoldExpiresAt = &v
        }
        out = append(out, st)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// dbTime formats t the way DATETIME columns are compared.
func dbTime(t time.Time) time.Time { return t.UTC().Truncate(time.Second) }
