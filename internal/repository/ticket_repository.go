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

// TicketRepo persists tickets and the seats they hold.  ticket_seats keeps
// one row per sold seat with a unique key on (schedule_id, seat_row,
// seat_col, active); cancelling sets active to NULL, so at most one live
// ticket can ever reference a seat even if two writers race past the
// schedule_seats compare-and-set.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `id, schedule_id, ticket_number, passenger_name, passenger_phone, passenger_email, passenger_nid,
    total_fare, discount, discount_amount, final_amount, boarding_point_id, dropping_point_id, status, booking_date, cancelled_at`

// Create books the ticket's seats and inserts the ticket in one
// transaction.  The schedule row is locked first so concurrent writers on
// the same schedule queue up behind each other.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket, holdToken string, now time.Time) error {
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

    status, err := lockScheduleTx(ctx, tx, t.ScheduleID)
    if err != nil {
        return err
    }
    if status == model.ScheduleCancelled || status == model.ScheduleCompleted {
        return fmt.Errorf("%w: schedule %d is %s", booking.ErrScheduleClosed, t.ScheduleID, status)
    }
    for _, s := range t.Seats {
        if err := reserveSeatTx(ctx, tx, t.ScheduleID, s.Pos(), t.ID, holdToken, now); err != nil {
            return err
        }
    }

    const q = `INSERT INTO tickets (id, schedule_id, ticket_number, passenger_name, passenger_phone, passenger_email, passenger_nid,
        total_fare, discount, discount_amount, final_amount, boarding_point_id, dropping_point_id, status, booking_date)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err = tx.ExecContext(ctx, q,
        t.ID, t.ScheduleID, t.TicketNumber, t.Passenger.Name, t.Passenger.Phone, t.Passenger.Email, t.Passenger.NID,
        t.TotalFare, t.Discount, t.DiscountAmount, t.FinalAmount, t.BoardingPointID, t.DroppingPointID, t.Status, dbTime(t.BookingDate),
    )
    if err != nil {
        if duplicateKey(err, "uq_tickets_number") {
            return booking.ErrTicketNumberTaken
        }
        return err
    }
    if err := insertTicketSeatsTx(ctx, tx, t); err != nil {
        if duplicateKey(err, "uq_ticket_seats_live") && len(t.Seats) > 0 {
            return soldSeatConflictTx(ctx, tx, t)
        }
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// insertTicketSeatsTx inserts every sold seat of the ticket in a single
// statement.
func insertTicketSeatsTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
    if len(t.Seats) == 0 {
        return nil
    }
    query := `INSERT INTO ticket_seats (ticket_id, schedule_id, seat_row, seat_col, seat_number, seat_name, fare, active) VALUES `
    args := make([]any, 0, len(t.Seats)*7)
    for i, s := range t.Seats {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?, ?, ?, 1)"
        args = append(args, t.ID, t.ScheduleID, s.Row, s.Column, s.SeatNumber, s.SeatName, s.Fare)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}

// soldSeatConflictTx names the first seat of t, in request order, that is
// already sold on a live ticket.
func soldSeatConflictTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
    rows, err := tx.QueryContext(ctx, `SELECT seat_row, seat_col FROM ticket_seats WHERE schedule_id = ? AND active = 1`, t.ScheduleID)
    if err != nil {
        return err
    }
    defer rows.Close()
    sold := map[model.Position]bool{}
    for rows.Next() {
        var p model.Position
        if err := rows.Scan(&p.Row, &p.Column); err != nil {
            return err
        }
        sold[p] = true
    }
    if err := rows.Err(); err != nil {
        return err
    }
    hit := t.Seats[0]
    for _, s := range t.Seats {
        if sold[s.Pos()] {
            hit = s
            break
        }
    }
    return &booking.SeatConflictError{Seat: model.SeatCell{Row: hit.Row, Column: hit.Column, SeatNumber: hit.SeatNumber, SeatName: hit.SeatName}}
}

// Cancel marks a live ticket CANCELLED and frees its seats.  It reports
// false, and changes nothing, when the ticket was already cancelled.
func (r *TicketRepo) Cancel(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
    var scheduleID uint64
    err := r.db.QueryRowContext(ctx, `SELECT schedule_id FROM tickets WHERE id = ?`, id).Scan(&scheduleID)
    if errors.Is(err, sql.ErrNoRows) {
        return false, booking.ErrTicketNotFound
    }
    if err != nil {
        return false, err
    }

    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return false, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Same lock order as Create: schedule first, then ticket.
    if _, err := lockScheduleTx(ctx, tx, scheduleID); err != nil {
        return false, err
    }
    var status string
    if err := tx.QueryRowContext(ctx, `SELECT status FROM tickets WHERE id = ? FOR UPDATE`, id).Scan(&status); err != nil {
        return false, err
    }
    if status == model.TicketCancelled {
        return false, nil
    }
    if _, err := tx.ExecContext(ctx, `UPDATE tickets SET status = ?, cancelled_at = ? WHERE id = ?`, model.TicketCancelled, dbTime(at), id); err != nil {
        return false, err
    }
    if _, err := tx.ExecContext(ctx, `UPDATE ticket_seats SET active = NULL WHERE ticket_id = ?`, id); err != nil {
        return false, err
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE schedule_seats SET status = 'AVAILABLE', ticket_id = NULL WHERE schedule_id = ? AND ticket_id = ?`,
        scheduleID, id,
    ); err != nil {
        return false, err
    }
    if err := tx.Commit(); err != nil {
        return false, err
    }
    committed = true
    return true, nil
}

// GetByID loads a ticket with its seats or returns booking.ErrTicketNotFound.
func (r *TicketRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
    t, err := scanTicket(r.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, booking.ErrTicketNotFound
    }
    if err != nil {
        return nil, err
    }
    rows, err := r.db.QueryContext(ctx,
        `SELECT ticket_id, seat_row, seat_col, seat_number, seat_name, fare FROM ticket_seats WHERE ticket_id = ? ORDER BY seat_number`, id)
    if err != nil {
        return nil, err
    }
    seats, err := scanTicketSeats(rows)
    if err != nil {
        return nil, err
    }
    if list, ok := seats[t.ID]; ok {
        t.Seats = list
    }
    return t, nil
}

// ListBySchedule returns every ticket of a schedule, newest first.
func (r *TicketRepo) ListBySchedule(ctx context.Context, scheduleID uint64) ([]model.Ticket, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE schedule_id = ? ORDER BY booking_date DESC`, scheduleID)
    if err != nil {
        return nil, err
    }
    out := []model.Ticket{}
    for rows.Next() {
        t, err := scanTicket(rows)
        if err != nil {
            rows.Close()
            return nil, err
        }
        out = append(out, *t)
    }
    if err := rows.Err(); err != nil {
        rows.Close()
        return nil, err
    }
    if err := rows.Close(); err != nil {
        return nil, err
    }
    if len(out) == 0 {
        return out, nil
    }
    seatRows, err := r.db.QueryContext(ctx,
        `SELECT ticket_id, seat_row, seat_col, seat_number, seat_name, fare FROM ticket_seats WHERE schedule_id = ? ORDER BY seat_number`, scheduleID)
    if err != nil {
        return nil, err
    }
    seats, err := scanTicketSeats(seatRows)
    if err != nil {
        return nil, err
    }
    for i := range out {
        if list, ok := seats[out[i].ID]; ok {
            out[i].Seats = list
        }
    }
    return out, nil
}

func scanTicket(s rowScanner) (*model.Ticket, error) {
    var (
        t                  model.Ticket
        email, nid         sql.NullString
        boarding, dropping sql.NullInt64
        cancelledAt        sql.NullTime
    )
    err := s.Scan(&t.ID, &t.ScheduleID, &t.TicketNumber, &t.Passenger.Name, &t.Passenger.Phone, &email, &nid,
        &t.TotalFare, &t.Discount, &t.DiscountAmount, &t.FinalAmount, &boarding, &dropping, &t.Status, &t.BookingDate, &cancelledAt)
    if err != nil {
        return nil, err
    }
    if email.Valid {
        v := email.String
        t.Passenger.Email = &v
    }
    if nid.Valid {
        v := nid.String
        t.Passenger.NID = &v
    }
    if boarding.Valid {
        v := uint64(boarding.Int64)
        t.BoardingPointID = &v
    }
    if dropping.Valid {
        v := uint64(dropping.Int64)
        t.DroppingPointID = &v
    }
    if cancelledAt.Valid {
        v := cancelledAt.Time.UTC()
        t.CancelledAt = &v
    }
    t.Seats = []model.TicketSeat{}
    return &t, nil
}

// scanTicketSeats groups ticket_seats rows by ticket id and closes rows.
func scanTicketSeats(rows *sql.Rows) (map[uuid.UUID][]model.TicketSeat, error) {
    defer rows.Close()
    out := make(map[uuid.UUID][]model.TicketSeat)
    for rows.Next() {
        var (
            ticketID uuid.UUID
            s        model.TicketSeat
            name     sql.NullString
        )
        if err := rows.Scan(&ticketID, &s.Row, &s.Column, &s.SeatNumber, &name, &s.Fare); err != nil {
            return nil, err
        }
        if name.Valid {
            v := name.String
            s.SeatName = &v
        }
        out[ticketID] = append(out[ticketID], s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
