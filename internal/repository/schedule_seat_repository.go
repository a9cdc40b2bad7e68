package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/bus-ticketing/internal/booking"
    "github.com/iliyamo/bus-ticketing/internal/inventory"
    "github.com/iliyamo/bus-ticketing/internal/model"
)

// seatFreeCond matches a seat a caller may take: in service and either
// AVAILABLE or HELD under the caller's token or by a lapsed hold.  It
// expects two trailing arguments: hold token, now.
const seatFreeCond = `is_broken = 0 AND (status = 'AVAILABLE' OR (status = 'HELD' AND (hold_token = ? OR hold_expires_at <= ?)))`

// reserveSeatTx compare-and-sets one seat to BOOKED for ticketID.  When the
// seat is not free it reports the reason: seat not found, out of service
// or a SeatConflictError.
func reserveSeatTx(ctx context.Context, tx *sql.Tx, scheduleID uint64, pos model.Position, ticketID uuid.UUID, holdToken string, now time.Time) error {
    const q = `UPDATE schedule_seats
               SET status = 'BOOKED', ticket_id = ?, hold_token = NULL, hold_expires_at = NULL
               WHERE schedule_id = ? AND seat_row = ? AND seat_col = ? AND ` + seatFreeCond
    res, err := tx.ExecContext(ctx, q, ticketID, scheduleID, pos.Row, pos.Column, holdToken, dbTime(now))
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return seatUnavailableTx(ctx, tx, scheduleID, pos)
    }
    return nil
}

// holdSeatTx compare-and-sets one seat to HELD under token.
func holdSeatTx(ctx context.Context, tx *sql.Tx, scheduleID uint64, pos model.Position, token string, expiresAt, now time.Time) error {
    const q = `UPDATE schedule_seats
               SET status = 'HELD', ticket_id = NULL, hold_token = ?, hold_expires_at = ?
               WHERE schedule_id = ? AND seat_row = ? AND seat_col = ? AND ` + seatFreeCond
    res, err := tx.ExecContext(ctx, q, token, dbTime(expiresAt), scheduleID, pos.Row, pos.Column, token, dbTime(now))
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return seatUnavailableTx(ctx, tx, scheduleID, pos)
    }
    return nil
}

// seatUnavailableTx explains why a compare-and-set on a seat matched no
// row.
func seatUnavailableTx(ctx context.Context, tx *sql.Tx, scheduleID uint64, pos model.Position) error {
    var (
        cell   = model.SeatCell{Row: pos.Row, Column: pos.Column}
        name   sql.NullString
        broken bool
    )
    err := tx.QueryRowContext(ctx,
        `SELECT seat_number, seat_name, is_broken FROM schedule_seats WHERE schedule_id = ? AND seat_row = ? AND seat_col = ?`,
        scheduleID, pos.Row, pos.Column,
    ).Scan(&cell.SeatNumber, &name, &broken)
    if errors.Is(err, sql.ErrNoRows) {
        return fmt.Errorf("%w: %w: (%d,%d)", booking.ErrInvalidSeatRequest, inventory.ErrSeatNotFound, pos.Row, pos.Column)
    }
    if err != nil {
        return err
    }
    if name.Valid {
        v := name.String
        cell.SeatName = &v
    }
    if broken {
        return fmt.Errorf("%w: %w: %s", booking.ErrInvalidSeatRequest, inventory.ErrSeatBroken, cell.Label())
    }
    return &booking.SeatConflictError{Seat: cell}
}

// HoldSeats marks every seat of the hold HELD in one transaction.
func (r *ScheduleRepo) HoldSeats(ctx context.Context, hold *model.SeatHold, now time.Time) error {
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

    status, err := lockScheduleTx(ctx, tx, hold.ScheduleID)
    if err != nil {
        return err
    }
    if status == model.ScheduleCancelled || status == model.ScheduleCompleted {
        return fmt.Errorf("%w: schedule %d is %s", booking.ErrScheduleClosed, hold.ScheduleID, status)
    }
    for _, pos := range hold.Seats {
        if err := holdSeatTx(ctx, tx, hold.ScheduleID, pos, hold.Token, hold.ExpiresAt, now); err != nil {
            return err
        }
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// ReleaseHold frees every seat still held under token.
func (r *ScheduleRepo) ReleaseHold(ctx context.Context, scheduleID uint64, token string) (int, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE schedule_seats SET status = 'AVAILABLE', hold_token = NULL, hold_expires_at = NULL
         WHERE schedule_id = ? AND status = 'HELD' AND hold_token = ?`,
        scheduleID, token,
    )
    if err != nil {
        return 0, err
    }
    n, err := res.RowsAffected()
    return int(n), err
}

// ExpireHolds frees lapsed holds across all schedules and returns how many
// seats were freed.  Reads already treat lapsed holds as free; this only
// keeps the table tidy.
func (r *ScheduleRepo) ExpireHolds(ctx context.Context, now time.Time) (int64, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE schedule_seats SET status = 'AVAILABLE', hold_token = NULL, hold_expires_at = NULL
         WHERE status = 'HELD' AND hold_expires_at <= ?`,
        dbTime(now),
    )
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// Cancel voids a schedule: live tickets are cancelled, their ticket_seats
// rows deactivated, every seat freed and the schedule marked CANCELLED, all
// in one transaction.  It returns the ids of the tickets it cancelled.
func (r *ScheduleRepo) Cancel(ctx context.Context, scheduleID uint64, at time.Time) ([]uuid.UUID, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    status, err := lockScheduleTx(ctx, tx, scheduleID)
    if err != nil {
        return nil, err
    }
    if status == model.ScheduleCancelled {
        return nil, nil
    }
    rows, err := tx.QueryContext(ctx, `SELECT id FROM tickets WHERE schedule_id = ? AND status <> ? FOR UPDATE`, scheduleID, model.TicketCancelled)
    if err != nil {
        return nil, err
    }
    var ids []uuid.UUID
    for rows.Next() {
        var id uuid.UUID
        if err := rows.Scan(&id); err != nil {
            rows.Close()
            return nil, err
        }
        ids = append(ids, id)
    }
    if err := rows.Close(); err != nil {
        return nil, err
    }
    stmts := []struct {
        q    string
        args []any
    }{
        {`UPDATE tickets SET status = ?, cancelled_at = ? WHERE schedule_id = ? AND status <> ?`, []any{model.TicketCancelled, dbTime(at), scheduleID, model.TicketCancelled}},
        {`UPDATE ticket_seats SET active = NULL WHERE schedule_id = ?`, []any{scheduleID}},
        {`UPDATE schedule_seats SET status = 'AVAILABLE', ticket_id = NULL, hold_token = NULL, hold_expires_at = NULL WHERE schedule_id = ?`, []any{scheduleID}},
        {`UPDATE schedules SET status = ? WHERE id = ?`, []any{model.ScheduleCancelled, scheduleID}},
    }
    for _, st := range stmts {
        if _, err := tx.ExecContext(ctx, st.q, st.args...); err != nil {
            return nil, err
        }
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return ids, nil
}
