package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"

    "github.com/iliyamo/bus-ticketing/internal/model"
)

// BusRepo manages persistence for buses.  The frozen seat layout is stored
// as a single JSON column.
type BusRepo struct {
    db *sql.DB
}

// NewBusRepo returns a new BusRepo bound to the given database.
func NewBusRepo(db *sql.DB) *BusRepo { return &BusRepo{db: db} }

const busColumns = `id, company_id, number, bus_type, capacity, seat_plan_id, seat_layout, status, created_at, updated_at`

// Create inserts a bus and populates its ID and timestamps.  A duplicate
// number within a company yields ErrConflict.
func (r *BusRepo) Create(ctx context.Context, b *model.Bus) error {
    layout, err := json.Marshal(b.SeatLayout)
    if err != nil {
        return err
    }
    if b.Status == "" {
        b.Status = model.BusActive
    }
    const q = `INSERT INTO buses (company_id, number, bus_type, capacity, seat_plan_id, seat_layout, status) VALUES (?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, b.CompanyID, b.Number, b.BusType, b.Capacity, b.SeatPlanID, layout, b.Status)
    if err != nil {
        if duplicateKey(err, "") {
            return ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return r.db.QueryRowContext(ctx, `SELECT created_at, updated_at FROM buses WHERE id = ?`, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// GetByID fetches a bus or returns ErrBusNotFound.
func (r *BusRepo) GetByID(ctx context.Context, id uint64) (*model.Bus, error) {
    b, err := scanBus(r.db.QueryRowContext(ctx, `SELECT `+busColumns+` FROM buses WHERE id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrBusNotFound
    }
    return b, err
}

// ListByCompany returns the buses of a company ordered by number.
func (r *BusRepo) ListByCompany(ctx context.Context, companyID uint64) ([]model.Bus, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT `+busColumns+` FROM buses WHERE company_id = ? ORDER BY number`, companyID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Bus{}
    for rows.Next() {
        b, err := scanBus(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// UpdateLayout replaces the bus's frozen layout, capacity and plan
// reference.
func (r *BusRepo) UpdateLayout(ctx context.Context, b *model.Bus) error {
    layout, err := json.Marshal(b.SeatLayout)
    if err != nil {
        return err
    }
    const q = `UPDATE buses SET seat_layout = ?, capacity = ?, seat_plan_id = ?, bus_type = ? WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, layout, b.Capacity, b.SeatPlanID, b.BusType, b.ID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        if _, err := r.GetByID(ctx, b.ID); err != nil {
            return err
        }
    }
    return nil
}

func scanBus(s rowScanner) (*model.Bus, error) {
    var (
        b      model.Bus
        planID sql.NullInt64
        layout []byte
    )
    if err := s.Scan(&b.ID, &b.CompanyID, &b.Number, &b.BusType, &b.Capacity, &planID, &layout, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
        return nil, err
    }
    if planID.Valid {
        id := uint64(planID.Int64)
        b.SeatPlanID = &id
    }
    if err := json.Unmarshal(layout, &b.SeatLayout); err != nil {
        return nil, err
    }
    return &b, nil
}
