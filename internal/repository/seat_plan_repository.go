package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"

    "github.com/iliyamo/bus-ticketing/internal/model"
)

// SeatPlanRepo manages persistence for seat plans.  The grid description
// (aisle columns, gap rows, row names and compiled cells) is stored as JSON
// columns; the plan is always read and written as a whole.
type SeatPlanRepo struct {
    db *sql.DB
}

// NewSeatPlanRepo returns a new SeatPlanRepo bound to the given database.
func NewSeatPlanRepo(db *sql.DB) *SeatPlanRepo { return &SeatPlanRepo{db: db} }

const seatPlanColumns = `id, company_id, name, bus_type, ` + "`rows`, `columns`" + `, aisle_columns, gap_rows, row_names, cells, status, created_at, updated_at`

// seatPlanJSON holds the encoded JSON columns of a plan.
type seatPlanJSON struct {
    aisles, gaps, names, cells []byte
}

func encodeSeatPlan(p *model.SeatPlan) (seatPlanJSON, error) {
    var out seatPlanJSON
    var err error
    aisles := p.AisleColumns
    if aisles == nil {
        aisles = []int{}
    }
    if out.aisles, err = json.Marshal(aisles); err != nil {
        return out, err
    }
    if len(p.GapRows) > 0 {
        if out.gaps, err = json.Marshal(p.GapRows); err != nil {
            return out, err
        }
    }
    if len(p.RowNames) > 0 {
        if out.names, err = json.Marshal(p.RowNames); err != nil {
            return out, err
        }
    }
    out.cells, err = json.Marshal(p.Cells)
    return out, err
}

// Create inserts a new seat plan and populates its ID and timestamps.  A
// duplicate name for the same company yields ErrConflict.
func (r *SeatPlanRepo) Create(ctx context.Context, p *model.SeatPlan) error {
    enc, err := encodeSeatPlan(p)
    if err != nil {
        return err
    }
    if p.Status == "" {
        p.Status = model.SeatPlanActive
    }
    const q = "INSERT INTO seat_plans (company_id, name, bus_type, `rows`, `columns`, aisle_columns, gap_rows, row_names, cells, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
    res, err := r.db.ExecContext(ctx, q, p.CompanyID, p.Name, p.BusType, p.Rows, p.Columns, enc.aisles, nullJSON(enc.gaps), nullJSON(enc.names), enc.cells, p.Status)
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
    p.ID = uint64(id)
    return r.db.QueryRowContext(ctx, `SELECT created_at, updated_at FROM seat_plans WHERE id = ?`, p.ID).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// Update overwrites every mutable field of the plan.  Buses created from
// the plan keep their own frozen copy and are not touched.
func (r *SeatPlanRepo) Update(ctx context.Context, p *model.SeatPlan) error {
    enc, err := encodeSeatPlan(p)
    if err != nil {
        return err
    }
    const q = "UPDATE seat_plans SET name = ?, bus_type = ?, `rows` = ?, `columns` = ?, aisle_columns = ?, gap_rows = ?, row_names = ?, cells = ?, status = ? WHERE id = ?"
    res, err := r.db.ExecContext(ctx, q, p.Name, p.BusType, p.Rows, p.Columns, enc.aisles, nullJSON(enc.gaps), nullJSON(enc.names), enc.cells, p.Status, p.ID)
    if err != nil {
        if duplicateKey(err, "") {
            return ErrConflict
        }
        return err
    }
    // MySQL reports 0 affected rows when nothing changed, so check existence
    // instead of trusting RowsAffected.
    if n, _ := res.RowsAffected(); n == 0 {
        if _, err := r.GetByID(ctx, p.ID); err != nil {
            return err
        }
    }
    return nil
}

// GetByID fetches a seat plan or returns ErrSeatPlanNotFound.
func (r *SeatPlanRepo) GetByID(ctx context.Context, id uint64) (*model.SeatPlan, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+seatPlanColumns+` FROM seat_plans WHERE id = ?`, id)
    p, err := scanSeatPlan(row)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrSeatPlanNotFound
    }
    return p, err
}

// ListByCompany returns the seat plans of a company ordered by name.
func (r *SeatPlanRepo) ListByCompany(ctx context.Context, companyID uint64) ([]model.SeatPlan, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT `+seatPlanColumns+` FROM seat_plans WHERE company_id = ? ORDER BY name`, companyID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.SeatPlan{}
    for rows.Next() {
        p, err := scanSeatPlan(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *p)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
    Scan(dest ...any) error
}

func scanSeatPlan(s rowScanner) (*model.SeatPlan, error) {
    var (
        p                          model.SeatPlan
        aisles, gaps, names, cells []byte
    )
    if err := s.Scan(&p.ID, &p.CompanyID, &p.Name, &p.BusType, &p.Rows, &p.Columns, &aisles, &gaps, &names, &cells, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
        return nil, err
    }
    if err := json.Unmarshal(aisles, &p.AisleColumns); err != nil {
        return nil, err
    }
    if len(gaps) > 0 {
        if err := json.Unmarshal(gaps, &p.GapRows); err != nil {
            return nil, err
        }
    }
    if len(names) > 0 {
        if err := json.Unmarshal(names, &p.RowNames); err != nil {
            return nil, err
        }
    }
    if err := json.Unmarshal(cells, &p.Cells); err != nil {
        return nil, err
    }
    return &p, nil
}

// nullJSON maps an empty encoding to SQL NULL.
func nullJSON(b []byte) any {
    if len(b) == 0 {
        return nil
    }
    return b
}
