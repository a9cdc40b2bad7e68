// Package directory reads the company, city, route and stoppage records
// owned by the directory service.  This service never writes them.
package directory

import (
    "context"
    "database/sql"
    "errors"
)

// ErrNotFound is returned when a directory record does not exist.
var ErrNotFound = errors.New("directory record not found")

type Company struct {
    ID     uint64 `json:"id"`
    Name   string `json:"name"`
    Status string `json:"status"`
}

type Stoppage struct {
    ID       uint64 `json:"id"`
    CityID   uint64 `json:"city_id"`
    Name     string `json:"name"`
    Position int    `json:"position"`
}

// Route is a company's line between two cities with its ordered stoppages.
type Route struct {
    ID         uint64     `json:"id"`
    CompanyID  uint64     `json:"company_id"`
    Name       string     `json:"name"`
    FromCityID uint64     `json:"from_city_id"`
    ToCityID   uint64     `json:"to_city_id"`
    Stoppages  []Stoppage `json:"stoppages"`
}

// HasStoppage reports whether id is one of the route's stoppages.
func (r *Route) HasStoppage(id uint64) bool {
    for _, s := range r.Stoppages {
        if s.ID == id {
            return true
        }
    }
    return false
}

// Directory is the lookup surface the catalog and booking code depend on.
type Directory interface {
    Company(ctx context.Context, id uint64) (*Company, error)
    Route(ctx context.Context, id uint64) (*Route, error)
}

// MySQL serves directory lookups from the read-model tables.
type MySQL struct {
    db *sql.DB
}

func NewMySQL(db *sql.DB) *MySQL { return &MySQL{db: db} }

var _ Directory = (*MySQL)(nil)

func (d *MySQL) Company(ctx context.Context, id uint64) (*Company, error) {
    var c Company
    err := d.db.QueryRowContext(ctx, `SELECT id, name, status FROM companies WHERE id = ?`, id).Scan(&c.ID, &c.Name, &c.Status)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &c, nil
}

func (d *MySQL) Route(ctx context.Context, id uint64) (*Route, error) {
    var r Route
    err := d.db.QueryRowContext(ctx,
        `SELECT id, company_id, name, from_city_id, to_city_id FROM routes WHERE id = ?`, id,
    ).Scan(&r.ID, &r.CompanyID, &r.Name, &r.FromCityID, &r.ToCityID)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    rows, err := d.db.QueryContext(ctx,
        `SELECT s.id, s.city_id, s.name, rs.position
         FROM route_stoppages rs JOIN stoppages s ON s.id = rs.stoppage_id
         WHERE rs.route_id = ? ORDER BY rs.position`, id)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    r.Stoppages = []Stoppage{}
    for rows.Next() {
        var s Stoppage
        if err := rows.Scan(&s.ID, &s.CityID, &s.Name, &s.Position); err != nil {
            return nil, err
        }
        r.Stoppages = append(r.Stoppages, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return &r, nil
}

// RouteHasStoppage implements booking.StoppageChecker with a single
// indexed lookup.
func (d *MySQL) RouteHasStoppage(ctx context.Context, routeID, stoppageID uint64) (bool, error) {
    var one int
    err := d.db.QueryRowContext(ctx,
        `SELECT 1 FROM route_stoppages WHERE route_id = ? AND stoppage_id = ?`, routeID, stoppageID,
    ).Scan(&one)
    if errors.Is(err, sql.ErrNoRows) {
        return false, nil
    }
    return err == nil, err
}
