package repository

import (
    "context"
    "strings"
    "time"
)

// ScheduleSearchQuery defines filters & pagination for the public trip
// search.  From and To match city names case-insensitively; Date is a
// YYYY-MM-DD departure day in UTC.
type ScheduleSearchQuery struct {
    From     string
    To       string
    Date     string
    Page     int
    PageSize int
}

type PublicScheduleRow struct {
    ID             uint64    `json:"id"`
    CompanyID      uint64    `json:"company_id"`
    Company        string    `json:"company"`
    RouteID        uint64    `json:"route_id"`
    Route          string    `json:"route"`
    From           string    `json:"from"`
    To             string    `json:"to"`
    BusID          uint64    `json:"bus_id"`
    BusNumber      string    `json:"bus_number"`
    BusType        string    `json:"bus_type"`
    DepartureTime  time.Time `json:"departure_time"`
    ArrivalTime    time.Time `json:"arrival_time"`
    Price          int64     `json:"price"`
    Status         string    `json:"status"`
    AvailableSeats int       `json:"available_seats"`
}

// Search lists bookable trips: visible on the web, not cancelled or
// completed and departing in the future.  Lapsed holds count as available.
func (r *ScheduleRepo) Search(ctx context.Context, q ScheduleSearchQuery, now time.Time) ([]PublicScheduleRow, int64, error) {
    where := []string{"s.show_on_web = 1", "s.status IN ('SCHEDULED', 'DELAYED')", "s.departure_time >= ?"}
    args := []any{dbTime(now)}

    if q.From != "" {
        where = append(where, "LOWER(fc.name) = ?")
        args = append(args, strings.ToLower(q.From))
    }
    if q.To != "" {
        where = append(where, "LOWER(tc.name) = ?")
        args = append(args, strings.ToLower(q.To))
    }
    if q.Date != "" {
        day, err := time.Parse("2006-01-02", q.Date)
        if err != nil {
            return nil, 0, err
        }
        where = append(where, "s.departure_time >= ? AND s.departure_time < ?")
        args = append(args, day, day.AddDate(0, 0, 1))
    }
    cond := strings.Join(where, " AND ")

    const from = `
        FROM schedules s
        JOIN routes r    ON r.id = s.route_id
        JOIN cities fc   ON fc.id = r.from_city_id
        JOIN cities tc   ON tc.id = r.to_city_id
        JOIN companies c ON c.id = s.company_id
        JOIN buses b     ON b.id = s.bus_id`

    var total int64
    if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+` WHERE `+cond, args...).Scan(&total); err != nil {
        return nil, 0, err
    }

    limit := q.PageSize
    offset := (q.Page - 1) * q.PageSize

    dataSQL := `SELECT
            s.id, c.id, c.name, r.id, r.name, fc.name, tc.name, b.id, b.number, b.bus_type,
            s.departure_time, s.arrival_time, s.price, s.status,
            (SELECT COUNT(*) FROM schedule_seats ss
              WHERE ss.schedule_id = s.id AND ss.is_broken = 0
                AND (ss.status = 'AVAILABLE' OR (ss.status = 'HELD' AND ss.hold_expires_at <= ?))) AS available` +
        from + `
        WHERE ` + cond + `
        ORDER BY s.departure_time ASC
        LIMIT ? OFFSET ?`

    argsData := append(append([]any{dbTime(now)}, args...), limit, offset)
    rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    out := make([]PublicScheduleRow, 0, limit)
    for rows.Next() {
        var d PublicScheduleRow
        if err := rows.Scan(
            &d.ID, &d.CompanyID, &d.Company, &d.RouteID, &d.Route, &d.From, &d.To, &d.BusID, &d.BusNumber, &d.BusType,
            &d.DepartureTime, &d.ArrivalTime, &d.Price, &d.Status, &d.AvailableSeats,
        ); err != nil {
            return nil, 0, err
        }
        out = append(out, d)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    return out, total, nil
}
