package model

import "time"

// Seat plan statuses.
const (
    SeatPlanActive   = "ACTIVE"
    SeatPlanInactive = "INACTIVE"
)

// SeatPlan is a reusable template describing a bus seat layout.  Buses
// reference a plan by ID but keep their own frozen copy of the cells, so a
// plan can be edited without affecting existing buses.
//
// Fields:
//  ID           – seat_plans.id
//  CompanyID    – owning company (external directory record)
//  Name         – display name, unique per company
//  BusType      – free form class such as "AC", "NON-AC", "SLEEPER"
//  Rows/Columns – grid size; every cell lies inside it
//  AisleColumns – walkway columns; rows need not have a cell there
//  GapRows      – cosmetic aisle-break rows (e.g. a middle door)
//  RowNames     – optional row index -> label mapping used for seat names
//  Cells        – compiled cells
//  Status       – ACTIVE or INACTIVE
type SeatPlan struct {
    ID           uint64         `json:"id"`
    CompanyID    uint64         `json:"company_id"`
    Name         string         `json:"name"`
    BusType      string         `json:"bus_type"`
    Rows         int            `json:"rows"`
    Columns      int            `json:"columns"`
    AisleColumns []int          `json:"aisle_columns"`
    GapRows      []int          `json:"gap_rows,omitempty"`
    RowNames     map[int]string `json:"row_names,omitempty"`
    Cells        []SeatCell     `json:"cells"`
    Status       string         `json:"status"`
    CreatedAt    time.Time      `json:"created_at"`
    UpdatedAt    time.Time      `json:"updated_at"`
}

// SeatLayout is the frozen copy of a seat plan attached to a bus.
type SeatLayout struct {
    Rows         int        `json:"rows"`
    Columns      int        `json:"columns"`
    AisleColumns []int      `json:"aisle_columns"`
    Cells        []SeatCell `json:"cells"`
}

// Clone returns a deep copy of the layout.
func (l SeatLayout) Clone() SeatLayout {
    aisles := make([]int, len(l.AisleColumns))
    copy(aisles, l.AisleColumns)
    return SeatLayout{
        Rows:         l.Rows,
        Columns:      l.Columns,
        AisleColumns: aisles,
        Cells:        CloneCells(l.Cells),
    }
}

// SeatCount returns the number of bookable (non-aisle) cells in the layout.
func (l SeatLayout) SeatCount() int { return CountSeats(l.Cells) }
