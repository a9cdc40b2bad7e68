package model

import "time"

// Bus statuses.
const (
    BusActive      = "ACTIVE"
    BusMaintenance = "MAINTENANCE"
    BusRetired     = "RETIRED"
)

// Bus is a physical vehicle.  SeatLayout is copied from the referenced seat
// plan (or supplied explicitly) when the bus is created and stays stable
// afterwards even if the plan is edited.
//
// Fields:
//  ID         – buses.id
//  CompanyID  – owning company
//  Number     – registration / fleet number
//  BusType    – copied from the plan unless given
//  Capacity   – sellable seats; never below the layout's seat count
//  SeatPlanID – plan the layout came from (nil for manual layouts)
//  SeatLayout – frozen layout
//  Status     – ACTIVE, MAINTENANCE or RETIRED
type Bus struct {
    ID         uint64     `json:"id"`
    CompanyID  uint64     `json:"company_id"`
    Number     string     `json:"number"`
    BusType    string     `json:"bus_type"`
    Capacity   int        `json:"capacity"`
    SeatPlanID *uint64    `json:"seat_plan_id,omitempty"`
    SeatLayout SeatLayout `json:"seat_layout"`
    Status     string     `json:"status"`
    CreatedAt  time.Time  `json:"created_at"`
    UpdatedAt  time.Time  `json:"updated_at"`
}
