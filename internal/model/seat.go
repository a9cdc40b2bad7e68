package model

import "strconv"

// SeatCell is one addressable grid position in a seat layout.  A cell is
// either a bookable seat or an aisle/walkway marker.  Aisle cells occupy a
// grid position but are never bookable and never count towards capacity.
//
// Fields:
//  Row        – zero-based row index.
//  Column     – zero-based column index.
//  SeatNumber – public seat number (1..N); 0 for aisle cells.
//  SeatName   – optional display name such as "A1".
//  IsBroken   – seat exists physically but must not be sold.
//  IsAisle    – walkway marker, not a seat.
type SeatCell struct {
    Row        int     `json:"row"`
    Column     int     `json:"column"`
    SeatNumber int     `json:"seat_number"`
    SeatName   *string `json:"seat_name,omitempty"`
    IsBroken   bool    `json:"is_broken"`
    IsAisle    bool    `json:"is_aisle"`
}

// Position identifies a cell by its grid coordinates.  It is the key used by
// every inventory lookup and by the storage uniqueness constraint.
type Position struct {
    Row    int `json:"row"`
    Column int `json:"column"`
}

// Pos returns the grid position of the cell.
func (c SeatCell) Pos() Position { return Position{Row: c.Row, Column: c.Column} }

// Clone returns a deep copy of the cell (the name pointer is not shared).
func (c SeatCell) Clone() SeatCell {
    out := c
    if c.SeatName != nil {
        name := *c.SeatName
        out.SeatName = &name
    }
    return out
}

// Label returns the seat name when present, otherwise the seat number.
func (c SeatCell) Label() string {
    if c.SeatName != nil && *c.SeatName != "" {
        return *c.SeatName
    }
    return strconv.Itoa(c.SeatNumber)
}

// CloneCells deep copies a slice of cells.  A nil input yields an empty slice.
func CloneCells(cells []SeatCell) []SeatCell {
    out := make([]SeatCell, 0, len(cells))
    for _, c := range cells {
        out = append(out, c.Clone())
    }
    return out
}

// CountSeats returns the number of non-aisle cells.
func CountSeats(cells []SeatCell) int {
    n := 0
    for _, c := range cells {
        if !c.IsAisle {
            n++
        }
    }
    return n
}
