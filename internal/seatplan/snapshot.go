package seatplan

import (
    "fmt"

    "github.com/iliyamo/bus-ticketing/internal/model"
)

// SnapshotFromPlan freezes a seat plan's grid into a bus layout.  The cells
// are deep copied so later plan edits never reach the bus.
func SnapshotFromPlan(plan *model.SeatPlan) model.SeatLayout {
    return model.SeatLayout{
        Rows:         plan.Rows,
        Columns:      plan.Columns,
        AisleColumns: plan.AisleColumns,
        Cells:        plan.Cells,
    }.Clone()
}

// SnapshotFromCells builds a layout from a caller supplied cell list.  The
// list is used verbatim (seat numbers are not recomputed) once it passes the
// grid checks.
func SnapshotFromCells(rows, columns int, aisleColumns []int, cells []model.SeatCell) (model.SeatLayout, error) {
    if rows <= 0 || columns <= 0 {
        return model.SeatLayout{}, fmt.Errorf("%w: rows and columns must be positive", ErrInvalidLayout)
    }
    aisles, err := normalizeIndexes(aisleColumns, columns, "aisle column")
    if err != nil {
        return model.SeatLayout{}, err
    }
    if err := checkCells(cells, rows, columns); err != nil {
        return model.SeatLayout{}, err
    }
    numbers := make(map[int]struct{}, len(cells))
    for _, c := range cells {
        if c.IsAisle {
            continue
        }
        if c.SeatNumber <= 0 {
            return model.SeatLayout{}, fmt.Errorf("%w: seat (%d,%d) has no seat number", ErrInvalidLayout, c.Row, c.Column)
        }
        if _, dup := numbers[c.SeatNumber]; dup {
            return model.SeatLayout{}, fmt.Errorf("%w: seat number %d used twice", ErrInvalidLayout, c.SeatNumber)
        }
        numbers[c.SeatNumber] = struct{}{}
    }
    if len(numbers) == 0 {
        return model.SeatLayout{}, fmt.Errorf("%w: layout has no bookable cells", ErrInvalidCount)
    }
    return model.SeatLayout{Rows: rows, Columns: columns, AisleColumns: aisles, Cells: model.CloneCells(cells)}, nil
}

// ResolveCapacity applies the bus capacity rule: zero means "as many seats
// as the layout has", anything below the layout's seat count is rejected.
func ResolveCapacity(layout model.SeatLayout, requested int) (int, error) {
    seats := layout.SeatCount()
    switch {
    case requested == 0:
        return seats, nil
    case requested < seats:
        return 0, fmt.Errorf("%w: capacity %d below %d seats in layout", ErrInvalidCount, requested, seats)
    default:
        return requested, nil
    }
}

// Grid arranges layout cells by position; empty positions are nil.
func Grid(layout model.SeatLayout) [][]*model.SeatCell {
    grid := make([][]*model.SeatCell, layout.Rows)
    for r := range grid {
        grid[r] = make([]*model.SeatCell, layout.Columns)
    }
    for i := range layout.Cells {
        c := &layout.Cells[i]
        if c.Row >= 0 && c.Row < layout.Rows && c.Column >= 0 && c.Column < layout.Columns {
            grid[c.Row][c.Column] = c
        }
    }
    return grid
}
