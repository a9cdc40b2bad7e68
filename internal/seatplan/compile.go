package seatplan

import (
    "fmt"
    "sort"

    "github.com/iliyamo/bus-ticketing/internal/model"
)

// Description is the input to Compile.  When Layout is set the legacy
// shorthand fields are used (Layout, TotalSeats, GapRows, LastRowSeats);
// otherwise the explicit grid fields are used (Rows, Columns, AisleColumns,
// Cells).  RowNames applies to both forms.
type Description struct {
    Rows         int              `json:"rows"`
    Columns      int              `json:"columns"`
    AisleColumns []int            `json:"aisle_columns"`
    Cells        []model.SeatCell `json:"cells"`

    Layout       string `json:"layout"`
    TotalSeats   int    `json:"total_seats"`
    GapRows      []int  `json:"gap_rows"`
    LastRowSeats int    `json:"last_row_seats"`

    RowNames map[int]string `json:"row_names"`
}

// IsShorthand reports whether the description uses the "L+R" form.
func (d Description) IsShorthand() bool { return d.Layout != "" }

// Compiled is the output of Compile: a validated grid with addressable cells
// sorted row-major.
type Compiled struct {
    Rows         int              `json:"rows"`
    Columns      int              `json:"columns"`
    AisleColumns []int            `json:"aisle_columns"`
    GapRows      []int            `json:"gap_rows,omitempty"`
    RowNames     map[int]string   `json:"row_names,omitempty"`
    Cells        []model.SeatCell `json:"cells"`
}

// SeatCount returns the number of bookable cells.
func (c *Compiled) SeatCount() int { return model.CountSeats(c.Cells) }

// Layout returns the compiled grid as a bus seat layout.
func (c *Compiled) Layout() model.SeatLayout {
    return model.SeatLayout{Rows: c.Rows, Columns: c.Columns, AisleColumns: c.AisleColumns, Cells: c.Cells}.Clone()
}

// ApplyTo copies the compiled grid onto a seat plan record.
func (c *Compiled) ApplyTo(plan *model.SeatPlan) {
    l := c.Layout()
    plan.Rows = l.Rows
    plan.Columns = l.Columns
    plan.AisleColumns = l.AisleColumns
    plan.Cells = l.Cells
    plan.GapRows = append([]int(nil), c.GapRows...)
    plan.RowNames = copyRowNames(c.RowNames)
}

// Compile validates a description and produces its explicit cell list.
func Compile(d Description) (*Compiled, error) {
    if d.IsShorthand() {
        return compileShorthand(d)
    }
    return compileExplicit(d)
}

// compileShorthand expands "L+R" plus a seat count into rows.  Regular rows
// put left seats in columns [0, left) and right seats after the aisle
// column.  The last row is split ceil(rem/2) left and the rest right; it may
// use the aisle column (rear bench).
func compileShorthand(d Description) (*Compiled, error) {
    left, right, err := ParseLayout(d.Layout)
    if err != nil {
        return nil, err
    }
    if d.TotalSeats < 1 {
        return nil, fmt.Errorf("%w: total seats must be at least 1", ErrInvalidCount)
    }
    if d.LastRowSeats < 0 || d.LastRowSeats > d.TotalSeats {
        return nil, fmt.Errorf("%w: last row seats %d out of range", ErrInvalidCount, d.LastRowSeats)
    }

    perRow := left + right
    columns := perRow
    aisle := -1
    if left > 0 && right > 0 {
        columns = perRow + 1
        aisle = left
    }

    regularRows := d.TotalSeats / perRow
    if d.LastRowSeats > 0 && d.LastRowSeats != perRow {
        regularRows = (d.TotalSeats - d.LastRowSeats) / perRow
    }
    remaining := d.TotalSeats - regularRows*perRow
    for remaining > columns { // inconsistent lastRowSeats, keep the count exact
        regularRows++
        remaining -= perRow
    }

    rows := regularRows
    if remaining > 0 {
        rows++
    }
    gapRows, err := normalizeIndexes(d.GapRows, rows, "gap row")
    if err != nil {
        return nil, err
    }
    if err := validateRowNames(d.RowNames, rows); err != nil {
        return nil, err
    }

    cells := make([]model.SeatCell, 0, d.TotalSeats)
    number := 0
    emit := func(row, col, pos int) {
        number++
        name := seatName(d.RowNames, row, pos)
        cells = append(cells, model.SeatCell{Row: row, Column: col, SeatNumber: number, SeatName: &name})
    }
    for r := 0; r < regularRows; r++ {
        pos := 0
        for c := 0; c < left; c++ {
            pos++
            emit(r, c, pos)
        }
        for c := columns - right; c < columns; c++ {
            pos++
            emit(r, c, pos)
        }
    }
    if remaining > 0 {
        lastLeft, lastRight := splitLastRow(remaining, left, right, aisle >= 0)
        pos := 0
        for c := 0; c < lastLeft; c++ {
            pos++
            emit(regularRows, c, pos)
        }
        for c := columns - lastRight; c < columns; c++ {
            pos++
            emit(regularRows, c, pos)
        }
    }

    aisles := []int{}
    if aisle >= 0 {
        aisles = append(aisles, aisle)
    }
    return &Compiled{
        Rows:         rows,
        Columns:      columns,
        AisleColumns: aisles,
        GapRows:      gapRows,
        RowNames:     copyRowNames(d.RowNames),
        Cells:        cells,
    }, nil
}

// splitLastRow divides the remaining seats of the final row between the two
// sides.  The left side may take the aisle column when there is one.
func splitLastRow(remaining, left, right int, hasAisle bool) (int, int) {
    maxLeft := left
    if hasAisle {
        maxLeft = left + 1
    }
    lastLeft := (remaining + 1) / 2
    if lastLeft > maxLeft {
        lastLeft = maxLeft
    }
    lastRight := remaining - lastLeft
    if lastRight > right {
        lastLeft += lastRight - right
        lastRight = right
    }
    return lastLeft, lastRight
}

// compileExplicit validates an explicit grid and (re)assigns seat numbers
// row-major across bookable cells.  Aisle cells get seat number 0.
func compileExplicit(d Description) (*Compiled, error) {
    if d.Rows <= 0 || d.Columns <= 0 {
        return nil, fmt.Errorf("%w: rows and columns must be positive", ErrInvalidLayout)
    }
    aisles, err := normalizeIndexes(d.AisleColumns, d.Columns, "aisle column")
    if err != nil {
        return nil, err
    }
    if err := validateRowNames(d.RowNames, d.Rows); err != nil {
        return nil, err
    }
    if err := checkCells(d.Cells, d.Rows, d.Columns); err != nil {
        return nil, err
    }
    if model.CountSeats(d.Cells) == 0 {
        return nil, fmt.Errorf("%w: plan has no bookable cells", ErrInvalidCount)
    }

    cells := model.CloneCells(d.Cells)
    sortCells(cells)
    number := 0
    pos := 0
    lastRow := -1
    for i := range cells {
        c := &cells[i]
        if c.Row != lastRow {
            lastRow = c.Row
            pos = 0
        }
        if c.IsAisle {
            c.SeatNumber = 0
            c.SeatName = nil
            continue
        }
        number++
        pos++
        c.SeatNumber = number
        if c.SeatName == nil || *c.SeatName == "" {
            name := seatName(d.RowNames, c.Row, pos)
            c.SeatName = &name
        }
    }
    return &Compiled{
        Rows:         d.Rows,
        Columns:      d.Columns,
        AisleColumns: aisles,
        RowNames:     copyRowNames(d.RowNames),
        Cells:        cells,
    }, nil
}

// checkCells enforces grid bounds and position uniqueness.
func checkCells(cells []model.SeatCell, rows, columns int) error {
    seen := make(map[model.Position]struct{}, len(cells))
    for _, c := range cells {
        if c.Row < 0 || c.Row >= rows || c.Column < 0 || c.Column >= columns {
            return fmt.Errorf("%w: cell (%d,%d) outside %dx%d grid", ErrInvalidLayout, c.Row, c.Column, rows, columns)
        }
        if _, dup := seen[c.Pos()]; dup {
            return fmt.Errorf("%w: duplicate cell (%d,%d)", ErrInvalidLayout, c.Row, c.Column)
        }
        seen[c.Pos()] = struct{}{}
    }
    return nil
}

func sortCells(cells []model.SeatCell) {
    sort.SliceStable(cells, func(i, j int) bool {
        if cells[i].Row != cells[j].Row {
            return cells[i].Row < cells[j].Row
        }
        return cells[i].Column < cells[j].Column
    })
}

// normalizeIndexes checks every index is in [0, limit) and returns a sorted,
// de-duplicated copy.
func normalizeIndexes(in []int, limit int, what string) ([]int, error) {
    set := make(map[int]struct{}, len(in))
    out := make([]int, 0, len(in))
    for _, v := range in {
        if v < 0 || v >= limit {
            return nil, fmt.Errorf("%w: %s %d out of range [0,%d)", ErrInvalidLayout, what, v, limit)
        }
        if _, ok := set[v]; ok {
            continue
        }
        set[v] = struct{}{}
        out = append(out, v)
    }
    sort.Ints(out)
    return out, nil
}

func validateRowNames(names map[int]string, rows int) error {
    for row := range names {
        if row < 0 || row >= rows {
            return fmt.Errorf("%w: row name for row %d out of range [0,%d)", ErrInvalidLayout, row, rows)
        }
    }
    return nil
}

func copyRowNames(in map[int]string) map[int]string {
    if len(in) == 0 {
        return nil
    }
    out := make(map[int]string, len(in))
    for k, v := range in {
        out[k] = v
    }
    return out
}
