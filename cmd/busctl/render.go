package main

import (
    "fmt"
    "io"

    "github.com/jedib0t/go-pretty/v6/table"

    "github.com/iliyamo/bus-ticketing/internal/model"
    "github.com/iliyamo/bus-ticketing/internal/seatplan"
)

// renderPlan draws the bus front to back, one table row per seat row.
// Aisle positions print as "|", broken seats get a trailing "x".
func renderPlan(w io.Writer, c *seatplan.Compiled) {
    layout := c.Layout()
    aisle := map[int]bool{}
    for _, a := range layout.AisleColumns {
        aisle[a] = true
    }
    gaps := map[int]bool{}
    for _, g := range c.GapRows {
        gaps[g] = true
    }

    t := table.NewWriter()
    t.SetOutputMirror(w)
    header := table.Row{"Row"}
    for col := 0; col < layout.Columns; col++ {
        header = append(header, col)
    }
    t.AppendHeader(header)
    for r, cells := range seatplan.Grid(layout) {
        row := table.Row{seatplan.RowLabel(r)}
        for col, cell := range cells {
            row = append(row, cellText(cell, aisle[col]))
        }
        t.AppendRow(row)
        if gaps[r] {
            t.AppendSeparator()
        }
    }
    t.SetStyle(table.StyleLight)
    t.Render()
    fmt.Fprintln(w, summary(c))
}

func cellText(cell *model.SeatCell, aisleColumn bool) string {
    switch {
    case cell == nil && aisleColumn:
        return "|"
    case cell == nil:
        return ""
    case cell.IsAisle:
        return "|"
    case cell.IsBroken:
        return cell.Label() + "x"
    default:
        return cell.Label()
    }
}

func summary(c *seatplan.Compiled) string {
    return fmt.Sprintf("%d rows x %d columns, %d seats", c.Rows, c.Columns, c.SeatCount())
}
