package main

import (
    "encoding/json"
    "fmt"
    "io"
    "os"

    "github.com/spf13/cobra"

    "github.com/iliyamo/bus-ticketing/internal/seatplan"
)

func newPlanCmd() *cobra.Command {
    var (
        d      seatplan.Description
        file   string
        asJSON bool
    )
    cmd := &cobra.Command{
        Use:   "plan",
        Short: "Compile a seat plan and print its grid",
        Long: `Compile a seat plan from the "L+R" shorthand flags or from a JSON
description file (the body accepted by POST /v1/seat-plans/preview) and
print the resulting grid.`,
        Example: `  busctl plan --layout 2+2 --seats 41 --last-row 5
  busctl plan --file sleeper.json --json`,
        RunE: func(cmd *cobra.Command, _ []string) error {
            if file != "" {
                raw, err := os.ReadFile(file)
                if err != nil {
                    return err
                }
                d = seatplan.Description{}
                if err := json.Unmarshal(raw, &d); err != nil {
                    return fmt.Errorf("%s: %w", file, err)
                }
            }
            compiled, err := seatplan.Compile(d)
            if err != nil {
                return err
            }
            if asJSON {
                return writeJSON(cmd.OutOrStdout(), compiled)
            }
            renderPlan(cmd.OutOrStdout(), compiled)
            return nil
        },
    }
    f := cmd.Flags()
    f.StringVar(&d.Layout, "layout", "", `seats left and right of the aisle, e.g. "2+2"`)
    f.IntVar(&d.TotalSeats, "seats", 0, "total number of seats")
    f.IntVar(&d.LastRowSeats, "last-row", 0, "seats in the rear row (0 = same as the others)")
    f.IntSliceVar(&d.GapRows, "gap-rows", nil, "row indexes drawn with extra leg room")
    f.StringVar(&file, "file", "", "JSON description to compile instead of the flags")
    f.BoolVar(&asJSON, "json", false, "print the compiled plan as JSON")
    cmd.MarkFlagsMutuallyExclusive("file", "layout")
    return cmd
}

func writeJSON(w io.Writer, v any) error {
    enc := json.NewEncoder(w)
    enc.SetIndent("", "  ")
    return enc.Encode(v)
}
