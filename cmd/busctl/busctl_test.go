package main

import (
    "bytes"
    "strings"
    "testing"

    "github.com/iliyamo/bus-ticketing/internal/seatplan"
)

func TestRenderPlanShorthand(t *testing.T) {
    c, err := seatplan.Compile(seatplan.Description{Layout: "2+2", TotalSeats: 9, LastRowSeats: 5, GapRows: []int{0}})
    if err != nil {
        t.Fatalf("compile: %v", err)
    }
    var buf bytes.Buffer
    renderPlan(&buf, c)
    out := buf.String()
    if !strings.Contains(out, "2 rows x 5 columns, 9 seats") {
        t.Fatalf("missing summary:\n%s", out)
    }
    if !strings.Contains(out, "|") {
        t.Fatalf("aisle not drawn:\n%s", out)
    }
}

func TestPlanCommand(t *testing.T) {
    cmd := newPlanCmd()
    var out bytes.Buffer
    cmd.SetOut(&out)
    cmd.SetArgs([]string{"--layout", "2+1", "--seats", "9", "--json"})
    if err := cmd.Execute(); err != nil {
        t.Fatalf("execute: %v", err)
    }
    if !strings.Contains(out.String(), `"aisle_columns": [`) {
        t.Fatalf("unexpected json:\n%s", out.String())
    }

    cmd = newPlanCmd()
    cmd.SetOut(&out)
    cmd.SetErr(&out)
    cmd.SetArgs([]string{"--layout", "2+2", "--seats", "0"})
    if err := cmd.Execute(); err == nil {
        t.Fatalf("expected an error for zero seats")
    }
}

func TestTokenCommandNeedsCompanyForStaff(t *testing.T) {
    cmd := newTokenCmd()
    var out, errOut bytes.Buffer
    cmd.SetOut(&out)
    cmd.SetErr(&errOut)
    cmd.SetArgs([]string{"--secret", "s", "--role", "staff"})
    if err := cmd.Execute(); err == nil {
        t.Fatalf("expected error without --company")
    }

    cmd = newTokenCmd()
    cmd.SetOut(&out)
    cmd.SetErr(&errOut)
    cmd.SetArgs([]string{"--secret", "s", "--role", "admin"})
    if err := cmd.Execute(); err != nil {
        t.Fatalf("execute: %v", err)
    }
    if strings.Count(out.String(), ".") != 2 {
        t.Fatalf("expected a JWT, got %q", out.String())
    }
}
