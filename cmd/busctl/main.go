// Command busctl is the operator tool for the ticketing service: it
// previews seat plans, mints staff tokens for local environments and runs
// the schema migrations.
package main

import (
    "fmt"
    "os"

    "github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
    Use:           "busctl",
    Short:         "Bus ticketing operator tool",
    SilenceUsage:  true,
    SilenceErrors: true,
}

func main() {
    rootCmd.AddCommand(newPlanCmd(), newTokenCmd(), newMigrateCmd())
    if err := rootCmd.Execute(); err != nil {
        fmt.Fprintln(os.Stderr, "busctl:", err)
        os.Exit(1)
    }
}
