package main

import (
    "fmt"
    "os"
    "strings"
    "time"

    "github.com/spf13/cobra"

    "github.com/iliyamo/bus-ticketing/internal/middleware"
    "github.com/iliyamo/bus-ticketing/internal/utils"
)

func newTokenCmd() *cobra.Command {
    var (
        secret  string
        subject string
        role    string
        company uint64
        ttl     time.Duration
    )
    cmd := &cobra.Command{
        Use:   "token",
        Short: "Mint a staff token for a local environment",
        RunE: func(cmd *cobra.Command, _ []string) error {
            if secret == "" {
                secret = os.Getenv("JWT_SECRET")
            }
            role = strings.ToUpper(role)
            if role != middleware.RoleStaff && role != middleware.RoleAdmin {
                return fmt.Errorf("role must be %s or %s", middleware.RoleStaff, middleware.RoleAdmin)
            }
            if role == middleware.RoleStaff && company == 0 {
                return fmt.Errorf("--company is required for %s tokens", middleware.RoleStaff)
            }
            tok, err := utils.NewStaffToken(secret, subject, role, company, ttl)
            if err != nil {
                return err
            }
            fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
            fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", tok.Exp.Format(time.RFC3339))
            return nil
        },
    }
    f := cmd.Flags()
    f.StringVar(&secret, "secret", "", "signing secret (default $JWT_SECRET)")
    f.StringVar(&subject, "subject", "local-staff", "user id placed in the sub claim")
    f.StringVar(&role, "role", middleware.RoleStaff, "STAFF or ADMIN")
    f.Uint64Var(&company, "company", 0, "company the STAFF token is bound to")
    f.DurationVar(&ttl, "ttl", 8*time.Hour, "token lifetime")
    return cmd
}
