package main

import (
    "github.com/joho/godotenv"
    "github.com/spf13/cobra"

    "github.com/iliyamo/bus-ticketing/internal/config"
    "github.com/iliyamo/bus-ticketing/internal/database"
)

func newMigrateCmd() *cobra.Command {
    var envFile string
    cmd := &cobra.Command{
        Use:   "migrate",
        Short: "Apply pending schema migrations to the configured database",
        RunE: func(cmd *cobra.Command, _ []string) error {
            if envFile != "" {
                if err := godotenv.Load(envFile); err != nil {
                    return err
                }
            }
            cfg := config.Load()
            db, err := database.Open(database.Options{User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName})
            if err != nil {
                return err
            }
            defer db.Close()
            return database.Migrate(cmd.Context(), db)
        },
    }
    cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load first (empty to skip)")
    return cmd
}
