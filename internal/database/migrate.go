package database

import (
	"context"
	"database/sql"
	"log"

	"github.com/pressly/goose/v3"

	"github.com/iliyamo/bus-ticketing/internal/database/migrations"
)

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("mysql"); err != nil {
		return err
	}
	before, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}
	after, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return err
	}
	log.Printf("migrate: schema at version %d (was %d)", after, before)
	return nil
}
