package store

import (
	"context"
	"embed"
	"fmt"

	"aibvs/core/utils"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Migrate brings the schema up to date using the embedded goose migrations
// for the active driver.
func Migrate(ctx context.Context, db *DB, logger *utils.Logger) error {
	dir := "migrations/sqlite"
	dialect := "sqlite3"
	if db.driver == DriverPostgres {
		dir = "migrations/postgres"
		dialect = "postgres"
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("store: set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.DB, dir); err != nil {
		return fmt.Errorf("store: apply migrations: %w", err)
	}
	logger.Printf("store: migrations applied (%s)", db.driver)
	return nil
}
