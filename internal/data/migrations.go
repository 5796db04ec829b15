package data

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/target/food-identity-gateway/internal/migrate"
)

// RunMigrations brings the users and restaurants schema up to date and returns the applied versions.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) ([]string, error) {
	return migrate.Run(ctx, db, logger)
}
