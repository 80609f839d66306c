package database

import (
	"context"
	"embed"
	"fmt"
	"path"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// Migrate applies every pending migration for driver.
func Migrate(ctx context.Context, dbConn *sqlx.DB, driver string) error {
	dir, err := prepareGoose(driver)
	if err != nil {
		return err
	}

	logger.Info("Applying migrations", zap.String("dir", dir))
	if err := goose.UpContext(ctx, dbConn.DB, dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// MigrationStatus prints applied and pending migrations.
func MigrationStatus(ctx context.Context, dbConn *sqlx.DB, driver string) error {
	dir, err := prepareGoose(driver)
	if err != nil {
		return err
	}
	if err := goose.StatusContext(ctx, dbConn.DB, dir); err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	return nil
}

// CreateMigration writes a new empty SQL migration into dir.
func CreateMigration(dir, name string) error {
	if name == "" {
		return fmt.Errorf("migration name is required")
	}
	goose.SetBaseFS(nil)
	if err := goose.Create(nil, dir, name, "sql"); err != nil {
		return fmt.Errorf("create migration: %w", err)
	}
	return nil
}

func prepareGoose(driver string) (string, error) {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(driver); err != nil {
		return "", fmt.Errorf("configure goose: %w", err)
	}
	return path.Join("migrations", driver), nil
}
