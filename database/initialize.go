package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"auth-demo/config"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/umakantv/go-utils/db"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// InitializeDatabase opens the configured database and applies pending
// migrations. It exits the process when either step fails.
func InitializeDatabase(cfg config.DatabaseConfig) *sqlx.DB {
	dbConn, err := Open(cfg)
	if err != nil {
		logger.Error("Failed to open database", zap.String("driver", cfg.Driver), zap.Error(err))
		os.Exit(1)
	}

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := Migrate(ctx, dbConn, cfg.Driver); err != nil {
			logger.Error("Error while running migration", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("Database initialized successfully", zap.String("driver", cfg.Driver))
	return dbConn
}

// Open connects to the database named by cfg. SQLite goes through the shared
// go-utils connector; postgres and mysql are opened directly with sqlx.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.Driver == "sqlite3" {
		return db.GetDBConnection(db.DatabaseConfig{
			DRIVER: "sqlite3",
			DB:     cfg.DSN,
		}), nil
	}

	dsn, err := driverDSN(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	dbConn, err := sqlx.Open(driverName(cfg.Driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return dbConn, nil
}

// driverName maps the configured driver to the registered database/sql name.
// "postgres" is served by the pgx stdlib driver.
func driverName(driver string) string {
	if driver == "postgres" {
		return "pgx"
	}
	return driver
}

// driverDSN adjusts dsn for driver. MySQL always gets parseTime so DATETIME
// columns scan into time.Time.
func driverDSN(driver, dsn string) (string, error) {
	if driver != "mysql" {
		return dsn, nil
	}
	mysqlCfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	mysqlCfg.ParseTime = true
	return mysqlCfg.FormatDSN(), nil
}
