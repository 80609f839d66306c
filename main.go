package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"auth-demo/config"
	"auth-demo/database"
	"auth-demo/server"

	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

func main() {
	commandFlag := flag.String("command", "start", "Command to run: start, migrate, migrate-status, create-migration")
	nameFlag := flag.String("name", "", "Migration name (alphanum+underscore only)")
	dirFlag := flag.String("dir", "./database/migrations/sqlite3", "Target directory for the new .sql file")
	flag.Parse()

	if *commandFlag == "" {
		fmt.Println("Usage: go run main.go --command <command-name> [... other options]")
		os.Exit(1)
	}

	if *commandFlag == "create-migration" {
		if err := database.CreateMigration(*dirFlag, *nameFlag); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Invalid configuration:", err)
		os.Exit(1)
	}

	switch *commandFlag {
	case "start":
		server.StartServer(cfg)
	case "migrate", "migrate-status":
		runMigrations(cfg, *commandFlag == "migrate-status")
	default:
		fmt.Printf("Unknown command %q\n", *commandFlag)
		os.Exit(1)
	}
}

func runMigrations(cfg *config.Config, statusOnly bool) {
	logger.Init(logger.LoggerConfig{
		CallerKey:  "file",
		TimeKey:    "timestamp",
		CallerSkip: 1,
	})

	dbConn, err := database.Open(cfg.Database)
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))
		os.Exit(1)
	}
	defer dbConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if statusOnly {
		err = database.MigrationStatus(ctx, dbConn, cfg.Database.Driver)
	} else {
		err = database.Migrate(ctx, dbConn, cfg.Database.Driver)
	}
	if err != nil {
		logger.Error("Migration failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Migrations complete", zap.String("driver", cfg.Database.Driver))
}
