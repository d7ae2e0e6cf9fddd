// Command migrate manages the lookup audit schema.
//
//	migrate -action up
//	migrate -action to -version 1
//	migrate -action status
package main

import (
	"database/sql"
	"errors"
	"flag"
	"log"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/config"
	"github.com/sean-rowe/weather-lookup/internal/infrastructure/database"
)

var errNoVersion = errors.New("-version is required for this action")

func main() {
	cfg := config.Load()
	db := cfg.Database

	action := flag.String("action", "up", "up, down, to, force or status")
	target := flag.Uint("version", 0, "Target version for to and force")
	flag.StringVar(&db.Host, "host", db.Host, "Database host")
	flag.IntVar(&db.Port, "port", db.Port, "Database port")
	flag.StringVar(&db.User, "user", db.User, "Database user")
	flag.StringVar(&db.Password, "password", db.Password, "Database password")
	flag.StringVar(&db.Database, "database", db.Database, "Database name")
	flag.StringVar(&db.SSLMode, "sslmode", db.SSLMode, "SSL mode")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	defer func() { _ = logger.Sync() }()

	if err := run(*action, *target, db, logger); err != nil {
		logger.Fatal("migrate failed", zap.String("action", *action), zap.Error(err))
	}
}

func run(action string, target uint, cfg config.DatabaseConfig, logger *zap.Logger) error {
	conn, err := sql.Open("postgres", database.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.Database,
		SSLMode:  cfg.SSLMode,
	}.DSN())
	if err != nil {
		return err
	}

	defer func() {
		if err := conn.Close(); err != nil {
			logger.Error("close database", zap.Error(err))
		}
	}()

	if err := conn.Ping(); err != nil {
		return err
	}

	migrator, err := database.NewMigrator(conn, logger)
	if err != nil {
		return err
	}

	switch action {
	case "up":
		return migrator.Up()
	case "down":
		return migrator.Down()
	case "to", "version":
		if target == 0 {
			return errNoVersion
		}

		return migrator.To(target)
	case "force":
		if target == 0 {
			return errNoVersion
		}

		return migrator.Force(target)
	case "status":
		current, dirty, err := migrator.Version()
		if err != nil {
			return err
		}

		logger.Info("schema version", zap.Uint("version", current), zap.Bool("dirty", dirty))

		return nil
	}

	return errors.New("unknown action " + action)
}
