package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded lookup audit schema.
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// NewMigrator binds the embedded migrations to db.
func NewMigrator(db *sql.DB, logger *zap.Logger) (*Migrator, error) {
	target, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", target)
	if err != nil {
		return nil, fmt.Errorf("migration instance: %w", err)
	}

	return &Migrator{m: m, logger: logger}, nil
}

// Version returns the applied version and dirty flag. An empty schema is version 0.
func (g *Migrator) Version() (uint, bool, error) {
	v, dirty, err := g.m.Version()

	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}

	return v, dirty, nil
}

// Up applies every pending migration. A dirty schema must be forced first.
func (g *Migrator) Up() error {
	from, dirty, err := g.Version()
	if err != nil {
		return err
	}

	if dirty {
		return fmt.Errorf("schema version %d is dirty", from)
	}

	return g.step("up", from, g.m.Up)
}

// Down rolls back the most recent migration.
func (g *Migrator) Down() error {
	from, _, err := g.Version()
	if err != nil {
		return err
	}

	return g.step("down", from, func() error { return g.m.Steps(-1) })
}

// To migrates up or down until target is the applied version.
func (g *Migrator) To(target uint) error {
	from, _, err := g.Version()
	if err != nil {
		return err
	}

	return g.step(fmt.Sprintf("to %d", target), from, func() error { return g.m.Migrate(target) })
}

// Force records target as applied and clears the dirty flag without running SQL.
func (g *Migrator) Force(target uint) error {
	if err := g.m.Force(int(target)); err != nil {
		return fmt.Errorf("force version %d: %w", target, err)
	}

	g.logger.Warn("schema version forced", zap.Uint("version", target))

	return nil
}

// step runs one migrate operation and logs the version change. ErrNoChange is success.
func (g *Migrator) step(name string, from uint, run func() error) error {
	if err := run(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", name, err)
	}

	to, _, err := g.Version()
	if err != nil {
		return err
	}

	g.logger.Info("schema migrated",
		zap.String("direction", name),
		zap.Uint("from", from),
		zap.Uint("to", to))

	return nil
}

// RunMigrations brings db up to the latest schema.
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	g, err := NewMigrator(db, logger)
	if err != nil {
		return err
	}

	return g.Up()
}

// SchemaVersion reports the applied schema version of db.
func SchemaVersion(db *sql.DB) (uint, bool, error) {
	g, err := NewMigrator(db, zap.NewNop())
	if err != nil {
		return 0, false, err
	}

	return g.Version()
}
