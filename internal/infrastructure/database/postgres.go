// Package database stores the lookup audit trail in PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// QueryRecorder receives the duration of every statement, typically into metrics.
type QueryRecorder interface {
	RecordDBQuery(ctx context.Context, operation string, duration time.Duration, err error)
}

// PostgresDB is the audit store.
type PostgresDB struct {
	db       *sql.DB
	recorder QueryRecorder
	logger   *zap.Logger
}

// Config holds PostgreSQL connection and pool settings.
type Config struct {
	Host                  string
	Port                  int
	User                  string
	Password              string
	Database              string
	SSLMode               string
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
}

// DSN returns the lib/pq connection string for cfg.
func (cfg Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)
}

// NewPostgresDB connects, applies pending migrations and returns the store.
//
// Parameters:
//   - cfg: Connection and pool settings
//   - recorder: Query duration recorder, may be nil
//   - logger: Zap logger for database operations
//
// Returns:
//   - *PostgresDB: Ready audit store
//   - error: Connection, ping or migration error
func NewPostgresDB(cfg Config, recorder QueryRecorder, logger *zap.Logger) (*PostgresDB, error) {
	db, err := sql.Open("postgres", cfg.DSN())

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnectionMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PostgresDB{
		db:       db,
		recorder: recorder,
		logger:   logger,
	}, nil
}

// LookupRow is one row of the lookup_audit table.
type LookupRow struct {
	ID         string
	Sequence   uint64
	Trigger    string
	Query      string
	Latitude   *float64
	Longitude  *float64
	Outcome    string
	ErrorCode  string
	Superseded bool
	DurationMs int64
	StartedAt  time.Time
}

// InsertLookup writes one audit row.
func (p *PostgresDB) InsertLookup(ctx context.Context, row LookupRow) error {
	ctx, span := otel.Tracer("database").Start(ctx, "InsertLookup")

	defer span.End()

	span.SetAttributes(
		attribute.String("lookup.id", row.ID),
		attribute.String("lookup.outcome", row.Outcome),
	)

	query := `
		INSERT INTO lookup_audit (
			id, sequence, trigger, query, latitude, longitude,
			outcome, error_code, superseded, duration_ms, started_at
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), $9, $10, $11)
	`

	start := time.Now()
	_, err := p.db.ExecContext(ctx, query,
		row.ID,
		int64(row.Sequence),
		row.Trigger,
		row.Query,
		row.Latitude,
		row.Longitude,
		row.Outcome,
		row.ErrorCode,
		row.Superseded,
		row.DurationMs,
		row.StartedAt,
	)
	duration := time.Since(start)

	p.record(ctx, "insert_lookup", duration, err)

	if err != nil {
		span.RecordError(err)

		p.logger.Error("failed to insert lookup audit row",
			zap.String("lookup_id", row.ID),
			zap.Duration("duration", duration),
			zap.Error(err))

		return err
	}

	return nil
}

// GetLookupStats summarizes lookups started since the given time.
func (p *PostgresDB) GetLookupStats(ctx context.Context, since time.Time) (map[string]interface{}, error) {
	query := `
		SELECT
			COUNT(*) AS total_lookups,
			COUNT(*) FILTER (WHERE outcome = 'displayed' AND NOT superseded) AS displayed,
			COUNT(*) FILTER (WHERE outcome = 'failed' AND NOT superseded) AS failed,
			COUNT(*) FILTER (WHERE superseded) AS superseded,
			AVG(duration_ms) AS avg_duration_ms,
			MAX(duration_ms) AS max_duration_ms
		FROM lookup_audit
		WHERE started_at >= $1
	`

	var stats struct {
		Total      int64
		Displayed  int64
		Failed     int64
		Superseded int64
		AvgMs      sql.NullFloat64
		MaxMs      sql.NullInt64
	}

	start := time.Now()
	err := p.db.QueryRowContext(ctx, query, since).Scan(
		&stats.Total,
		&stats.Displayed,
		&stats.Failed,
		&stats.Superseded,
		&stats.AvgMs,
		&stats.MaxMs,
	)

	p.record(ctx, "lookup_stats", time.Since(start), err)

	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"total_lookups":   stats.Total,
		"displayed":       stats.Displayed,
		"failed":          stats.Failed,
		"superseded":      stats.Superseded,
		"avg_duration_ms": stats.AvgMs.Float64,
		"max_duration_ms": stats.MaxMs.Int64,
	}, nil
}

// Ping checks the connection.
func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the connection pool.
func (p *PostgresDB) Close() error {
	return p.db.Close()
}

func (p *PostgresDB) record(ctx context.Context, operation string, duration time.Duration, err error) {
	if p.recorder != nil {
		p.recorder.RecordDBQuery(ctx, operation, duration, err)
	}
}
