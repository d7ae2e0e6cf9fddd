package app

import (
	"context"
	"time"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
	"github.com/sean-rowe/weather-lookup/internal/infrastructure/database"
)

// DatabaseAdapter adapts the PostgresDB implementation to the ports.AuditRepository interface
type DatabaseAdapter struct {
	db *database.PostgresDB
}

// NewDatabaseAdapter creates a new database adapter
func NewDatabaseAdapter(db *database.PostgresDB) *DatabaseAdapter {
	return &DatabaseAdapter{db: db}
}

// LogLookup implements ports.AuditRepository
func (d *DatabaseAdapter) LogLookup(ctx context.Context, record domain.LookupRecord) error {
	return d.db.InsertLookup(ctx, lookupRow(record))
}

// GetLookupStats implements ports.AuditRepository
func (d *DatabaseAdapter) GetLookupStats(ctx context.Context, since time.Time) (map[string]interface{}, error) {
	return d.db.GetLookupStats(ctx, since)
}

func lookupRow(record domain.LookupRecord) database.LookupRow {
	row := database.LookupRow{
		ID:         record.ID.String(),
		Sequence:   record.Sequence,
		Trigger:    string(record.Trigger),
		Query:      record.Query,
		Outcome:    record.Outcome.String(),
		ErrorCode:  record.ErrorCode,
		Superseded: record.Superseded,
		DurationMs: record.Duration.Milliseconds(),
		StartedAt:  record.StartedAt,
	}

	if record.Coordinates != nil {
		lat, lon := record.Coordinates.Latitude, record.Coordinates.Longitude
		row.Latitude = &lat
		row.Longitude = &lon
	}

	return row
}
