//go:build integration

package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

// PostgresTestSuite runs against a disposable database:
//
//	TEST_DB_HOST=localhost go test -tags integration ./internal/infrastructure/database/
type PostgresTestSuite struct {
	suite.Suite

	db *PostgresDB
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresTestSuite))
}

func (s *PostgresTestSuite) SetupSuite() {
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		host = "localhost"
	}

	port, err := strconv.Atoi(os.Getenv("TEST_DB_PORT"))
	if err != nil {
		port = 5432
	}

	db, err := NewPostgresDB(Config{
		Host:                  host,
		Port:                  port,
		User:                  "test",
		Password:              "test",
		Database:              "weather_test",
		SSLMode:               "disable",
		MaxConnections:        5,
		MaxIdleConnections:    2,
		ConnectionMaxLifetime: time.Minute,
	}, nil, zap.NewNop())
	if err != nil {
		s.T().Skipf("cannot connect to test database: %v", err)
	}

	s.db = db
}

func (s *PostgresTestSuite) SetupTest() {
	_, err := s.db.db.Exec("TRUNCATE lookup_audit")
	s.Require().NoError(err)
}

func (s *PostgresTestSuite) TearDownSuite() {
	if s.db != nil {
		s.Require().NoError(s.db.Close())
	}
}

func (s *PostgresTestSuite) TestSchemaVersion() {
	version, dirty, err := SchemaVersion(s.db.db)

	s.Require().NoError(err)
	s.Assert().False(dirty)
	s.Assert().Equal(uint(1), version)
}

func (s *PostgresTestSuite) TestInsertAndSummarize() {
	ctx := context.Background()
	now := time.Now().UTC()
	lat, lon := 51.51, -0.13

	rows := []LookupRow{
		{Trigger: "city", Query: "London", Latitude: &lat, Longitude: &lon, Outcome: "displayed", DurationMs: 120},
		{Trigger: "city", Query: "Xyzzyville", Outcome: "failed", ErrorCode: "NOT_FOUND", DurationMs: 40},
		{Trigger: "location", Outcome: "displayed", Superseded: true, DurationMs: 300},
	}

	for i, row := range rows {
		row.ID = uuid.NewString()
		row.Sequence = uint64(i + 1)
		row.StartedAt = now

		s.Require().NoError(s.db.InsertLookup(ctx, row))
	}

	stats, err := s.db.GetLookupStats(ctx, now.Add(-time.Minute))
	s.Require().NoError(err)

	s.Assert().Equal(int64(3), stats["total_lookups"])
	s.Assert().Equal(int64(1), stats["displayed"])
	s.Assert().Equal(int64(1), stats["failed"])
	s.Assert().Equal(int64(1), stats["superseded"])
	s.Assert().Equal(int64(300), stats["max_duration_ms"])

	var query *string
	s.Require().NoError(s.db.db.QueryRow(
		"SELECT query FROM lookup_audit WHERE trigger = 'location'").Scan(&query))
	s.Assert().Nil(query)
}

func (s *PostgresTestSuite) TestStatsWindowExcludesOlderRows() {
	ctx := context.Background()

	s.Require().NoError(s.db.InsertLookup(ctx, LookupRow{
		ID:        uuid.NewString(),
		Sequence:  1,
		Trigger:   "city",
		Query:     "Paris",
		Outcome:   "displayed",
		StartedAt: time.Now().Add(-2 * time.Hour),
	}))

	stats, err := s.db.GetLookupStats(ctx, time.Now().Add(-time.Hour))
	s.Require().NoError(err)

	s.Assert().Equal(int64(0), stats["total_lookups"])
	s.Assert().Equal(0.0, stats["avg_duration_ms"])
}
