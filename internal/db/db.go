package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// Supported drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// DB wraps the database connection with OpenTelemetry instrumentation
type DB struct {
	*sql.DB
	Driver string
	logger *zerolog.Logger
}

// NewDB opens an instrumented connection for driver (mysql or sqlite3)
func NewDB(ctx context.Context, driver, dsn, serviceName string, logger *zerolog.Logger) (*DB, error) {
	attrs := otelsql.WithAttributes(attribute.String("db.system", systemName(driver)))

	db, err := otelsql.Open(driver, dsn, attrs)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if driver == DriverSQLite {
		// a single writer avoids "database is locked"
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Register otelsql's built-in stats reporting
	if err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(
		attribute.String("db.system", systemName(driver)),
		attribute.String("service.name", serviceName),
	)); err != nil {
		logger.Warn().Err(err).Msg("failed to register otelsql stats metrics")
	}

	return &DB{DB: db, Driver: driver, logger: logger}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// InitSchema executes every statement of schemaSQL in order
func (db *DB) InitSchema(ctx context.Context, schemaSQL string) error {
	statements := splitSQLStatements(schemaSQL)

	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement %d: %w\nStatement: %s", i+1, err, stmt)
		}
	}

	db.logger.Debug().Int("statements", len(statements)).Msg("database schema initialized")
	return nil
}

func systemName(driver string) string {
	if driver == DriverSQLite {
		return "sqlite"
	}
	return driver
}

// splitSQLStatements splits a SQL string into individual statements,
// dropping "--" comment lines and empty statements
func splitSQLStatements(sql string) []string {
	lines := strings.Split(sql, "\n")
	var cleanedLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
			cleanedLines = append(cleanedLines, line)
		}
	}

	statements := strings.Split(strings.Join(cleanedLines, "\n"), ";")

	var result []string
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			result = append(result, stmt)
		}
	}

	return result
}
