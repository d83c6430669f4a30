package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/SigNoz/storefront-client/internal/db"
	"github.com/SigNoz/storefront-client/internal/logging"
	"github.com/SigNoz/storefront-client/internal/metrics"
	"github.com/SigNoz/storefront-client/pkg/config"
)

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
)

// Open builds the store selected by cfg.StorageBackend, instrumented with m.
func Open(ctx context.Context, cfg *config.Config, m *metrics.AppMetrics, logger *zerolog.Logger) (Store, error) {
	logger = logging.Component(logger, "storage")
	var (
		s   Store
		err error
	)
	switch cfg.StorageBackend {
	case BackendFile, "":
		s, err = NewFile(cfg.ProfileDir)
	case BackendMemory:
		s = NewMemory()
	case BackendSQLite:
		if err = os.MkdirAll(cfg.ProfileDir, 0o700); err != nil {
			return nil, fmt.Errorf("create profile dir: %w", err)
		}
		s, err = openSQL(ctx, db.DriverSQLite, cfg.SQLitePath(), cfg.OTELServiceName, logger)
	case BackendMySQL:
		s, err = openSQL(ctx, db.DriverMySQL, cfg.GetDSN(), cfg.OTELServiceName, logger)
	case BackendRedis:
		s, err = NewRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisKeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if err != nil {
		return nil, err
	}

	backend := cfg.StorageBackend
	if backend == "" {
		backend = BackendFile
	}
	logger.Info().Str("backend", backend).Msg("session storage ready")
	return Instrument(s, backend, m), nil
}

func openSQL(ctx context.Context, driver, dsn, serviceName string, logger *zerolog.Logger) (*SQL, error) {
	database, err := db.NewDB(ctx, driver, dsn, serviceName, logger)
	if err != nil {
		return nil, err
	}
	s, err := NewSQL(ctx, database)
	if err != nil {
		database.Close()
		return nil, err
	}
	return s, nil
}
