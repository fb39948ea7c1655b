// Package db opens the database and applies migrations.
package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/facturo/internal/config"
	"github.com/diewo77/facturo/internal/logging"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const connectAttempts = 5

// Open connects with the configured driver. PostgreSQL connections are
// retried to give the server time to start.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	gcfg := &gorm.Config{
		Logger:         logging.NewGormLogger(log),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	switch cfg.Driver {
	case config.DriverSQLite:
		log.Info("opening sqlite database", zap.String("path", cfg.SQLitePath))
		return gorm.Open(sqlite.Open(SQLiteDSN(cfg.SQLitePath)), gcfg)
	case config.DriverPostgres, "":
		log.Info("connecting to database",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.String("dbname", cfg.DBName),
			zap.String("user", cfg.User),
		)
		var conn *gorm.DB
		var err error
		for i := 1; i <= connectAttempts; i++ {
			conn, err = gorm.Open(postgres.Open(cfg.DSN()), gcfg)
			if err == nil {
				return conn, nil
			}
			log.Warn("database connection failed", zap.Int("attempt", i), zap.Error(err))
			if i < connectAttempts {
				time.Sleep(2 * time.Second)
			}
		}
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

// SQLiteDSN enables foreign key enforcement on path, which may be a file
// name or a "file:" URI.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=1"
}
