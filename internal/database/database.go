package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// NormalizeDSN forces the driver options the store relies on: DATETIME
// columns scan into time.Time in UTC, and UPDATE reports matched rather than
// changed rows so an unchanged PATCH is not mistaken for a missing row.
func NormalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", errors.Wrap(err, "parse DB_DSN")
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// OpenDB creates and configures the MySQL connection pool for dsn and
// verifies it with a ping. When the ping fails the pool is still returned
// so the caller can keep serving /health with a 503.
func OpenDB(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, error) {
	// 1. Normalize the DSN and open a new connection pool.
	normalized, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", normalized)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql pool")
	}

	// 2. Configure the connection pool settings.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 3. Ping the database to verify the connection.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn("database ping failed", zap.Error(err))
		return db, errors.Wrap(err, "ping mysql")
	}

	logger.Info("database connection pool established")
	return db, nil
}
