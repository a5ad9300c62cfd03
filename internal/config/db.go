package config

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
	"github.com/baechuer/movie-review/services/auth-service/internal/logger"
)

// pool sizing for a single auth instance
const (
	dbMaxOpen     = 20
	dbMaxIdle     = 10
	dbIdleTime    = 5 * time.Minute
	dbLifetime    = time.Hour
	dbPingTimeout = 3 * time.Second
)

// NewDB opens the pgx driver behind database/sql and pings it before returning.
// A failed ping closes the pool and reports db_unavailable.
func NewDB(dsn string, debug bool) (*sql.DB, error) {
	if dsn == "" {
		return nil, domain.ErrDBUnavailable(errors.New("empty DB DSN"))
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	db.SetMaxOpenConns(dbMaxOpen)
	db.SetMaxIdleConns(dbMaxIdle)
	db.SetConnMaxIdleTime(dbIdleTime)
	db.SetConnMaxLifetime(dbLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, domain.ErrDBUnavailable(err)
	}

	if debug {
		logConnection(ctx, db)
	}
	return db, nil
}

// logConnection shows which server, database and role we landed on. No secrets.
func logConnection(ctx context.Context, db *sql.DB) {
	var who, dbname, ver string
	err := db.QueryRowContext(ctx,
		`SELECT current_user, current_database(), current_setting('server_version')`,
	).Scan(&who, &dbname, &ver)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("db connected; identity query failed")
		return
	}
	logger.Logger.Info().
		Str("user", who).
		Str("db", dbname).
		Str("version", ver).
		Msg("db connected")
}
