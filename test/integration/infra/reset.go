//go:build integration

package infra

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

func ResetAll(ctx context.Context, db *sql.DB, rdb *goredis.Client) error {
	if err := ResetPostgres(ctx, db); err != nil {
		return err
	}
	return ResetRedis(ctx, rdb)
}

// ResetPostgres expects the migrations to have run.
func ResetPostgres(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `TRUNCATE TABLE accounts`); err != nil {
		return fmt.Errorf("reset postgres: %w", err)
	}
	return nil
}

func ResetRedis(ctx context.Context, rdb *goredis.Client) error {
	return rdb.FlushDB(ctx).Err()
}
