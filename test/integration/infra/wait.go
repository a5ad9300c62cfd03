//go:build integration

package infra

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// waitUntil polls probe until it succeeds or ctx ends.
func waitUntil(ctx context.Context, name string, every time.Duration, probe func(context.Context) error) error {
	var last error
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait %s: %w (last=%v)", name, ctx.Err(), last)
		case <-t.C:
			if last = probe(ctx); last == nil {
				return nil
			}
		}
	}
}

func WaitPostgres(ctx context.Context, dsn string) error {
	return waitUntil(ctx, "postgres", 400*time.Millisecond, func(ctx context.Context) error {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.PingContext(ctx)
	})
}

func WaitRedis(ctx context.Context, addr string) error {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	defer func() { _ = rdb.Close() }()

	return waitUntil(ctx, "redis", 300*time.Millisecond, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
}

func WaitRabbit(ctx context.Context, url string) error {
	return waitUntil(ctx, "rabbit", 400*time.Millisecond, func(context.Context) error {
		conn, err := amqp.Dial(url)
		if err != nil {
			return err
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			return err
		}
		return ch.Close()
	})
}

// WaitAll blocks until every backend in env answers.
func WaitAll(ctx context.Context, env Env) error {
	if err := WaitPostgres(ctx, env.PostgresDSN); err != nil {
		return err
	}
	if err := WaitRedis(ctx, env.RedisAddr); err != nil {
		return err
	}
	return WaitRabbit(ctx, env.RabbitURL)
}
