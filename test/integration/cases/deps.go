//go:build integration

package cases

import (
	"context"
	"database/sql"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/movie-review/services/auth-service/internal/application/auth"
	"github.com/baechuer/movie-review/services/auth-service/internal/audit"
	pg "github.com/baechuer/movie-review/services/auth-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/movie-review/services/auth-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/movie-review/services/auth-service/internal/infrastructure/redis"
	"github.com/baechuer/movie-review/services/auth-service/internal/infrastructure/security"
	itinfra "github.com/baechuer/movie-review/services/auth-service/test/integration/infra"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Deps struct {
	Env itinfra.Env

	DB   *sql.DB
	RDB  *goredis.Client
	AMQP *amqp.Connection

	Accounts *pg.AccountRepo
	Pub      *rabbitmq.Publisher
	Tokens   *security.JWTIssuer
	Hasher   *security.BcryptHasher
	OTP      *security.OTPGenerator

	// Svc stores accounts in Postgres and notifies over RabbitMQ.
	Svc *auth.Service
}

func MustNewDeps(t *testing.T) *Deps {
	t.Helper()

	env := itinfra.LoadEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	require.NoError(t, itinfra.WaitAll(ctx, env), env.String())

	// --- Postgres ---
	db, err := sql.Open("pgx", env.PostgresDSN)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, pg.Migrate(ctx, db))

	// --- Redis ---
	rdb := goredis.NewClient(&goredis.Options{Addr: env.RedisAddr})
	require.NoError(t, rdb.Ping(ctx).Err())

	// --- RabbitMQ ---
	conn, err := amqp.Dial(env.RabbitURL)
	require.NoError(t, err)

	pub, err := rabbitmq.NewPublisher(env.RabbitURL, env.Exchange)
	require.NoError(t, err)

	d := &Deps{
		Env:  env,
		DB:   db,
		RDB:  rdb,
		AMQP: conn,

		Accounts: pg.NewAccountRepo(db),
		Pub:      pub,
		Tokens:   security.NewJWTIssuer("integration-test-secret", "auth-service-it", time.Now),
		Hasher:   security.NewBcryptHasher(4),
		OTP:      security.NewOTPGenerator(10*time.Minute, time.Now),
	}
	d.Svc = d.newService(d.Accounts)

	require.NoError(t, itinfra.ResetAll(ctx, db, rdb))
	t.Cleanup(func() { d.Close() })
	return d
}

// RedisService is a service over the Redis account store, notifying over the same publisher.
func (d *Deps) RedisService(t *testing.T) *auth.Service {
	t.Helper()

	c := redis.New(d.Env.RedisAddr, "", 0)
	require.NoError(t, c.Ping(context.Background()))
	t.Cleanup(func() { _ = c.Close() })

	return d.newService(redis.NewAccountStore(c))
}

func (d *Deps) newService(accounts auth.AccountStore) *auth.Service {
	return auth.NewService(
		accounts,
		d.Hasher,
		d.OTP,
		d.Tokens,
		d.Pub,
		auth.Config{TokenTTL: time.Hour, Now: time.Now},
	).WithAudit(audit.New(zerolog.Nop()).Record)
}

func (d *Deps) Close() {
	if d.Pub != nil {
		_ = d.Pub.Close()
	}
	if d.AMQP != nil {
		_ = d.AMQP.Close()
	}
	if d.RDB != nil {
		_ = d.RDB.Close()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
