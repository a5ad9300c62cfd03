package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/baechuer/movie-review/services/auth-service/internal/application/auth"
	"github.com/baechuer/movie-review/services/auth-service/internal/audit"
	"github.com/baechuer/movie-review/services/auth-service/internal/config"
	"github.com/baechuer/movie-review/services/auth-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/movie-review/services/auth-service/internal/infrastructure/email"
	"github.com/baechuer/movie-review/services/auth-service/internal/infrastructure/memory"
	rabbitmq_pub "github.com/baechuer/movie-review/services/auth-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/movie-review/services/auth-service/internal/infrastructure/redis"
	"github.com/baechuer/movie-review/services/auth-service/internal/infrastructure/security"
	"github.com/baechuer/movie-review/services/auth-service/internal/logger"
	http_handlers "github.com/baechuer/movie-review/services/auth-service/internal/transport/http/handlers"
	"github.com/baechuer/movie-review/services/auth-service/internal/transport/http/middleware"
	"github.com/baechuer/movie-review/services/auth-service/internal/transport/http/response"
	"github.com/baechuer/movie-review/services/auth-service/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB   func(addr string, debug bool) (*sql.DB, error)
	Migrate func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) *redis.Client

	NewPublisher func(url, exchange string) (NotifierCloser, error)

	NewRouter func(router.Deps) (http.Handler, error)

	// Now is shared by the OTP generator, the token issuer and the service.
	Now func() time.Time
}

// NotifierCloser is a notifier that holds a connection.
type NotifierCloser interface {
	auth.Notifier
	Close() error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	var cleanupFns []func()
	fail := func(err error) (*http.Server, func(), error) {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 1) account store
	checks := map[string]http_handlers.Check{}
	var accounts auth.AccountStore

	switch cfg.Store {
	case config.StorePostgres:
		db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
		if err != nil {
			return nil, nil, err
		}
		cleanupFns = append(cleanupFns, func() { _ = db.Close() })

		if cfg.DBMigrate && deps.Migrate != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := deps.Migrate(ctx, db)
			cancel()
			if err != nil {
				return fail(err)
			}
		}
		accounts = postgres.NewAccountRepo(db)
		checks["db"] = db.PingContext
		logger.Logger.Info().Msg("account store: postgres")

	case config.StoreRedis:
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := c.Ping(context.Background()); err != nil {
			_ = c.Close()
			if cfg.Env != "dev" {
				return fail(fmt.Errorf("redis unavailable: %w", err))
			}
			logger.Logger.Warn().Err(err).Msg("redis unavailable; using in-memory account store")
			accounts = memory.NewAccountRepo()
			break
		}
		cleanupFns = append(cleanupFns, func() { _ = c.Close() })
		accounts = redis.NewAccountStore(c)
		checks["redis"] = c.Ping
		logger.Logger.Info().Msg("account store: redis")

	case config.StoreMemory:
		accounts = memory.NewAccountRepo()
		logger.Logger.Warn().Msg("account store: memory (data is lost on restart)")

	default:
		return fail(fmt.Errorf("unknown store %q", cfg.Store))
	}

	// 2) notifier
	var notifier auth.Notifier
	switch cfg.Notifier {
	case config.NotifierRabbitMQ:
		pub, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			if cfg.Env != "dev" {
				return fail(err)
			}
			logger.Logger.Warn().Err(err).Msg("rabbitmq unavailable; codes go to the log")
			notifier = memory.NewLogNotifier(logger.Logger)
			break
		}
		cleanupFns = append(cleanupFns, func() { _ = pub.Close() })
		notifier = pub

	case config.NotifierSMTP:
		notifier = email.NewSMTPNotifier(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			Timeout:  cfg.SMTP.Timeout,
			Insecure: cfg.SMTP.Insecure,
		}, logger.Logger, now)

	case config.NotifierLog:
		notifier = memory.NewLogNotifier(logger.Logger)

	default:
		return fail(fmt.Errorf("unknown notifier %q", cfg.Notifier))
	}

	// 3) security
	logger.Logger.Info().Str("issuer", cfg.JWTIssuer).Msg("initializing jwt issuer")
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	tokens := security.NewJWTIssuer(cfg.JWTSecret, cfg.JWTIssuer, now)
	otp := security.NewOTPGenerator(cfg.OTPTTL, now)

	// seed (dev only by default)
	if cfg.SeedDevAccounts {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		SeedAccounts(ctx, accounts, hasher, logger.Logger)
		cancel()
	}

	// 4) service
	authSvc := auth.NewService(
		accounts,
		hasher,
		otp,
		tokens,
		notifier,
		auth.Config{
			TokenTTL: cfg.AccessTokenTTL,
			Now:      now,
		},
	).WithAudit(audit.New(logger.Logger).Record)

	// 5) handlers + middleware
	authH := http_handlers.NewAuthHandler(authSvc)
	healthH := http_handlers.NewHealthHandler(checks)

	// 6) router
	mux, err := deps.NewRouter(router.Deps{
		Health:      healthH,
		Auth:        authH,
		AuthMW:      middleware.Auth(tokens, response.WriteError),
		RequestIDMW: middleware.RequestID,
		AccessLogMW: middleware.AccessLog,
		MetricsMW:   middleware.Metrics,
	})
	if err != nil {
		return fail(err)
	}

	// 7) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() { runCleanup(cleanupFns) })
	}

	return srv, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		Migrate:    postgres.Migrate,
		NewRedis:   redis.New,
		NewPublisher: func(url, exchange string) (NotifierCloser, error) {
			p, err := rabbitmq_pub.NewPublisher(url, exchange)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		NewRouter: router.New,
		Now:       time.Now,
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
