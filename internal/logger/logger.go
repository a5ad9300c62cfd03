package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	reqctx "github.com/baechuer/movie-review/services/auth-service/internal/pkg/context"
)

var Logger zerolog.Logger

func Init() {
	InitWithWriter(os.Stdout)
}

func InitWithWriter(w io.Writer) {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	format := os.Getenv("LOG_FORMAT") // "json" or "console"
	if format == "" {
		format = "console"
	}

	if format == "json" {
		Logger = zerolog.New(w).With().Timestamp().Logger().Level(level)
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger().Level(level)
	}

	// set global
	zlog.Logger = Logger
}

// WithCtx returns the package logger tagged with the request and account ids carried by ctx.
func WithCtx(ctx context.Context) *zerolog.Logger {
	reqID := reqctx.GetRequestID(ctx)
	accountID := reqctx.GetAccountID(ctx)
	if reqID == "" && accountID == "" {
		return &Logger
	}

	lc := Logger.With()
	if reqID != "" {
		lc = lc.Str("request_id", reqID)
	}
	if accountID != "" {
		lc = lc.Str("account_id", accountID)
	}
	l := lc.Logger()
	return &l
}
