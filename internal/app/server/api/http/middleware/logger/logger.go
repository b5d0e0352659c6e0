package logger

import (
	"time"

	"fieldinspect/internal/app/server/api/http/middleware/auth"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Logger logs every request after it has been handled.
type Logger struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Logger {
	return &Logger{
		log: log.With(slog.String("component", "http_logger")),
	}
}

func (l *Logger) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()
		method := ctx.Method()
		path := ctx.URL().Path
		remoteAddr := ctx.RemoteAddr()

		next(ctx)

		status := ctx.Status()
		attrs := []any{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", remoteAddr),
		}
		if deviceID, ok := auth.GetDeviceID(ctx.Context()); ok {
			attrs = append(attrs, slog.String("device_id", deviceID))
		}

		switch {
		case status >= 500:
			l.log.Error("HTTP request", attrs...)
		case status == 409:
			l.log.Info("HTTP request conflict", attrs...)
		default:
			l.log.Info("HTTP request", attrs...)
		}
	}
}
