package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"fieldinspect/internal/domain/session"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

type Auth struct {
	session session.Servicer
	log     *slog.Logger
}

func New(session session.Servicer, log *slog.Logger) *Auth {
	return &Auth{
		session: session,
		log:     log.With("component", "auth_middleware"),
	}
}

type contextKey string

const DeviceIDKey contextKey = "deviceID"

// Middleware rejects requests without a valid device bearer token.
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token, ok := strings.CutPrefix(ctx.Header("Authorization"), "Bearer ")
		if !ok || token == "" {
			a.log.Warn("missing bearer token", "path", ctx.URL().Path)
			a.unauthorized(ctx)
			return
		}

		deviceID, err := a.session.Validate(ctx.Context(), token)
		if err != nil {
			if errors.Is(err, session.ErrInvalidToken) {
				a.log.Warn("rejected device token", "path", ctx.URL().Path)
			} else {
				a.log.Error("token validation failed", "error", err)
			}
			a.unauthorized(ctx)
			return
		}

		next(huma.WithContext(ctx, WithDeviceID(ctx.Context(), deviceID)))
	}
}

func (a *Auth) unauthorized(ctx huma.Context) {
	ctx.SetStatus(http.StatusUnauthorized)
	ctx.SetHeader("Content-Type", "application/json")

	if err := json.NewEncoder(ctx.BodyWriter()).Encode(map[string]string{
		"error": "Unauthorized",
	}); err != nil {
		a.log.Error("json encode", "error", err)
	}
}

func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, DeviceIDKey, deviceID)
}

func GetDeviceID(ctx context.Context) (string, bool) {
	deviceID, ok := ctx.Value(DeviceIDKey).(string)
	return deviceID, ok
}
