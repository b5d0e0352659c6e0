package session

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, deviceID string, tokenHash string, expiresAt time.Time) error
	// Validate returns the device the token was issued to, or ErrInvalidToken.
	Validate(ctx context.Context, tokenHash string) (string, error)
}
