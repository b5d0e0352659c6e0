package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldinspect/internal/domain/session"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"
)

type SessionRepository struct {
	db  *Storage
	log *slog.Logger
}

func NewSessionRepository(db *Storage, log *slog.Logger) *SessionRepository {
	return &SessionRepository{
		db:  db,
		log: log.With("component", "session_repository"),
	}
}

func (r *SessionRepository) Create(ctx context.Context, deviceID string, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.Pool().Exec(ctx,
		`INSERT INTO device_sessions (device_id, token_hash, expires_at)
         VALUES ($1, decode($2, 'hex'), $3)`,
		deviceID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Validate(ctx context.Context, tokenHash string) (string, error) {
	var deviceID string
	err := r.db.Pool().QueryRow(ctx,
		`SELECT device_id FROM device_sessions
         WHERE token_hash = decode($1, 'hex') AND expires_at > NOW()`,
		tokenHash).Scan(&deviceID)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", session.ErrInvalidToken
	}
	if err != nil {
		r.log.Error("failed to validate session", "error", err)
		return "", fmt.Errorf("validate session: %w", err)
	}
	return deviceID, nil
}
