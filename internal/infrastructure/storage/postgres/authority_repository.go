package postgres

import (
	"context"
	"errors"
	"fmt"

	"fieldinspect/internal/domain/authority"

	"github.com/jackc/pgx/v5"
	"golang.org/x/exp/slog"
)

type AuthorityRepository struct {
	db  *Storage
	log *slog.Logger
}

var _ authority.Repository = (*AuthorityRepository)(nil)

func NewAuthorityRepository(db *Storage, log *slog.Logger) *AuthorityRepository {
	return &AuthorityRepository{
		db:  db,
		log: log.With("component", "authority_repository"),
	}
}

const selectInspection = `
	SELECT local_id, server_id, version, payload, checksum, device_id, updated_at
	FROM inspections
	WHERE local_id = $1`

func (r *AuthorityRepository) Apply(ctx context.Context, localID string, fn authority.ApplyFunc) (*authority.Inspection, error) {
	tx, err := r.db.Pool().BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.log.Error("rollback failed", "local_id", localID, "error", rbErr)
		}
	}()

	// Serializes pushes for the same localId, including the very first insert.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, localID); err != nil {
		return nil, fmt.Errorf("lock %s: %w", localID, err)
	}

	current, err := scanInspection(tx.QueryRow(ctx, selectInspection, localID))
	if errors.Is(err, pgx.ErrNoRows) {
		current = nil
	} else if err != nil {
		return nil, fmt.Errorf("load %s: %w", localID, err)
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		return current, nil
	}

	const upsert = `
		INSERT INTO inspections (local_id, version, payload, checksum, device_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (local_id) DO UPDATE SET
			version = EXCLUDED.version,
			payload = EXCLUDED.payload,
			checksum = EXCLUDED.checksum,
			device_id = EXCLUDED.device_id,
			updated_at = EXCLUDED.updated_at
		RETURNING server_id`

	err = tx.QueryRow(ctx, upsert,
		next.LocalID, next.Version, []byte(next.Payload), next.Checksum, next.DeviceID, next.UpdatedAt,
	).Scan(&next.ServerID)
	if err != nil {
		r.log.Error("failed to store inspection", "local_id", localID, "error", err)
		return nil, fmt.Errorf("store %s: %w", localID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

func (r *AuthorityRepository) Get(ctx context.Context, localID string) (*authority.Inspection, error) {
	ins, err := scanInspection(r.db.Pool().QueryRow(ctx, selectInspection, localID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, authority.ErrNotFound
	}
	if err != nil {
		r.log.Error("failed to get inspection", "local_id", localID, "error", err)
		return nil, fmt.Errorf("get %s: %w", localID, err)
	}
	return ins, nil
}

func scanInspection(row pgx.Row) (*authority.Inspection, error) {
	var (
		ins     authority.Inspection
		payload []byte
	)
	err := row.Scan(&ins.LocalID, &ins.ServerID, &ins.Version, &payload, &ins.Checksum, &ins.DeviceID, &ins.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ins.Payload = payload
	return &ins, nil
}
