// Package sqlite is the durable on-device record store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"fieldinspect/internal/domain/inspection"
	"fieldinspect/internal/infrastructure/migration"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// synchronous=FULL makes a committed Put survive power loss in WAL mode.
// _txlock=immediate takes the write lock at BEGIN, so an Update in one process
// waits (up to busy_timeout) for an Update in another instead of interleaving.
const dsnParams = "_foreign_keys=on&_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000&_txlock=immediate"

const columns = `local_id, server_id, payload, version, last_modified, synced, sync_conflict,
	server_version, conflict_server_payload, conflict_server_version`

type Store struct {
	db  *sql.DB
	log *slog.Logger
}

var _ inspection.Store = (*Store)(nil)

// Open creates or upgrades the database at path and returns a ready store.
func Open(path string, log *slog.Logger) (*Store, error) {
	dsn := path + "?" + dsnParams

	if err := migration.NewMigration("sqlite3://"+dsn, migration.EmbedEngine(migrationsFS, "migrations")).Up(); err != nil {
		return nil, fmt.Errorf("%w: migrate %s: %w", inspection.ErrStorage, path, err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", inspection.ErrStorage, path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: open %s: %w", inspection.ErrStorage, path, err)
	}

	return &Store{
		db:  db,
		log: log.With("component", "sqlite_store"),
	}, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) Put(ctx context.Context, rec *inspection.Record) error {
	if rec == nil || rec.LocalID == "" {
		return inspection.ErrEmptyLocalID
	}
	if err := put(ctx, s.db, rec); err != nil {
		s.log.Error("failed to put record", "local_id", rec.LocalID, "error", err)
		return err
	}
	return nil
}

func put(ctx context.Context, db execer, rec *inspection.Record) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO inspection_records (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (local_id) DO UPDATE SET
			server_id = excluded.server_id,
			payload = excluded.payload,
			version = excluded.version,
			last_modified = excluded.last_modified,
			synced = excluded.synced,
			sync_conflict = excluded.sync_conflict,
			server_version = excluded.server_version,
			conflict_server_payload = excluded.conflict_server_payload,
			conflict_server_version = excluded.conflict_server_version`,
		rec.LocalID,
		nullInt64(rec.ServerID),
		nullBytes(rec.Payload),
		rec.Version,
		rec.LastModified.UTC().Format(time.RFC3339Nano),
		rec.Synced,
		rec.SyncConflict,
		nullInt64(rec.ServerVersion),
		nullBytes(rec.ConflictServerPayload),
		nullInt64(rec.ConflictServerVersion),
	)
	if err != nil {
		return fmt.Errorf("%w: put %s: %w", inspection.ErrStorage, rec.LocalID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, localID string) (*inspection.Record, error) {
	return get(ctx, s.db, localID)
}

func get(ctx context.Context, db execer, localID string) (*inspection.Record, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM inspection_records WHERE local_id = ?`, localID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inspection.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", inspection.ErrStorage, localID, err)
	}
	return rec, nil
}

// List runs a fresh query every time the sequence is ranged over.
func (s *Store) List(ctx context.Context, filter inspection.Filter) iter.Seq2[*inspection.Record, error] {
	query, args := listQuery(filter)

	return func(yield func(*inspection.Record, error) bool) {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("%w: list: %w", inspection.ErrStorage, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				yield(nil, fmt.Errorf("%w: list: %w", inspection.ErrStorage, err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("%w: list: %w", inspection.ErrStorage, err))
		}
	}
}

// Update runs fn inside an immediate transaction, which holds the database
// write lock from the read until the commit.
func (s *Store) Update(ctx context.Context, localID string, fn inspection.UpdateFunc) (*inspection.Record, error) {
	var stored *inspection.Record
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := get(ctx, tx, localID)
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			stored = current
			return nil
		}
		if next.LocalID != localID {
			return fmt.Errorf("%w: update of %s returned %q", inspection.ErrInvariant, localID, next.LocalID)
		}
		if err := put(ctx, tx, next); err != nil {
			return err
		}
		stored = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Store) DeleteIf(ctx context.Context, localID string, check func(*inspection.Record) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := get(ctx, tx, localID)
		if errors.Is(err, inspection.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := check(current); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM inspection_records WHERE local_id = ?`, localID); err != nil {
			return fmt.Errorf("%w: delete %s: %w", inspection.ErrStorage, localID, err)
		}
		return nil
	})
}

// inTx commits when fn succeeds and rolls back otherwise. fn's error is returned as is.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", inspection.ErrStorage, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		s.log.Error("failed to commit", "error", err)
		return fmt.Errorf("%w: commit: %w", inspection.ErrStorage, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, localID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM inspection_records WHERE local_id = ?`, localID); err != nil {
		return fmt.Errorf("%w: delete %s: %w", inspection.ErrStorage, localID, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func listQuery(filter inspection.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.Synced != nil {
		where = append(where, "synced = ?")
		args = append(args, *filter.Synced)
	}
	if filter.Conflicted != nil {
		where = append(where, "sync_conflict = ?")
		args = append(args, *filter.Conflicted)
	}

	query := `SELECT ` + columns + ` FROM inspection_records`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	return query + ` ORDER BY local_id`, args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*inspection.Record, error) {
	var (
		rec                   inspection.Record
		serverID              sql.NullInt64
		payload               []byte
		lastModified          string
		serverVersion         sql.NullInt64
		conflictPayload       []byte
		conflictServerVersion sql.NullInt64
	)

	err := row.Scan(
		&rec.LocalID,
		&serverID,
		&payload,
		&rec.Version,
		&lastModified,
		&rec.Synced,
		&rec.SyncConflict,
		&serverVersion,
		&conflictPayload,
		&conflictServerVersion,
	)
	if err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339Nano, lastModified)
	if err != nil {
		return nil, fmt.Errorf("parse last_modified: %w", err)
	}

	rec.LastModified = ts
	rec.Payload = json.RawMessage(payload)
	rec.ServerID = fromNull(serverID)
	rec.ServerVersion = fromNull(serverVersion)
	rec.ConflictServerVersion = fromNull(conflictServerVersion)
	if conflictPayload != nil {
		rec.ConflictServerPayload = json.RawMessage(conflictPayload)
	}
	return &rec, nil
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullBytes(b json.RawMessage) any {
	if b == nil {
		return nil
	}
	return []byte(b)
}

func fromNull(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
