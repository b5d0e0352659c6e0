package inspection

import (
	"context"
	"iter"
)

// UpdateFunc receives the stored record and returns its replacement. A nil
// record leaves the row as it is. fn must not call back into the store.
type UpdateFunc func(current *Record) (*Record, error)

// Store is the single source of truth for records on the device.
// Put replaces the whole record atomically, so readers never need a lock.
// Several processes may share one store; read-modify-write goes through Update.
type Store interface {
	// Put returns only after the record is durably written.
	Put(ctx context.Context, rec *Record) error
	// Get returns ErrNotFound for a missing key.
	Get(ctx context.Context, localID string) (*Record, error)
	// List yields records matching filter. Every range over the result re-reads the store.
	List(ctx context.Context, filter Filter) iter.Seq2[*Record, error]
	// Update reads the record and writes fn's result as one step that no other
	// writer, in this process or another, can interleave with. Errors from fn are
	// returned unchanged and nothing is written. Returns the record as stored.
	Update(ctx context.Context, localID string, fn UpdateFunc) (*Record, error)
	// Delete is idempotent.
	Delete(ctx context.Context, localID string) error
	// DeleteIf removes the record only when check accepts it, in the same step as
	// the read. A missing record is not an error.
	DeleteIf(ctx context.Context, localID string, check func(current *Record) error) error
	Close() error
}

// Collect drains a List sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[*Record, error]) ([]*Record, error) {
	var out []*Record
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
