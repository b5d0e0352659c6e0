package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fieldinspect/internal/domain/inspection"
	"fieldinspect/internal/lock"

	"golang.org/x/exp/slog"
)

// DecisionKind names one of the three ways a conflict can be settled.
type DecisionKind string

const (
	DecisionKeepLocal  DecisionKind = "keepLocal"
	DecisionKeepServer DecisionKind = "keepServer"
	DecisionMerged     DecisionKind = "merged"
)

// Decision is how the user settles a conflict.
type Decision struct {
	Kind    DecisionKind
	Payload json.RawMessage
}

// KeepLocal keeps the device copy and pushes it over the server copy.
func KeepLocal() Decision  { return Decision{Kind: DecisionKeepLocal} }
// KeepServer discards the device copy in favour of the server copy.
func KeepServer() Decision { return Decision{Kind: DecisionKeepServer} }

// Merged replaces both copies with a payload the user assembled.
func Merged(payload json.RawMessage) Decision {
	return Decision{Kind: DecisionMerged, Payload: payload}
}

// ApplyDecision returns the resolved record. rec must be conflicted.
func ApplyDecision(rec *inspection.Record, d Decision, now time.Time) (*inspection.Record, error) {
	if !rec.SyncConflict {
		return nil, ErrNotConflicted
	}
	if rec.ConflictServerVersion == nil {
		return nil, fmt.Errorf("%w: %s has no server snapshot", inspection.ErrInvariant, rec.LocalID)
	}
	serverVersion := *rec.ConflictServerVersion

	out := rec.Clone()
	switch d.Kind {
	case DecisionKeepLocal, DecisionMerged:
		if d.Kind == DecisionMerged {
			if len(d.Payload) == 0 {
				return nil, fmt.Errorf("%w: merged payload is empty", ErrInvalidDecision)
			}
			out.Payload = append(json.RawMessage(nil), d.Payload...)
		}
		out.Version = max(rec.Version, serverVersion) + 1
		// The next push must expect what the authority holds now.
		out.ServerVersion = inspection.Int64(serverVersion)
		out.Synced = false
	case DecisionKeepServer:
		out.Payload = append(json.RawMessage(nil), rec.ConflictServerPayload...)
		out.Version = serverVersion
		out.ServerVersion = inspection.Int64(serverVersion)
		out.Synced = true
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, d.Kind)
	}

	out.SyncConflict = false
	out.ConflictServerPayload = nil
	out.ConflictServerVersion = nil
	out.LastModified = now
	return out, nil
}

// Resolver exposes conflicted records and applies user decisions.
type Resolver struct {
	store inspection.Store
	locks *lock.Keyed
	now   func() time.Time
	log   *slog.Logger
}

// NewResolver creates a resolver over the device store.
func NewResolver(store inspection.Store, locks *lock.Keyed, log *slog.Logger) *Resolver {
	return &Resolver{
		store: store,
		locks: locks,
		now:   time.Now,
		log:   log.With("component", "conflict_resolver"),
	}
}

// ListConflicts returns every record waiting for a decision.
func (r *Resolver) ListConflicts(ctx context.Context) ([]*inspection.Record, error) {
	return inspection.Collect(r.store.List(ctx, inspection.ConflictFilter()))
}

// Resolve applies d to a conflicted record and stores the result.
func (r *Resolver) Resolve(ctx context.Context, localID string, d Decision) (*inspection.Record, error) {
	unlock, err := r.locks.Lock(ctx, localID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := r.now().UTC()
	resolved, err := r.store.Update(ctx, localID, func(rec *inspection.Record) (*inspection.Record, error) {
		return ApplyDecision(rec, d, now)
	})
	switch {
	case errors.Is(err, inspection.ErrStorage):
		return nil, fmt.Errorf("persist resolution for %s: %w", localID, err)
	case err != nil:
		return nil, err
	}

	r.log.Info("conflict resolved",
		"local_id", localID,
		"decision", d.Kind,
		"version", resolved.Version,
		"synced", resolved.Synced,
	)
	return resolved, nil
}
