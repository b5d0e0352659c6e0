package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"fieldinspect/internal/domain/inspection"
	"fieldinspect/internal/lock"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

// Outcome is what a single push did to a record.
type Outcome string

const (
	OutcomeSynced   Outcome = "synced"
	OutcomeConflict Outcome = "conflict"
	// OutcomePending covers network failures and cancellation. The record is untouched.
	OutcomePending Outcome = "pending"
	OutcomeSkipped Outcome = "skipped"
	// OutcomeAdvanced means the authority stored the pushed version, but the record
	// was edited locally while the push was in flight and still needs another push.
	OutcomeAdvanced Outcome = "advanced"
)

const (
	defaultParallelism = 4
	defaultPushTimeout = 30 * time.Second
)

// Engine pushes pending records to the authority and records what came back.
type Engine struct {
	store       inspection.Store
	remote      Remote
	locks       *lock.Keyed
	parallelism int
	pushTimeout time.Duration
	log         *slog.Logger
}

type EngineOption func(*Engine)

// WithParallelism bounds how many distinct records are pushed at once.
func WithParallelism(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithPushTimeout bounds a single push request.
func WithPushTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.pushTimeout = d
		}
	}
}

// NewEngine creates a sync engine. locks must be shared with every other writer in the process.
func NewEngine(store inspection.Store, remote Remote, locks *lock.Keyed, log *slog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		store:       store,
		remote:      remote,
		locks:       locks,
		parallelism: defaultParallelism,
		pushTimeout: defaultPushTimeout,
		log:         log.With("component", "sync_engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PushOne pushes a single record and persists the outcome. Only storage failures
// are returned as errors.
func (e *Engine) PushOne(ctx context.Context, localID string) (Outcome, error) {
	rec, err := e.store.Get(ctx, localID)
	if err != nil {
		return "", err
	}
	if !inspection.NeedsPush(rec) || inspection.IsConflicted(rec) {
		return OutcomeSkipped, nil
	}

	req := requestFor(rec)
	log := e.log.With("local_id", localID, "version", req.Version)

	pushCtx, cancel := context.WithTimeout(ctx, e.pushTimeout)
	res, err := e.remote.Push(pushCtx, req)
	cancel()
	if err != nil {
		log.Warn("push failed, record stays pending", "error", err)
		return OutcomePending, nil
	}

	unlock, err := e.locks.Lock(ctx, localID)
	if err != nil {
		log.Warn("push result dropped", "error", err)
		return OutcomePending, nil
	}
	defer unlock()

	// The record is re-read and written in one store step: an edit, possibly from
	// another process, may have landed while the push was in flight.
	var (
		outcome Outcome
		current *inspection.Record
		written bool
	)
	_, err = e.store.Update(ctx, localID, func(stored *inspection.Record) (*inspection.Record, error) {
		current = stored
		next, o, err := reconcile(stored, req, res)
		outcome = o
		if err != nil || next == nil {
			return nil, err
		}
		// A cancelled caller must find the record exactly as it was.
		if ctx.Err() != nil {
			outcome = OutcomePending
			return nil, nil
		}
		written = true
		return next, nil
	})
	switch {
	case errors.Is(err, inspection.ErrNotFound):
		log.Info("record deleted during push")
		return OutcomeSkipped, nil
	case errors.Is(err, ErrUnexpectedAck):
		log.Error("push result not applied", "error", err)
		return OutcomePending, nil
	case err != nil && ctx.Err() != nil:
		return OutcomePending, nil
	case err != nil:
		return "", fmt.Errorf("persist push outcome for %s: %w", localID, err)
	case !written:
		return outcome, nil
	}

	switch outcome {
	case OutcomeConflict:
		log.Warn("version conflict", "server_version", res.ServerVersion, "expected", req.ExpectedServerVersion)
	case OutcomeAdvanced:
		log.Info("pushed version superseded by local edit", "current_version", current.Version)
	default:
		log.Debug("record synced", "server_id", res.ServerID)
	}
	return outcome, nil
}

// reconcile computes the record to store for a push response. A nil record means
// nothing is written.
func reconcile(current *inspection.Record, req PushRequest, res PushResult) (*inspection.Record, Outcome, error) {
	serverID := inspection.Int64(res.ServerID)

	if !res.Accepted {
		return inspection.MarkConflict(current, res.ServerVersion, res.Payload, serverID), OutcomeConflict, nil
	}

	if res.ServerVersion != req.Version {
		return nil, OutcomePending, fmt.Errorf("%w: sent %d, got %d", ErrUnexpectedAck, req.Version, res.ServerVersion)
	}

	switch {
	case current.SyncConflict:
		// Another push for this record already recorded a conflict.
		return nil, OutcomeConflict, nil
	case current.Version == req.Version:
		return inspection.ApplyServerAck(current, res.ServerVersion, serverID), OutcomeSynced, nil
	case current.Version > req.Version:
		return inspection.RecordPushedAhead(current, res.ServerVersion, serverID), OutcomeAdvanced, nil
	default:
		return nil, OutcomePending, nil
	}
}

// CycleResult summarises one pass over the pending records.
type CycleResult struct {
	StartedAt time.Time
	Duration  time.Duration
	Total     int
	Outcomes  map[string]Outcome
}

// Count returns how many records of the cycle ended with o.
func (r *CycleResult) Count(o Outcome) int {
	n := 0
	for _, got := range r.Outcomes {
		if got == o {
			n++
		}
	}
	return n
}

// AllFailed reports whether there was work and none of it reached the authority.
func (r *CycleResult) AllFailed() bool {
	return r.Total > 0 && r.Count(OutcomePending) == r.Total
}

// Progress is called after each record of a cycle finishes.
type Progress func(done, total int)

type cycleOptions struct {
	progress Progress
}

type CycleOption func(*cycleOptions)

// WithProgress reports cycle progress to p.
func WithProgress(p Progress) CycleOption {
	return func(o *cycleOptions) { o.progress = p }
}

// RunCycle pushes every pending record once. Records are independent: a partial
// cycle is a normal result, and network failures or conflicts are recorded in the
// records rather than returned. Storage errors abort the cycle.
func (e *Engine) RunCycle(ctx context.Context, opts ...CycleOption) (*CycleResult, error) {
	var o cycleOptions
	for _, opt := range opts {
		opt(&o)
	}

	result := &CycleResult{
		StartedAt: time.Now(),
		Outcomes:  make(map[string]Outcome),
	}
	defer func() { result.Duration = time.Since(result.StartedAt) }()

	pending, err := inspection.Collect(e.store.List(ctx, inspection.PendingFilter()))
	if err != nil {
		return result, fmt.Errorf("list pending records: %w", err)
	}
	result.Total = len(pending)
	if o.progress != nil {
		o.progress(0, result.Total)
	}
	if result.Total == 0 {
		return result, nil
	}

	e.log.Info("sync cycle started", "pending", result.Total)

	var (
		mu   gosync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for _, rec := range pending {
		id := rec.LocalID
		g.Go(func() error {
			outcome, err := e.PushOne(gctx, id)
			if errors.Is(err, inspection.ErrNotFound) {
				outcome, err = OutcomeSkipped, nil
			}
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			result.Outcomes[id] = outcome
			done++
			if o.progress != nil {
				o.progress(done, result.Total)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.log.Error("sync cycle aborted", "error", err)
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	e.log.Info("sync cycle finished",
		"synced", result.Count(OutcomeSynced),
		"conflicts", result.Count(OutcomeConflict),
		"pending", result.Count(OutcomePending)+result.Count(OutcomeAdvanced),
	)
	return result, nil
}
