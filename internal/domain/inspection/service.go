package inspection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fieldinspect/internal/lock"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Servicer is what the UI layer (CLI today) uses to create and edit records.
type Servicer interface {
	Create(ctx context.Context, payload json.RawMessage) (*Record, error)
	Edit(ctx context.Context, localID string, payload json.RawMessage) (*Record, error)
	Get(ctx context.Context, localID string) (*Record, error)
	List(ctx context.Context, filter Filter) ([]*Record, error)
	Delete(ctx context.Context, localID string) error
	ForceDelete(ctx context.Context, localID string) error
}

// Service creates and edits records on the device.
type Service struct {
	store     Store
	locks     *lock.Keyed
	validator *PayloadValidator
	now       func() time.Time
	log       *slog.Logger
}

type ServiceOption func(*Service)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a new inspection service.
func NewService(store Store, locks *lock.Keyed, log *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		locks:     locks,
		validator: NewPayloadValidator(),
		now:       time.Now,
		log:       log.With("component", "inspection_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a brand new record at version 1 with a generated local id.
func (s *Service) Create(ctx context.Context, payload json.RawMessage) (*Record, error) {
	if err := s.validator.Validate(payload); err != nil {
		return nil, err
	}

	rec := New(uuid.NewString(), payload, s.now().UTC())
	if err := s.store.Put(ctx, rec); err != nil {
		s.log.Error("failed to store new record", "local_id", rec.LocalID, "error", err)
		return nil, fmt.Errorf("create record: %w", err)
	}

	s.log.Info("record created", "local_id", rec.LocalID)
	return rec, nil
}

// Edit replaces the payload and bumps the version. Conflicted records are refused.
func (s *Service) Edit(ctx context.Context, localID string, payload json.RawMessage) (*Record, error) {
	if localID == "" {
		return nil, ErrEmptyLocalID
	}
	if err := s.validator.Validate(payload); err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, localID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now().UTC()
	next, err := s.store.Update(ctx, localID, func(current *Record) (*Record, error) {
		return Edit(current, payload, now)
	})
	switch {
	case errors.Is(err, ErrStorage):
		s.log.Error("failed to store edited record", "local_id", localID, "error", err)
		return nil, fmt.Errorf("edit record: %w", err)
	case err != nil:
		return nil, err
	}

	s.log.Debug("record edited", "local_id", localID, "version", next.Version)
	return next, nil
}

func (s *Service) Get(ctx context.Context, localID string) (*Record, error) {
	return s.store.Get(ctx, localID)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]*Record, error) {
	recs, err := Collect(s.store.List(ctx, filter))
	if err != nil {
		s.log.Error("failed to list records", "error", err)
		return nil, fmt.Errorf("list records: %w", err)
	}
	return recs, nil
}

// Delete removes a record locally. Records still waiting for a push are refused
// unless force is set, otherwise their edits would silently vanish.
func (s *Service) Delete(ctx context.Context, localID string) error {
	return s.delete(ctx, localID, false)
}

// ForceDelete removes a record even when it still has unpushed changes.
func (s *Service) ForceDelete(ctx context.Context, localID string) error {
	return s.delete(ctx, localID, true)
}

func (s *Service) delete(ctx context.Context, localID string, force bool) error {
	unlock, err := s.locks.Lock(ctx, localID)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.store.DeleteIf(ctx, localID, func(current *Record) error {
		if !force && NeedsPush(current) {
			return ErrUnsynced
		}
		return nil
	})
	switch {
	case errors.Is(err, ErrStorage):
		return fmt.Errorf("delete record: %w", err)
	case err != nil:
		return err
	}
	s.log.Info("record deleted", "local_id", localID, "forced", force)
	return nil
}
