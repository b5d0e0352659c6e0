package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/exp/slog"
)

type Servicer interface {
	Push(ctx context.Context, cmd PushCommand) (*Inspection, error)
	Get(ctx context.Context, localID string) (*Inspection, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
		log:  log.With("component", "authority_service"),
	}
}

// Push stores cmd if the device saw the current version, otherwise it fails with
// a *ConflictError holding what is stored.
func (s *Service) Push(ctx context.Context, cmd PushCommand) (*Inspection, error) {
	if err := validate(cmd); err != nil {
		return nil, err
	}

	checksum := Checksum(cmd.Payload)
	stored, err := s.repo.Apply(ctx, cmd.LocalID, func(current *Inspection) (*Inspection, error) {
		return decide(current, cmd, checksum, s.now().UTC())
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			s.log.Info("push rejected",
				"local_id", cmd.LocalID,
				"device_id", cmd.DeviceID,
				"version", cmd.Version,
				"stored_version", conflict.Stored.Version,
			)
			return nil, err
		}
		s.log.Error("failed to apply push", "local_id", cmd.LocalID, "error", err)
		return nil, fmt.Errorf("apply push: %w", err)
	}

	s.log.Debug("push accepted", "local_id", cmd.LocalID, "version", stored.Version, "server_id", stored.ServerID)
	return stored, nil
}

func (s *Service) Get(ctx context.Context, localID string) (*Inspection, error) {
	return s.repo.Get(ctx, localID)
}

func validate(cmd PushCommand) error {
	if cmd.Version < 1 {
		return fmt.Errorf("%w: version %d < 1", ErrInvalidVersion, cmd.Version)
	}
	if cmd.ExpectedServerVersion != nil && cmd.Version <= *cmd.ExpectedServerVersion {
		return fmt.Errorf("%w: version %d must exceed expected server version %d",
			ErrInvalidVersion, cmd.Version, *cmd.ExpectedServerVersion)
	}
	if len(cmd.Payload) == 0 || !json.Valid(cmd.Payload) {
		return ErrInvalidPayload
	}
	return nil
}

// decide is the version check. A missing row is always accepted: localIds are
// generated on devices and the authority never deletes.
func decide(current *Inspection, cmd PushCommand, checksum []byte, now time.Time) (*Inspection, error) {
	next := &Inspection{
		LocalID:   cmd.LocalID,
		Version:   cmd.Version,
		Payload:   cmd.Payload,
		Checksum:  checksum,
		DeviceID:  cmd.DeviceID,
		UpdatedAt: now,
	}

	switch {
	case current == nil:
		return next, nil
	case cmd.ExpectedServerVersion != nil && *cmd.ExpectedServerVersion == current.Version:
		next.ServerID = current.ServerID
		return next, nil
	case current.Version == cmd.Version && bytes.Equal(current.Checksum, checksum):
		// Re-push after a lost acknowledgement.
		return nil, nil
	default:
		return nil, &ConflictError{Stored: current}
	}
}

func Checksum(payload json.RawMessage) []byte {
	sum := blake2b.Sum256(payload)
	return sum[:]
}
