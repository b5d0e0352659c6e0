package authority

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("inspection not found")
	ErrInvalidVersion = errors.New("invalid inspection version")
	ErrInvalidPayload = errors.New("invalid inspection payload")
)

// ConflictError carries the stored snapshot the push was rejected against.
type ConflictError struct {
	Stored *Inspection
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("inspection %s is at version %d", e.Stored.LocalID, e.Stored.Version)
}
