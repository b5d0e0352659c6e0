package inspection

import (
	"errors"
)

var (
	ErrNotFound       = errors.New("inspection record not found")
	ErrEmptyLocalID   = errors.New("inspection local id is empty")
	ErrStorage        = errors.New("local storage failure")
	ErrConflicted     = errors.New("inspection record has an unresolved sync conflict")
	ErrInvalidPayload = errors.New("invalid inspection payload")
	ErrInvariant      = errors.New("inspection sync metadata invariant violated")
	ErrUnsynced       = errors.New("inspection record has changes that were never pushed")
)
