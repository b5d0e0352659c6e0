package sync

import "errors"

var (
	ErrNotConflicted   = errors.New("inspection record is not in conflict")
	ErrInvalidDecision = errors.New("invalid conflict resolution decision")
	ErrSyncInProgress  = errors.New("sync cycle already in progress")
	// ErrUnexpectedAck means the authority accepted a push but reported a version other than the one sent.
	ErrUnexpectedAck = errors.New("authority acknowledged an unexpected version")
)
