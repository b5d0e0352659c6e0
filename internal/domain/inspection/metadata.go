package inspection

import (
	"encoding/json"
	"fmt"
	"time"
)

// New builds the first version of a record. It has never been pushed.
func New(localID string, payload json.RawMessage, now time.Time) *Record {
	return &Record{
		LocalID:      localID,
		Payload:      cloneRaw(payload),
		Version:      1,
		LastModified: now,
	}
}

// NextVersion is the version the next local edit of rec gets.
func NextVersion(rec *Record) int64 {
	return rec.Version + 1
}

// IsConflicted reports whether rec waits for a user decision.
func IsConflicted(rec *Record) bool {
	return rec.SyncConflict
}

// NeedsPush reports whether rec holds local changes the authority has not acknowledged.
func NeedsPush(rec *Record) bool {
	return !rec.Synced
}

// ApplyServerAck marks rec as synced at serverVersion.
// The caller must have checked serverVersion == rec.Version.
func ApplyServerAck(rec *Record, serverVersion int64, serverID *int64) *Record {
	out := rec.Clone()
	out.Synced = true
	out.SyncConflict = false
	out.ServerVersion = Int64(serverVersion)
	if serverID != nil {
		out.ServerID = cloneInt64(serverID)
	}
	out.ConflictServerPayload = nil
	out.ConflictServerVersion = nil
	return out
}

// RecordPushedAhead handles an acknowledgement for a version older than the
// current local one: the server now holds serverVersion but a newer local edit
// still has to be pushed.
func RecordPushedAhead(rec *Record, serverVersion int64, serverID *int64) *Record {
	out := rec.Clone()
	out.Synced = false
	out.ServerVersion = Int64(serverVersion)
	if serverID != nil {
		out.ServerID = cloneInt64(serverID)
	}
	return out
}

// MarkConflict keeps the local payload and stores the server snapshot next to it.
func MarkConflict(rec *Record, serverVersion int64, serverPayload json.RawMessage, serverID *int64) *Record {
	out := rec.Clone()
	out.Synced = false
	out.SyncConflict = true
	out.ConflictServerVersion = Int64(serverVersion)
	out.ConflictServerPayload = cloneRaw(serverPayload)
	if serverID != nil {
		out.ServerID = cloneInt64(serverID)
	}
	return out
}

// Edit applies a local mutation. Conflicted records only change through a resolution.
func Edit(rec *Record, payload json.RawMessage, now time.Time) (*Record, error) {
	if rec.SyncConflict {
		return nil, ErrConflicted
	}
	out := rec.Clone()
	out.Payload = cloneRaw(payload)
	out.Version = NextVersion(rec)
	out.LastModified = now
	out.Synced = false
	return out, nil
}

// CheckInvariants validates the metadata relations every stored record must satisfy.
func CheckInvariants(rec *Record) error {
	if rec.LocalID == "" {
		return ErrEmptyLocalID
	}
	if rec.Version < 1 {
		return fmt.Errorf("%w: version %d < 1", ErrInvariant, rec.Version)
	}
	if rec.Synced {
		if rec.SyncConflict {
			return fmt.Errorf("%w: synced record is conflicted", ErrInvariant)
		}
		if rec.ServerVersion == nil || *rec.ServerVersion != rec.Version {
			return fmt.Errorf("%w: synced record server version differs from version %d", ErrInvariant, rec.Version)
		}
	}
	if rec.SyncConflict {
		if rec.ServerID == nil {
			return fmt.Errorf("%w: conflicted record was never pushed", ErrInvariant)
		}
		if rec.ConflictServerVersion == nil {
			return fmt.Errorf("%w: conflicted record has no server snapshot", ErrInvariant)
		}
	}
	return nil
}
