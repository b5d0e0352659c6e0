package inspection

import (
	"encoding/json"
	"time"
)

// Record is the unit of synchronization. Payload is opaque to the sync layer.
type Record struct {
	LocalID       string          `json:"localId"`
	ServerID      *int64          `json:"serverId,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	Version       int64           `json:"version"`
	LastModified  time.Time       `json:"lastModified"`
	Synced        bool            `json:"synced"`
	SyncConflict  bool            `json:"syncConflict"`
	ServerVersion *int64          `json:"serverVersion,omitempty"`

	// Server snapshot kept while SyncConflict is set.
	ConflictServerPayload json.RawMessage `json:"conflictServerPayload,omitempty"`
	ConflictServerVersion *int64          `json:"conflictServerVersion,omitempty"`
}

// Clone returns a deep copy so callers never share slices or pointers with the store.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.ServerID = cloneInt64(r.ServerID)
	c.ServerVersion = cloneInt64(r.ServerVersion)
	c.ConflictServerVersion = cloneInt64(r.ConflictServerVersion)
	c.Payload = cloneRaw(r.Payload)
	c.ConflictServerPayload = cloneRaw(r.ConflictServerPayload)
	return &c
}

// SyncState is a derived, display-oriented view of the metadata flags.
type SyncState string

const (
	StatePending    SyncState = "pending"
	StateSynced     SyncState = "synced"
	StateConflicted SyncState = "conflicted"
)

// State collapses the sync flags into one display value.
func (r *Record) State() SyncState {
	switch {
	case r.SyncConflict:
		return StateConflicted
	case r.Synced:
		return StateSynced
	default:
		return StatePending
	}
}

// Filter selects records for List. Nil fields match everything.
type Filter struct {
	Synced     *bool
	Conflicted *bool
}

// Match reports whether rec satisfies the filter.
func (f Filter) Match(rec *Record) bool {
	if f.Synced != nil && rec.Synced != *f.Synced {
		return false
	}
	if f.Conflicted != nil && rec.SyncConflict != *f.Conflicted {
		return false
	}
	return true
}

// PendingFilter matches records that still have to be pushed and are not waiting on a resolution.
func PendingFilter() Filter {
	return Filter{Synced: boolPtr(false), Conflicted: boolPtr(false)}
}

// ConflictFilter matches records waiting for a resolution.
func ConflictFilter() Filter {
	return Filter{Conflicted: boolPtr(true)}
}

// UnsyncedFilter matches every record the authority has not acknowledged, conflicts included.
func UnsyncedFilter() Filter {
	return Filter{Synced: boolPtr(false)}
}

// SyncedFilter matches records whose current version the authority holds.
func SyncedFilter() Filter {
	return Filter{Synced: boolPtr(true), Conflicted: boolPtr(false)}
}

func boolPtr(b bool) *bool { return &b }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneRaw(m json.RawMessage) json.RawMessage {
	if m == nil {
		return nil
	}
	c := make(json.RawMessage, len(m))
	copy(c, m)
	return c
}
