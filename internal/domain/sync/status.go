package sync

import (
	"context"
	"fmt"

	"fieldinspect/internal/domain/inspection"
)

type Status struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Conflicts int `json:"conflicts"`
	Synced    int `json:"synced"`
}

func (s Status) String() string {
	return fmt.Sprintf("%d records pending sync, %d conflicts need resolution", s.Pending, s.Conflicts)
}

type StatusReporter struct {
	store inspection.Store
}

// NewStatusReporter creates a reporter over the device store.
func NewStatusReporter(store inspection.Store) *StatusReporter {
	return &StatusReporter{store: store}
}

// Status counts records by sync state in a single pass.
func (r *StatusReporter) Status(ctx context.Context) (Status, error) {
	var st Status
	for rec, err := range r.store.List(ctx, inspection.Filter{}) {
		if err != nil {
			return Status{}, err
		}
		st.Total++
		switch rec.State() {
		case inspection.StateSynced:
			st.Synced++
		case inspection.StateConflicted:
			st.Conflicts++
		default:
			st.Pending++
		}
	}
	return st, nil
}
