package sync

import (
	"context"
	"encoding/json"
	"testing"

	"fieldinspect/internal/domain/inspection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusReporter(t *testing.T) {
	f := newFixture(t)
	f.put(t, inspection.New("p1", json.RawMessage(`{}`), t0))
	f.put(t, inspection.New("p2", json.RawMessage(`{}`), t0))
	f.put(t, inspection.ApplyServerAck(inspection.New("s1", json.RawMessage(`{}`), t0), 1, inspection.Int64(1)))
	f.put(t, conflicted(2, 3))

	st, err := NewStatusReporter(f.store).Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Status{Total: 4, Pending: 2, Conflicts: 1, Synced: 1}, st)
	assert.Equal(t, "2 records pending sync, 1 conflicts need resolution", st.String())
}

func TestStatusReporter_Cancelled(t *testing.T) {
	f := newFixture(t)
	f.put(t, inspection.New("p1", json.RawMessage(`{}`), t0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStatusReporter(f.store).Status(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
