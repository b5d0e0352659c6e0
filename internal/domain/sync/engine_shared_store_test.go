package sync

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"fieldinspect/internal/domain/inspection"
	"fieldinspect/internal/infrastructure/storage/sqlite"
	"fieldinspect/internal/lock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

const (
	draftPayload  = `{"clientName":"Draft","address":{"street":"1 Main St","city":"Lyon"}}`
	editedPayload = `{"clientName":"Edited","address":{"street":"1 Main St","city":"Lyon"}}`
)

// hookedStore runs hook at a chosen point of every Update.
type hookedStore struct {
	inspection.Store
	beforeUpdate func()
	insideUpdate func()
}

func (s *hookedStore) Update(ctx context.Context, localID string, fn inspection.UpdateFunc) (*inspection.Record, error) {
	if s.beforeUpdate != nil {
		s.beforeUpdate()
	}
	return s.Store.Update(ctx, localID, func(current *inspection.Record) (*inspection.Record, error) {
		if s.insideUpdate != nil {
			s.insideUpdate()
		}
		return fn(current)
	})
}

// twoProcesses opens the same database file twice, the way `sync --watch` and
// `record edit` do from separate processes.
func twoProcesses(t *testing.T) (editor *inspection.Service, syncStore *sqlite.Store, localID string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.db")

	a, err := sqlite.Open(path, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	b, err := sqlite.Open(path, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	editor = inspection.NewService(a, lock.NewKeyed(), slog.Default())
	rec, err := editor.Create(context.Background(), json.RawMessage(draftPayload))
	require.NoError(t, err)
	return editor, b, rec.LocalID
}

func TestEngine_PushOne_EditFromOtherProcessBeforeApply(t *testing.T) {
	ctx := context.Background()
	editor, shared, id := twoProcesses(t)

	store := &hookedStore{Store: shared}
	store.beforeUpdate = func() {
		_, err := editor.Edit(ctx, id, json.RawMessage(editedPayload))
		require.NoError(t, err)
	}
	auth := newFakeAuthority()
	eng := NewEngine(store, auth, lock.NewKeyed(), slog.Default())

	outcome, err := eng.PushOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvanced, outcome)

	got, err := shared.Get(ctx, id)
	require.NoError(t, err)
	require.NoError(t, inspection.CheckInvariants(got))
	assert.Equal(t, int64(2), got.Version)
	assert.False(t, got.Synced)
	assert.Equal(t, int64(1), *got.ServerVersion)
	assert.JSONEq(t, editedPayload, string(got.Payload))
}

func TestEngine_PushOne_EditFromOtherProcessWaitsForApply(t *testing.T) {
	ctx := context.Background()
	editor, shared, id := twoProcesses(t)

	editDone := make(chan error, 1)
	store := &hookedStore{Store: shared}
	store.insideUpdate = func() {
		go func() {
			_, err := editor.Edit(ctx, id, json.RawMessage(editedPayload))
			editDone <- err
		}()
		select {
		case err := <-editDone:
			t.Errorf("edit finished while the push result was being applied: %v", err)
		case <-time.After(150 * time.Millisecond):
		}
	}
	auth := newFakeAuthority()
	eng := NewEngine(store, auth, lock.NewKeyed(), slog.Default())

	outcome, err := eng.PushOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, outcome)

	select {
	case err := <-editDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("edit never finished")
	}

	// The edit lands on top of the acknowledged version and is still pending.
	got, err := shared.Get(ctx, id)
	require.NoError(t, err)
	require.NoError(t, inspection.CheckInvariants(got))
	assert.Equal(t, int64(2), got.Version)
	assert.False(t, got.Synced)
	assert.Equal(t, int64(1), *got.ServerVersion)
	assert.JSONEq(t, editedPayload, string(got.Payload))

	store.insideUpdate = nil
	outcome, err = eng.PushOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, outcome)
	assert.Equal(t, int64(2), auth.version(id))
}
