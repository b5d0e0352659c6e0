package sync

import (
	"bytes"
	"context"
	"encoding/json"
	gosync "sync"
	"testing"
	"time"

	"fieldinspect/internal/domain/inspection"
	"fieldinspect/internal/infrastructure/storage/memory"
	"fieldinspect/internal/lock"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

var t0 = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type storedRow struct {
	id      int64
	version int64
	payload json.RawMessage
}

// fakeAuthority applies the same version check as the real server.
type fakeAuthority struct {
	mu     gosync.Mutex
	rows   map[string]*storedRow
	nextID int64
	pushes int
	// beforePush runs before the version check, outside the authority lock.
	beforePush func(req PushRequest)
}

func newFakeAuthority() *fakeAuthority {
	return &fakeAuthority{rows: make(map[string]*storedRow), nextID: 100}
}

func (a *fakeAuthority) Push(ctx context.Context, req PushRequest) (PushResult, error) {
	if a.beforePush != nil {
		a.beforePush(req)
	}
	if err := ctx.Err(); err != nil {
		return PushResult{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.pushes++

	row, ok := a.rows[req.LocalID]
	switch {
	case !ok:
		a.nextID++
		row = &storedRow{id: a.nextID}
		a.rows[req.LocalID] = row
	case req.ExpectedServerVersion != nil && *req.ExpectedServerVersion == row.version:
	case row.version == req.Version && bytes.Equal(row.payload, req.Payload):
		return PushResult{Accepted: true, ServerID: row.id, ServerVersion: row.version}, nil
	default:
		return PushResult{ServerID: row.id, ServerVersion: row.version, Payload: row.payload}, nil
	}

	row.version = req.Version
	row.payload = append(json.RawMessage(nil), req.Payload...)
	return PushResult{Accepted: true, ServerID: row.id, ServerVersion: row.version}, nil
}

// setRemote simulates another device having pushed first.
func (a *fakeAuthority) setRemote(localID string, version int64, payload string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	row, ok := a.rows[localID]
	if !ok {
		a.nextID++
		row = &storedRow{id: a.nextID}
		a.rows[localID] = row
	}
	row.version = version
	row.payload = json.RawMessage(payload)
}

func (a *fakeAuthority) version(localID string) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if row, ok := a.rows[localID]; ok {
		return row.version
	}
	return 0
}

// MockRemote is a mock implementation of the Remote interface for testing
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) Push(ctx context.Context, req PushRequest) (PushResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(PushResult), args.Error(1)
}

// failingStore fails every write once putErr is set.
type failingStore struct {
	inspection.Store
	mu     gosync.Mutex
	putErr error
}

func (s *failingStore) err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putErr
}

func (s *failingStore) Put(ctx context.Context, rec *inspection.Record) error {
	if err := s.err(); err != nil {
		return err
	}
	return s.Store.Put(ctx, rec)
}

func (s *failingStore) Update(ctx context.Context, localID string, fn inspection.UpdateFunc) (*inspection.Record, error) {
	if err := s.err(); err != nil {
		return nil, err
	}
	return s.Store.Update(ctx, localID, fn)
}

type fixture struct {
	store *memory.RecordStore
	locks *lock.Keyed
	auth  *fakeAuthority
	eng   *Engine
}

func newFixture(t *testing.T, opts ...EngineOption) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewRecordStore(),
		locks: lock.NewKeyed(),
		auth:  newFakeAuthority(),
	}
	f.eng = NewEngine(f.store, f.auth, f.locks, slog.Default(), opts...)
	return f
}

func (f *fixture) put(t *testing.T, rec *inspection.Record) {
	t.Helper()
	require.NoError(t, f.store.Put(context.Background(), rec))
}

func (f *fixture) get(t *testing.T, id string) *inspection.Record {
	t.Helper()
	rec, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, inspection.CheckInvariants(rec))
	return rec
}
