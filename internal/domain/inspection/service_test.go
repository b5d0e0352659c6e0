package inspection

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"testing"
	"time"

	"fieldinspect/internal/lock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

const validPayload = `{"clientName":"ACME Roofing","address":{"street":"1 Main St","city":"Lyon"}}`

// MockStore is a mock implementation of the Store interface for testing
type MockStore struct {
	mock.Mock
	deleted []string
}

func (m *MockStore) Put(ctx context.Context, rec *Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) Get(ctx context.Context, localID string) (*Record, error) {
	args := m.Called(ctx, localID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockStore) List(ctx context.Context, filter Filter) iter.Seq2[*Record, error] {
	args := m.Called(ctx, filter)
	return args.Get(0).(iter.Seq2[*Record, error])
}

func (m *MockStore) Delete(ctx context.Context, localID string) error {
	args := m.Called(ctx, localID)
	return args.Error(0)
}

// Update hands the record configured with Return to fn, the way a store holding
// that record would.
func (m *MockStore) Update(ctx context.Context, localID string, fn UpdateFunc) (*Record, error) {
	args := m.Called(ctx, localID)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	current := args.Get(0).(*Record)
	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}
	if next == nil {
		return current, nil
	}
	return next, nil
}

// DeleteIf runs check against the configured record and reports whether it
// would have been removed through deleted.
func (m *MockStore) DeleteIf(ctx context.Context, localID string, check func(*Record) error) error {
	args := m.Called(ctx, localID)
	current, _ := args.Get(0).(*Record)
	if current == nil {
		return args.Error(1)
	}
	if err := check(current.Clone()); err != nil {
		return err
	}
	m.deleted = append(m.deleted, localID)
	return nil
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

func seqOf(recs []*Record, err error) iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		for _, r := range recs {
			if !yield(r, nil) {
				return
			}
		}
		if err != nil {
			yield(nil, err)
		}
	}
}

func newTestService(store Store) *Service {
	return NewService(store, lock.NewKeyed(), slog.Default(), WithClock(func() time.Time { return t0 }))
}

func TestService_Create(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(store)

	store.On("Put", mock.Anything, mock.MatchedBy(func(r *Record) bool {
		return r.LocalID != "" && r.Version == 1 && !r.Synced && r.LastModified.Equal(t0)
	})).Return(nil)

	rec, err := svc.Create(context.Background(), json.RawMessage(validPayload))
	require.NoError(t, err)
	assert.Len(t, rec.LocalID, 36)
	assert.Equal(t, int64(1), rec.Version)

	store.AssertExpectations(t)
}

func TestService_Create_InvalidPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "empty", payload: ``},
		{name: "not json", payload: `{oops`},
		{name: "missing client", payload: `{"address":{"street":"x","city":"y"}}`},
		{name: "bad severity", payload: `{"clientName":"A","address":{"street":"x","city":"y"},"issues":[{"code":"C1","severity":"meh"}]}`},
		{name: "bad latitude", payload: `{"clientName":"A","address":{"street":"x","city":"y","latitude":123.0}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			svc := newTestService(store)

			_, err := svc.Create(context.Background(), json.RawMessage(tt.payload))
			assert.ErrorIs(t, err, ErrInvalidPayload)
			store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Create_StorageError(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(store)

	store.On("Put", mock.Anything, mock.Anything).Return(ErrStorage)

	_, err := svc.Create(context.Background(), json.RawMessage(validPayload))
	assert.ErrorIs(t, err, ErrStorage)
}

func TestService_Edit(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(store)

	current := ApplyServerAck(New("r1", json.RawMessage(validPayload), t0.Add(-time.Hour)), 1, Int64(3))
	store.On("Update", mock.Anything, "r1").Return(current, nil)

	rec, err := svc.Edit(context.Background(), "r1", json.RawMessage(validPayload))
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Version)
	assert.False(t, rec.Synced)
	assert.Equal(t, int64(1), *rec.ServerVersion)
	assert.Equal(t, t0, rec.LastModified)

	store.AssertExpectations(t)
}

func TestService_Edit_Errors(t *testing.T) {
	conflicted := MarkConflict(New("r1", json.RawMessage(validPayload), t0), 2, json.RawMessage(`{}`), Int64(1))

	tests := []struct {
		name    string
		id      string
		stored  *Record
		getErr  error
		wantErr error
	}{
		{name: "empty id", id: "", wantErr: ErrEmptyLocalID},
		{name: "missing", id: "r1", getErr: ErrNotFound, wantErr: ErrNotFound},
		{name: "conflicted", id: "r1", stored: conflicted, wantErr: ErrConflicted},
		{name: "storage", id: "r1", getErr: ErrStorage, wantErr: ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			svc := newTestService(store)
			if tt.id != "" {
				store.On("Update", mock.Anything, tt.id).Return(tt.stored, tt.getErr)
			}

			_, err := svc.Edit(context.Background(), tt.id, json.RawMessage(validPayload))
			assert.ErrorIs(t, err, tt.wantErr)
			store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Edit_ContextCancelledWhileLocked(t *testing.T) {
	store := new(MockStore)
	locks := lock.NewKeyed()
	svc := NewService(store, locks, slog.Default())

	unlock, err := locks.Lock(context.Background(), "r1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = svc.Edit(ctx, "r1", json.RawMessage(validPayload))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_List(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(store)

	recs := []*Record{New("a", nil, t0), New("b", nil, t0)}
	store.On("List", mock.Anything, PendingFilter()).Return(seqOf(recs, nil))

	got, err := svc.List(context.Background(), PendingFilter())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestService_List_Error(t *testing.T) {
	store := new(MockStore)
	svc := newTestService(store)

	store.On("List", mock.Anything, Filter{}).Return(seqOf([]*Record{New("a", nil, t0)}, errors.New("disk gone")))

	_, err := svc.List(context.Background(), Filter{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestService_Delete(t *testing.T) {
	synced := ApplyServerAck(New("s", nil, t0), 1, Int64(1))
	pending := New("p", nil, t0)

	tests := []struct {
		name       string
		rec        *Record
		getErr     error
		force      bool
		wantErr    error
		wantDelete bool
	}{
		{name: "synced", rec: synced, wantDelete: true},
		{name: "pending refused", rec: pending, wantErr: ErrUnsynced},
		{name: "pending forced", rec: pending, force: true, wantDelete: true},
		{name: "missing is a no-op"},
		{name: "storage", getErr: ErrStorage, wantErr: ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			svc := newTestService(store)

			store.On("DeleteIf", mock.Anything, "x").Return(tt.rec, tt.getErr)

			var err error
			if tt.force {
				err = svc.ForceDelete(context.Background(), "x")
			} else {
				err = svc.Delete(context.Background(), "x")
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantDelete {
				assert.Equal(t, []string{"x"}, store.deleted)
			} else {
				assert.Empty(t, store.deleted)
			}
			store.AssertExpectations(t)
		})
	}
}
