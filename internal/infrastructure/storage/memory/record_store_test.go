package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"fieldinspect/internal/domain/inspection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()

	rec := inspection.New("a1", json.RawMessage(`{"clientName":"ACME"}`), time.Now())
	require.NoError(t, s.Put(ctx, rec))

	// the store must not alias the caller's record
	rec.Payload[2] = 'X'

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"clientName":"ACME"}`, string(got.Payload))

	require.NoError(t, s.Delete(ctx, "a1"))
	require.NoError(t, s.Delete(ctx, "a1"))

	_, err = s.Get(ctx, "a1")
	assert.ErrorIs(t, err, inspection.ErrNotFound)
}

func TestRecordStore_PutEmptyID(t *testing.T) {
	s := NewRecordStore()
	err := s.Put(context.Background(), &inspection.Record{})
	assert.ErrorIs(t, err, inspection.ErrEmptyLocalID)
}

func TestRecordStore_ListRestartable(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()
	now := time.Now()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Put(ctx, inspection.New(id, json.RawMessage(`{}`), now)))
	}
	synced := inspection.ApplyServerAck(inspection.New("d", json.RawMessage(`{}`), now), 1, inspection.Int64(4))
	require.NoError(t, s.Put(ctx, synced))

	seq := s.List(ctx, inspection.UnsyncedFilter())

	first, err := inspection.Collect(seq)
	require.NoError(t, err)
	second, err := inspection.Collect(seq)
	require.NoError(t, err)

	ids := func(recs []*inspection.Record) []string {
		out := make([]string, 0, len(recs))
		for _, r := range recs {
			out = append(out, r.LocalID)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids(first))
	assert.Equal(t, ids(first), ids(second))
}

func TestRecordStore_PutAcceptsAnyRecordWithID(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()

	require.NoError(t, s.Put(ctx, &inspection.Record{LocalID: "bare"}))

	got, err := s.Get(ctx, "bare")
	require.NoError(t, err)
	assert.Nil(t, got.Payload)
	assert.Equal(t, int64(0), got.Version)
}

func TestRecordStore_Update(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()
	require.NoError(t, s.Put(ctx, inspection.New("a1", json.RawMessage(`{}`), time.Now())))

	got, err := s.Update(ctx, "a1", func(cur *inspection.Record) (*inspection.Record, error) {
		return inspection.ApplyServerAck(cur, cur.Version, inspection.Int64(5)), nil
	})
	require.NoError(t, err)
	assert.True(t, got.Synced)

	boom := errors.New("boom")
	_, err = s.Update(ctx, "a1", func(cur *inspection.Record) (*inspection.Record, error) {
		cur.Version = 99
		return cur, boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, stored.Synced)
	assert.Equal(t, int64(1), stored.Version)

	_, err = s.Update(ctx, "zz", func(cur *inspection.Record) (*inspection.Record, error) { return cur, nil })
	assert.ErrorIs(t, err, inspection.ErrNotFound)
}

func TestRecordStore_DeleteIf(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore()
	require.NoError(t, s.Put(ctx, inspection.New("a1", json.RawMessage(`{}`), time.Now())))

	err := s.DeleteIf(ctx, "a1", func(*inspection.Record) error { return inspection.ErrUnsynced })
	assert.ErrorIs(t, err, inspection.ErrUnsynced)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.DeleteIf(ctx, "a1", func(*inspection.Record) error { return nil }))
	assert.Equal(t, 0, s.Len())
	assert.NoError(t, s.DeleteIf(ctx, "a1", func(*inspection.Record) error { return inspection.ErrUnsynced }))
}
