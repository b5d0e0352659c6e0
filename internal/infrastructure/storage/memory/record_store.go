// Package memory is a non-durable inspection.Store used by tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"

	"fieldinspect/internal/domain/inspection"
)

type RecordStore struct {
	mu      sync.RWMutex
	records map[string]*inspection.Record
}

func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[string]*inspection.Record),
	}
}

func (s *RecordStore) Put(_ context.Context, rec *inspection.Record) error {
	if rec == nil || rec.LocalID == "" {
		return inspection.ErrEmptyLocalID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.LocalID] = rec.Clone()
	return nil
}

func (s *RecordStore) Get(_ context.Context, localID string) (*inspection.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[localID]
	if !ok {
		return nil, inspection.ErrNotFound
	}
	return rec.Clone(), nil
}

// List snapshots the matching keys when iteration starts and yields them in key order.
func (s *RecordStore) List(ctx context.Context, filter inspection.Filter) iter.Seq2[*inspection.Record, error] {
	return func(yield func(*inspection.Record, error) bool) {
		s.mu.RLock()
		snapshot := make([]*inspection.Record, 0, len(s.records))
		for _, rec := range s.records {
			if filter.Match(rec) {
				snapshot = append(snapshot, rec.Clone())
			}
		}
		s.mu.RUnlock()

		sort.Slice(snapshot, func(i, j int) bool {
			return snapshot[i].LocalID < snapshot[j].LocalID
		})

		for _, rec := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Update holds the write lock while fn runs.
func (s *RecordStore) Update(_ context.Context, localID string, fn inspection.UpdateFunc) (*inspection.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[localID]
	if !ok {
		return nil, inspection.ErrNotFound
	}
	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}
	if next == nil {
		return current.Clone(), nil
	}
	if next.LocalID != localID {
		return nil, fmt.Errorf("%w: update of %s returned %q", inspection.ErrInvariant, localID, next.LocalID)
	}
	s.records[localID] = next.Clone()
	return next.Clone(), nil
}

func (s *RecordStore) DeleteIf(_ context.Context, localID string, check func(*inspection.Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[localID]
	if !ok {
		return nil
	}
	if err := check(current.Clone()); err != nil {
		return err
	}
	delete(s.records, localID)
	return nil
}

func (s *RecordStore) Delete(_ context.Context, localID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, localID)
	return nil
}

func (s *RecordStore) Close() error {
	return nil
}

// Len is a test helper.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
