package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// memStore is an in-memory Store with copy-on-write transactions.
type memStore struct {
	mu        sync.Mutex
	records   map[NaturalKey]Record
	seq       int
	now       time.Time
	commitErr error
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[NaturalKey]Record), now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

type memTx struct {
	store   *memStore
	records map[NaturalKey]Record
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := make(map[NaturalKey]Record, len(s.records))
	for k, v := range s.records {
		work[k] = v
	}
	if err := fn(&memTx{store: s, records: work}); err != nil {
		return err
	}
	if s.commitErr != nil {
		return s.commitErr
	}
	s.records = work
	return nil
}

func (s *memStore) Summary(ctx context.Context, ownerID, source string) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum Summary
	for k, r := range s.records {
		if k.OwnerID != ownerID || k.Source != source {
			continue
		}
		sum.Count++
		if sum.LatestCreatedAt == nil || r.CreatedAt.After(*sum.LatestCreatedAt) {
			created := r.CreatedAt
			sum.LatestCreatedAt = &created
		}
	}
	return sum, nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *memStore) get(k NaturalKey) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[k]
	return r, ok
}

func (t *memTx) FindByNaturalKey(ctx context.Context, key NaturalKey) (*Record, error) {
	r, ok := t.records[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (t *memTx) Insert(ctx context.Context, r *Record) error {
	if t.store.insertErr != nil {
		return t.store.insertErr
	}
	t.store.seq++
	r.ID = fmt.Sprintf("rec-%d", t.store.seq)
	r.CreatedAt = t.store.now.Add(time.Duration(t.store.seq) * time.Minute)
	r.UpdatedAt = r.CreatedAt
	t.records[r.Key()] = *r
	return nil
}

func (t *memTx) Update(ctx context.Context, r *Record) error {
	if _, ok := t.records[r.Key()]; !ok {
		return fmt.Errorf("record %s not found", r.Key())
	}
	r.UpdatedAt = t.store.now
	t.records[r.Key()] = *r
	return nil
}
