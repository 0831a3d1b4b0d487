package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/repo"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/pkg/errno"
)

// StateStore is an in-memory implementation of repo.StateRepository.
type StateStore struct {
	mu      sync.RWMutex
	records map[string]*entity.ExtensionRecord
}

var _ repo.StateRepository = (*StateStore)(nil)

// NewStateStore creates a new StateStore instance.
func NewStateStore() *StateStore {
	return &StateStore{
		records: make(map[string]*entity.ExtensionRecord),
	}
}

// Save stores or replaces a record.
func (s *StateStore) Save(_ context.Context, rec *entity.ExtensionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.ID] = &cp
	return nil
}

// Get returns a record by extension id.
func (s *StateStore) Get(_ context.Context, id string) (*entity.ExtensionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, errno.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

// Delete removes a record.
func (s *StateStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return errno.ErrRecordNotFound
	}
	delete(s.records, id)
	return nil
}

// List returns all records ordered by extension id.
func (s *StateStore) List(_ context.Context) ([]*entity.ExtensionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]*entity.ExtensionRecord, 0, len(s.records))
	for _, rec := range s.records {
		cp := *rec
		recs = append(recs, &cp)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return recs, nil
}
