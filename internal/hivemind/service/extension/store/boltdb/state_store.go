package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/repo"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/pkg/errno"
	"github.com/kiosk404/nubabel/pkg/utils/json"
)

// StateStore implements the StateRepository interface using BoltDB.
type StateStore struct {
	db *bolt.DB
}

var _ repo.StateRepository = (*StateStore)(nil)

// NewStateStore creates a new BoltDB-backed StateStore.
func NewStateStore(db *DB) *StateStore {
	return &StateStore{db: db.Bolt()}
}

// Save stores or replaces the record of an active extension.
func (s *StateStore) Save(_ context.Context, rec *entity.ExtensionRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketExtensions)
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal extension record: %w", err)
		}
		return b.Put([]byte(rec.ID), data)
	})
}

// Get retrieves a record by extension id.
func (s *StateStore) Get(_ context.Context, id string) (*entity.ExtensionRecord, error) {
	var rec entity.ExtensionRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketExtensions).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", errno.ErrRecordNotFound, id)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *StateStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketExtensions).Delete([]byte(id))
	})
}

// List returns all records ordered by extension id.
func (s *StateStore) List(_ context.Context) ([]*entity.ExtensionRecord, error) {
	var recs []*entity.ExtensionRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketExtensions).ForEach(func(_, v []byte) error {
			var rec entity.ExtensionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal extension record: %w", err)
			}
			recs = append(recs, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list extension records: %w", err)
	}
	return recs, nil
}
