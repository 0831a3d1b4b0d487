package boltdb

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/repo"
	"github.com/kiosk404/nubabel/pkg/utils/json"
)

// CatalogStore implements the skill and agent registries using BoltDB.
// Each org scope gets its own sub-bucket.
type CatalogStore struct {
	db *bolt.DB
}

var (
	_ repo.ExtensionRegistry = (*CatalogStore)(nil)
	_ repo.AgentRegistry     = (*CatalogStore)(nil)
)

// NewCatalogStore creates a new BoltDB-backed CatalogStore.
func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db.Bolt()}
}

func (s *CatalogStore) RegisterExtension(_ context.Context, orgScope string, skill *entity.SkillDescriptor) error {
	return s.put(bucketSkills, orgScope, componentKey(skill.ExtensionID, skill.SkillID), skill)
}

func (s *CatalogStore) UnregisterExtension(_ context.Context, orgScope, extensionID string) error {
	return s.deleteExtension(bucketSkills, orgScope, extensionID)
}

func (s *CatalogStore) ListSkills(_ context.Context, orgScope string) ([]*entity.SkillDescriptor, error) {
	var skills []*entity.SkillDescriptor
	err := s.forEach(bucketSkills, orgScope, func(v []byte) error {
		var d entity.SkillDescriptor
		if err := json.Unmarshal(v, &d); err != nil {
			return fmt.Errorf("failed to unmarshal skill: %w", err)
		}
		skills = append(skills, &d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	return skills, nil
}

func (s *CatalogStore) RegisterAgent(_ context.Context, orgScope string, agent *entity.AgentDescriptor) error {
	return s.put(bucketAgents, orgScope, componentKey(agent.ExtensionID, agent.AgentID), agent)
}

func (s *CatalogStore) UnregisterAgents(_ context.Context, orgScope, extensionID string) error {
	return s.deleteExtension(bucketAgents, orgScope, extensionID)
}

func (s *CatalogStore) ListAgents(_ context.Context, orgScope string) ([]*entity.AgentDescriptor, error) {
	var agents []*entity.AgentDescriptor
	err := s.forEach(bucketAgents, orgScope, func(v []byte) error {
		var d entity.AgentDescriptor
		if err := json.Unmarshal(v, &d); err != nil {
			return fmt.Errorf("failed to unmarshal agent: %w", err)
		}
		agents = append(agents, &d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return agents, nil
}

func (s *CatalogStore) put(root []byte, org string, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := orgBucket(tx, root, org, true)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

func (s *CatalogStore) deleteExtension(root []byte, org, extensionID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, _ := orgBucket(tx, root, org, false)
		if b == nil {
			return nil
		}
		return deletePrefix(b, []byte(extensionID+keySep))
	})
}

func (s *CatalogStore) forEach(root []byte, org string, fn func(v []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b, _ := orgBucket(tx, root, org, false)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			return fn(v)
		})
	})
}
