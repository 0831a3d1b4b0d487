package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/repo"
)

// CatalogStore is an in-memory implementation of repo.ExtensionRegistry and
// repo.AgentRegistry. Descriptors are keyed by org scope, then by
// "<extension>/<component>".
type CatalogStore struct {
	mu     sync.RWMutex
	skills map[string]map[string]*entity.SkillDescriptor
	agents map[string]map[string]*entity.AgentDescriptor
}

var (
	_ repo.ExtensionRegistry = (*CatalogStore)(nil)
	_ repo.AgentRegistry     = (*CatalogStore)(nil)
)

// NewCatalogStore creates a new CatalogStore instance.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		skills: make(map[string]map[string]*entity.SkillDescriptor),
		agents: make(map[string]map[string]*entity.AgentDescriptor),
	}
}

// RegisterExtension stores or replaces a skill descriptor.
func (s *CatalogStore) RegisterExtension(_ context.Context, orgScope string, skill *entity.SkillDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.skills[orgScope]
	if !ok {
		org = make(map[string]*entity.SkillDescriptor)
		s.skills[orgScope] = org
	}
	org[skill.Key()] = skill
	return nil
}

// UnregisterExtension removes every skill of an extension.
func (s *CatalogStore) UnregisterExtension(_ context.Context, orgScope, extensionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, d := range s.skills[orgScope] {
		if d.ExtensionID == extensionID {
			delete(s.skills[orgScope], k)
		}
	}
	return nil
}

// ListSkills returns the skills of an org scope ordered by key.
func (s *CatalogStore) ListSkills(_ context.Context, orgScope string) ([]*entity.SkillDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org := s.skills[orgScope]
	skills := make([]*entity.SkillDescriptor, 0, len(org))
	for _, d := range org {
		skills = append(skills, d)
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Key() < skills[j].Key() })
	return skills, nil
}

// RegisterAgent stores or replaces an agent descriptor.
func (s *CatalogStore) RegisterAgent(_ context.Context, orgScope string, agent *entity.AgentDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.agents[orgScope]
	if !ok {
		org = make(map[string]*entity.AgentDescriptor)
		s.agents[orgScope] = org
	}
	org[agent.Key()] = agent
	return nil
}

// UnregisterAgents removes every agent of an extension.
func (s *CatalogStore) UnregisterAgents(_ context.Context, orgScope, extensionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, d := range s.agents[orgScope] {
		if d.ExtensionID == extensionID {
			delete(s.agents[orgScope], k)
		}
	}
	return nil
}

// ListAgents returns the agents of an org scope ordered by key.
func (s *CatalogStore) ListAgents(_ context.Context, orgScope string) ([]*entity.AgentDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org := s.agents[orgScope]
	agents := make([]*entity.AgentDescriptor, 0, len(org))
	for _, d := range org {
		agents = append(agents, d)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Key() < agents[j].Key() })
	return agents, nil
}
