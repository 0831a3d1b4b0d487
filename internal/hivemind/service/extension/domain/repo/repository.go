package repo

import (
	"context"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
)

// ExtensionRegistry publishes skill descriptors, one catalog per org scope.
type ExtensionRegistry interface {
	// RegisterExtension stores or replaces the descriptor of one skill.
	RegisterExtension(ctx context.Context, orgScope string, skill *entity.SkillDescriptor) error
	// UnregisterExtension removes every skill published by an extension.
	UnregisterExtension(ctx context.Context, orgScope, extensionID string) error
	// ListSkills returns all skills published in an org scope.
	ListSkills(ctx context.Context, orgScope string) ([]*entity.SkillDescriptor, error)
}

// AgentRegistry publishes agent descriptors, one catalog per org scope.
type AgentRegistry interface {
	RegisterAgent(ctx context.Context, orgScope string, agent *entity.AgentDescriptor) error
	UnregisterAgents(ctx context.Context, orgScope, extensionID string) error
	ListAgents(ctx context.Context, orgScope string) ([]*entity.AgentDescriptor, error)
}

// StateRepository remembers which extensions were active.
type StateRepository interface {
	Save(ctx context.Context, rec *entity.ExtensionRecord) error
	Get(ctx context.Context, id string) (*entity.ExtensionRecord, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*entity.ExtensionRecord, error)
}
