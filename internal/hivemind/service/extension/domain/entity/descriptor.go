package entity

import "time"

// SkillDescriptor is what the extension catalog publishes for one skill.
type SkillDescriptor struct {
	ExtensionID string                 `json:"extensionId"`
	SkillID     string                 `json:"skillId"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Category    string                 `json:"category,omitempty"`
	Version     string                 `json:"version,omitempty"`
	Triggers    []string               `json:"triggers,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// Key identifies the descriptor inside an org scope.
func (d *SkillDescriptor) Key() string { return d.ExtensionID + "/" + d.SkillID }

// AgentDescriptor is what the agent catalog publishes for one agent.
type AgentDescriptor struct {
	ExtensionID string   `json:"extensionId"`
	AgentID     string   `json:"agentId"`
	Name        string   `json:"name"`
	Role        string   `json:"role,omitempty"`
	Description string   `json:"description,omitempty"`
	Model       string   `json:"model,omitempty"`
	Skills      []string `json:"skills,omitempty"`
}

// Key identifies the descriptor inside an org scope.
func (d *AgentDescriptor) Key() string { return d.ExtensionID + "/" + d.AgentID }

// ExtensionRecord remembers an active extension so it can be restored on restart.
type ExtensionRecord struct {
	ID       string    `json:"id"`
	BasePath string    `json:"basePath"`
	Source   Source    `json:"source"`
	Package  string    `json:"package,omitempty"`
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loadedAt"`
}

// NewSkillDescriptor builds the catalog entry for a loaded skill.
func NewSkillDescriptor(ext *LoadedExtension, s Skill) *SkillDescriptor {
	version := s.Config.Version
	if version == "" {
		version = ext.Version()
	}
	return &SkillDescriptor{
		ExtensionID: ext.ID,
		SkillID:     s.ID,
		Name:        s.Config.Name,
		Description: s.Config.Description,
		Category:    s.Config.Category,
		Version:     version,
		Triggers:    s.Config.Triggers,
		Parameters:  s.Config.Parameters,
	}
}

// NewAgentDescriptor builds the catalog entry for a loaded agent.
func NewAgentDescriptor(ext *LoadedExtension, a Agent) *AgentDescriptor {
	return &AgentDescriptor{
		ExtensionID: ext.ID,
		AgentID:     a.ID,
		Name:        a.Config.Name,
		Role:        a.Config.Role,
		Description: a.Config.Description,
		Model:       a.Config.Model,
		Skills:      a.Config.Skills,
	}
}
