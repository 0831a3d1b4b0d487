package entity

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/manifest"
)

// Status is the lifecycle state of a loaded extension.
//
//	loading → loaded → active → unloading → (removed)
//
// error is terminal and reachable from loading or loaded.
type Status string

const (
	StatusLoading   Status = "loading"
	StatusLoaded    Status = "loaded"
	StatusActive    Status = "active"
	StatusUnloading Status = "unloading"
	StatusError     Status = "error"
)

// Source records how an extension was located.
type Source string

const (
	SourceDirectory Source = "directory"
	SourcePackage   Source = "package"
)

// HookFunc is the entry point of a hook handler module.
type HookFunc func(ctx context.Context, data map[string]interface{}) error

// ToolFunc is the entry point of an MCP tool handler module.
type ToolFunc func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// RouteFunc is the entry point of a route handler module.
type RouteFunc = http.HandlerFunc

// Agent is a materialised agent component.
type Agent struct {
	ID         string      `json:"id"`
	ConfigPath string      `json:"configPath"`
	Config     AgentConfig `json:"config"`
}

// AgentConfig is the content of an agent config file.
type AgentConfig struct {
	Name         string                 `yaml:"name" json:"name"`
	Role         string                 `yaml:"role,omitempty" json:"role,omitempty"`
	Description  string                 `yaml:"description,omitempty" json:"description,omitempty"`
	Model        string                 `yaml:"model,omitempty" json:"model,omitempty"`
	SystemPrompt string                 `yaml:"systemPrompt,omitempty" json:"systemPrompt,omitempty"`
	Skills       []string               `yaml:"skills,omitempty" json:"skills,omitempty"`
	Metadata     map[string]interface{} `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Skill is a materialised skill component.
type Skill struct {
	ID         string      `json:"id"`
	ConfigPath string      `json:"configPath"`
	Config     SkillConfig `json:"config"`
}

// SkillConfig is the content of a skill config file.
type SkillConfig struct {
	Name        string                 `yaml:"name" json:"name"`
	Description string                 `yaml:"description,omitempty" json:"description,omitempty"`
	Category    string                 `yaml:"category,omitempty" json:"category,omitempty"`
	Version     string                 `yaml:"version,omitempty" json:"version,omitempty"`
	Triggers    []string               `yaml:"triggers,omitempty" json:"triggers,omitempty"`
	Parameters  map[string]interface{} `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// MCPTool is a materialised MCP tool component.
type MCPTool struct {
	ID          string                 `json:"id"`
	Description string                 `json:"description,omitempty"`
	HandlerPath string                 `json:"handlerPath"`
	InputSchema map[string]interface{} `json:"inputSchema,omitempty"`
	Handler     ToolFunc               `json:"-"`
}

// Route is a declared HTTP route. Handlers are compiled by the route registrar.
type Route struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	HandlerPath string `json:"handlerPath"`
}

// LoadedExtension is the runtime record of an extension. It is owned by the
// loader service; everything else works on snapshots.
type LoadedExtension struct {
	ID       string             `json:"id"`
	Manifest *manifest.Manifest `json:"manifest"`
	BasePath string             `json:"basePath"`
	Source   Source             `json:"source"`
	Agents   []Agent            `json:"agents,omitempty"`
	Skills   []Skill            `json:"skills,omitempty"`
	MCPTools []MCPTool          `json:"mcpTools,omitempty"`
	Routes   []Route            `json:"routes,omitempty"`
	// Hooks maps a manifest hook slot (onInstall, ...) to its handler.
	Hooks    map[string]HookFunc `json:"-"`
	Status   Status              `json:"status"`
	LoadedAt time.Time           `json:"loadedAt"`
	Error    string              `json:"error,omitempty"`
}

// Version returns the manifest version, or "" when no manifest is attached.
func (e *LoadedExtension) Version() string {
	if e == nil || e.Manifest == nil {
		return ""
	}
	return e.Manifest.Version
}

// HookSlots returns the slots with a loaded handler, sorted.
func (e *LoadedExtension) HookSlots() []string {
	return slices.Sorted(maps.Keys(e.Hooks))
}

// Snapshot returns a copy that shares no mutable state with e.
func (e *LoadedExtension) Snapshot() *LoadedExtension {
	if e == nil {
		return nil
	}
	out := *e
	out.Manifest = e.Manifest.Clone()
	out.Agents = slices.Clone(e.Agents)
	out.Skills = slices.Clone(e.Skills)
	out.MCPTools = slices.Clone(e.MCPTools)
	out.Routes = slices.Clone(e.Routes)
	out.Hooks = maps.Clone(e.Hooks)
	return &out
}
