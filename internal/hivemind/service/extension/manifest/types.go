package manifest

// Manifest is the declarative description of an extension, as read from
// extension.yaml (or one of the other canonical file names).
type Manifest struct {
	ID             string                 `yaml:"id" json:"id"`
	Name           string                 `yaml:"name" json:"name"`
	Version        string                 `yaml:"version" json:"version"`
	Description    string                 `yaml:"description,omitempty" json:"description,omitempty"`
	NubabelVersion string                 `yaml:"nubabelVersion,omitempty" json:"nubabelVersion,omitempty"`
	Category       string                 `yaml:"category,omitempty" json:"category,omitempty"`
	Runtime        string                 `yaml:"runtime,omitempty" json:"runtime,omitempty"`
	Author         *Author                `yaml:"author,omitempty" json:"author,omitempty"`
	Tags           []string               `yaml:"tags,omitempty" json:"tags,omitempty"`
	Permissions    []string               `yaml:"permissions,omitempty" json:"permissions,omitempty"`
	Dependencies   []string               `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Components     Components             `yaml:"components,omitempty" json:"components,omitempty"`
	Hooks          Hooks                  `yaml:"hooks,omitempty" json:"hooks,omitempty"`
	Icon           string                 `yaml:"icon,omitempty" json:"icon,omitempty"`
	Screenshots    []string               `yaml:"screenshots,omitempty" json:"screenshots,omitempty"`
	I18n           *I18n                  `yaml:"i18n,omitempty" json:"i18n,omitempty"`
	ConfigSchema   map[string]interface{} `yaml:"configSchema,omitempty" json:"configSchema,omitempty"`
}

// Author identifies who publishes the extension.
type Author struct {
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Email string `yaml:"email,omitempty" json:"email,omitempty"`
	URL   string `yaml:"url,omitempty" json:"url,omitempty"`
}

// I18n points at the translations shipped with the extension.
type I18n struct {
	TranslationsPath string `yaml:"translationsPath,omitempty" json:"translationsPath,omitempty"`
	DefaultLocale    string `yaml:"defaultLocale,omitempty" json:"defaultLocale,omitempty"`
}

// Components holds the independent, ordered component lists of an extension.
type Components struct {
	Agents       []AgentComponent    `yaml:"agents,omitempty" json:"agents,omitempty"`
	Skills       []SkillComponent    `yaml:"skills,omitempty" json:"skills,omitempty"`
	MCPTools     []MCPToolComponent  `yaml:"mcpTools,omitempty" json:"mcpTools,omitempty"`
	Workflows    []WorkflowComponent `yaml:"workflows,omitempty" json:"workflows,omitempty"`
	UIComponents []UIComponent       `yaml:"uiComponents,omitempty" json:"uiComponents,omitempty"`
	Routes       []RouteComponent    `yaml:"routes,omitempty" json:"routes,omitempty"`
}

// AgentComponent references an agent config file.
type AgentComponent struct {
	ID         string `yaml:"id" json:"id"`
	ConfigPath string `yaml:"configPath" json:"configPath"`
}

// SkillComponent references a skill config file.
type SkillComponent struct {
	ID         string `yaml:"id" json:"id"`
	ConfigPath string `yaml:"configPath" json:"configPath"`
}

// MCPToolComponent references a handler module exposed as an MCP tool.
type MCPToolComponent struct {
	ID          string                 `yaml:"id" json:"id"`
	Handler     string                 `yaml:"handler" json:"handler"`
	Description string                 `yaml:"description,omitempty" json:"description,omitempty"`
	InputSchema map[string]interface{} `yaml:"inputSchema,omitempty" json:"inputSchema,omitempty"`
}

// WorkflowComponent references a workflow config file.
type WorkflowComponent struct {
	ID         string `yaml:"id" json:"id"`
	ConfigPath string `yaml:"configPath" json:"configPath"`
}

// UIComponent references a front-end component bundle.
type UIComponent struct {
	ID            string `yaml:"id" json:"id"`
	ComponentPath string `yaml:"componentPath" json:"componentPath"`
	Slot          string `yaml:"slot,omitempty" json:"slot,omitempty"`
}

// RouteComponent declares an HTTP route served by a handler module.
type RouteComponent struct {
	Path    string `yaml:"path" json:"path"`
	Method  string `yaml:"method,omitempty" json:"method,omitempty"`
	Handler string `yaml:"handler" json:"handler"`
}

// Hooks maps each lifecycle slot to a handler module path.
type Hooks struct {
	OnInstall      string `yaml:"onInstall,omitempty" json:"onInstall,omitempty"`
	OnUninstall    string `yaml:"onUninstall,omitempty" json:"onUninstall,omitempty"`
	OnUpdate       string `yaml:"onUpdate,omitempty" json:"onUpdate,omitempty"`
	OnEnable       string `yaml:"onEnable,omitempty" json:"onEnable,omitempty"`
	OnDisable      string `yaml:"onDisable,omitempty" json:"onDisable,omitempty"`
	OnConfigChange string `yaml:"onConfigChange,omitempty" json:"onConfigChange,omitempty"`
}

// Hook slot names, in declaration order.
const (
	HookOnInstall      = "onInstall"
	HookOnUninstall    = "onUninstall"
	HookOnUpdate       = "onUpdate"
	HookOnEnable       = "onEnable"
	HookOnDisable      = "onDisable"
	HookOnConfigChange = "onConfigChange"
)

// HookSlots lists every hook slot name in a fixed order.
var HookSlots = []string{
	HookOnInstall,
	HookOnUninstall,
	HookOnUpdate,
	HookOnEnable,
	HookOnDisable,
	HookOnConfigChange,
}

// Get returns the handler path declared for the given slot.
func (h Hooks) Get(slot string) string {
	switch slot {
	case HookOnInstall:
		return h.OnInstall
	case HookOnUninstall:
		return h.OnUninstall
	case HookOnUpdate:
		return h.OnUpdate
	case HookOnEnable:
		return h.OnEnable
	case HookOnDisable:
		return h.OnDisable
	case HookOnConfigChange:
		return h.OnConfigChange
	}
	return ""
}

// Declared returns slot → path for every non-empty hook.
func (h Hooks) Declared() map[string]string {
	out := make(map[string]string)
	for _, slot := range HookSlots {
		if p := h.Get(slot); p != "" {
			out[slot] = p
		}
	}
	return out
}

func (h *Hooks) set(slot, path string) {
	switch slot {
	case HookOnInstall:
		h.OnInstall = path
	case HookOnUninstall:
		h.OnUninstall = path
	case HookOnUpdate:
		h.OnUpdate = path
	case HookOnEnable:
		h.OnEnable = path
	case HookOnDisable:
		h.OnDisable = path
	case HookOnConfigChange:
		h.OnConfigChange = path
	}
}

// ParseResult is the outcome of parsing manifest content.
// Manifest is only set when Success is true.
type ParseResult struct {
	Success  bool
	Manifest *Manifest
	Errors   []string
	Warnings []string
}

// PathValidation is the outcome of ValidatePaths.
type PathValidation struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// ComponentIDs groups declared component ids by kind. Routes are keyed by path.
type ComponentIDs struct {
	Agents       []string
	Skills       []string
	MCPTools     []string
	Workflows    []string
	UIComponents []string
	Routes       []string
}

// Compatibility is the outcome of a version range check.
type Compatibility struct {
	Compatible bool
	Message    string
}

// ManifestFileNames are tried in order when parsing a directory.
var ManifestFileNames = []string{
	"extension.yaml",
	"extension.yml",
	"manifest.yaml",
	"manifest.yml",
}
