package v1

import (
	"time"

	"github.com/jinzhu/copier"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/service"
	"github.com/kiosk404/nubabel/pkg/logger"
)

// --- Extension API ---

// LoadExtensionRequest is the request body for POST /v1/extensions.
// Exactly one of Path and Package must be set.
type LoadExtensionRequest struct {
	// Path is an extension directory on the host.
	Path string `json:"path,omitempty"`
	// Package is a package name resolved against the configured package paths.
	Package string `json:"package,omitempty"`
}

// ScanRequest is the request body for POST /v1/extensions/scan.
type ScanRequest struct {
	Dir string `json:"dir" binding:"required"`
}

// EmitRequest is the request body for POST /v1/extensions/:id/events.
type EmitRequest struct {
	Event string                 `json:"event" binding:"required"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// ExtensionSummary is one entry of GET /v1/extensions.
type ExtensionSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Version  string `json:"version"`
	Status   string `json:"status"`
	Source   string `json:"source"`
	LoadedAt string `json:"loaded_at"`
}

// ExtensionResponse is the detailed view of a loaded extension.
type ExtensionResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Version      string              `json:"version"`
	Description  string              `json:"description,omitempty"`
	BasePath     string              `json:"base_path"`
	Source       string              `json:"source"`
	Status       string              `json:"status"`
	LoadedAt     string              `json:"loaded_at"`
	Error        string              `json:"error,omitempty"`
	Dependencies []string            `json:"dependencies,omitempty"`
	Agents       []ComponentResponse `json:"agents,omitempty"`
	Skills       []ComponentResponse `json:"skills,omitempty"`
	MCPTools     []ToolResponse      `json:"mcp_tools,omitempty"`
	Routes       []RouteResponse     `json:"routes,omitempty"`
	Hooks        []string            `json:"hooks,omitempty" copier:"-"`
}

// ComponentResponse describes an agent or skill component.
type ComponentResponse struct {
	ID         string `json:"id"`
	ConfigPath string `json:"config_path"`
}

// ToolResponse describes an MCP tool component.
type ToolResponse struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	HandlerPath string `json:"handler_path"`
}

// RouteResponse describes an extension route.
type RouteResponse struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	HandlerPath string `json:"handler_path"`
}

// LoadResponse is written when a load or reload succeeds.
type LoadResponse struct {
	Extension ExtensionResponse `json:"extension"`
	Warnings  []string          `json:"warnings,omitempty"`
}

// ScanResponse is written by POST /v1/extensions/scan.
type ScanResponse struct {
	Loaded []string            `json:"loaded"`
	Failed map[string][]string `json:"failed"`
}

// --- Common ---

const timeFormat = time.RFC3339

// FormatTime formats a time value for API responses.
func FormatTime(t time.Time) string {
	return t.Format(timeFormat)
}

var copyOption = copier.Option{
	Converters: []copier.TypeConverter{{
		SrcType: time.Time{},
		DstType: copier.String,
		Fn: func(src interface{}) (interface{}, error) {
			return FormatTime(src.(time.Time)), nil
		},
	}},
}

func toExtensionResponse(ext *entity.LoadedExtension) ExtensionResponse {
	var out ExtensionResponse
	if err := copier.CopyWithOption(&out, ext, copyOption); err != nil {
		logger.Warn("[ExtensionAPI] copy extension %s: %v", ext.ID, err)
	}
	if m := ext.Manifest; m != nil {
		out.Name = m.Name
		out.Version = m.Version
		out.Description = m.Description
		out.Dependencies = m.Dependencies
	}
	out.Hooks = ext.HookSlots()
	return out
}

func toExtensionSummary(ext *entity.LoadedExtension) ExtensionSummary {
	var out ExtensionSummary
	if err := copier.CopyWithOption(&out, ext, copyOption); err != nil {
		logger.Warn("[ExtensionAPI] copy extension %s: %v", ext.ID, err)
	}
	if ext.Manifest != nil {
		out.Name = ext.Manifest.Name
		out.Version = ext.Manifest.Version
	}
	return out
}

func toScanResponse(res *service.BulkLoadResult) ScanResponse {
	out := ScanResponse{Loaded: res.Loaded, Failed: make(map[string][]string, len(res.Failed))}
	if out.Loaded == nil {
		out.Loaded = []string{}
	}
	for _, key := range res.Failed {
		if r := res.Results[key]; r != nil {
			out.Failed[key] = r.Errors
		}
	}
	return out
}
