package mcp

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/pkg/logger"
	"github.com/kiosk404/nubabel/pkg/utils/json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// openObjectSchema is used for tools that declare no input schema.
var openObjectSchema = map[string]interface{}{"type": "object"}

// ToolHost publishes extension MCP tools on an mcp-go server.
// Tools are named "<extensionId>.<toolId>".
type ToolHost struct {
	srv *server.MCPServer

	mu    sync.RWMutex
	tools map[string][]string // extension id → published tool names
}

// NewToolHost creates a ToolHost on srv.
func NewToolHost(srv *server.MCPServer) *ToolHost {
	return &ToolHost{
		srv:   srv,
		tools: make(map[string][]string),
	}
}

// ToolName is the published name of an extension tool.
func ToolName(extensionID, toolID string) string {
	return extensionID + "." + toolID
}

// RegisterTools publishes every tool of ext, replacing tools it published before.
func (h *ToolHost) RegisterTools(ext *entity.LoadedExtension) error {
	tools := make([]server.ServerTool, 0, len(ext.MCPTools))
	names := make([]string, 0, len(ext.MCPTools))
	for _, t := range ext.MCPTools {
		if t.Handler == nil {
			return fmt.Errorf("tool %q has no handler", t.ID)
		}
		schema := t.InputSchema
		if len(schema) == 0 {
			schema = openObjectSchema
		}
		raw, err := json.Marshal(schema)
		if err != nil {
			return fmt.Errorf("tool %q: encode input schema: %w", t.ID, err)
		}
		name := ToolName(ext.ID, t.ID)
		tools = append(tools, server.ServerTool{
			Tool:    mcp.NewToolWithRawSchema(name, t.Description, raw),
			Handler: toolHandler(name, t.Handler),
		})
		names = append(names, name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if old := h.tools[ext.ID]; len(old) > 0 {
		h.srv.DeleteTools(old...)
	}
	h.srv.AddTools(tools...)
	h.tools[ext.ID] = names

	logger.Info("[MCP] %s: published %d tools", ext.ID, len(names))
	return nil
}

// UnregisterTools removes every tool of an extension.
func (h *ToolHost) UnregisterTools(extensionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	names, ok := h.tools[extensionID]
	if !ok {
		return
	}
	if len(names) > 0 {
		h.srv.DeleteTools(names...)
	}
	delete(h.tools, extensionID)
	logger.Info("[MCP] %s: withdrew %d tools", extensionID, len(names))
}

// ToolNames returns every published tool name, sorted.
func (h *ToolHost) ToolNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []string
	for _, names := range h.tools {
		out = append(out, names...)
	}
	sort.Strings(out)
	return out
}

// Reset withdraws every tool.
func (h *ToolHost) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, names := range h.tools {
		if len(names) > 0 {
			h.srv.DeleteTools(names...)
		}
		delete(h.tools, id)
	}
}

// Server returns the underlying MCP server.
func (h *ToolHost) Server() *server.MCPServer {
	return h.srv
}

// toolHandler adapts an interpreted tool to mcp-go. Handler errors and panics
// become tool error results so the client sees them.
func toolHandler(name string, fn entity.ToolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (res *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("[MCP] tool %s panicked: %v\n%s", name, r, debug.Stack())
				res, err = mcp.NewToolResultError(fmt.Sprintf("tool %s failed: %v", name, r)), nil
			}
		}()

		out, callErr := fn(ctx, req.GetArguments())
		if callErr != nil {
			logger.Warn("[MCP] tool %s returned error: %v", name, callErr)
			return mcp.NewToolResultError(callErr.Error()), nil
		}
		text, encErr := encodeResult(out)
		if encErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode result of %s: %v", name, encErr)), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func encodeResult(v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
