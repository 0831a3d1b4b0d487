package mcp

import (
	"context"
	"net/http"

	"github.com/kiosk404/nubabel/pkg/logger"
	"github.com/mark3labs/mcp-go/server"
)

// Config configures the MCP tool host.
// Follows K8S-style: Config → Complete() → New(ctx).
type Config struct {
	// Enabled controls whether extension tools are published over MCP.
	Enabled bool `json:"enabled"`

	// Path is the HTTP path of the streamable transport (default: "/mcp").
	Path string `json:"path,omitempty"`

	// Name and Version identify the server during the MCP handshake.
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// CompletedConfig is the completed configuration for MCP.
type CompletedConfig struct {
	*Config
}

// Complete validates and fills defaults.
func (c *Config) Complete() CompletedConfig {
	if c.Path == "" {
		c.Path = "/mcp"
	}
	if c.Name == "" {
		c.Name = "nubabel-hivemind"
	}
	if c.Version == "" {
		c.Version = "1.0.0"
	}
	return CompletedConfig{c}
}

// Module is the top-level MCP module.
type Module struct {
	Host *ToolHost
	// Handler serves the streamable HTTP transport; mount it at Path.
	Handler http.Handler
	Path    string
}

// New creates the MCP server and its HTTP transport.
func (c CompletedConfig) New(_ context.Context) (*Module, error) {
	srv := server.NewMCPServer(c.Name, c.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	httpServer := server.NewStreamableHTTPServer(srv, server.WithEndpointPath(c.Path))

	logger.Info("[MCP] tool host initialized (name=%s, path=%s)", c.Name, c.Path)
	return &Module{
		Host:    NewToolHost(srv),
		Handler: httpServer,
		Path:    c.Path,
	}, nil
}

// Close releases resources held by the MCP module.
func (m *Module) Close() error {
	if m.Host != nil {
		m.Host.Reset()
	}
	return nil
}
