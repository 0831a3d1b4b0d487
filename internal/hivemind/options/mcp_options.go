package options

import (
	"errors"
	"strings"

	"github.com/spf13/pflag"
)

// MCPOptions holds options for the MCP tool host.
type MCPOptions struct {
	// Enabled publishes extension tools over the streamable HTTP transport.
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// Path is where the transport is mounted.
	Path string `json:"path" mapstructure:"path"`
	// Name identifies the server during the MCP handshake.
	Name string `json:"name" mapstructure:"name"`
}

// NewMCPOptions creates a default MCPOptions instance.
func NewMCPOptions() *MCPOptions {
	return &MCPOptions{
		Enabled: true,
		Path:    "/mcp",
		Name:    "nubabel-hivemind",
	}
}

// Validate checks the MCPOptions for correctness.
func (o *MCPOptions) Validate() []error {
	if !o.Enabled {
		return nil
	}
	if !strings.HasPrefix(o.Path, "/") {
		return []error{errors.New("--mcp.path must start with /")}
	}
	if strings.HasPrefix(o.Path, "/v1/") || strings.HasPrefix(o.Path, "/ext/") {
		return []error{errors.New("--mcp.path must not overlap the admin API or extension routes")}
	}
	return nil
}

// AddFlags adds the MCPOptions flags to the given flag set.
func (o *MCPOptions) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Enabled, "mcp.enabled", o.Enabled, "Publish extension MCP tools.")
	fs.StringVar(&o.Path, "mcp.path", o.Path, "HTTP path of the MCP streamable transport.")
	fs.StringVar(&o.Name, "mcp.name", o.Name, "Server name announced to MCP clients.")
}
