package hivemind

import (
	"github.com/gin-gonic/gin"
	"github.com/kiosk404/nubabel/internal/hivemind/config"
	"github.com/kiosk404/nubabel/internal/hivemind/handler/middleware"
)

// GatewayConfig holds the HTTP-level configuration derived from the options.
type GatewayConfig struct {
	// Auth protects the admin API and the MCP endpoint.
	Auth middleware.AuthConfig `json:"auth"`
	// Healthz installs GET /healthz.
	Healthz bool `json:"healthz"`
	// Pprof installs /debug/pprof (debug mode only).
	Pprof bool `json:"pprof"`
	// OrgScope is the default catalog scope of the admin API.
	OrgScope string `json:"org_scope"`
}

// DefaultGatewayConfig returns a gateway with auth off and health checks on.
func DefaultGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		Auth: middleware.AuthConfig{
			Enabled:    false,
			AllowLocal: true,
		},
		Healthz:  true,
		OrgScope: "default",
	}
}

func buildGatewayConfig(cfg *config.Config) *GatewayConfig {
	g := DefaultGatewayConfig()
	g.Auth.Enabled = cfg.AuthOptions.Enabled
	g.Auth.Token = cfg.AuthOptions.Token
	g.Healthz = cfg.ServerRunOptions.Healthz
	g.Pprof = cfg.ServerRunOptions.Mode == gin.DebugMode
	g.OrgScope = cfg.ExtensionOptions.OrgScope
	return g
}
