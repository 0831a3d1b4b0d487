package hivemind

import (
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/kiosk404/nubabel/internal/hivemind/handler/middleware"
	v1 "github.com/kiosk404/nubabel/internal/hivemind/handler/v1"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension"
	"github.com/kiosk404/nubabel/internal/hivemind/service/mcp"
)

// routerDeps holds the dependencies needed for route registration.
type routerDeps struct {
	extensions *extension.Module
	mcp        *mcp.Module // nil when MCP is disabled
	gateway    *GatewayConfig
}

func initRouter(g *gin.Engine, deps *routerDeps) {
	// Scoped extension ids reach :id params path-escaped.
	g.UseRawPath = true
	installMiddleware(g, deps)
	installController(g, deps)
}

func installMiddleware(g *gin.Engine, deps *routerDeps) {
	g.Use(gin.Recovery())
	g.Use(middleware.RequestLog())
}

func installController(g *gin.Engine, deps *routerDeps) {
	auth := middleware.BearerAuth(&deps.gateway.Auth)

	if deps.gateway.Healthz {
		g.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":     "ok",
				"extensions": len(deps.extensions.Service.GetLoadedExtensions()),
			})
		})
	}
	if deps.gateway.Pprof {
		pprof.Register(g)
	}

	// Extension-defined routes under /ext/:extension/*path.
	deps.extensions.Registrar.Initialize(g)

	// MCP streamable HTTP transport.
	if deps.mcp != nil {
		g.Any(deps.mcp.Path, auth, gin.WrapH(deps.mcp.Handler))
	}

	// --- /v1 admin API ---
	extHandler := v1.NewExtensionHandler(
		deps.extensions.Service,
		deps.extensions.Events,
		deps.extensions.Skills,
		deps.extensions.Agents,
		deps.gateway.OrgScope,
	)
	apiV1 := g.Group("/v1", auth)
	extHandler.RegisterRoutes(apiV1)
}
