// Package registrar serves extension routes from the host gin engine.
//
// Every extension route lives under /ext/<extensionId>/<path>. gin cannot add or
// remove routes at runtime, so one catch-all route is mounted and requests are
// dispatched through a table the loader updates on load and unload.
package registrar

import (
	"fmt"
	"net/http"
	"path"
	"runtime/debug"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/modload"
	"github.com/kiosk404/nubabel/pkg/logger"
)

// Prefix is the URL prefix of every extension route.
const Prefix = "/ext"

type routeKey struct {
	method string
	path   string
}

// Registrar implements the loader's RouteRegistrar on a gin engine.
type Registrar struct {
	modules *modload.Loader

	mu     sync.RWMutex
	routes map[string]map[routeKey]http.HandlerFunc
}

// New creates a Registrar that compiles route handlers with modules.
func New(modules *modload.Loader) *Registrar {
	return &Registrar{
		modules: modules,
		routes:  make(map[string]map[routeKey]http.HandlerFunc),
	}
}

// Initialize mounts the dispatcher on g.
func (r *Registrar) Initialize(g gin.IRouter) {
	g.Any(Prefix+"/:extension/*path", r.dispatch)
	logger.Info("[RouteRegistrar] extension routes mounted at %s/:extension/*path", Prefix)
}

// RegisterExtensionRoutes compiles every route handler of ext and publishes
// them together. Nothing is published when any handler fails to compile.
func (r *Registrar) RegisterExtensionRoutes(ext *entity.LoadedExtension) error {
	table := make(map[routeKey]http.HandlerFunc, len(ext.Routes))
	for _, rt := range ext.Routes {
		fn, err := r.modules.LoadRoute(rt.HandlerPath)
		if err != nil {
			return fmt.Errorf("route %s %s: %w", rt.Method, rt.Path, err)
		}
		key := routeKey{method: strings.ToUpper(rt.Method), path: cleanPath(rt.Path)}
		if _, dup := table[key]; dup {
			logger.Warn("[RouteRegistrar] %s: duplicate route %s %s, last declaration wins", ext.ID, key.method, key.path)
		}
		table[key] = fn
	}

	r.mu.Lock()
	r.routes[ext.ID] = table
	r.mu.Unlock()

	logger.Info("[RouteRegistrar] %s: %d routes registered", ext.ID, len(table))
	return nil
}

// UnregisterExtensionRoutes removes every route of an extension.
func (r *Registrar) UnregisterExtensionRoutes(extensionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.routes[extensionID]; ok {
		delete(r.routes, extensionID)
		logger.Info("[RouteRegistrar] %s: routes unregistered", extensionID)
	}
}

// Routes lists "METHOD /ext/<id>/path" for the routes of an extension, sorted.
func (r *Registrar) Routes(extensionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.routes[extensionID]))
	for k := range r.routes[extensionID] {
		out = append(out, k.method+" "+Prefix+"/"+extensionID+k.path)
	}
	sort.Strings(out)
	return out
}

func (r *Registrar) dispatch(c *gin.Context) {
	id, rest := splitExtension(c.Param("extension"), c.Param("path"))

	r.mu.RLock()
	fn, ok := r.routes[id][routeKey{method: c.Request.Method, path: cleanPath(rest)}]
	r.mu.RUnlock()

	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"message": fmt.Sprintf("no route %s %s for extension %q", c.Request.Method, rest, id),
				"type":    "not_found",
			},
		})
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("[RouteRegistrar] %s: handler panic on %s %s: %v\n%s", id, c.Request.Method, rest, rec, debug.Stack())
			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{"message": "extension route handler failed", "type": "internal_error"},
				})
			}
		}
	}()
	fn(c.Writer, c.Request)
}

// splitExtension rebuilds a scoped id ("@org/name") that gin split across
// the :extension and *path parameters.
func splitExtension(ext, rest string) (string, string) {
	if !strings.HasPrefix(ext, "@") {
		return ext, rest
	}
	trimmed := strings.TrimPrefix(rest, "/")
	name, tail, _ := strings.Cut(trimmed, "/")
	return ext + "/" + name, "/" + tail
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}
