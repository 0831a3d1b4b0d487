package extension

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/gg/gptr"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/repo"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/service"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/hooks"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/modload"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/registrar"
	boltdbStore "github.com/kiosk404/nubabel/internal/hivemind/service/extension/store/boltdb"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/store/inmemory"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/watcher"
	"github.com/kiosk404/nubabel/pkg/logger"
)

// Config holds the configuration for the Extension module.
// Follows K8S-style: Config → Complete() → New(ctx, deps).
type Config struct {
	// Dir is scanned on Start; every immediate subdirectory is an extension.
	Dir string `json:"dir,omitempty"`

	// PackagePaths are the roots package names are resolved against.
	PackagePaths []string `json:"package_paths,omitempty"`

	// HostVersion is matched against manifest nubabelVersion requirements (default: "1.0.0").
	HostVersion string `json:"host_version,omitempty"`

	// ValidatePaths checks that referenced files exist before loading (default: true).
	ValidatePaths *bool `json:"validate_paths,omitempty"`

	// HotReload watches active extensions and reloads them on change.
	HotReload bool `json:"hot_reload,omitempty"`

	// HotReloadDebounce is the quiet period before a reload (default: 500ms).
	HotReloadDebounce time.Duration `json:"hot_reload_debounce,omitempty"`

	// LoadTimeout bounds component loading of one extension (default: 30s).
	LoadTimeout time.Duration `json:"load_timeout,omitempty"`

	// OrgScope is the catalog scope skills and agents are published in (default: "default").
	OrgScope string `json:"org_scope,omitempty"`

	// StoreType selects the persistence backend: "inmemory" or "boltdb".
	// Default: "inmemory".
	StoreType string `json:"store_type,omitempty"`

	// BoltDBPath is the file path for BoltDB storage (when StoreType="boltdb").
	// Default: "data/extensions.db".
	BoltDBPath string `json:"boltdb_path,omitempty"`

	// Restore reloads the extensions recorded in the state store on Start.
	Restore bool `json:"restore,omitempty"`
}

// CompletedConfig is the validated and completed configuration.
type CompletedConfig struct {
	*Config
}

// Complete validates and fills defaults.
func (c *Config) Complete() CompletedConfig {
	if c.HostVersion == "" {
		c.HostVersion = "1.0.0"
	}
	if c.ValidatePaths == nil {
		c.ValidatePaths = gptr.Of(true)
	}
	if c.HotReloadDebounce <= 0 {
		c.HotReloadDebounce = watcher.DefaultDebounce
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = 30 * time.Second
	}
	if c.OrgScope == "" {
		c.OrgScope = "default"
	}
	if c.StoreType == "" {
		c.StoreType = "inmemory"
	}
	if c.BoltDBPath == "" {
		c.BoltDBPath = "data/extensions.db"
	}
	return CompletedConfig{c}
}

// Dependencies holds the external modules used by the Extension module.
type Dependencies struct {
	// Tools publishes extension MCP tools (may be nil when MCP is disabled).
	Tools service.ToolHost
}

// Module is the top-level Extension module.
//
// It exposes:
//   - Service: the extension host (load / unload / reload / queries)
//   - Registrar: mounts extension routes on the HTTP engine
//   - Events: live stream of lifecycle events
//   - Skills / Agents: the published catalogs
type Module struct {
	Service   service.LoaderService
	Hooks     hooks.Manager
	Events    *hooks.Broker
	Registrar *registrar.Registrar
	Skills    repo.ExtensionRegistry
	Agents    repo.AgentRegistry
	State     repo.StateRepository

	cfg     CompletedConfig
	watcher *watcher.Watcher
	boltDB  *boltdbStore.DB // nil when using inmemory store
}

// New creates the Extension module from a completed config. Nothing is
// loaded until Start.
func (c CompletedConfig) New(_ context.Context, deps Dependencies) (*Module, error) {
	logger.Info("[Extension] creating Extension module...")

	var (
		skills repo.ExtensionRegistry
		agents repo.AgentRegistry
		state  repo.StateRepository
		boltDB *boltdbStore.DB
	)
	switch c.StoreType {
	case "boltdb":
		var err error
		boltDB, err = boltdbStore.Open(c.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open boltdb at %s: %w", c.BoltDBPath, err)
		}
		catalog := boltdbStore.NewCatalogStore(boltDB)
		skills, agents = catalog, catalog
		state = boltdbStore.NewStateStore(boltDB)
		logger.Info("[Extension] using BoltDB store at %s", c.BoltDBPath)
	case "inmemory":
		catalog := inmemory.NewCatalogStore()
		skills, agents = catalog, catalog
		state = inmemory.NewStateStore()
		logger.Info("[Extension] using in-memory store")
	default:
		return nil, fmt.Errorf("unknown store type %q", c.StoreType)
	}

	hookManager := hooks.NewManager()
	modules := modload.NewLoader(modload.NewCache())
	routes := registrar.New(modules)
	observers := &observerSet{}

	svc, err := service.NewLoaderService(service.Options{
		HostVersion:   c.HostVersion,
		ValidatePaths: *c.ValidatePaths,
		LoadTimeout:   c.LoadTimeout,
		OrgScope:      c.OrgScope,
	}, service.Dependencies{
		Hooks:    hookManager,
		Modules:  modules,
		Routes:   routes,
		Tools:    deps.Tools,
		Skills:   skills,
		Agents:   agents,
		State:    state,
		Packages: service.NewDirResolver(c.PackagePaths...),
		Observer: observers,
	})
	if err != nil {
		if boltDB != nil {
			boltDB.Close()
		}
		return nil, err
	}

	m := &Module{
		Service:   svc,
		Hooks:     hookManager,
		Events:    hooks.NewBroker(hookManager, 0),
		Registrar: routes,
		Skills:    skills,
		Agents:    agents,
		State:     state,
		cfg:       c,
		boltDB:    boltDB,
	}

	if c.HotReload {
		w, err := watcher.New(svc, c.HotReloadDebounce)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to start hot reload watcher: %w", err)
		}
		observers.add(w)
		m.watcher = w
		logger.Info("[Extension] hot reload enabled (debounce=%s)", c.HotReloadDebounce)
	}

	logger.Info("[Extension] Extension module initialized (store=%s, host=%s, validate_paths=%t, load_timeout=%s, org=%s)",
		c.StoreType, c.HostVersion, *c.ValidatePaths, c.LoadTimeout, c.OrgScope)
	return m, nil
}

// Start restores recorded extensions, then loads everything under Dir.
// Individual failures are logged; Start only fails when ctx is done.
func (m *Module) Start(ctx context.Context) error {
	if m.cfg.Restore {
		res := m.Service.Restore(ctx)
		logger.Info("[Extension] restore: %d loaded, %d failed", len(res.Loaded), len(res.Failed))
	}
	if m.cfg.Dir != "" {
		m.Service.LoadAllFromDirectory(ctx, m.cfg.Dir)
	}
	return ctx.Err()
}

// Close releases resources held by the module (watcher, BoltDB handle).
func (m *Module) Close() error {
	if m.Events != nil {
		m.Events.Close()
	}
	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			logger.Warn("[Extension] close watcher: %v", err)
		}
	}
	if m.boltDB != nil {
		return m.boltDB.Close()
	}
	return nil
}

// observerSet forwards lifecycle notifications to observers added after the
// loader service was built.
type observerSet struct {
	mu   sync.RWMutex
	list []service.Observer
}

func (o *observerSet) add(obs service.Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.list = append(o.list, obs)
}

func (o *observerSet) ExtensionActivated(ext *entity.LoadedExtension) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, obs := range o.list {
		obs.ExtensionActivated(ext)
	}
}

func (o *observerSet) ExtensionRemoved(id, basePath string) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, obs := range o.list {
		obs.ExtensionRemoved(id, basePath)
	}
}
