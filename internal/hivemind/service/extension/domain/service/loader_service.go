package service

import (
	"context"
	"time"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/hooks"
)

// LoaderService is the extension host: it owns the registry of loaded
// extensions and drives their lifecycle.
//
// Every entry point reports failures through its result value and never
// panics on a faulty extension.
type LoaderService interface {
	// --- Lifecycle ---

	// LoadFromDirectory loads the extension rooted at dir.
	LoadFromDirectory(ctx context.Context, dir string) *entity.LoadResult
	// LoadFromPackage resolves a package name to its root and loads it.
	LoadFromPackage(ctx context.Context, name string) *entity.LoadResult
	// LoadAllFromDirectory loads every immediate subdirectory of root,
	// dependencies first. Individual failures do not stop the scan.
	LoadAllFromDirectory(ctx context.Context, root string) *BulkLoadResult
	// Unload removes an extension and everything it registered.
	Unload(ctx context.Context, id string) *entity.UnloadResult
	// Reload unloads an extension and loads it again from its base path.
	Reload(ctx context.Context, id string) *entity.LoadResult
	// Restore reloads every extension recorded in the state repository.
	Restore(ctx context.Context) *BulkLoadResult

	// --- Events ---

	// Emit dispatches a lifecycle event on behalf of a loaded extension.
	Emit(ctx context.Context, id string, event hooks.Event, data map[string]interface{}) error

	// --- Queries ---

	GetLoadedExtensions() []*entity.LoadedExtension
	GetExtension(id string) (*entity.LoadedExtension, bool)

	// Reset drops every loaded extension and the module cache without running
	// unload side effects. Intended for tests.
	Reset()
}

// BulkLoadResult summarises LoadAllFromDirectory and Restore.
type BulkLoadResult struct {
	Loaded  []string                      `json:"loaded"`
	Failed  []string                      `json:"failed"`
	Results map[string]*entity.LoadResult `json:"results"`
}

// RouteRegistrar mounts extension routes on the host HTTP server.
type RouteRegistrar interface {
	RegisterExtensionRoutes(ext *entity.LoadedExtension) error
	UnregisterExtensionRoutes(extensionID string)
}

// ToolHost publishes extension MCP tools.
type ToolHost interface {
	RegisterTools(ext *entity.LoadedExtension) error
	UnregisterTools(extensionID string)
}

// PackageResolver maps a package name to the directory it is installed in.
type PackageResolver interface {
	Resolve(name string) (string, error)
}

// Observer is told about activations and removals, e.g. to watch files.
type Observer interface {
	ExtensionActivated(ext *entity.LoadedExtension)
	ExtensionRemoved(id, basePath string)
}

// Options tunes the loader service.
type Options struct {
	// HostVersion is checked against manifest nubabelVersion requirements.
	HostVersion string
	// ValidatePaths enables the referenced-file check before loading.
	ValidatePaths bool
	// LoadTimeout bounds component loading. Zero disables the bound.
	LoadTimeout time.Duration
	// OrgScope is the catalog scope skills and agents are published under.
	OrgScope string
	// ParseConcurrency bounds manifest pre-parsing in bulk loads.
	ParseConcurrency int
}
