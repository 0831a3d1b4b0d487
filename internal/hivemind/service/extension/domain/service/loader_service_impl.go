package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/repo"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/hooks"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/manifest"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/modload"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/pkg/errno"
	"github.com/kiosk404/nubabel/pkg/logger"
)

// Dependencies are the collaborators of the loader service. Only Hooks and
// Modules are required; nil collaborators are skipped.
type Dependencies struct {
	Hooks    hooks.Manager
	Modules  *modload.Loader
	Routes   RouteRegistrar
	Tools    ToolHost
	Skills   repo.ExtensionRegistry
	Agents   repo.AgentRegistry
	State    repo.StateRepository
	Packages PackageResolver
	Observer Observer
}

type loaderServiceImpl struct {
	opts  Options
	deps  Dependencies
	reg   *registry
	locks *keyedMutex
}

var _ LoaderService = (*loaderServiceImpl)(nil)

// NewLoaderService creates a loader service.
func NewLoaderService(opts Options, deps Dependencies) (LoaderService, error) {
	if deps.Hooks == nil {
		return nil, fmt.Errorf("hook manager is required")
	}
	if deps.Modules == nil {
		return nil, fmt.Errorf("module loader is required")
	}
	if opts.HostVersion == "" {
		opts.HostVersion = "1.0.0"
	}
	if opts.ParseConcurrency <= 0 {
		opts.ParseConcurrency = 8
	}
	return &loaderServiceImpl{
		opts:  opts,
		deps:  deps,
		reg:   newRegistry(),
		locks: newKeyedMutex(),
	}, nil
}

// loadRequest carries the internal parameters of one load attempt.
type loadRequest struct {
	dir     string
	source  entity.Source
	pkgName string
	// heldID is an id whose lock the caller already owns (reload).
	heldID string
	// pending are sibling manifests of a bulk load, used for cycle detection.
	pending map[string]*manifest.Manifest
}

func (s *loaderServiceImpl) LoadFromDirectory(ctx context.Context, dir string) *entity.LoadResult {
	return s.load(ctx, loadRequest{dir: dir, source: entity.SourceDirectory})
}

func (s *loaderServiceImpl) LoadFromPackage(ctx context.Context, name string) *entity.LoadResult {
	if s.deps.Packages == nil {
		return failure(fmt.Sprintf("%v: no package resolver configured", errno.ErrPackageNotFound))
	}
	dir, err := s.deps.Packages.Resolve(name)
	if err != nil {
		logger.Warn("[ExtensionLoader] package %q: %v", name, err)
		return failure(err.Error())
	}
	return s.load(ctx, loadRequest{dir: dir, source: entity.SourcePackage, pkgName: name})
}

func (s *loaderServiceImpl) load(ctx context.Context, req loadRequest) (res *entity.LoadResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[ExtensionLoader] panic while loading %s: %v\n%s", req.dir, r, debug.Stack())
			res = failure(fmt.Sprintf("internal error while loading %s: %v", req.dir, r))
		}
	}()

	// 1. Directory.
	dir, err := filepath.Abs(req.dir)
	if err != nil {
		return failure(fmt.Sprintf("resolve %s: %v", req.dir, err))
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return failure(fmt.Sprintf("%v: %s", errno.ErrDirectoryNotFound, dir))
	}

	// 2. Manifest.
	parsed := manifest.ParseFromDirectory(dir)
	if !parsed.Success {
		logger.Warn("[ExtensionLoader] invalid manifest in %s: %v", dir, parsed.Errors)
		return &entity.LoadResult{Errors: parsed.Errors, Warnings: parsed.Warnings}
	}
	m := parsed.Manifest
	warnings := append([]string{}, parsed.Warnings...)

	if m.ID != req.heldID {
		unlock := s.locks.lock(m.ID)
		defer unlock()
	}

	// 3. Duplicate.
	if s.reg.has(m.ID) {
		return &entity.LoadResult{
			Errors:   []string{fmt.Sprintf("%v: %s", errno.ErrAlreadyLoaded, m.ID)},
			Warnings: warnings,
		}
	}

	// 4. Host compatibility.
	if m.NubabelVersion != "" {
		if c := manifest.ValidateVersionCompatibility(m.NubabelVersion, s.opts.HostVersion); !c.Compatible {
			return &entity.LoadResult{
				Errors:   []string{fmt.Sprintf("%v: %s requires %s: %s", errno.ErrIncompatibleHost, m.ID, m.NubabelVersion, c.Message)},
				Warnings: warnings,
			}
		}
	}

	// 5. Referenced paths.
	if s.opts.ValidatePaths {
		pv := manifest.ValidatePaths(m, dir)
		warnings = append(warnings, pv.Warnings...)
		if !pv.Valid {
			return &entity.LoadResult{Errors: pv.Errors, Warnings: warnings}
		}
	}
	resolved, err := manifest.ResolvePaths(m, dir)
	if err != nil {
		return &entity.LoadResult{Errors: []string{err.Error()}, Warnings: warnings}
	}

	// 6. Dependencies.
	if _, depErrs := ResolveDependencies(resolved, s.reg.loaded(), req.pending); len(depErrs) > 0 {
		errs := make([]string, 0, len(depErrs))
		for _, de := range depErrs {
			errs = append(errs, de.Error())
		}
		logger.Warn("[ExtensionLoader] %s: unresolved dependencies: %v", m.ID, errs)
		return &entity.LoadResult{Errors: errs, Warnings: warnings}
	}

	// 7. Record.
	ext := &entity.LoadedExtension{
		ID:       m.ID,
		Manifest: resolved,
		BasePath: dir,
		Source:   req.source,
		Hooks:    make(map[string]entity.HookFunc),
		Status:   entity.StatusLoading,
	}

	// 8. Components.
	if err := s.loadComponents(ctx, ext); err != nil {
		ext.Status = entity.StatusError
		ext.Error = err.Error()
		s.deps.Modules.Cache().InvalidatePrefix(dir)
		logger.Error("[ExtensionLoader] %s@%s failed to load: %v", ext.ID, ext.Version(), err)
		return &entity.LoadResult{Errors: []string{err.Error()}, Warnings: warnings}
	}

	// 9. Activate.
	ext.Status = entity.StatusLoaded
	ext.LoadedAt = time.Now()
	if !s.reg.insert(ext) {
		return &entity.LoadResult{
			Errors:   []string{fmt.Sprintf("%v: %s", errno.ErrAlreadyLoaded, m.ID)},
			Warnings: warnings,
		}
	}

	s.emitInstall(ctx, ext)
	s.registerRoutes(ext)
	s.registerHooks(ext)
	s.registerMCPTools(ext)
	s.registerSkills(ctx, ext)
	s.registerAgents(ctx, ext)
	s.saveState(ctx, ext, req.pkgName)

	s.reg.setStatus(ext.ID, entity.StatusActive)
	snapshot, _ := s.reg.snapshot(ext.ID)
	if s.deps.Observer != nil {
		s.deps.Observer.ExtensionActivated(snapshot)
	}

	logger.Info("[ExtensionLoader] loaded %s@%s from %s (agents=%d, skills=%d, tools=%d, routes=%d, hooks=%d)",
		ext.ID, ext.Version(), dir, len(ext.Agents), len(ext.Skills), len(ext.MCPTools), len(ext.Routes), len(ext.Hooks))

	return &entity.LoadResult{Success: true, Extension: snapshot, Warnings: warnings}
}

func (s *loaderServiceImpl) Unload(ctx context.Context, id string) *entity.UnloadResult {
	unlock := s.locks.lock(id)
	defer unlock()
	return s.unload(ctx, id)
}

func (s *loaderServiceImpl) unload(ctx context.Context, id string) (res *entity.UnloadResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[ExtensionLoader] panic while unloading %s: %v\n%s", id, r, debug.Stack())
			res = &entity.UnloadResult{Errors: []string{fmt.Sprintf("internal error while unloading %s: %v", id, r)}}
		}
	}()

	ext, ok := s.reg.get(id)
	if !ok {
		return &entity.UnloadResult{Errors: []string{fmt.Sprintf("%v: %s", errno.ErrExtensionNotFound, id)}}
	}
	basePath := ext.BasePath
	s.reg.setStatus(id, entity.StatusUnloading)

	s.deps.Hooks.Emit(ctx, hooks.EventUninstall, &hooks.Context{
		ExtensionID: id,
		Data:        eventData(ext),
	})

	if s.deps.Routes != nil {
		s.deps.Routes.UnregisterExtensionRoutes(id)
	}
	s.deps.Hooks.UnregisterAll(id)
	if s.deps.Tools != nil {
		s.deps.Tools.UnregisterTools(id)
	}
	if s.deps.Skills != nil {
		if err := s.deps.Skills.UnregisterExtension(ctx, s.opts.OrgScope, id); err != nil {
			logger.Warn("[ExtensionLoader] %s: unregister skills: %v", id, err)
		}
	}
	if s.deps.Agents != nil {
		if err := s.deps.Agents.UnregisterAgents(ctx, s.opts.OrgScope, id); err != nil {
			logger.Warn("[ExtensionLoader] %s: unregister agents: %v", id, err)
		}
	}

	s.reg.remove(id)

	if s.deps.State != nil {
		if err := s.deps.State.Delete(ctx, id); err != nil && !errors.Is(err, errno.ErrRecordNotFound) {
			logger.Warn("[ExtensionLoader] %s: delete state record: %v", id, err)
		}
	}
	evicted := s.deps.Modules.Cache().InvalidatePrefix(basePath)
	if s.deps.Observer != nil {
		s.deps.Observer.ExtensionRemoved(id, basePath)
	}

	logger.Info("[ExtensionLoader] unloaded %s (evicted %d cached modules)", id, evicted)
	return &entity.UnloadResult{Success: true}
}

func (s *loaderServiceImpl) Reload(ctx context.Context, id string) *entity.LoadResult {
	unlock := s.locks.lock(id)
	defer unlock()

	req := loadRequest{source: entity.SourceDirectory, heldID: id}
	if ext, ok := s.reg.get(id); ok {
		req.dir, req.source = ext.BasePath, ext.Source
		if ext.Source == entity.SourcePackage && s.deps.State != nil {
			if rec, err := s.deps.State.Get(ctx, id); err == nil {
				req.pkgName = rec.Package
			}
		}
	}

	un := s.unload(ctx, id)
	if !un.Success {
		return &entity.LoadResult{Errors: un.Errors}
	}

	res := s.load(ctx, req)
	if res.Success {
		s.deps.Hooks.Emit(ctx, hooks.EventUpdate, &hooks.Context{
			ExtensionID: res.Extension.ID,
			Data:        eventData(res.Extension),
		})
	}
	return res
}

func (s *loaderServiceImpl) Emit(ctx context.Context, id string, event hooks.Event, data map[string]interface{}) error {
	if _, ok := hooks.SlotForEvent(event); !ok {
		return fmt.Errorf("unknown event %q", event)
	}
	ext, ok := s.reg.snapshot(id)
	if !ok {
		return fmt.Errorf("%w: %s", errno.ErrExtensionNotFound, id)
	}
	payload := eventData(ext)
	for k, v := range data {
		payload[k] = v
	}
	// Only the target's own handler and the event broker see the dispatch.
	s.deps.Hooks.EmitTo(ctx, event, &hooks.Context{ExtensionID: id, Data: payload}, id, hooks.BrokerOwnerID)
	return nil
}

func (s *loaderServiceImpl) GetLoadedExtensions() []*entity.LoadedExtension {
	return s.reg.list()
}

func (s *loaderServiceImpl) GetExtension(id string) (*entity.LoadedExtension, bool) {
	return s.reg.snapshot(id)
}

func (s *loaderServiceImpl) Reset() {
	for _, ext := range s.reg.list() {
		s.deps.Hooks.UnregisterAll(ext.ID)
	}
	s.reg.reset()
	s.deps.Modules.Cache().Reset()
}

// emitInstall runs the extension's own onInstall handler, then notifies every
// install subscriber through the hook manager. The extension's hooks are
// registered afterwards so its handler is not run twice.
func (s *loaderServiceImpl) emitInstall(ctx context.Context, ext *entity.LoadedExtension) {
	hc := &hooks.Context{
		ExtensionID: ext.ID,
		Event:       hooks.EventInstall,
		Timestamp:   time.Now(),
		DispatchID:  uuid.NewString(),
		Data:        eventData(ext),
	}
	if own, ok := ext.Hooks[manifest.HookOnInstall]; ok {
		if err := callHook(ctx, own, hookData(hc)); err != nil {
			logger.Error("[ExtensionLoader] %s: onInstall handler failed: %v", ext.ID, err)
		}
	}
	s.deps.Hooks.Emit(ctx, hooks.EventInstall, hc)
}

func failure(msg string) *entity.LoadResult {
	return &entity.LoadResult{Errors: []string{msg}}
}

func eventData(ext *entity.LoadedExtension) map[string]interface{} {
	return map[string]interface{}{
		"extensionId": ext.ID,
		"version":     ext.Version(),
		"basePath":    ext.BasePath,
		"source":      string(ext.Source),
	}
}
