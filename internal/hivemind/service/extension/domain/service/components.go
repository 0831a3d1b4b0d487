package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/hooks"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/manifest"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/pkg/errno"
	"github.com/kiosk404/nubabel/pkg/logger"
	"github.com/kiosk404/nubabel/pkg/utils/json"
	"go.yaml.in/yaml/v3"
)

// loadComponents materialises agents, skills, MCP tools and hooks, in that
// order. The first failure aborts. LoadTimeout is checked before each component.
func (s *loaderServiceImpl) loadComponents(ctx context.Context, ext *entity.LoadedExtension) error {
	if s.opts.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.LoadTimeout)
		defer cancel()
	}
	checkpoint := func(kind, id string) error {
		if err := ctx.Err(); err != nil {
			return &entity.ComponentLoadError{Kind: kind, ID: id, Err: fmt.Errorf("%w: %v", errno.ErrLoadTimeout, err)}
		}
		return nil
	}
	c := ext.Manifest.Components

	for _, ac := range c.Agents {
		if err := checkpoint("agent", ac.ID); err != nil {
			return err
		}
		agent, err := loadAgent(ac)
		if err != nil {
			return &entity.ComponentLoadError{Kind: "agent", ID: ac.ID, Err: err}
		}
		ext.Agents = append(ext.Agents, agent)
	}

	for _, sc := range c.Skills {
		if err := checkpoint("skill", sc.ID); err != nil {
			return err
		}
		skill, err := loadSkill(sc)
		if err != nil {
			return &entity.ComponentLoadError{Kind: "skill", ID: sc.ID, Err: err}
		}
		ext.Skills = append(ext.Skills, skill)
	}

	for _, tc := range c.MCPTools {
		if err := checkpoint("mcp tool", tc.ID); err != nil {
			return err
		}
		fn, err := s.deps.Modules.LoadTool(tc.Handler)
		if err != nil {
			return &entity.ComponentLoadError{Kind: "mcp tool", ID: tc.ID, Err: err}
		}
		ext.MCPTools = append(ext.MCPTools, entity.MCPTool{
			ID:          tc.ID,
			Description: tc.Description,
			HandlerPath: tc.Handler,
			InputSchema: tc.InputSchema,
			Handler:     fn,
		})
	}

	for _, slot := range manifest.HookSlots {
		path := ext.Manifest.Hooks.Get(slot)
		if path == "" {
			continue
		}
		if err := checkpoint("hook", slot); err != nil {
			return err
		}
		fn, err := s.deps.Modules.LoadHook(path)
		if err != nil {
			return &entity.ComponentLoadError{Kind: "hook", ID: slot, Err: err}
		}
		ext.Hooks[slot] = fn
	}

	for _, rc := range c.Routes {
		method := strings.ToUpper(rc.Method)
		if method == "" {
			method = "GET"
		}
		ext.Routes = append(ext.Routes, entity.Route{Path: rc.Path, Method: method, HandlerPath: rc.Handler})
	}
	return nil
}

func loadAgent(c manifest.AgentComponent) (entity.Agent, error) {
	var cfg entity.AgentConfig
	if err := readConfig(c.ConfigPath, &cfg); err != nil {
		return entity.Agent{}, err
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return entity.Agent{}, fmt.Errorf("%s: missing required field \"name\"", c.ConfigPath)
	}
	return entity.Agent{ID: c.ID, ConfigPath: c.ConfigPath, Config: cfg}, nil
}

func loadSkill(c manifest.SkillComponent) (entity.Skill, error) {
	var cfg entity.SkillConfig
	if err := readConfig(c.ConfigPath, &cfg); err != nil {
		return entity.Skill{}, err
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return entity.Skill{}, fmt.Errorf("%s: missing required field \"name\"", c.ConfigPath)
	}
	return entity.Skill{ID: c.ID, ConfigPath: c.ConfigPath, Config: cfg}, nil
}

// readConfig decodes a .json config file as JSON and anything else as YAML.
func readConfig(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, out)
	} else {
		err = yaml.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// --- Post-load registration. Failures are logged and never change status. ---

func (s *loaderServiceImpl) registerRoutes(ext *entity.LoadedExtension) {
	if s.deps.Routes == nil || len(ext.Routes) == 0 {
		return
	}
	if err := s.deps.Routes.RegisterExtensionRoutes(ext.Snapshot()); err != nil {
		logger.Warn("[ExtensionLoader] %s: register routes: %v", ext.ID, err)
	}
}

func (s *loaderServiceImpl) registerHooks(ext *entity.LoadedExtension) {
	for slot, fn := range ext.Hooks {
		event, ok := hooks.EventForSlot(slot)
		if !ok {
			continue
		}
		s.deps.Hooks.Register(event, ext.ID, adaptHook(fn))
	}
}

func (s *loaderServiceImpl) registerMCPTools(ext *entity.LoadedExtension) {
	if s.deps.Tools == nil || len(ext.MCPTools) == 0 {
		return
	}
	if err := s.deps.Tools.RegisterTools(ext.Snapshot()); err != nil {
		logger.Warn("[ExtensionLoader] %s: register mcp tools: %v", ext.ID, err)
	}
}

func (s *loaderServiceImpl) registerSkills(ctx context.Context, ext *entity.LoadedExtension) {
	if s.deps.Skills == nil {
		return
	}
	for _, skill := range ext.Skills {
		if err := s.deps.Skills.RegisterExtension(ctx, s.opts.OrgScope, entity.NewSkillDescriptor(ext, skill)); err != nil {
			logger.Warn("[ExtensionLoader] %s: register skill %q: %v", ext.ID, skill.ID, err)
		}
	}
}

func (s *loaderServiceImpl) registerAgents(ctx context.Context, ext *entity.LoadedExtension) {
	if s.deps.Agents == nil {
		return
	}
	for _, agent := range ext.Agents {
		if err := s.deps.Agents.RegisterAgent(ctx, s.opts.OrgScope, entity.NewAgentDescriptor(ext, agent)); err != nil {
			logger.Warn("[ExtensionLoader] %s: register agent %q: %v", ext.ID, agent.ID, err)
		}
	}
}

func (s *loaderServiceImpl) saveState(ctx context.Context, ext *entity.LoadedExtension, pkgName string) {
	if s.deps.State == nil {
		return
	}
	rec := &entity.ExtensionRecord{
		ID:       ext.ID,
		BasePath: ext.BasePath,
		Source:   ext.Source,
		Package:  pkgName,
		Version:  ext.Version(),
		LoadedAt: ext.LoadedAt,
	}
	if err := s.deps.State.Save(ctx, rec); err != nil {
		logger.Warn("[ExtensionLoader] %s: save state record: %v", ext.ID, err)
	}
}

// adaptHook exposes a module hook function as a hook manager handler.
func adaptHook(fn entity.HookFunc) hooks.Handler {
	return func(ctx context.Context, hc *hooks.Context) error {
		return fn(ctx, hookData(hc))
	}
}

// hookData is the map a hook module receives: the dispatch data plus the
// context fields under reserved keys.
func hookData(hc *hooks.Context) map[string]interface{} {
	data := make(map[string]interface{}, len(hc.Data)+4)
	for k, v := range hc.Data {
		data[k] = v
	}
	data["extensionId"] = hc.ExtensionID
	data["event"] = string(hc.Event)
	data["dispatchId"] = hc.DispatchID
	data["timestamp"] = hc.Timestamp
	return data
}

// callHook runs a module hook outside the hook manager with panic isolation.
func callHook(ctx context.Context, fn entity.HookFunc, data map[string]interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx, data)
}
