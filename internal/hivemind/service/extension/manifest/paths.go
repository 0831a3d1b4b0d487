package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePaths checks that every file referenced by m exists under basePath.
// A missing icon, screenshot or translations directory is a warning; any
// other missing reference is an error. References that leave basePath are
// rejected the same way, so unloading can evict everything under it.
func ValidatePaths(m *Manifest, basePath string) PathValidation {
	var res PathValidation
	base, err := filepath.Abs(basePath)
	if err != nil {
		base = filepath.Clean(basePath)
	}
	need := func(kind, id, rel string) {
		p := resolve(base, rel)
		switch {
		case !within(base, p):
			res.Errors = append(res.Errors, fmt.Sprintf("%s %q: path escapes extension directory: %s", kind, id, rel))
		case !exists(p):
			res.Errors = append(res.Errors, fmt.Sprintf("%s %q: file not found: %s", kind, id, rel))
		}
	}
	optional := func(kind, rel string, present func(string) bool) {
		p := resolve(base, rel)
		switch {
		case !within(base, p):
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s escapes extension directory: %s", kind, rel))
		case !present(p):
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s not found: %s", kind, rel))
		}
	}

	for _, a := range m.Components.Agents {
		need("agent", a.ID, a.ConfigPath)
	}
	for _, s := range m.Components.Skills {
		need("skill", s.ID, s.ConfigPath)
	}
	for _, t := range m.Components.MCPTools {
		need("mcp tool", t.ID, t.Handler)
	}
	for _, w := range m.Components.Workflows {
		need("workflow", w.ID, w.ConfigPath)
	}
	for _, u := range m.Components.UIComponents {
		need("ui component", u.ID, u.ComponentPath)
	}
	for _, r := range m.Components.Routes {
		need("route", r.Path, r.Handler)
	}
	for _, slot := range HookSlots {
		if p := m.Hooks.Get(slot); p != "" {
			need("hook", slot, p)
		}
	}

	if m.Icon != "" {
		optional("icon", m.Icon, exists)
	}
	for _, s := range m.Screenshots {
		optional("screenshot", s, exists)
	}
	if m.I18n != nil && m.I18n.TranslationsPath != "" {
		optional("translations directory", m.I18n.TranslationsPath, isDir)
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// ResolvePaths returns a deep copy of m with every relative path made absolute
// against basePath. m is left untouched.
func ResolvePaths(m *Manifest, basePath string) (*Manifest, error) {
	base, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base path %s: %w", basePath, err)
	}

	out := m.Clone()

	c := &out.Components
	for i := range c.Agents {
		c.Agents[i].ConfigPath = resolve(base, c.Agents[i].ConfigPath)
	}
	for i := range c.Skills {
		c.Skills[i].ConfigPath = resolve(base, c.Skills[i].ConfigPath)
	}
	for i := range c.MCPTools {
		c.MCPTools[i].Handler = resolve(base, c.MCPTools[i].Handler)
	}
	for i := range c.Workflows {
		c.Workflows[i].ConfigPath = resolve(base, c.Workflows[i].ConfigPath)
	}
	for i := range c.UIComponents {
		c.UIComponents[i].ComponentPath = resolve(base, c.UIComponents[i].ComponentPath)
	}
	for i := range c.Routes {
		c.Routes[i].Handler = resolve(base, c.Routes[i].Handler)
	}
	for slot, p := range out.Hooks.Declared() {
		out.Hooks.set(slot, resolve(base, p))
	}
	if out.Icon != "" {
		out.Icon = resolve(base, out.Icon)
	}
	for i := range out.Screenshots {
		out.Screenshots[i] = resolve(base, out.Screenshots[i])
	}
	if out.I18n != nil && out.I18n.TranslationsPath != "" {
		out.I18n.TranslationsPath = resolve(base, out.I18n.TranslationsPath)
	}
	return out, nil
}

// ExtractComponentIDs lists declared component ids by kind.
// Routes are identified by their path.
func ExtractComponentIDs(m *Manifest) ComponentIDs {
	var ids ComponentIDs
	for _, a := range m.Components.Agents {
		ids.Agents = append(ids.Agents, a.ID)
	}
	for _, s := range m.Components.Skills {
		ids.Skills = append(ids.Skills, s.ID)
	}
	for _, t := range m.Components.MCPTools {
		ids.MCPTools = append(ids.MCPTools, t.ID)
	}
	for _, w := range m.Components.Workflows {
		ids.Workflows = append(ids.Workflows, w.ID)
	}
	for _, u := range m.Components.UIComponents {
		ids.UIComponents = append(ids.UIComponents, u.ID)
	}
	for _, r := range m.Components.Routes {
		ids.Routes = append(ids.Routes, r.Path)
	}
	return ids
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// within reports whether p is base or lies below it.
func within(base, p string) bool {
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
