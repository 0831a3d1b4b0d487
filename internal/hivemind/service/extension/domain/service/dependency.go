package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/manifest"
)

// DependencySpec is a parsed "id@range" dependency declaration.
type DependencySpec struct {
	ID    string
	Range string
}

func (d DependencySpec) String() string {
	if d.Range == "" {
		return d.ID
	}
	return d.ID + "@" + d.Range
}

// ParseDependency splits "id@range". The range separator is the last '@' that
// is not the first character, so scoped ids such as "@org/name@^1.0.0" work.
func ParseDependency(spec string) DependencySpec {
	s := strings.TrimSpace(spec)
	if i := strings.LastIndex(s, "@"); i > 0 {
		return DependencySpec{ID: s[:i], Range: strings.TrimSpace(s[i+1:])}
	}
	return DependencySpec{ID: s}
}

// DependencyNode is one vertex of a DependencyGraph.
type DependencyNode struct {
	ID           string
	Version      string
	Dependencies []string
	// Resolved is true when the node is an extension that is already loaded.
	Resolved bool
}

// DependencyGraph is built per load attempt and never persisted.
type DependencyGraph struct {
	Nodes map[string]*DependencyNode
	// Order lists node ids with dependencies before their dependents.
	Order []string
}

// ResolveDependencies checks the declared dependencies of candidate against the
// loaded extensions and returns the graph plus every problem found.
//
// pending holds manifests known to be on their way in (siblings of a bulk
// load); they take part in cycle detection but never satisfy a dependency.
func ResolveDependencies(
	candidate *manifest.Manifest,
	loaded map[string]*entity.LoadedExtension,
	pending map[string]*manifest.Manifest,
) (*DependencyGraph, []*entity.DependencyError) {
	var errs []*entity.DependencyError

	for _, raw := range candidate.Dependencies {
		dep := ParseDependency(raw)
		ext, ok := loaded[dep.ID]
		if !ok {
			errs = append(errs, &entity.DependencyError{
				Kind:       entity.DependencyMissing,
				Dependency: raw,
				Message:    fmt.Sprintf("extension %q is not loaded", dep.ID),
			})
			continue
		}
		if dep.Range == "" {
			continue
		}
		if c := manifest.ValidateVersionCompatibility(dep.Range, ext.Version()); !c.Compatible {
			errs = append(errs, &entity.DependencyError{
				Kind:       entity.DependencyVersionMismatch,
				Dependency: raw,
				Message:    c.Message,
			})
		}
	}

	g := &DependencyGraph{Nodes: make(map[string]*DependencyNode)}
	g.add(candidate, false, loaded, pending)

	state := make(map[string]int, len(g.Nodes))
	var stack []string
	var visit func(id string)
	visit = func(id string) {
		switch state[id] {
		case visiting:
			errs = append(errs, &entity.DependencyError{
				Kind:       entity.DependencyCircular,
				Dependency: id,
				Message:    "circular dependency: " + strings.Join(cycleFrom(stack, id), " -> "),
			})
			return
		case visited:
			return
		}
		state[id] = visiting
		stack = append(stack, id)
		for _, dep := range g.Nodes[id].Dependencies {
			if _, ok := g.Nodes[dep]; ok {
				visit(dep)
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = visited
		g.Order = append(g.Order, id)
	}
	visit(candidate.ID)

	if len(errs) > 0 {
		return nil, errs
	}
	return g, nil
}

const (
	unvisited = iota
	visiting
	visited
)

// add inserts m and, transitively, every known extension it depends on.
func (g *DependencyGraph) add(
	m *manifest.Manifest,
	resolved bool,
	loaded map[string]*entity.LoadedExtension,
	pending map[string]*manifest.Manifest,
) {
	if _, ok := g.Nodes[m.ID]; ok {
		return
	}
	node := &DependencyNode{ID: m.ID, Version: m.Version, Resolved: resolved}
	for _, raw := range m.Dependencies {
		node.Dependencies = append(node.Dependencies, ParseDependency(raw).ID)
	}
	g.Nodes[m.ID] = node

	for _, id := range node.Dependencies {
		if ext, ok := loaded[id]; ok && ext.Manifest != nil {
			g.add(ext.Manifest, true, loaded, pending)
		} else if pm, ok := pending[id]; ok && pm != nil {
			g.add(pm, false, loaded, pending)
		}
	}
}

func cycleFrom(stack []string, id string) []string {
	for i, s := range stack {
		if s == id {
			return append(append([]string{}, stack[i:]...), id)
		}
	}
	return []string{id, id}
}

// LoadOrder sorts manifests so that dependencies come before dependents.
// Manifests caught in a cycle keep their relative input order at the end.
func LoadOrder(manifests []*manifest.Manifest) []*manifest.Manifest {
	byID := make(map[string]*manifest.Manifest, len(manifests))
	for _, m := range manifests {
		if _, dup := byID[m.ID]; !dup {
			byID[m.ID] = m
		}
	}

	state := make(map[*manifest.Manifest]int, len(manifests))
	var order []*manifest.Manifest
	var cyclic bool
	var visit func(m *manifest.Manifest) bool
	visit = func(m *manifest.Manifest) bool {
		switch state[m] {
		case visiting:
			return false
		case visited:
			return true
		}
		state[m] = visiting
		deps := make([]string, 0, len(m.Dependencies))
		for _, raw := range m.Dependencies {
			deps = append(deps, ParseDependency(raw).ID)
		}
		sort.Strings(deps)
		ok := true
		for _, id := range deps {
			if dep, found := byID[id]; found && !visit(dep) {
				ok = false
			}
		}
		if !ok {
			state[m] = unvisited
			return false
		}
		state[m] = visited
		order = append(order, m)
		return true
	}

	for _, m := range manifests {
		if !visit(m) {
			cyclic = true
		}
	}
	if !cyclic {
		return order
	}
	for _, m := range manifests {
		if state[m] != visited {
			order = append(order, m)
		}
	}
	return order
}
