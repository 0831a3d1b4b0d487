// Package modload compiles extension handler modules and keeps them cached by path.
//
// A handler module is a single Go source file interpreted with yaegi against the
// standard library symbols. Compiled units are cached under their absolute path
// until Invalidate or InvalidatePrefix evicts them, which is what makes hot
// reload observe new file content.
package modload

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kiosk404/nubabel/pkg/logger"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Unit is one compiled handler module.
type Unit struct {
	Path     string
	Package  string
	LoadedAt time.Time

	// funcs and vars hold the exported top-level names declared in the file.
	funcs []string
	vars  []string

	mu sync.Mutex
	it *interp.Interpreter
}

// Exports returns the exported top-level names of the unit, sorted.
func (u *Unit) Exports() []string {
	out := append(append([]string{}, u.funcs...), u.vars...)
	sort.Strings(out)
	return out
}

// Functions returns the exported top-level function names, sorted.
func (u *Unit) Functions() []string {
	return append([]string{}, u.funcs...)
}

// Has reports whether name is an exported top-level function or variable.
func (u *Unit) Has(name string) bool {
	for _, n := range u.funcs {
		if n == name {
			return true
		}
	}
	for _, n := range u.vars {
		if n == name {
			return true
		}
	}
	return false
}

// Lookup evaluates an exported symbol of the unit.
func (u *Unit) Lookup(name string) (reflect.Value, error) {
	if !u.Has(name) {
		return reflect.Value{}, fmt.Errorf("%s does not export %s", u.Path, name)
	}
	symbol := name
	if u.Package != "" && u.Package != "main" {
		symbol = u.Package + "." + name
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	v, err := u.it.Eval(symbol)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("evaluate %s in %s: %w", name, u.Path, err)
	}
	return v, nil
}

// Cache maps absolute module paths to compiled units. It is safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	units map[string]*Unit
}

// NewCache creates an empty module cache.
func NewCache() *Cache {
	return &Cache{units: make(map[string]*Unit)}
}

// Load returns the cached unit for path, compiling it on first use.
func (c *Cache) Load(path string) (*Unit, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve module path %s: %w", path, err)
	}

	c.mu.Lock()
	if u, ok := c.units[abs]; ok {
		c.mu.Unlock()
		return u, nil
	}
	c.mu.Unlock()

	u, err := compile(abs)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.units[abs]; ok {
		return existing, nil
	}
	c.units[abs] = u
	return u, nil
}

// Invalidate evicts the unit cached for path.
func (c *Cache) Invalidate(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.units[abs]; !ok {
		return false
	}
	delete(c.units, abs)
	return true
}

// InvalidatePrefix evicts every unit whose path is prefix or lies under it,
// and returns how many were evicted.
func (c *Cache) InvalidatePrefix(prefix string) int {
	abs, err := filepath.Abs(prefix)
	if err != nil {
		return 0
	}
	dir := strings.TrimSuffix(abs, string(filepath.Separator)) + string(filepath.Separator)

	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for p := range c.units {
		if p == abs || strings.HasPrefix(p, dir) {
			delete(c.units, p)
			n++
		}
	}
	if n > 0 {
		logger.Debug("[ModuleLoader] evicted %d cached modules under %s", n, abs)
	}
	return n
}

// Len returns the number of cached units.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.units)
}

// Reset evicts everything.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.units = make(map[string]*Unit)
	c.mu.Unlock()
}

func compile(path string) (*Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(src))) == 0 {
		return nil, fmt.Errorf("module %s is empty", path)
	}

	file, err := parser.ParseFile(token.NewFileSet(), path, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parse module %s: %w", path, err)
	}
	u := &Unit{
		Path:     path,
		Package:  file.Name.Name,
		LoadedAt: time.Now(),
	}
	collectExports(file, u)

	it := interp.New(interp.Options{})
	if err := it.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib symbols: %w", err)
	}
	if _, err := it.EvalPath(path); err != nil {
		return nil, fmt.Errorf("interpret module %s: %w", path, err)
	}
	u.it = it
	return u, nil
}

func collectExports(file *ast.File, u *Unit) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil && d.Name.IsExported() {
				u.funcs = append(u.funcs, d.Name.Name)
			}
		case *ast.GenDecl:
			if d.Tok != token.VAR {
				continue
			}
			for _, spec := range d.Specs {
				vs, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}
				for _, name := range vs.Names {
					if name.IsExported() {
						u.vars = append(u.vars, name.Name)
					}
				}
			}
		}
	}
	sort.Strings(u.funcs)
	sort.Strings(u.vars)
}
