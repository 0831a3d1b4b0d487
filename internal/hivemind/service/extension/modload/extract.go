package modload

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/pkg/errno"
)

// Kind selects the handler signature and extractor chain.
type Kind string

const (
	KindHook  Kind = "hook"
	KindTool  Kind = "mcp tool"
	KindRoute Kind = "route"
)

var (
	hookType  = reflect.TypeOf((func(context.Context, map[string]interface{}) error)(nil))
	toolType  = reflect.TypeOf((func(context.Context, map[string]interface{}) (interface{}, error))(nil))
	routeType = reflect.TypeOf((func(http.ResponseWriter, *http.Request))(nil))
)

// Extractor finds a handler value inside a compiled unit.
type Extractor interface {
	// Name describes the rule for diagnostics.
	Name() string
	// Extract returns the matching value converted to target, or false.
	Extract(u *Unit, target reflect.Type) (reflect.Value, bool)
}

// Named matches an exported top-level symbol by name.
type Named string

func (n Named) Name() string { return "export " + string(n) }

func (n Named) Extract(u *Unit, target reflect.Type) (reflect.Value, bool) {
	if !u.Has(string(n)) {
		return reflect.Value{}, false
	}
	v, err := u.Lookup(string(n))
	if err != nil {
		return reflect.Value{}, false
	}
	return convert(v, target)
}

// SoleFunction matches a unit that declares exactly one exported function.
type SoleFunction struct{}

func (SoleFunction) Name() string { return "sole exported function" }

func (SoleFunction) Extract(u *Unit, target reflect.Type) (reflect.Value, bool) {
	fns := u.Functions()
	if len(fns) != 1 {
		return reflect.Value{}, false
	}
	v, err := u.Lookup(fns[0])
	if err != nil {
		return reflect.Value{}, false
	}
	return convert(v, target)
}

// Chain returns the extractors tried, in order, for a handler kind.
func Chain(kind Kind) []Extractor {
	if kind == KindTool {
		return []Extractor{Named("Default"), Named("Handler"), Named("Execute"), SoleFunction{}}
	}
	return []Extractor{Named("Default"), Named("Handler"), SoleFunction{}}
}

// Resolve runs chain against u and returns the first match.
func Resolve(u *Unit, target reflect.Type, chain []Extractor) (reflect.Value, error) {
	tried := make([]string, 0, len(chain))
	for _, ex := range chain {
		if v, ok := ex.Extract(u, target); ok {
			return v, nil
		}
		tried = append(tried, ex.Name())
	}
	return reflect.Value{}, fmt.Errorf("%w: %s (want %s; tried %s)",
		errno.ErrNoHandlerExport, u.Path, target, strings.Join(tried, ", "))
}

func convert(v reflect.Value, target reflect.Type) (reflect.Value, bool) {
	if v.IsValid() && v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return reflect.Value{}, false
	}
	if v.Type() == target {
		return v, true
	}
	if v.Type().ConvertibleTo(target) {
		return v.Convert(target), true
	}
	return reflect.Value{}, false
}

// Loader compiles handler modules through a shared Cache.
type Loader struct {
	cache *Cache
}

// NewLoader creates a loader over cache.
func NewLoader(cache *Cache) *Loader {
	return &Loader{cache: cache}
}

// Cache returns the underlying module cache.
func (l *Loader) Cache() *Cache { return l.cache }

// fresh evicts any stale unit for path and compiles it again.
func (l *Loader) fresh(path string) (*Unit, error) {
	l.cache.Invalidate(path)
	return l.cache.Load(path)
}

// LoadHook compiles a hook handler module.
func (l *Loader) LoadHook(path string) (entity.HookFunc, error) {
	u, err := l.fresh(path)
	if err != nil {
		return nil, err
	}
	v, err := Resolve(u, hookType, Chain(KindHook))
	if err != nil {
		return nil, err
	}
	return entity.HookFunc(v.Interface().(func(context.Context, map[string]interface{}) error)), nil
}

// LoadTool compiles an MCP tool handler module.
func (l *Loader) LoadTool(path string) (entity.ToolFunc, error) {
	u, err := l.fresh(path)
	if err != nil {
		return nil, err
	}
	v, err := Resolve(u, toolType, Chain(KindTool))
	if err != nil {
		return nil, err
	}
	return entity.ToolFunc(v.Interface().(func(context.Context, map[string]interface{}) (interface{}, error))), nil
}

// LoadRoute compiles a route handler module.
func (l *Loader) LoadRoute(path string) (entity.RouteFunc, error) {
	u, err := l.fresh(path)
	if err != nil {
		return nil, err
	}
	v, err := Resolve(u, routeType, Chain(KindRoute))
	if err != nil {
		return nil, err
	}
	return entity.RouteFunc(v.Interface().(func(http.ResponseWriter, *http.Request))), nil
}
