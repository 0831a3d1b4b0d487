package service

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/manifest"
)

func TestParseDependency(t *testing.T) {
	tests := []struct {
		in   string
		want DependencySpec
	}{
		{"geo", DependencySpec{ID: "geo"}},
		{"geo@^1.0.0", DependencySpec{ID: "geo", Range: "^1.0.0"}},
		{"@org/name", DependencySpec{ID: "@org/name"}},
		{"@org/name@>=2.1.0", DependencySpec{ID: "@org/name", Range: ">=2.1.0"}},
		{"  geo@~1.2.0 ", DependencySpec{ID: "geo", Range: "~1.2.0"}},
	}
	for _, tt := range tests {
		got := ParseDependency(tt.in)
		if got != tt.want {
			t.Errorf("ParseDependency(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if strings.TrimSpace(tt.in) != got.String() {
			t.Errorf("String() = %q, want %q", got.String(), strings.TrimSpace(tt.in))
		}
	}
}

func loadedExt(id, version string, deps ...string) *entity.LoadedExtension {
	return &entity.LoadedExtension{
		ID:       id,
		Manifest: &manifest.Manifest{ID: id, Version: version, Dependencies: deps},
		Status:   entity.StatusActive,
	}
}

func TestResolveDependencies(t *testing.T) {
	loaded := map[string]*entity.LoadedExtension{
		"geo":   loadedExt("geo", "1.4.0"),
		"units": loadedExt("units", "0.9.0", "geo"),
	}

	t.Run("satisfied", func(t *testing.T) {
		m := &manifest.Manifest{ID: "weather", Version: "1.0.0", Dependencies: []string{"geo@^1.0.0", "units"}}
		g, errs := ResolveDependencies(m, loaded, nil)
		if len(errs) != 0 {
			t.Fatalf("unexpected errors %v", errs)
		}
		if !reflect.DeepEqual(g.Order, []string{"geo", "units", "weather"}) {
			t.Errorf("order = %v", g.Order)
		}
		if !g.Nodes["geo"].Resolved || g.Nodes["weather"].Resolved {
			t.Errorf("resolved flags wrong: %+v %+v", g.Nodes["geo"], g.Nodes["weather"])
		}
	})

	t.Run("missing and mismatched", func(t *testing.T) {
		m := &manifest.Manifest{ID: "weather", Version: "1.0.0", Dependencies: []string{"geo@^2.0.0", "maps"}}
		g, errs := ResolveDependencies(m, loaded, nil)
		if g != nil {
			t.Error("graph returned despite errors")
		}
		if len(errs) != 2 {
			t.Fatalf("errors = %v", errs)
		}
		if errs[0].Kind != entity.DependencyVersionMismatch || errs[0].Dependency != "geo@^2.0.0" {
			t.Errorf("first error = %+v", errs[0])
		}
		if errs[1].Kind != entity.DependencyMissing || errs[1].Dependency != "maps" {
			t.Errorf("second error = %+v", errs[1])
		}
	})

	t.Run("cycle through pending manifests", func(t *testing.T) {
		a := &manifest.Manifest{ID: "a", Version: "1.0.0", Dependencies: []string{"b"}}
		b := &manifest.Manifest{ID: "b", Version: "1.0.0", Dependencies: []string{"c"}}
		c := &manifest.Manifest{ID: "c", Version: "1.0.0", Dependencies: []string{"a"}}
		pending := map[string]*manifest.Manifest{"a": a, "b": b, "c": c}

		_, errs := ResolveDependencies(a, nil, pending)
		var circular *entity.DependencyError
		for _, e := range errs {
			if e.Kind == entity.DependencyCircular {
				circular = e
			}
		}
		if circular == nil {
			t.Fatalf("no circular error in %v", errs)
		}
		if circular.Message != "circular dependency: a -> b -> c -> a" {
			t.Errorf("message = %q", circular.Message)
		}
	})

	t.Run("self dependency", func(t *testing.T) {
		m := &manifest.Manifest{ID: "narcissus", Version: "1.0.0", Dependencies: []string{"narcissus"}}
		_, errs := ResolveDependencies(m, nil, nil)
		var kinds []entity.DependencyErrorKind
		for _, e := range errs {
			kinds = append(kinds, e.Kind)
		}
		if !reflect.DeepEqual(kinds, []entity.DependencyErrorKind{entity.DependencyMissing, entity.DependencyCircular}) {
			t.Errorf("kinds = %v", kinds)
		}
	})
}

func TestLoadOrder(t *testing.T) {
	mk := func(id string, deps ...string) *manifest.Manifest {
		return &manifest.Manifest{ID: id, Version: "1.0.0", Dependencies: deps}
	}
	ids := func(ms []*manifest.Manifest) []string {
		out := make([]string, 0, len(ms))
		for _, m := range ms {
			out = append(out, m.ID)
		}
		return out
	}

	tests := []struct {
		name string
		in   []*manifest.Manifest
		want []string
	}{
		{
			name: "independent keep input order",
			in:   []*manifest.Manifest{mk("b"), mk("a")},
			want: []string{"b", "a"},
		},
		{
			name: "dependencies first",
			in:   []*manifest.Manifest{mk("app", "lib@^1.0.0"), mk("lib", "core"), mk("core")},
			want: []string{"core", "lib", "app"},
		},
		{
			name: "unknown dependencies ignored",
			in:   []*manifest.Manifest{mk("app", "elsewhere")},
			want: []string{"app"},
		},
		{
			name: "cycle appended in input order",
			in:   []*manifest.Manifest{mk("x", "y"), mk("solo"), mk("y", "x")},
			want: []string{"solo", "x", "y"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(LoadOrder(tt.in))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LoadOrder = %v, want %v", got, tt.want)
			}
		})
	}

	dup := []*manifest.Manifest{mk("twin"), mk("twin")}
	if got := LoadOrder(dup); len(got) != 2 {
		t.Errorf("duplicate ids dropped: %d", len(got))
	}
}
