package manifest

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const validManifest = `
id: weather
name: Weather
version: 1.2.0
description: Forecasts for agents
nubabelVersion: ">=1.0.0"
tags: [weather, forecast]
dependencies:
  - geo@^1.0.0
components:
  agents:
    - id: forecaster
      configPath: agents/forecaster.yaml
  skills:
    - id: lookup
      configPath: skills/lookup.yaml
  mcpTools:
    - id: current
      handler: tools/current.go
      description: Current conditions
  routes:
    - path: /forecast
      method: GET
      handler: routes/forecast.go
hooks:
  onInstall: hooks/install.go
icon: icon.png
i18n:
  translationsPath: locales
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestParseContent(t *testing.T) {
	res := ParseContent([]byte(validManifest))
	if !res.Success {
		t.Fatalf("expected success, got errors %v", res.Errors)
	}
	m := res.Manifest
	if m.ID != "weather" || m.Version != "1.2.0" {
		t.Errorf("unexpected identity %s@%s", m.ID, m.Version)
	}
	if len(m.Components.Agents) != 1 || m.Components.Agents[0].ConfigPath != "agents/forecaster.yaml" {
		t.Errorf("agents not decoded: %+v", m.Components.Agents)
	}
	if m.Hooks.OnInstall != "hooks/install.go" {
		t.Errorf("hooks not decoded: %+v", m.Hooks)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", res.Warnings)
	}
}

func TestParseContentFailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty", "", "empty"},
		{"invalid yaml", "id: [unterminated", "invalid YAML"},
		{"scalar document", "just a string", "mapping"},
		{"missing id", "name: x\nversion: 1.0.0\n", ""},
		{"bad version", "id: x\nname: x\nversion: one\n", "/version"},
		{"unknown hook", "id: x\nname: x\nversion: 1.0.0\nhooks:\n  onBoot: a.go\n", "/hooks"},
		{"route without slash", "id: x\nname: x\nversion: 1.0.0\ncomponents:\n  routes:\n    - path: api\n      handler: a.go\n", "/components/routes/0/path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseContent([]byte(tt.content))
			if res.Success || res.Manifest != nil {
				t.Fatalf("expected failure without manifest, got %+v", res)
			}
			if len(res.Errors) == 0 {
				t.Fatal("expected errors")
			}
			if tt.want != "" && !strings.Contains(strings.Join(res.Errors, "\n"), tt.want) {
				t.Errorf("errors %v do not mention %q", res.Errors, tt.want)
			}
		})
	}
}

func TestParseContentWarnings(t *testing.T) {
	res := ParseContent([]byte("id: bare\nname: Bare\nversion: 0.1.0\n"))
	if !res.Success {
		t.Fatalf("expected success, got %v", res.Errors)
	}
	if len(res.Warnings) != 2 {
		t.Errorf("expected description and nubabelVersion warnings, got %v", res.Warnings)
	}
}

func TestParseFromDirectory(t *testing.T) {
	dir := t.TempDir()
	if res := ParseFromDirectory(dir); res.Success {
		t.Fatal("expected failure for directory without manifest")
	}

	writeFile(t, filepath.Join(dir, "manifest.yml"), "id: second\nname: S\nversion: 1.0.0\n")
	writeFile(t, filepath.Join(dir, "extension.yml"), "id: first\nname: F\nversion: 1.0.0\n")

	res := ParseFromDirectory(dir)
	if !res.Success {
		t.Fatalf("parse: %v", res.Errors)
	}
	if res.Manifest.ID != "first" {
		t.Errorf("expected extension.yml to win, got %s", res.Manifest.ID)
	}

	path, err := FindFile(dir)
	if err != nil || filepath.Base(path) != "extension.yml" {
		t.Errorf("FindFile = %s, %v", path, err)
	}
}

func TestValidatePaths(t *testing.T) {
	dir := t.TempDir()
	res := ParseContent([]byte(validManifest))
	if !res.Success {
		t.Fatalf("parse: %v", res.Errors)
	}
	m := res.Manifest

	v := ValidatePaths(m, dir)
	if v.Valid {
		t.Fatal("expected invalid with no files present")
	}
	if len(v.Errors) != 5 {
		t.Errorf("expected 5 errors, got %d: %v", len(v.Errors), v.Errors)
	}
	if len(v.Warnings) != 2 {
		t.Errorf("expected icon and i18n warnings, got %v", v.Warnings)
	}

	for _, p := range []string{
		"agents/forecaster.yaml",
		"skills/lookup.yaml",
		"tools/current.go",
		"routes/forecast.go",
		"hooks/install.go",
	} {
		writeFile(t, filepath.Join(dir, p), "x")
	}
	v = ValidatePaths(m, dir)
	if !v.Valid {
		t.Fatalf("expected valid, got %v", v.Errors)
	}
	if len(v.Warnings) != 2 {
		t.Errorf("missing icon and i18n should stay warnings, got %v", v.Warnings)
	}
}

func TestValidatePathsContainment(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "ext")
	writeFile(t, filepath.Join(base, "hooks/h.go"), "x")
	writeFile(t, filepath.Join(base, "icon.png"), "x")
	writeFile(t, filepath.Join(root, "shared/h.go"), "x")
	writeFile(t, filepath.Join(root, "shared/icon.png"), "x")

	tests := []struct {
		name    string
		hook    string
		icon    string
		errors  []string
		warning string
	}{
		{name: "relative inside", hook: "hooks/h.go"},
		{name: "absolute inside", hook: filepath.Join(base, "hooks/h.go")},
		{name: "dot segments that stay inside", hook: "hooks/../hooks/h.go"},
		{name: "parent directory", hook: "../shared/h.go", errors: []string{"path escapes extension directory"}},
		{name: "absolute outside", hook: filepath.Join(root, "shared/h.go"), errors: []string{"path escapes extension directory"}},
		{name: "sibling with shared prefix", hook: "../ext-other/h.go", errors: []string{"path escapes extension directory"}},
		{name: "icon outside", hook: "hooks/h.go", icon: "../shared/icon.png", warning: "icon escapes extension directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Manifest{ID: "ext", Name: "Ext", Version: "1.0.0", Icon: tt.icon}
			m.Hooks.OnEnable = tt.hook

			v := ValidatePaths(m, base)
			if v.Valid != (len(tt.errors) == 0) {
				t.Fatalf("Valid = %v, errors %v", v.Valid, v.Errors)
			}
			if len(v.Errors) != len(tt.errors) {
				t.Fatalf("errors = %v, want %v", v.Errors, tt.errors)
			}
			for i, want := range tt.errors {
				if !strings.Contains(v.Errors[i], want) {
					t.Errorf("error %q does not mention %q", v.Errors[i], want)
				}
			}
			if tt.warning != "" && (len(v.Warnings) != 1 || !strings.Contains(v.Warnings[0], tt.warning)) {
				t.Errorf("warnings = %v, want %q", v.Warnings, tt.warning)
			}
			if tt.warning == "" && len(v.Warnings) != 0 {
				t.Errorf("unexpected warnings %v", v.Warnings)
			}
		})
	}
}

func TestResolvePaths(t *testing.T) {
	res := ParseContent([]byte(validManifest))
	if !res.Success {
		t.Fatalf("parse: %v", res.Errors)
	}
	m := res.Manifest
	m.Components.Skills[0].ConfigPath = "/abs/lookup.yaml"

	base := t.TempDir()
	out, err := ResolvePaths(m, base)
	if err != nil {
		t.Fatalf("ResolvePaths: %v", err)
	}
	if got, want := out.Components.Agents[0].ConfigPath, filepath.Join(base, "agents/forecaster.yaml"); got != want {
		t.Errorf("agent path = %s, want %s", got, want)
	}
	if out.Components.Skills[0].ConfigPath != "/abs/lookup.yaml" {
		t.Errorf("absolute path rewritten: %s", out.Components.Skills[0].ConfigPath)
	}
	if got := out.Hooks.OnInstall; got != filepath.Join(base, "hooks/install.go") {
		t.Errorf("hook path = %s", got)
	}
	if got := out.I18n.TranslationsPath; got != filepath.Join(base, "locales") {
		t.Errorf("i18n path = %s", got)
	}
	if m.Components.Agents[0].ConfigPath != "agents/forecaster.yaml" || m.Hooks.OnInstall != "hooks/install.go" {
		t.Error("original manifest was mutated")
	}
}

func TestExtractComponentIDs(t *testing.T) {
	res := ParseContent([]byte(validManifest))
	if !res.Success {
		t.Fatalf("parse: %v", res.Errors)
	}
	ids := ExtractComponentIDs(res.Manifest)
	want := ComponentIDs{
		Agents:   []string{"forecaster"},
		Skills:   []string{"lookup"},
		MCPTools: []string{"current"},
		Routes:   []string{"/forecast"},
	}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ExtractComponentIDs = %+v, want %+v", ids, want)
	}
}

func TestValidateVersionCompatibility(t *testing.T) {
	tests := []struct {
		requirement string
		current     string
		compatible  bool
	}{
		{">=2.0.0", "2.1.0", true},
		{">=2.0.0", "1.9.9", false},
		{">1.0.0", "1.0.0", false},
		{">1.0.0", "1.0.1", true},
		{"<=1.2.3", "1.2.3", true},
		{"<1.2.3", "1.2.3", false},
		{"^1.0.0", "1.4.2", true},
		{"^1.0.0", "2.0.0", false},
		{"^1.2.0", "1.1.9", false},
		{"~1.2.0", "1.2.5", true},
		{"~1.2.0", "1.3.0", false},
		{"~1.2.3", "1.2.1", false},
		{"1.0.0", "1.0.0", true},
		{"=1.0.0", "1.0.1", false},
		{"1.0.0", "1.0.1", false},
		{"banana", "1.0.0", false},
		{">=1.0", "1.0.0", false},
		{"^1.0.0", "latest", false},
		{"", "1.0.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.requirement+"_"+tt.current, func(t *testing.T) {
			got := ValidateVersionCompatibility(tt.requirement, tt.current)
			if got.Compatible != tt.compatible {
				t.Errorf("compatible = %v, want %v (%s)", got.Compatible, tt.compatible, got.Message)
			}
			if !got.Compatible && got.Message == "" {
				t.Error("incompatible result without message")
			}
		})
	}
}

func TestMergeUpdatesVersionOnly(t *testing.T) {
	res := ParseContent([]byte(validManifest))
	if !res.Success {
		t.Fatalf("parse: %v", res.Errors)
	}
	original := res.Manifest
	before := original.Clone()

	merged := MergeUpdates(original, &Manifest{Version: "2.0.0"})
	if merged.Version != "2.0.0" {
		t.Errorf("version = %s", merged.Version)
	}
	if !reflect.DeepEqual(merged.Components, original.Components) {
		t.Error("components changed")
	}
	if !reflect.DeepEqual(merged.Hooks, original.Hooks) {
		t.Error("hooks changed")
	}
	if !reflect.DeepEqual(merged.Tags, original.Tags) {
		t.Error("tags changed")
	}
	if !reflect.DeepEqual(original, before) {
		t.Error("original mutated")
	}
}

func TestMergeUpdates(t *testing.T) {
	original := &Manifest{
		ID:      "x",
		Name:    "X",
		Version: "1.0.0",
		Tags:    []string{"a", "b"},
		Author:  &Author{Name: "Ada", Email: "ada@example.com"},
		Hooks:   Hooks{OnInstall: "install.go", OnUninstall: "uninstall.go"},
		Components: Components{
			Agents: []AgentComponent{{ID: "one", ConfigPath: "one.yaml"}},
			Skills: []SkillComponent{{ID: "s", ConfigPath: "s.yaml"}},
		},
		ConfigSchema: map[string]interface{}{"type": "object", "title": "old"},
	}
	updates := &Manifest{
		Tags:         []string{"c"},
		Author:       &Author{URL: "https://example.com"},
		Hooks:        Hooks{OnInstall: "install2.go"},
		Components:   Components{Agents: []AgentComponent{{ID: "two", ConfigPath: "two.yaml"}}},
		ConfigSchema: map[string]interface{}{"title": "new"},
	}

	got := MergeUpdates(original, updates)

	if !reflect.DeepEqual(got.Tags, []string{"c"}) {
		t.Errorf("tags should be replaced, got %v", got.Tags)
	}
	if got.Author.Name != "Ada" || got.Author.URL != "https://example.com" {
		t.Errorf("author not merged: %+v", got.Author)
	}
	if got.Hooks.OnInstall != "install2.go" || got.Hooks.OnUninstall != "uninstall.go" {
		t.Errorf("hooks not merged: %+v", got.Hooks)
	}
	if len(got.Components.Agents) != 1 || got.Components.Agents[0].ID != "two" {
		t.Errorf("agents not replaced: %+v", got.Components.Agents)
	}
	if len(got.Components.Skills) != 1 {
		t.Errorf("skills should be kept: %+v", got.Components.Skills)
	}
	if got.ConfigSchema["type"] != "object" || got.ConfigSchema["title"] != "new" {
		t.Errorf("configSchema not merged: %v", got.ConfigSchema)
	}
	if original.Tags[0] != "a" || original.Author.URL != "" || original.ConfigSchema["title"] != "old" {
		t.Error("original mutated")
	}
}
