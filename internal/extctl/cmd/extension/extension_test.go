package extension

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kiosk404/nubabel/internal/extctl/cmd/util"
	v1 "github.com/kiosk404/nubabel/internal/hivemind/handler/v1"
	extmodule "github.com/kiosk404/nubabel/internal/hivemind/service/extension"
	"github.com/kiosk404/nubabel/pkg/logger"
	"github.com/spf13/viper"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.SetOutput(io.Discard)
}

const weatherManifest = `id: "@acme/weather"
name: Weather
version: 1.2.0
description: forecasts
components:
  skills:
    - id: lookup
      configPath: skills/lookup.json
`

type hostEnv struct {
	factory util.Factory
	module  *extmodule.Module
	root    string
}

func newHostEnv(t *testing.T) *hostEnv {
	t.Helper()
	mod, err := (&extmodule.Config{}).Complete().New(context.Background(), extmodule.Dependencies{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { mod.Close() })

	engine := gin.New()
	engine.UseRawPath = true
	v1.NewExtensionHandler(mod.Service, mod.Events, mod.Skills, mod.Agents, "default").
		RegisterRoutes(engine.Group("/v1"))
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	v := viper.New()
	v.Set(util.FlagServer, srv.URL)
	return &hostEnv{factory: util.NewFactoryWithClient(v, srv.Client()), module: mod, root: t.TempDir()}
}

func (e *hostEnv) writeExtension(t *testing.T, name, manifestYAML string, withSkill bool) string {
	t.Helper()
	dir := filepath.Join(e.root, name)
	if err := os.MkdirAll(filepath.Join(dir, "skills"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "extension.yaml"), []byte(manifestYAML), 0644); err != nil {
		t.Fatal(err)
	}
	if withSkill {
		if err := os.WriteFile(filepath.Join(dir, "skills", "lookup.json"), []byte(`{"name":"Lookup"}`), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadListGetReloadUnload(t *testing.T) {
	env := newHostEnv(t)
	ctx := context.Background()
	dir := env.writeExtension(t, "weather", weatherManifest, true)

	streams, _, out, _ := util.NewTestIOStreams()
	load := &LoadOptions{Path: dir, factory: env.factory, IOStreams: streams}
	if err := load.Run(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(out.String(), "loaded @acme/weather 1.2.0 (directory)") {
		t.Errorf("load output: %q", out)
	}

	out.Reset()
	list := &ListOptions{Output: outputTable, factory: env.factory, IOStreams: streams}
	if err := list.Run(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out.String(), "@acme/weather") || !strings.Contains(out.String(), "active") {
		t.Errorf("list output:\n%s", out)
	}

	out.Reset()
	list.Output = outputJSON
	if err := list.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"id": "@acme/weather"`) {
		t.Errorf("json output:\n%s", out)
	}

	out.Reset()
	get := &GetOptions{ID: "@acme/weather", Output: outputTable, factory: env.factory, IOStreams: streams}
	if err := get.Run(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(out.String(), "skills/lookup.json") {
		t.Errorf("get output:\n%s", out)
	}

	out.Reset()
	reload := &ReloadOptions{ID: "@acme/weather", factory: env.factory, IOStreams: streams}
	if err := reload.Run(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	out.Reset()
	unload := &UnloadOptions{IDs: []string{"@acme/weather", "ghost"}, factory: env.factory, IOStreams: streams}
	if err := unload.Run(ctx); !errors.Is(err, util.ErrExit) {
		t.Fatalf("unload err = %v, want ErrExit for the unknown id", err)
	}
	if !strings.Contains(out.String(), "unloaded @acme/weather") || !strings.Contains(out.String(), "ghost") {
		t.Errorf("unload output:\n%s", out)
	}
	if _, ok := env.module.Service.GetExtension("@acme/weather"); ok {
		t.Error("extension still loaded")
	}
}

func TestLoadFailurePrintsEveryError(t *testing.T) {
	env := newHostEnv(t)
	dir := env.writeExtension(t, "weather", weatherManifest, false)

	streams, _, _, errOut := util.NewTestIOStreams()
	load := &LoadOptions{Path: dir, factory: env.factory, IOStreams: streams}
	err := load.Run(context.Background())

	var apiErr *util.APIError
	switch {
	case errors.Is(err, util.ErrExit):
		if !strings.Contains(errOut.String(), "lookup.json") {
			t.Errorf("stderr:\n%s", errOut)
		}
	case errors.As(err, &apiErr):
		if !strings.Contains(err.Error(), "lookup.json") {
			t.Errorf("err = %v", err)
		}
	default:
		t.Fatalf("err = %v", err)
	}
}

func TestLoadValidate(t *testing.T) {
	cmd := NewCmdLoad(nil, util.IOStreams{})
	tests := []struct {
		name    string
		path    string
		pkg     string
		wantErr bool
	}{
		{"path", "/ext/weather", "", false},
		{"package", "", "@acme/weather", false},
		{"neither", "", "", true},
		{"both", "/ext/weather", "@acme/weather", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &LoadOptions{Path: tt.path, Package: tt.pkg}
			if err := o.Validate(cmd); (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScan(t *testing.T) {
	env := newHostEnv(t)
	env.writeExtension(t, "weather", weatherManifest, true)
	env.writeExtension(t, "broken", "id: broken\nname: broken\nversion: 1.0.0\ndependencies: [\"ghost\"]\n", false)

	streams, _, out, _ := util.NewTestIOStreams()
	scan := &ScanOptions{Dir: env.root, factory: env.factory, IOStreams: streams}
	if err := scan.Run(context.Background()); !errors.Is(err, util.ErrExit) {
		t.Fatalf("err = %v, want ErrExit for the failed extension", err)
	}
	if !strings.Contains(out.String(), "✔") || !strings.Contains(out.String(), "ghost") {
		t.Errorf("scan output:\n%s", out)
	}
	if _, ok := env.module.Service.GetExtension("@acme/weather"); !ok {
		t.Error("weather not loaded")
	}
}

func TestValidateOutput(t *testing.T) {
	if err := validateOutput("yaml"); err == nil {
		t.Error("yaml accepted")
	}
	if err := validateOutput(outputJSON); err != nil {
		t.Error(err)
	}
}
