package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/hooks"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/modload"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/pkg/errno"
	"github.com/kiosk404/nubabel/pkg/logger"
)

func init() {
	logger.SetOutput(io.Discard)
}

const recordingHook = `package main

import (
	"context"
	"os"
	"path/filepath"
)

func Default(ctx context.Context, data map[string]interface{}) error {
	f, err := os.OpenFile(filepath.Join(data["basePath"].(string), "events.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(data["event"].(string) + "\n")
	return err
}
`

const echoTool = `package main

import "context"

func Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return args, nil
}
`

const notAHandler = `package main

func Helper(n int) int { return n }

func Other(n int) int { return n }
`

// writeExtension creates root/name with the given manifest and files.
func writeExtension(t *testing.T, root, name, manifestYAML string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	all := map[string]string{"extension.yaml": manifestYAML}
	for k, v := range files {
		all[k] = v
	}
	for rel, content := range all {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	return dir
}

// simpleManifest declares an extension with no components.
func simpleManifest(id, version string, deps ...string) string {
	m := "id: " + id + "\nname: " + id + "\nversion: " + version + "\ndescription: test\nnubabelVersion: \">=1.0.0\"\n"
	if len(deps) > 0 {
		m += "dependencies:\n"
		for _, d := range deps {
			m += "  - \"" + d + "\"\n"
		}
	}
	return m
}

type fakeRoutes struct {
	mu                sync.Mutex
	registered        map[string]int
	unregistered      []string
	panicOnUnregister bool
}

func (f *fakeRoutes) RegisterExtensionRoutes(ext *entity.LoadedExtension) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registered == nil {
		f.registered = make(map[string]int)
	}
	f.registered[ext.ID]++
	return nil
}

func (f *fakeRoutes) UnregisterExtensionRoutes(id string) {
	if f.panicOnUnregister {
		panic("registrar is broken")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unregistered = append(f.unregistered, id)
}

func (f *fakeRoutes) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered[id]
}

type fakeTools struct {
	mu    sync.Mutex
	tools map[string][]entity.MCPTool
}

func (f *fakeTools) RegisterTools(ext *entity.LoadedExtension) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tools == nil {
		f.tools = make(map[string][]entity.MCPTool)
	}
	f.tools[ext.ID] = ext.MCPTools
	return nil
}

func (f *fakeTools) UnregisterTools(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tools, id)
}

type fakeCatalog struct {
	mu     sync.Mutex
	skills map[string]*entity.SkillDescriptor
	agents map[string]*entity.AgentDescriptor
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		skills: make(map[string]*entity.SkillDescriptor),
		agents: make(map[string]*entity.AgentDescriptor),
	}
}

func (f *fakeCatalog) RegisterExtension(_ context.Context, org string, d *entity.SkillDescriptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skills[org+":"+d.Key()] = d
	return nil
}

func (f *fakeCatalog) UnregisterExtension(_ context.Context, org, extID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, d := range f.skills {
		if d.ExtensionID == extID {
			delete(f.skills, k)
		}
	}
	return nil
}

func (f *fakeCatalog) ListSkills(_ context.Context, org string) ([]*entity.SkillDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.SkillDescriptor
	for _, d := range f.skills {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeCatalog) RegisterAgent(_ context.Context, org string, d *entity.AgentDescriptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents[org+":"+d.Key()] = d
	return nil
}

func (f *fakeCatalog) UnregisterAgents(_ context.Context, org, extID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, d := range f.agents {
		if d.ExtensionID == extID {
			delete(f.agents, k)
		}
	}
	return nil
}

func (f *fakeCatalog) ListAgents(_ context.Context, org string) ([]*entity.AgentDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.AgentDescriptor
	for _, d := range f.agents {
		out = append(out, d)
	}
	return out, nil
}

type fakeState struct {
	mu      sync.Mutex
	records map[string]*entity.ExtensionRecord
}

func newFakeState() *fakeState {
	return &fakeState{records: make(map[string]*entity.ExtensionRecord)}
}

func (f *fakeState) Save(_ context.Context, rec *entity.ExtensionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rec
	f.records[rec.ID] = &cp
	return nil
}

func (f *fakeState) Get(_ context.Context, id string) (*entity.ExtensionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, errno.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeState) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

func (f *fakeState) List(_ context.Context) ([]*entity.ExtensionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.ExtensionRecord, 0, len(f.records))
	for _, rec := range f.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type testHost struct {
	svc     LoaderService
	hooks   hooks.Manager
	cache   *modload.Cache
	routes  *fakeRoutes
	tools   *fakeTools
	catalog *fakeCatalog
	state   *fakeState
}

func newTestHost(t *testing.T, mutate func(*Options, *Dependencies)) *testHost {
	t.Helper()
	h := &testHost{
		hooks:   hooks.NewManager(),
		cache:   modload.NewCache(),
		routes:  &fakeRoutes{},
		tools:   &fakeTools{},
		catalog: newFakeCatalog(),
		state:   newFakeState(),
	}
	opts := Options{HostVersion: "1.0.0", ValidatePaths: true, OrgScope: "acme"}
	deps := Dependencies{
		Hooks:   h.hooks,
		Modules: modload.NewLoader(h.cache),
		Routes:  h.routes,
		Tools:   h.tools,
		Skills:  h.catalog,
		Agents:  h.catalog,
		State:   h.state,
	}
	if mutate != nil {
		mutate(&opts, &deps)
	}
	svc, err := NewLoaderService(opts, deps)
	if err != nil {
		t.Fatalf("NewLoaderService: %v", err)
	}
	h.svc = svc
	return h
}

func readEvents(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "events.log"))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read events: %v", err)
	}
	return string(data)
}
