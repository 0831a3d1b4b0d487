package watcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/pkg/logger"
)

func init() {
	logger.SetOutput(io.Discard)
}

type fakeTarget struct {
	mu      sync.Mutex
	loaded  map[string]bool
	fail    bool
	reloads []string
	loads   []string
	calls   chan struct{}
	// onReload runs inside Reload, where the loader would notify observers.
	onReload func(id string)
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{loaded: make(map[string]bool), calls: make(chan struct{}, 16)}
}

func (f *fakeTarget) Reload(_ context.Context, id string) *entity.LoadResult {
	f.mu.Lock()
	f.reloads = append(f.reloads, id)
	fail := f.fail
	if fail {
		delete(f.loaded, id)
	}
	hook := f.onReload
	f.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	f.calls <- struct{}{}
	if fail {
		return &entity.LoadResult{Errors: []string{"broken"}}
	}
	return &entity.LoadResult{Success: true}
}

func (f *fakeTarget) LoadFromDirectory(_ context.Context, dir string) *entity.LoadResult {
	f.mu.Lock()
	f.loads = append(f.loads, dir)
	f.mu.Unlock()
	f.calls <- struct{}{}
	return &entity.LoadResult{Success: true}
}

func (f *fakeTarget) GetExtension(id string) (*entity.LoadedExtension, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded[id] {
		return nil, false
	}
	return &entity.LoadedExtension{ID: id}, true
}

func (f *fakeTarget) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reloads), len(f.loads)
}

func waitCall(t *testing.T, f *fakeTarget) {
	t.Helper()
	select {
	case <-f.calls:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func expectNoCall(t *testing.T, f *fakeTarget, d time.Duration) {
	t.Helper()
	select {
	case <-f.calls:
		t.Fatal("unexpected reload")
	case <-time.After(d):
	}
}

func touch(t *testing.T, p, content string) {
	t.Helper()
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func setup(t *testing.T) (*Watcher, *fakeTarget, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "weather")
	if err := os.MkdirAll(filepath.Join(dir, "hooks"), 0755); err != nil {
		t.Fatal(err)
	}
	target := newFakeTarget()
	target.loaded["weather"] = true
	w, err := New(target, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	w.ExtensionActivated(&entity.LoadedExtension{ID: "weather", BasePath: dir})
	return w, target, dir
}

func TestChangesAreDebouncedIntoOneReload(t *testing.T) {
	_, target, dir := setup(t)

	for i := 0; i < 5; i++ {
		touch(t, filepath.Join(dir, "hooks", "install.go"), "package main\n")
	}
	waitCall(t, target)
	expectNoCall(t, target, 400*time.Millisecond)

	if reloads, loads := target.counts(); reloads != 1 || loads != 0 {
		t.Errorf("reloads=%d loads=%d", reloads, loads)
	}
}

func TestHiddenFilesAreIgnored(t *testing.T) {
	_, target, dir := setup(t)
	touch(t, filepath.Join(dir, ".install.go.swp"), "x")
	touch(t, filepath.Join(dir, "notes~"), "x")
	expectNoCall(t, target, 400*time.Millisecond)
}

func TestRemovedExtensionIsForgotten(t *testing.T) {
	w, target, dir := setup(t)
	w.ExtensionRemoved("weather", dir)
	if len(w.Watched()) != 0 {
		t.Fatalf("still watching %v", w.Watched())
	}
	touch(t, filepath.Join(dir, "extension.yaml"), "id: weather\n")
	expectNoCall(t, target, 400*time.Millisecond)
}

func TestFailedReloadKeepsWatching(t *testing.T) {
	w, target, dir := setup(t)
	target.mu.Lock()
	target.fail = true
	// The loader unloads before reloading; the watcher ignores that removal.
	target.onReload = func(id string) { w.ExtensionRemoved(id, dir) }
	target.mu.Unlock()

	touch(t, filepath.Join(dir, "extension.yaml"), "broken")
	waitCall(t, target)
	if len(w.Watched()) != 1 {
		t.Fatalf("watched = %v", w.Watched())
	}

	target.mu.Lock()
	target.fail = false
	target.mu.Unlock()
	touch(t, filepath.Join(dir, "extension.yaml"), "fixed")
	waitCall(t, target)

	if reloads, loads := target.counts(); reloads != 1 || loads != 1 {
		t.Errorf("reloads=%d loads=%d", reloads, loads)
	}
}

func TestNewSubdirectoriesAreWatched(t *testing.T) {
	_, target, dir := setup(t)
	sub := filepath.Join(dir, "tools")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	// The directory creation itself schedules a reload.
	waitCall(t, target)

	touch(t, filepath.Join(sub, "echo.go"), "package main\n")
	waitCall(t, target)
}
