// Package watcher reloads extensions when files under their base path change.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
	"github.com/kiosk404/nubabel/pkg/logger"
)

// DefaultDebounce is the quiet period after the last change before a reload.
const DefaultDebounce = 500 * time.Millisecond

// Target is the part of the loader service the watcher drives.
type Target interface {
	Reload(ctx context.Context, id string) *entity.LoadResult
	LoadFromDirectory(ctx context.Context, dir string) *entity.LoadResult
	GetExtension(id string) (*entity.LoadedExtension, bool)
}

// Watcher implements the loader's Observer: active extensions are watched,
// removed ones are forgotten, except while the watcher itself is reloading them.
type Watcher struct {
	fsw      *fsnotify.Watcher
	target   Target
	debounce time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	bases     map[string]string // extension id → base path
	timers    map[string]*time.Timer
	reloading map[string]bool
}

// New starts a watcher. A debounce <= 0 uses DefaultDebounce.
func New(target Target, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		fsw:       fsw,
		target:    target,
		debounce:  debounce,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		bases:     make(map[string]string),
		timers:    make(map[string]*time.Timer),
		reloading: make(map[string]bool),
	}
	go w.loop()
	return w, nil
}

// ExtensionActivated starts watching the base path of ext.
func (w *Watcher) ExtensionActivated(ext *entity.LoadedExtension) {
	w.mu.Lock()
	w.bases[ext.ID] = ext.BasePath
	w.mu.Unlock()

	if err := w.addTree(ext.BasePath); err != nil {
		logger.Warn("[HotReload] %s: watch %s: %v", ext.ID, ext.BasePath, err)
		return
	}
	logger.Debug("[HotReload] watching %s at %s", ext.ID, ext.BasePath)
}

// ExtensionRemoved stops watching an extension unless the watcher is reloading it.
func (w *Watcher) ExtensionRemoved(id, basePath string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.reloading[id] {
		return
	}
	w.forget(id, basePath)
}

// Watched returns the ids currently watched.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.bases))
	for id := range w.bases {
		ids = append(ids, id)
	}
	return ids
}

// Close stops the watcher and cancels pending reloads.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fsw.Close()
	<-w.done

	w.mu.Lock()
	for id, t := range w.timers {
		t.Stop()
		delete(w.timers, id)
	}
	w.mu.Unlock()
	return err
}

// forget must be called with w.mu held.
func (w *Watcher) forget(id, basePath string) {
	if t, ok := w.timers[id]; ok {
		t.Stop()
		delete(w.timers, id)
	}
	delete(w.bases, id)
	for _, p := range w.fsw.WatchList() {
		if p == basePath || strings.HasPrefix(p, basePath+string(filepath.Separator)) {
			_ = w.fsw.Remove(p)
		}
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("[HotReload] watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	if ignored(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.addTree(ev.Name)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.owner(ev.Name)
	if id == "" {
		return
	}
	if t, ok := w.timers[id]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[id] = time.AfterFunc(w.debounce, func() { w.fire(id) })
}

// owner returns the id whose base path contains p, preferring the longest.
// Must be called with w.mu held.
func (w *Watcher) owner(p string) string {
	var id, best string
	for ext, base := range w.bases {
		if (p == base || strings.HasPrefix(p, base+string(filepath.Separator))) && len(base) > len(best) {
			id, best = ext, base
		}
	}
	return id
}

func (w *Watcher) fire(id string) {
	w.mu.Lock()
	delete(w.timers, id)
	base, ok := w.bases[id]
	if !ok || w.ctx.Err() != nil {
		w.mu.Unlock()
		return
	}
	w.reloading[id] = true
	w.mu.Unlock()

	var res *entity.LoadResult
	if _, loaded := w.target.GetExtension(id); loaded {
		logger.Info("[HotReload] change detected in %s, reloading", id)
		res = w.target.Reload(w.ctx, id)
	} else {
		logger.Info("[HotReload] change detected in %s, loading from %s", id, base)
		res = w.target.LoadFromDirectory(w.ctx, base)
	}

	w.mu.Lock()
	delete(w.reloading, id)
	w.mu.Unlock()

	if res.Success {
		logger.Info("[HotReload] %s reloaded", id)
		return
	}
	// The extension stays watched so the next change can retry.
	logger.Error("[HotReload] %s failed to reload: %v", id, res.Errors)
}

// ignored filters editor swap files and hidden files.
func ignored(p string) bool {
	name := filepath.Base(p)
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp")
}
