package service

import (
	"sync"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/domain/entity"
)

// registry holds the loaded extensions of one loader service, in load order.
//
// Thread-safe: all mutations are guarded by a mutex. Readers get snapshots.
type registry struct {
	mu         sync.RWMutex
	extensions map[string]*entity.LoadedExtension
	order      []string
}

func newRegistry() *registry {
	return &registry{extensions: make(map[string]*entity.LoadedExtension)}
}

func (r *registry) has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.extensions[id]
	return ok
}

// get returns the live record. Callers must only read it or go through setStatus.
func (r *registry) get(id string) (*entity.LoadedExtension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.extensions[id]
	return ext, ok
}

func (r *registry) snapshot(id string) (*entity.LoadedExtension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.extensions[id]
	if !ok {
		return nil, false
	}
	return ext.Snapshot(), true
}

func (r *registry) list() []*entity.LoadedExtension {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entity.LoadedExtension, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.extensions[id].Snapshot())
	}
	return result
}

// loaded returns the live records keyed by id, for dependency resolution.
func (r *registry) loaded() map[string]*entity.LoadedExtension {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*entity.LoadedExtension, len(r.extensions))
	for id, ext := range r.extensions {
		result[id] = ext.Snapshot()
	}
	return result
}

func (r *registry) insert(ext *entity.LoadedExtension) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.extensions[ext.ID]; exists {
		return false
	}
	r.extensions[ext.ID] = ext
	r.order = append(r.order, ext.ID)
	return true
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.extensions[id]; !ok {
		return
	}
	delete(r.extensions, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *registry) setStatus(id string, status entity.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ext, ok := r.extensions[id]; ok {
		ext.Status = status
	}
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.extensions)
}

func (r *registry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extensions = make(map[string]*entity.LoadedExtension)
	r.order = nil
}

// keyedMutex serialises work per extension id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// lock blocks until key is free and returns the matching unlock.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
