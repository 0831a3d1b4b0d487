package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiosk404/nubabel/pkg/logger"
)

// Manager is the per-event, per-extension hook handler registry.
type Manager interface {
	// Register stores handler for (event, extensionID), replacing any previous one.
	Register(event Event, extensionID string, handler Handler)
	// Unregister drops the handler for (event, extensionID).
	Unregister(event Event, extensionID string)
	// UnregisterAll drops every handler owned by extensionID.
	UnregisterAll(extensionID string)
	// Emit runs every handler of event concurrently and waits for all of them.
	// Handler failures are logged and never returned.
	Emit(ctx context.Context, event Event, hc *Context)
	// EmitTo is Emit restricted to the handlers of the given owners.
	EmitTo(ctx context.Context, event Event, hc *Context, owners ...string)
	// Subscribers returns the owner ids registered for event, sorted.
	Subscribers(event Event) []string
}

type managerImpl struct {
	mu       sync.RWMutex
	handlers map[Event]map[string]Handler
}

var _ Manager = (*managerImpl)(nil)

// NewManager creates an empty hook manager.
func NewManager() Manager {
	return &managerImpl{handlers: make(map[Event]map[string]Handler)}
}

func (m *managerImpl) Register(event Event, extensionID string, handler Handler) {
	if handler == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	byExt, ok := m.handlers[event]
	if !ok {
		byExt = make(map[string]Handler)
		m.handlers[event] = byExt
	}
	if _, exists := byExt[extensionID]; exists {
		logger.Debug("[HookManager] replacing %s handler of %q", event, extensionID)
	}
	byExt[extensionID] = handler
}

func (m *managerImpl) Unregister(event Event, extensionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if byExt, ok := m.handlers[event]; ok {
		delete(byExt, extensionID)
		if len(byExt) == 0 {
			delete(m.handlers, event)
		}
	}
}

func (m *managerImpl) UnregisterAll(extensionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for event, byExt := range m.handlers {
		delete(byExt, extensionID)
		if len(byExt) == 0 {
			delete(m.handlers, event)
		}
	}
}

func (m *managerImpl) Subscribers(event Event) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.handlers[event]))
	for id := range m.handlers[event] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *managerImpl) Emit(ctx context.Context, event Event, hc *Context) {
	m.mu.RLock()
	snapshot := make(map[string]Handler, len(m.handlers[event]))
	for id, h := range m.handlers[event] {
		snapshot[id] = h
	}
	m.mu.RUnlock()
	m.dispatch(ctx, event, hc, snapshot)
}

func (m *managerImpl) EmitTo(ctx context.Context, event Event, hc *Context, owners ...string) {
	m.mu.RLock()
	snapshot := make(map[string]Handler, len(owners))
	for _, id := range owners {
		if h, ok := m.handlers[event][id]; ok {
			snapshot[id] = h
		}
	}
	m.mu.RUnlock()
	m.dispatch(ctx, event, hc, snapshot)
}

func (m *managerImpl) dispatch(ctx context.Context, event Event, hc *Context, snapshot map[string]Handler) {

	if hc == nil {
		hc = &Context{}
	}
	hc.Event = event
	if hc.Timestamp.IsZero() {
		hc.Timestamp = time.Now()
	}
	if hc.DispatchID == "" {
		hc.DispatchID = uuid.NewString()
	}
	if len(snapshot) == 0 {
		return
	}

	logger.Debug("[HookManager] dispatch %s event=%s extension=%q handlers=%d",
		hc.DispatchID, event, hc.ExtensionID, len(snapshot))

	var wg sync.WaitGroup
	for owner, handler := range snapshot {
		wg.Add(1)
		go func(owner string, handler Handler) {
			defer wg.Done()
			local := *hc
			if err := invoke(ctx, handler, &local); err != nil {
				logger.Error("[HookManager] dispatch %s: %s handler of %q failed: %v",
					hc.DispatchID, event, owner, err)
			}
		}(owner, handler)
	}
	wg.Wait()
}

func invoke(ctx context.Context, handler Handler, hc *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler(ctx, hc)
}
