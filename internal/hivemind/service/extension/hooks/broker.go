package hooks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/kiosk404/nubabel/pkg/logger"
)

// BrokerOwnerID is the owner id the broker registers its handlers under. The
// colon keeps it outside the manifest id pattern so no extension can own it.
const BrokerOwnerID = "hivemind:event-broker"

// Broker fans every lifecycle event out to live subscribers, e.g. the
// admin event stream. Slow subscribers lose events instead of blocking dispatch.
type Broker struct {
	manager Manager
	buffer  int

	mu   sync.RWMutex
	subs map[string]chan Context
}

// NewBroker subscribes a broker to every event of m.
func NewBroker(m Manager, buffer int) *Broker {
	if buffer <= 0 {
		buffer = 64
	}
	b := &Broker{manager: m, buffer: buffer, subs: make(map[string]chan Context)}
	for _, event := range Events {
		m.Register(event, BrokerOwnerID, b.publish)
	}
	return b
}

// Subscribe returns a subscriber id, its event channel and a cancel func that
// closes the channel.
func (b *Broker) Subscribe() (string, <-chan Context, func()) {
	id := uuid.NewString()
	ch := make(chan Context, b.buffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return id, ch, cancel
}

// Len returns the number of live subscribers.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close detaches the broker from the manager. Existing subscriptions stay open
// until cancelled.
func (b *Broker) Close() {
	for _, event := range Events {
		b.manager.Unregister(event, BrokerOwnerID)
	}
}

func (b *Broker) publish(_ context.Context, hc *Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- *hc:
		default:
			logger.Warn("[HookManager] event stream subscriber %s is full, dropping %s", id, hc.DispatchID)
		}
	}
	return nil
}
