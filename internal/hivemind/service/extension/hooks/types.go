package hooks

import (
	"context"
	"time"

	"github.com/kiosk404/nubabel/internal/hivemind/service/extension/manifest"
)

// Event identifies an extension lifecycle event.
type Event string

const (
	EventInstall      Event = "extension:install"
	EventUninstall    Event = "extension:uninstall"
	EventUpdate       Event = "extension:update"
	EventEnable       Event = "extension:enable"
	EventDisable      Event = "extension:disable"
	EventConfigChange Event = "extension:configChange"
)

// Events lists the event vocabulary in manifest slot order.
var Events = []Event{
	EventInstall,
	EventUninstall,
	EventUpdate,
	EventEnable,
	EventDisable,
	EventConfigChange,
}

var slotEvents = map[string]Event{
	manifest.HookOnInstall:      EventInstall,
	manifest.HookOnUninstall:    EventUninstall,
	manifest.HookOnUpdate:       EventUpdate,
	manifest.HookOnEnable:       EventEnable,
	manifest.HookOnDisable:      EventDisable,
	manifest.HookOnConfigChange: EventConfigChange,
}

// EventForSlot maps a manifest hook slot to its event.
func EventForSlot(slot string) (Event, bool) {
	e, ok := slotEvents[slot]
	return e, ok
}

// SlotForEvent maps an event back to its manifest hook slot.
func SlotForEvent(event Event) (string, bool) {
	for slot, e := range slotEvents {
		if e == event {
			return slot, true
		}
	}
	return "", false
}

// Context is passed to every handler of a single dispatch.
type Context struct {
	ExtensionID string                 `json:"extensionId"`
	Event       Event                  `json:"event"`
	Timestamp   time.Time              `json:"timestamp"`
	DispatchID  string                 `json:"dispatchId"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Handler is a subscriber callback. Errors and panics are contained by the manager.
type Handler func(ctx context.Context, hc *Context) error
