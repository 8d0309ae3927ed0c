// Package lifecycle dispatches Engine Controller state transitions
// (Running/Paused/Exiting) and module fault events to interested
// observers — a UI overlay, a metrics sink, a log line — without any of
// them blocking the frame loop that produced the event.
package lifecycle

import (
	"context"
	"time"
)

// Dispatcher fans a Transition out to every registered Observer on a
// background goroutine, decoupling event production (the engine's frame
// loop) from event consumption (observers, which may be slow or fallible).
type Dispatcher interface {
	Dispatch(ctx context.Context, t Transition) error
	RegisterObserver(ctx context.Context, observer Observer) error
	UnregisterObserver(ctx context.Context, observerID string) error
	Observers(ctx context.Context) ([]Observer, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
}

// Observer receives dispatched transitions. OnTransition errors are counted
// in the dispatcher's Metrics.ObserverErrors and never propagate back to the
// engine.
type Observer interface {
	OnTransition(ctx context.Context, t Transition) error
	ID() string
	Priority() int // higher runs first
}

// EventType names what kind of transition occurred.
type EventType string

const (
	EventEngineStateChanged EventType = "engine.state_changed"
	EventModuleFault        EventType = "module.fault"
	EventModuleDisabled     EventType = "module.disabled"
)

// Transition is one dispatched occurrence: an engine state change or a
// module fault/disable event, depending on Type.
type Transition struct {
	ID        string
	Type      EventType
	Source    string // module name, or "engine" for state transitions
	Timestamp time.Time
	State     string // for EventEngineStateChanged: running/paused/exiting
	Frame     uint64
	Message   string
	Data      map[string]any
}

// Config tunes a Dispatcher's buffering. StdDispatcher stores
// ObserverTimeout but does not apply it to observer calls.
type Config struct {
	BufferSize      int
	ObserverTimeout time.Duration
}

func defaultConfig() Config {
	return Config{BufferSize: 256, ObserverTimeout: time.Second}
}

// Metrics is a point-in-time snapshot of dispatcher activity, useful for a
// diagnostics overlay.
type Metrics struct {
	TotalDispatched int64
	DroppedFull     int64
	ObserverErrors  int64
	ObserverPanics  int64
	ActiveObservers int64
}
