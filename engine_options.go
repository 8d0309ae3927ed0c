package kestrel

import (
	"context"
	"time"

	"github.com/kestrelscript/kestrel/eventbus"
	"github.com/kestrelscript/kestrel/lifecycle"
)

func dispatchContext() context.Context { return context.Background() }

// EngineConfig holds the tunables the Engine Controller and Fault Guard
// read at construction time. Zero-value fields are filled in by
// defaultEngineConfig; use With* options or config.EngineConfig (loaded via
// golobby/config) to override them.
type EngineConfig struct {
	Logger            Logger
	BaseTickRate      time.Duration
	WorkerJoinTimeout time.Duration
	FaultThreshold    int
	Handles           HandleSet
	OnFault           func(FaultEvent)
	Dispatcher        *lifecycle.StdDispatcher
	Bus               eventbus.EventBus
}

func defaultEngineConfig() EngineConfig {
	return EngineConfig{
		Logger:            NopLogger{},
		BaseTickRate:      time.Second / 60,
		WorkerJoinTimeout: 2 * time.Second,
		FaultThreshold:    16,
	}
}

// EngineOption customizes an Engine at construction time, mirroring the
// application's functional-options style.
type EngineOption func(*EngineConfig)

// WithLogger installs a structured logger used by the engine, its fault
// guard, and its worker executors.
func WithLogger(l Logger) EngineOption {
	return func(c *EngineConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithBaseTickRate sets the base tick period (default 1/60s) that host
// frames and worker cadences are derived from.
func WithBaseTickRate(d time.Duration) EngineOption {
	return func(c *EngineConfig) {
		if d > 0 {
			c.BaseTickRate = d
		}
	}
}

// WithWorkerJoinTimeout sets how long shutdown waits for a worker to
// observe set_exiting and return before it is detached.
func WithWorkerJoinTimeout(d time.Duration) EngineOption {
	return func(c *EngineConfig) {
		if d > 0 {
			c.WorkerJoinTimeout = d
		}
	}
}

// WithFaultThreshold overrides the default consecutive-failure count (16)
// that promotes a module from tick-dropping to permanent disable.
func WithFaultThreshold(n int) EngineOption {
	return func(c *EngineConfig) {
		if n > 0 {
			c.FaultThreshold = n
		}
	}
}

// WithHandles installs the opaque collaborator handles (window, ui_ctx,
// graphics, audio, save) exposed on the script-side engine table.
func WithHandles(h HandleSet) EngineOption {
	return func(c *EngineConfig) {
		c.Handles = h
	}
}

// WithFaultObserver registers a callback invoked on every FaultEvent, in
// addition to the guard's own structured log line. Engines that want fault
// events on the eventbus wire it here rather than the guard depending on
// the eventbus package directly.
func WithFaultObserver(fn func(FaultEvent)) EngineOption {
	return func(c *EngineConfig) {
		c.OnFault = fn
	}
}

// WithLifecycleDispatcher wires a lifecycle.StdDispatcher into the engine:
// every module fault is also published as an EventModuleFault (or
// EventModuleDisabled) transition, in addition to the fault guard's own
// structured log line and any OnFault callback set separately. The caller
// owns the dispatcher's Start/Stop lifecycle.
func WithLifecycleDispatcher(d *lifecycle.StdDispatcher) EngineOption {
	return func(c *EngineConfig) {
		c.Dispatcher = d
		prior := c.OnFault
		c.OnFault = func(ev FaultEvent) {
			if prior != nil {
				prior(ev)
			}
			eventType := lifecycle.EventModuleFault
			if ev.Disabled {
				eventType = lifecycle.EventModuleDisabled
			}
			_ = d.Dispatch(dispatchContext(), lifecycle.Transition{
				ID:        ev.ID,
				Type:      eventType,
				Source:    ev.Module,
				Timestamp: time.Now(),
				Frame:     ev.Frame,
				Message:   ev.Message,
			})
		}
	}
}

// WithEventBus wires an eventbus.EventBus into the engine. Every module
// fault/disable and every Engine Controller state change is published on
// the bus's TopicModuleFault/TopicModuleDisabled/TopicEngineState topics, in
// addition to any OnFault callback or lifecycle.Dispatcher configured
// separately. Scripts also gain engine.publish against this same bus (see
// hostapi.go); subscribing stays a Go-side affair, since a bus worker
// goroutine calling back into a script VM it doesn't own is not safe. The
// caller owns the bus's Start/Stop lifecycle; it must already be started
// before Bootstrap/Run.
func WithEventBus(b eventbus.EventBus) EngineOption {
	return func(c *EngineConfig) {
		c.Bus = b
		prior := c.OnFault
		c.OnFault = func(ev FaultEvent) {
			if prior != nil {
				prior(ev)
			}
			topic := eventbus.TopicModuleFault
			if ev.Disabled {
				topic = eventbus.TopicModuleDisabled
			}
			_ = b.Publish(dispatchContext(), eventbus.Event{Topic: topic, Payload: ev})
		}
	}
}

// FromConfig builds engine options from a fully-populated EngineConfig
// value, letting callers load configuration from files/env via the config
// package and apply it in one step.
func FromConfig(c EngineConfig) EngineOption {
	return func(dst *EngineConfig) {
		if c.Logger != nil {
			dst.Logger = c.Logger
		}
		if c.BaseTickRate > 0 {
			dst.BaseTickRate = c.BaseTickRate
		}
		if c.WorkerJoinTimeout > 0 {
			dst.WorkerJoinTimeout = c.WorkerJoinTimeout
		}
		if c.FaultThreshold > 0 {
			dst.FaultThreshold = c.FaultThreshold
		}
		dst.Handles = c.Handles
		if c.OnFault != nil {
			dst.OnFault = c.OnFault
		}
		if c.Bus != nil {
			dst.Bus = c.Bus
		}
	}
}
