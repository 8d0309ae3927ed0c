package kestrel

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrelscript/kestrel/eventbus"
	"github.com/kestrelscript/kestrel/lifecycle"
	"github.com/kestrelscript/kestrel/snapshot"
	lua "github.com/yuin/gopher-lua"
)

// Engine wires together the Registry, Snapshot Store, Fault Guard, and the
// host/worker executors into the running system described by the frame
// loop in §4.6. It is the sole entry point embedders use.
type Engine struct {
	cfg EngineConfig

	registry *Registry
	store    *snapshot.Store
	guard    *FaultGuard
	logger   Logger
	handles  HandleSet

	state        *stateFlag
	frameCounter uint64

	bootstrapL    *lua.LState
	callbacks     frameCallbacks
	hostInitState *hostInit
	hostLocals    map[string]lua.LValue

	workers []*workerRunner
}

// frameCallbacks holds the optional top-level script functions described in
// §6: init/run/pause/exit. Any of them may be absent.
type frameCallbacks struct {
	init  *lua.LFunction
	run   *lua.LFunction
	pause *lua.LFunction
	exit  *lua.LFunction
}

// New constructs an Engine in the Running state with an empty, unfrozen
// registry. Call Bootstrap before Run.
func New(opts ...EngineOption) *Engine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		cfg:        cfg,
		registry:   NewRegistry(),
		store:      snapshot.NewStore(),
		logger:     cfg.Logger,
		handles:    cfg.Handles,
		state:      newStateFlag(Running),
		hostLocals: make(map[string]lua.LValue),
	}
	e.guard = NewFaultGuard(cfg.FaultThreshold, cfg.Logger, cfg.OnFault)
	return e
}

// State returns the current lifecycle state.
func (e *Engine) State() RunState { return e.state.load() }

// SetRunning transitions Paused -> Running and wakes any worker parked
// waiting for resume. A no-op from Running or Exiting.
func (e *Engine) SetRunning() {
	e.state.setRunning()
	e.wakeWorkers()
	e.notifyStateChange()
}

// SetPause transitions Running -> Paused. A no-op from Paused or Exiting.
func (e *Engine) SetPause() {
	e.state.setPause()
	e.notifyStateChange()
}

// SetExiting transitions to Exiting from any state and wakes any parked
// worker so it can observe the new state and return.
func (e *Engine) SetExiting() {
	e.state.setExiting()
	e.wakeWorkers()
	e.notifyStateChange()
}

func (e *Engine) notifyStateChange() {
	state := e.state.load().String()
	if e.cfg.Dispatcher != nil {
		_ = e.cfg.Dispatcher.Dispatch(context.Background(), lifecycle.Transition{
			Type:      lifecycle.EventEngineStateChanged,
			Source:    "engine",
			Timestamp: time.Now(),
			State:     state,
			Frame:     e.frameCounter,
		})
	}
	if e.cfg.Bus != nil {
		_ = e.cfg.Bus.Publish(context.Background(), eventbus.Event{
			Topic:   eventbus.TopicEngineState,
			Payload: state,
			Metadata: map[string]interface{}{
				"frame": e.frameCounter,
			},
		})
	}
}

func (e *Engine) wakeWorkers() {
	for _, w := range e.workers {
		w.wake()
	}
}

// FrameCounter returns the number of host frames completed so far.
func (e *Engine) FrameCounter() uint64 { return e.frameCounter }

// Run drives the frame loop until the engine reaches Exiting and every
// worker has been joined (or timed out). ctx cancellation is treated the
// same as an external set_exiting call.
func (e *Engine) Run(ctx context.Context) error {
	plan, err := e.registry.Freeze()
	if err != nil {
		return fmt.Errorf("freeze registry: %w", err)
	}

	e.startWorkers(plan)
	defer e.joinWorkers()

	e.invokeTopLevel(e.callbacks.init, RunState(0), 0)

	ticker := time.NewTicker(e.cfg.BaseTickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.SetExiting()
		case <-ticker.C:
		}

		state := e.state.load()

		switch state {
		case Running:
			e.runHostFrame(plan)
			e.invokeTopLevel(e.callbacks.run, state, e.cfg.BaseTickRate)
		case Paused:
			e.runOverlayFrame(plan)
			e.invokeTopLevel(e.callbacks.pause, state, e.cfg.BaseTickRate)
		case Exiting:
			e.invokeTopLevel(e.callbacks.exit, state, e.cfg.BaseTickRate)
			return nil
		}

		e.frameCounter++
	}
}

// invokeTopLevel calls one of the optional init/run/pause/exit callbacks if
// present, under the fault guard, tagged with the pseudo-module name
// "__frame__" so its faults surface distinctly from any user module.
func (e *Engine) invokeTopLevel(fn *lua.LFunction, state RunState, dt time.Duration) {
	if fn == nil || e.bootstrapL == nil {
		return
	}
	_ = e.guard.Guard("__frame__", PhaseFrame, e.frameCounter, func() error {
		L := e.bootstrapL
		return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true},
			L.GetGlobal("engine"), lua.LString(state.String()), lua.LNumber(dt.Seconds()))
	})
}
