package kestrel

import (
	"context"
	"fmt"

	"github.com/kestrelscript/kestrel/eventbus"
	"github.com/kestrelscript/kestrel/neutral"
	lua "github.com/yuin/gopher-lua"
)

// HostAPI is the set of callables and the engine handle installed into the
// bootstrap VM. Scripts see it as a single global table (conventionally
// bound to a local named `engine` by the entry script) plus the two
// registration functions.
type HostAPI struct {
	engine *Engine
}

// Install registers register_module, register_threaded_module, and the
// engine handle as globals on L.
func (h *HostAPI) Install(L *lua.LState) {
	L.SetGlobal("register_module", L.NewFunction(h.registerModule(HostModule)))
	L.SetGlobal("register_threaded_module", L.NewFunction(h.registerModule(WorkerModule)))
	L.SetGlobal("engine", h.buildEngineTable(L))
}

func (h *HostAPI) buildEngineTable(L *lua.LState) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("set_running", L.NewFunction(func(L *lua.LState) int {
		h.engine.SetRunning()
		return 0
	}))
	t.RawSetString("set_pause", L.NewFunction(func(L *lua.LState) int {
		h.engine.SetPause()
		return 0
	}))
	t.RawSetString("set_exiting", L.NewFunction(func(L *lua.LState) int {
		h.engine.SetExiting()
		return 0
	}))
	t.RawSetString("is_running", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(h.engine.state.load() == Running))
		return 1
	}))
	t.RawSetString("is_pause", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(h.engine.state.load() == Paused))
		return 1
	}))
	t.RawSetString("is_exiting", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(h.engine.state.load() == Exiting))
		return 1
	}))

	if h.engine.cfg.Bus != nil {
		t.RawSetString("publish", L.NewFunction(h.publish))
	}

	attachHandles(L, t, h.engine.handles)
	return t
}

// publish lets a script fan a value out on the engine's event bus under an
// arbitrary topic name. Subscribers live on the Go side (diagnostics
// overlays, log sinks): the bus never calls back into a script VM, since
// gopher-lua states are not safe to share across the goroutines a bus
// worker pool runs on.
func (h *HostAPI) publish(L *lua.LState) int {
	topic := L.CheckString(1)
	payload := L.Get(2)

	nv, err := neutral.ToNeutral(payload)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}

	err = h.engine.cfg.Bus.Publish(context.Background(), eventbus.Event{
		Topic:   topic,
		Payload: nv,
	})
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	return 0
}

// registerModule builds the L.NewFunction body shared by register_module
// and register_threaded_module; kind fixes which registration path the
// resulting descriptor takes regardless of a `kind` field in the script
// table (register_threaded_module always forces WorkerModule, per §6).
func (h *HostAPI) registerModule(kind ModuleKind) lua.LGFunction {
	return func(L *lua.LState) int {
		tbl := L.CheckTable(1)

		desc, err := descriptorFromTable(tbl, kind)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}

		if err := h.engine.registry.Register(desc); err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}

		if desc.HasShared {
			h.engine.store.Register(desc.Name, desc.InitialShared)
		}

		return 0
	}
}

// descriptorFromTable reads a register_module/register_threaded_module
// argument table into a Descriptor. Field names follow §6's context table
// shape: name, deps, shared_state (or state, the legacy alias rejected per
// the spec's Open Question resolution — see DESIGN.md), local_state, init,
// update, frames_interval, overlay.
func descriptorFromTable(tbl *lua.LTable, kind ModuleKind) (*Descriptor, error) {
	d := &Descriptor{Kind: kind}

	if name, ok := tbl.RawGetString("name").(lua.LString); ok {
		d.Name = string(name)
	}

	if depsV := tbl.RawGetString("deps"); depsV != lua.LNil {
		depsTbl, ok := depsV.(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("%w: %s: deps must be a table", ErrMalformedModule, d.Name)
		}
		depsTbl.ForEach(func(_, v lua.LValue) {
			if s, ok := v.(lua.LString); ok {
				d.Deps = append(d.Deps, string(s))
			}
		})
	}

	if _, hasLegacyState := tbl.RawGetString("state").(*lua.LTable); hasLegacyState {
		return nil, fmt.Errorf("%w: %s: legacy 'state' field is not supported, use shared_state/local_state", ErrMalformedModule, d.Name)
	}

	if sharedV := tbl.RawGetString("shared_state"); sharedV != lua.LNil {
		nv, err := neutral.ToNeutral(sharedV)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: shared_state: %w", ErrMalformedModule, d.Name, err)
		}
		d.InitialShared = nv
		d.HasShared = true
	}

	if localV := tbl.RawGetString("local_state"); localV != lua.LNil {
		nv, err := neutral.ToNeutral(localV)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: local_state: %w", ErrMalformedModule, d.Name, err)
		}
		d.InitialLocal = nv
	}

	if initFn, ok := tbl.RawGetString("init").(*lua.LFunction); ok {
		d.InitFn = initFn
	}
	if updateFn, ok := tbl.RawGetString("update").(*lua.LFunction); ok {
		d.UpdateFn = updateFn
	}

	if overlayV := tbl.RawGetString("overlay"); overlayV != lua.LNil {
		b, ok := overlayV.(lua.LBool)
		if !ok {
			return nil, fmt.Errorf("%w: %s: overlay must be a boolean", ErrMalformedModule, d.Name)
		}
		d.Overlay = bool(b)
	}

	if intervalV := tbl.RawGetString("frames_interval"); intervalV != lua.LNil {
		n, ok := intervalV.(lua.LNumber)
		if !ok {
			return nil, fmt.Errorf("%w: %s: frames_interval must be a number", ErrMalformedModule, d.Name)
		}
		d.FramesInterval = int(n)
	}

	return d, nil
}
