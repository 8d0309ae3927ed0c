package kestrel

import (
	"fmt"

	"github.com/kestrelscript/kestrel/neutral"
	lua "github.com/yuin/gopher-lua"
)

// hostInit tracks which host modules have run their init hook, since init
// runs at most once, lazily, on the first frame the module is eligible.
type hostInit struct {
	done map[string]bool
}

func newHostInit() *hostInit { return &hostInit{done: make(map[string]bool)} }

// runHostFrame executes every HostModule in plan.HostOrder that is due this
// frame, in dependency order (P2), building each module's update context
// from the current snapshot store state and republishing its shared state
// on a successful update.
func (e *Engine) runHostFrame(plan *ExecutionPlan) {
	if e.hostInitState == nil {
		e.hostInitState = newHostInit()
	}

	for _, name := range plan.HostOrder {
		desc, ok := plan.Descriptor(name)
		if !ok {
			continue
		}
		if !desc.dueThisFrame(e.frameCounter) {
			continue
		}
		if e.guard.Disabled(name) {
			continue
		}

		if !e.hostInitState.done[name] && desc.InitFn != nil {
			e.runHostInit(desc)
			e.hostInitState.done[name] = true
			if e.guard.Disabled(name) {
				continue
			}
		} else {
			e.hostInitState.done[name] = true
		}

		e.runHostUpdate(desc)
	}
}

// runOverlayFrame is runHostFrame's Paused-state counterpart: it pumps only
// the host modules the script designated with overlay = true (§4.6 step 3),
// in the same dependency order, skipping cadence and every other host
// module entirely. A module can carry its own init/update and shared/local
// state exactly as it would while Running; the only difference is that
// non-overlay modules never see this frame.
func (e *Engine) runOverlayFrame(plan *ExecutionPlan) {
	if e.hostInitState == nil {
		e.hostInitState = newHostInit()
	}

	for _, name := range plan.HostOrder {
		desc, ok := plan.Descriptor(name)
		if !ok || !desc.Overlay {
			continue
		}
		if e.guard.Disabled(name) {
			continue
		}

		if !e.hostInitState.done[name] && desc.InitFn != nil {
			e.runHostInit(desc)
			e.hostInitState.done[name] = true
			if e.guard.Disabled(name) {
				continue
			}
		} else {
			e.hostInitState.done[name] = true
		}

		e.runHostUpdate(desc)
	}
}

// localFor returns the persistent self/local_state table for a host module,
// building it from the descriptor's InitialLocal the first time the module
// is seen and reusing that same lua.LValue by reference on every later
// frame — mirroring workerRunner.run's one-time `local` build, so a script
// mutation to self during init or a prior update survives into the next
// frame instead of being reset from InitialLocal every tick.
func (e *Engine) localFor(L *lua.LState, desc *Descriptor) lua.LValue {
	if v, ok := e.hostLocals[desc.Name]; ok {
		return v
	}
	v := neutral.FromNeutral(L, desc.InitialLocal)
	e.hostLocals[desc.Name] = v
	return v
}

// Host modules share the bootstrap VM: their init/update functions are
// closures created while that VM evaluated the bootstrap script, and the
// host loop is itself single-threaded, so there is exactly one VM instance
// in play here — unlike worker modules, which each get their own.
func (e *Engine) runHostInit(desc *Descriptor) {
	L := e.bootstrapL

	local := e.localFor(L, desc)

	_ = e.guard.Guard(desc.Name, PhaseInit, e.frameCounter, func() error {
		return L.CallByParam(lua.P{Fn: desc.InitFn, NRet: 0, Protect: true}, local)
	})
}

func (e *Engine) runHostUpdate(desc *Descriptor) {
	L := e.bootstrapL

	ctx, err := e.buildContext(L, desc)
	if err != nil {
		e.logger.Warn("host module context build failed", "module", desc.Name, "frame", e.frameCounter, "error", err)
		return
	}

	guardErr := e.guard.Guard(desc.Name, PhaseUpdate, e.frameCounter, func() error {
		return L.CallByParam(lua.P{Fn: desc.UpdateFn, NRet: 0, Protect: true}, ctx)
	})
	if guardErr != nil {
		return
	}

	if desc.HasShared {
		e.republish(desc.Name, ctx)
	}
}

// buildContext assembles the §6 context table: self (or local_state) plus
// shared_state and one field per declared dependency, each materialized
// from the snapshot store via from_neutral.
func (e *Engine) buildContext(L *lua.LState, desc *Descriptor) (*lua.LTable, error) {
	ctx := L.NewTable()
	ctx.RawSetString("self", e.localFor(L, desc))

	if desc.HasShared {
		v, _, err := e.store.Read(desc.Name)
		if err != nil {
			return nil, fmt.Errorf("read own shared state: %w", err)
		}
		ctx.RawSetString("shared_state", neutral.FromNeutral(L, v))
	}

	deps, err := e.store.ReadMany(desc.Deps)
	if err != nil {
		return nil, err
	}
	for name, v := range deps {
		ctx.RawSetString(name, neutral.FromNeutral(L, v))
	}

	return ctx, nil
}

// republish converts ctx.shared_state back to a neutral value and writes it
// to the module's cell, completing the round trip for this tick.
func (e *Engine) republish(module string, ctx *lua.LTable) {
	sharedV := ctx.RawGetString("shared_state")
	if sharedV == lua.LNil {
		return
	}
	nv, err := neutral.ToNeutral(sharedV)
	if err != nil {
		e.logger.Warn("shared_state conversion failed, keeping previous snapshot", "module", module, "frame", e.frameCounter, "error", err)
		return
	}
	if _, err := e.store.Publish(module, nv); err != nil {
		e.logger.Warn("publish failed", "module", module, "frame", e.frameCounter, "error", err)
	}
}
