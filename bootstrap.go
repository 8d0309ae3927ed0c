package kestrel

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Bootstrap loads and runs the entry script at path in a fresh VM with the
// Host API Surface installed, then freezes the module registry. Scripts
// call register_module/register_threaded_module as part of evaluating the
// chunk; once DoFile returns, registration is closed (§4.3, §9).
//
// The bootstrap VM is retained as the host loop's VM for the engine's
// lifetime: any top-level init/run/pause/exit callbacks and any
// HostModule's init/update closures were created against it and must be
// invoked from it.
func (e *Engine) Bootstrap(path string) error {
	L := lua.NewState()
	e.bootstrapL = L

	api := &HostAPI{engine: e}
	api.Install(L)

	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("bootstrap %s: %w", path, err)
	}

	e.callbacks = frameCallbacks{
		init:  asLFunction(L.GetGlobal("init")),
		run:   asLFunction(L.GetGlobal("run")),
		pause: asLFunction(L.GetGlobal("pause")),
		exit:  asLFunction(L.GetGlobal("exit")),
	}

	if _, err := e.registry.Freeze(); err != nil {
		return fmt.Errorf("bootstrap %s: %w", path, err)
	}

	return nil
}

func asLFunction(v lua.LValue) *lua.LFunction {
	fn, _ := v.(*lua.LFunction)
	return fn
}
