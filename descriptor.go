package kestrel

import (
	"fmt"

	"github.com/kestrelscript/kestrel/neutral"
	lua "github.com/yuin/gopher-lua"
)

// ModuleKind distinguishes where a module's update hook executes.
type ModuleKind uint8

const (
	// HostModule runs on the main loop, in dependency order, once per
	// eligible frame.
	HostModule ModuleKind = iota
	// WorkerModule runs on a dedicated background OS thread with its own
	// scripting VM, paced independently of the host frame loop.
	WorkerModule
)

func (k ModuleKind) String() string {
	if k == WorkerModule {
		return "worker"
	}
	return "host"
}

// Descriptor is the immutable contract a script declares via
// register_module/register_threaded_module. Once the registry is frozen,
// a Descriptor never changes; the executors only ever read it.
type Descriptor struct {
	Name           string
	Kind           ModuleKind
	Deps           []string
	FramesInterval int
	InitialShared  neutral.Value
	HasShared      bool // distinguishes "no shared state" from a null value
	InitialLocal   neutral.Value
	InitFn         *lua.LFunction
	UpdateFn       *lua.LFunction
	// Overlay marks a host module that keeps updating while the engine is
	// Paused, per §4.6 step 3's UI overlay carve-out. Worker modules ignore
	// this: they already park on the state condition independently of the
	// host frame loop.
	Overlay bool
}

// validate enforces the required-fields contract from the registration
// protocol: a non-empty name (uniqueness is checked by Registry.Register),
// a positive cadence, and a present
// update function. init is optional — modules that need no setup may omit
// it.
func (d *Descriptor) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: module name must not be empty", ErrMalformedModule)
	}
	if d.FramesInterval < 0 {
		return fmt.Errorf("%w: %s: frames_interval must be positive", ErrInvalidFramesInterval, d.Name)
	}
	if d.FramesInterval == 0 {
		d.FramesInterval = 1
	}
	if d.UpdateFn == nil {
		return fmt.Errorf("%w: %s: missing update function", ErrMalformedModule, d.Name)
	}
	return nil
}

// dueThisFrame reports whether frameCounter lands on this module's cadence.
func (d *Descriptor) dueThisFrame(frameCounter uint64) bool {
	return frameCounter%uint64(d.FramesInterval) == 0
}
