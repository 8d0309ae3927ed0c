package kestrel

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Phase names an entry point the Fault Guard wraps, used in log events and
// fault records.
type Phase string

const (
	PhaseInit   Phase = "init"
	PhaseUpdate Phase = "update"
	PhaseFrame  Phase = "frame" // top-level run/pause/exit callbacks
)

// FaultEvent is a single recorded script fault, emitted on the event bus so
// that a diagnostics overlay or log sink can subscribe to it.
type FaultEvent struct {
	ID          string
	Module      string
	Phase       Phase
	Frame       uint64
	Message     string
	Disabled    bool // true if this fault caused (or confirmed) permanent disable
	Consecutive int
}

// FaultGuard isolates script faults per module: it never lets a panic or
// script error reach the engine loop, tracks consecutive-failure counts per
// module, and permanently disables a module once its threshold is crossed.
// An init failure disables the module immediately, with no threshold.
type FaultGuard struct {
	mu          sync.Mutex
	threshold   int
	consecutive map[string]int
	disabled    map[string]bool
	logger      Logger
	onFault     func(FaultEvent)
}

// NewFaultGuard builds a guard with the given consecutive-failure
// threshold. A threshold <= 0 falls back to the spec's documented default
// of 16.
func NewFaultGuard(threshold int, logger Logger, onFault func(FaultEvent)) *FaultGuard {
	if threshold <= 0 {
		threshold = 16
	}
	if logger == nil {
		logger = NopLogger{}
	}
	return &FaultGuard{
		threshold:   threshold,
		consecutive: make(map[string]int),
		disabled:    make(map[string]bool),
		logger:      logger,
		onFault:     onFault,
	}
}

// Disabled reports whether module has been permanently disabled.
func (g *FaultGuard) Disabled(module string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.disabled[module]
}

// Guard invokes fn, the body of a single script entry point, recovering
// from any Go panic (gopher-lua itself wraps script-level errors as Go
// errors, but host-binding code invoked from script can still panic) and
// treating both a panic and a returned error identically: an ErrScriptFault
// wrapping the underlying cause.
//
// phase PhaseInit failures disable the module immediately and permanently.
// phase PhaseUpdate failures drop the current tick; the module is disabled
// only once consecutive failures reach the configured threshold. A
// successful call resets the module's consecutive-failure count to zero.
func (g *FaultGuard) Guard(module string, phase Phase, frame uint64, fn func() error) (err error) {
	if g.Disabled(module) {
		return fmt.Errorf("%w: %s", ErrModuleDisabled, module)
	}

	err = func() (callErr error) {
		defer func() {
			if r := recover(); r != nil {
				callErr = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn()
	}()
	if err == nil {
		g.mu.Lock()
		g.consecutive[module] = 0
		g.mu.Unlock()
		return nil
	}

	faultErr := fmt.Errorf("%w: %s: %w", ErrScriptFault, module, err)

	g.mu.Lock()
	disabledNow := false
	consecutive := 0
	if phase == PhaseInit {
		g.disabled[module] = true
		disabledNow = true
	} else {
		g.consecutive[module]++
		consecutive = g.consecutive[module]
		if consecutive >= g.threshold {
			g.disabled[module] = true
			disabledNow = true
		}
	}
	g.mu.Unlock()

	event := FaultEvent{
		ID:          uuid.NewString(),
		Module:      module,
		Phase:       phase,
		Frame:       frame,
		Message:     faultErr.Error(),
		Disabled:    disabledNow,
		Consecutive: consecutive,
	}

	if disabledNow {
		g.logger.Error("module disabled after script fault", "module", module, "phase", string(phase), "frame", frame, "error", faultErr)
	} else {
		g.logger.Warn("script fault", "module", module, "phase", string(phase), "frame", frame, "error", faultErr)
	}
	if g.onFault != nil {
		g.onFault(event)
	}

	return faultErr
}

// tracebackMessage renders a gopher-lua PCall error as a best-effort string.
// gopher-lua error values already carry whatever traceback the VM attached
// when traceback mode is enabled; there is nothing further to unwrap here.
func tracebackMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
