package kestrel

import (
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kestrelscript/kestrel/neutral"
	lua "github.com/yuin/gopher-lua"
)

// workerRunner owns one dedicated OS thread for one WorkerModule: its own
// scripting VM, its own local-state table, and its own tick loop paced off
// the engine's base tick rate. No state here is shared with any other
// worker or the host loop except through the snapshot store.
type workerRunner struct {
	id     string
	desc   *Descriptor
	engine *Engine

	done chan struct{}

	pauseMu   sync.Mutex
	pauseCond *sync.Cond
}

func newWorkerRunner(e *Engine, desc *Descriptor) *workerRunner {
	w := &workerRunner{
		id:     uuid.NewString(),
		desc:   desc,
		engine: e,
		done:   make(chan struct{}),
	}
	w.pauseCond = sync.NewCond(&w.pauseMu)
	return w
}

// startWorkers spawns one goroutine-backed worker per plan.Workers entry.
// Each runs on its own goroutine; LockOSThread pins it to a dedicated OS
// thread so the embedded VM's assumption of single-threaded access holds
// even under the Go scheduler.
func (e *Engine) startWorkers(plan *ExecutionPlan) {
	for _, name := range plan.Workers {
		desc, ok := plan.Descriptor(name)
		if !ok {
			continue
		}
		w := newWorkerRunner(e, desc)
		e.workers = append(e.workers, w)
		go w.run()
	}
}

// joinWorkers waits for every worker to observe Exiting and return, up to
// the configured join timeout. Workers that do not return in time are
// logged and detached (ErrWorkerJoinTimeout) rather than blocked on
// forever; their goroutine and VM are leaked until process exit, which is
// the spec's documented tolerable outcome.
func (e *Engine) joinWorkers() {
	deadline := time.Now().Add(e.cfg.WorkerJoinTimeout)
	for _, w := range e.workers {
		select {
		case <-w.done:
		case <-time.After(time.Until(deadline)):
			e.logger.Warn("worker join timed out, detaching", "module", w.desc.Name, "worker_id", w.id, "error", ErrWorkerJoinTimeout)
		}
	}
}

// wake unparks a worker blocked in its Paused wait, used when set_running
// transitions back from Paused. The engine's own stateFlag already serves
// every worker, but each worker also owns a condition variable so a
// transition to Running is observed promptly. The broadcast is made under
// pauseMu, so a worker that has just seen Paused cannot miss it.
func (w *workerRunner) wake() {
	w.pauseMu.Lock()
	w.pauseCond.Broadcast()
	w.pauseMu.Unlock()
}

func (w *workerRunner) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.done)

	L := lua.NewState()
	defer L.Close()

	local := neutral.FromNeutral(L, w.desc.InitialLocal)

	if w.desc.InitFn != nil {
		err := w.engine.guard.Guard(w.desc.Name, PhaseInit, 0, func() error {
			return L.CallByParam(lua.P{Fn: w.desc.InitFn, NRet: 0, Protect: true}, local)
		})
		if err != nil {
			return
		}
	}

	period := w.engine.cfg.BaseTickRate * time.Duration(w.desc.FramesInterval)
	if period <= 0 {
		period = w.engine.cfg.BaseTickRate
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	var workerFrame uint64
	for {
		state := w.engine.state.load()
		if state == Exiting {
			return
		}
		if state == Paused {
			w.parkUntilResumed()
			continue
		}

		<-ticker.C

		if w.engine.guard.Disabled(w.desc.Name) {
			continue
		}

		w.tick(L, local, workerFrame)
		workerFrame++
	}
}

// parkUntilResumed blocks on the worker's condition variable, re-checking
// the engine state flag on every wake to guard against spurious wakeups, as
// required by §5's pause/resume contract.
func (w *workerRunner) parkUntilResumed() {
	w.pauseMu.Lock()
	for w.engine.state.load() == Paused {
		w.pauseCond.Wait()
	}
	w.pauseMu.Unlock()
}

// tick runs one update cycle: build context from current snapshots, invoke
// update under the fault guard, and on success publish the module's own
// shared state back to the store.
func (w *workerRunner) tick(L *lua.LState, local lua.LValue, workerFrame uint64) {
	ctx := L.NewTable()
	ctx.RawSetString("self", local)

	if w.desc.HasShared {
		v, _, err := w.engine.store.Read(w.desc.Name)
		if err != nil {
			w.engine.logger.Warn("worker context build failed", "module", w.desc.Name, "error", err)
			return
		}
		ctx.RawSetString("shared_state", neutral.FromNeutral(L, v))
	}

	deps, err := w.engine.store.ReadMany(w.desc.Deps)
	if err != nil {
		w.engine.logger.Warn("worker dependency read failed", "module", w.desc.Name, "error", err)
		return
	}
	for name, v := range deps {
		ctx.RawSetString(name, neutral.FromNeutral(L, v))
	}

	guardErr := w.engine.guard.Guard(w.desc.Name, PhaseUpdate, workerFrame, func() error {
		return L.CallByParam(lua.P{Fn: w.desc.UpdateFn, NRet: 0, Protect: true}, ctx)
	})
	if guardErr != nil {
		return
	}

	if !w.desc.HasShared {
		return
	}
	sharedV := ctx.RawGetString("shared_state")
	if sharedV == lua.LNil {
		return
	}
	nv, err := neutral.ToNeutral(sharedV)
	if err != nil {
		w.engine.logger.Warn("worker shared_state conversion failed, keeping previous snapshot", "module", w.desc.Name, "error", err)
		return
	}
	if _, err := w.engine.store.Publish(w.desc.Name, nv); err != nil {
		w.engine.logger.Warn("worker publish failed", "module", w.desc.Name, "error", err)
	}
}
