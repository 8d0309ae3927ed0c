package lifecycle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
)

var (
	ErrDispatcherNotRunning     = errors.New("dispatcher is not running")
	ErrDispatcherAlreadyRunning = errors.New("dispatcher is already running")
	ErrEventBufferFull          = errors.New("event buffer is full, dropping event")
)

// StdDispatcher is the default Dispatcher: a single background goroutine
// drains a buffered channel and calls every registered observer in
// descending priority order, isolating each call with its own recover so
// one observer panicking never takes down the dispatcher or the others.
type StdDispatcher struct {
	mu        sync.RWMutex
	observers map[string]Observer
	cfg       Config
	running   bool
	eventChan chan Transition
	stopChan  chan struct{}
	wg        sync.WaitGroup

	totalDispatched atomic.Int64
	droppedFull     atomic.Int64
	observerErrors  atomic.Int64
	observerPanics  atomic.Int64
}

// NewDispatcher builds a StdDispatcher. A zero Config falls back to
// defaultConfig's buffer size and observer timeout.
func NewDispatcher(cfg Config) *StdDispatcher {
	if cfg.BufferSize <= 0 {
		cfg = defaultConfig()
	}
	return &StdDispatcher{
		observers: make(map[string]Observer),
		cfg:       cfg,
		eventChan: make(chan Transition, cfg.BufferSize),
		stopChan:  make(chan struct{}),
	}
}

func (d *StdDispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return ErrDispatcherAlreadyRunning
	}
	d.running = true
	d.wg.Add(1)
	go d.loop(ctx)
	return nil
}

func (d *StdDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	close(d.stopChan)
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}

func (d *StdDispatcher) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// Dispatch enqueues t for delivery. It never blocks: a full buffer drops
// the event and counts it, since a slow observer must not stall the frame
// loop that called Dispatch.
func (d *StdDispatcher) Dispatch(ctx context.Context, t Transition) error {
	if !d.IsRunning() {
		return ErrDispatcherNotRunning
	}
	select {
	case d.eventChan <- t:
		return nil
	default:
		d.droppedFull.Add(1)
		return ErrEventBufferFull
	}
}

func (d *StdDispatcher) RegisterObserver(ctx context.Context, observer Observer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers[observer.ID()] = observer
	return nil
}

func (d *StdDispatcher) UnregisterObserver(ctx context.Context, observerID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.observers, observerID)
	return nil
}

func (d *StdDispatcher) Observers(ctx context.Context) ([]Observer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Observer, 0, len(d.observers))
	for _, o := range d.observers {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority() > out[j].Priority() })
	return out, nil
}

// Metrics returns a snapshot of dispatcher activity.
func (d *StdDispatcher) Metrics() Metrics {
	d.mu.RLock()
	active := int64(len(d.observers))
	d.mu.RUnlock()
	return Metrics{
		TotalDispatched: d.totalDispatched.Load(),
		DroppedFull:     d.droppedFull.Load(),
		ObserverErrors:  d.observerErrors.Load(),
		ObserverPanics:  d.observerPanics.Load(),
		ActiveObservers: active,
	}
}

func (d *StdDispatcher) loop(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case t := <-d.eventChan:
			d.deliver(ctx, t)
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (d *StdDispatcher) deliver(ctx context.Context, t Transition) {
	d.totalDispatched.Add(1)

	observers, _ := d.Observers(ctx)
	for _, o := range observers {
		d.deliverOne(ctx, o, t)
	}
}

func (d *StdDispatcher) deliverOne(ctx context.Context, o Observer, t Transition) {
	defer func() {
		if recover() != nil {
			d.observerPanics.Add(1)
		}
	}()
	if err := o.OnTransition(ctx, t); err != nil {
		d.observerErrors.Add(1)
	}
}

// BasicObserver adapts a plain callback into an Observer, for tests and
// small ad-hoc subscribers that don't need their own named type.
type BasicObserver struct {
	id       string
	priority int
	callback func(context.Context, Transition) error
}

// NewBasicObserver builds an Observer around callback.
func NewBasicObserver(id string, priority int, callback func(context.Context, Transition) error) *BasicObserver {
	return &BasicObserver{id: id, priority: priority, callback: callback}
}

func (o *BasicObserver) OnTransition(ctx context.Context, t Transition) error {
	if o.callback != nil {
		return o.callback(ctx, t)
	}
	return nil
}

func (o *BasicObserver) ID() string      { return o.id }
func (o *BasicObserver) Priority() int   { return o.priority }
