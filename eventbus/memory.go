package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// MemoryBus implements EventBus using in-memory channels. It is the only
// engine this module ships: the runtime is a single process, so there is
// nothing for a network-backed engine to buy here.
type MemoryBus struct {
	cfg Config

	subscriptions map[string]map[string]*memorySubscription
	topicMutex    sync.RWMutex

	workerPool chan func()
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	isStarted  bool

	pubCounter     uint64
	deliveredCount uint64
	droppedCount   uint64
}

type memorySubscription struct {
	id        string
	topic     string
	handler   EventHandler
	isAsync   bool
	eventCh   chan Event
	done      chan struct{}
	finished  chan struct{}
	cancelled bool
	mutex     sync.RWMutex
}

func (s *memorySubscription) Topic() string { return s.topic }
func (s *memorySubscription) ID() string    { return s.id }
func (s *memorySubscription) IsAsync() bool { return s.isAsync }

func (s *memorySubscription) isCancelled() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.cancelled
}

func (s *memorySubscription) Cancel() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.cancelled {
		return nil
	}
	close(s.done)
	s.cancelled = true
	return nil
}

// NewMemoryBus builds a MemoryBus. Call Start before Publish/Subscribe.
func NewMemoryBus(cfg Config) *MemoryBus {
	if cfg.WorkerCount <= 0 || cfg.DefaultEventBufferSize <= 0 {
		defaults := DefaultConfig()
		if cfg.WorkerCount <= 0 {
			cfg.WorkerCount = defaults.WorkerCount
		}
		if cfg.DefaultEventBufferSize <= 0 {
			cfg.DefaultEventBufferSize = defaults.DefaultEventBufferSize
		}
	}
	return &MemoryBus{
		cfg:           cfg,
		subscriptions: make(map[string]map[string]*memorySubscription),
	}
}

func (m *MemoryBus) Start(ctx context.Context) error {
	if m.isStarted {
		return nil
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.workerPool = make(chan func(), m.cfg.WorkerCount)
	for i := 0; i < m.cfg.WorkerCount; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	m.isStarted = true
	return nil
}

func (m *MemoryBus) Stop(ctx context.Context) error {
	if !m.isStarted {
		return nil
	}
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ErrEventBusShutdownTimedOut
	}

	m.isStarted = false
	return nil
}

// matchesTopic supports a single trailing-wildcard pattern, e.g. "module.*"
// matches "module.fault" and "module.disabled".
func matchesTopic(eventTopic, subscriptionTopic string) bool {
	if eventTopic == subscriptionTopic {
		return true
	}
	if len(subscriptionTopic) > 1 && subscriptionTopic[len(subscriptionTopic)-1] == '*' {
		prefix := subscriptionTopic[:len(subscriptionTopic)-1]
		return len(eventTopic) >= len(prefix) && eventTopic[:len(prefix)] == prefix
	}
	return false
}

func (m *MemoryBus) Publish(ctx context.Context, event Event) error {
	if !m.isStarted {
		return ErrEventBusNotStarted
	}

	event.CreatedAt = time.Now()
	if event.Metadata == nil {
		event.Metadata = make(map[string]interface{})
	}

	m.topicMutex.RLock()
	var matching []*memorySubscription
	for subTopic, subs := range m.subscriptions {
		if matchesTopic(event.Topic, subTopic) {
			for _, sub := range subs {
				matching = append(matching, sub)
			}
		}
	}
	m.topicMutex.RUnlock()

	if len(matching) == 0 {
		return nil
	}

	if m.cfg.RotateSubscriberOrder && len(matching) > 1 {
		pc := atomic.AddUint64(&m.pubCounter, 1) - 1
		n := uint64(len(matching))
		start := pc % n
		if start != 0 {
			rotated := make([]*memorySubscription, 0, len(matching))
			rotated = append(rotated, matching[start:]...)
			rotated = append(rotated, matching[:start]...)
			matching = rotated
		}
	}

	blockTimeout := time.Duration(m.cfg.PublishBlockTimeoutMillis) * time.Millisecond

	for _, sub := range matching {
		sub.mutex.RLock()
		cancelled := sub.cancelled
		sub.mutex.RUnlock()
		if cancelled {
			continue
		}

		if !m.deliverOne(ctx, sub, event, blockTimeout) {
			atomic.AddUint64(&m.droppedCount, 1)
		}
	}

	return nil
}

func (m *MemoryBus) deliverOne(ctx context.Context, sub *memorySubscription, event Event, blockTimeout time.Duration) bool {
	switch m.cfg.DeliveryMode {
	case "block":
		select {
		case sub.eventCh <- event:
			return true
		case <-ctx.Done():
			return false
		}
	case "timeout":
		if blockTimeout <= 0 {
			select {
			case sub.eventCh <- event:
				return true
			default:
				return false
			}
		}
		timer := time.NewTimer(blockTimeout)
		defer timer.Stop()
		select {
		case sub.eventCh <- event:
			return true
		case <-timer.C:
			return false
		case <-ctx.Done():
			return false
		}
	default: // "drop"
		select {
		case sub.eventCh <- event:
			return true
		default:
			return false
		}
	}
}

func (m *MemoryBus) Subscribe(ctx context.Context, topic string, handler EventHandler) (Subscription, error) {
	return m.subscribe(topic, handler, false)
}

func (m *MemoryBus) SubscribeAsync(ctx context.Context, topic string, handler EventHandler) (Subscription, error) {
	return m.subscribe(topic, handler, true)
}

func (m *MemoryBus) subscribe(topic string, handler EventHandler, isAsync bool) (Subscription, error) {
	if !m.isStarted {
		return nil, ErrEventBusNotStarted
	}
	if handler == nil {
		return nil, ErrEventHandlerNil
	}

	sub := &memorySubscription{
		id:       uuid.NewString(),
		topic:    topic,
		handler:  handler,
		isAsync:  isAsync,
		eventCh:  make(chan Event, m.cfg.DefaultEventBufferSize),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	m.topicMutex.Lock()
	if _, ok := m.subscriptions[topic]; !ok {
		m.subscriptions[topic] = make(map[string]*memorySubscription)
	}
	m.subscriptions[topic][sub.id] = sub
	m.topicMutex.Unlock()

	started := make(chan struct{})
	m.wg.Add(1)
	go func() {
		close(started)
		m.handleEvents(sub)
	}()
	<-started

	return sub, nil
}

func (m *MemoryBus) Unsubscribe(ctx context.Context, subscription Subscription) error {
	if !m.isStarted {
		return ErrEventBusNotStarted
	}
	sub, ok := subscription.(*memorySubscription)
	if !ok {
		return ErrInvalidSubscriptionType
	}
	if err := sub.Cancel(); err != nil {
		return err
	}

	m.topicMutex.Lock()
	if subs, ok := m.subscriptions[sub.topic]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(m.subscriptions, sub.topic)
		}
	}
	m.topicMutex.Unlock()

	select {
	case <-sub.finished:
	case <-time.After(100 * time.Millisecond):
	}
	return nil
}

func (m *MemoryBus) Topics() []string {
	m.topicMutex.RLock()
	defer m.topicMutex.RUnlock()
	out := make([]string, 0, len(m.subscriptions))
	for topic := range m.subscriptions {
		out = append(out, topic)
	}
	return out
}

func (m *MemoryBus) SubscriberCount(topic string) int {
	m.topicMutex.RLock()
	defer m.topicMutex.RUnlock()
	return len(m.subscriptions[topic])
}

func (m *MemoryBus) handleEvents(sub *memorySubscription) {
	defer m.wg.Done()
	defer close(sub.finished)

	for {
		if sub.isCancelled() {
			return
		}
		select {
		case <-m.ctx.Done():
			return
		case <-sub.done:
			return
		case event := <-sub.eventCh:
			if sub.isCancelled() {
				return
			}
			if sub.isAsync {
				m.queueEventHandler(sub, event)
				continue
			}
			m.deliverSync(sub, event)
		}
	}
}

func (m *MemoryBus) deliverSync(sub *memorySubscription, event Event) {
	now := time.Now()
	event.ProcessingStarted = &now
	err := sub.handler(m.ctx, event)
	completed := time.Now()
	event.ProcessingCompleted = &completed
	if err != nil {
		slog.Error("event handler failed", "error", err, "topic", event.Topic)
	}
	atomic.AddUint64(&m.deliveredCount, 1)
}

func (m *MemoryBus) queueEventHandler(sub *memorySubscription, event Event) {
	select {
	case m.workerPool <- func() {
		m.deliverSync(sub, event)
	}:
	default:
		atomic.AddUint64(&m.droppedCount, 1)
	}
}

func (m *MemoryBus) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case task := <-m.workerPool:
			task()
		}
	}
}

// Stats returns basic delivery counters for monitoring/testing.
func (m *MemoryBus) Stats() (delivered, dropped uint64) {
	return atomic.LoadUint64(&m.deliveredCount), atomic.LoadUint64(&m.droppedCount)
}
