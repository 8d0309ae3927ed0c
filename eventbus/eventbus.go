// Package eventbus is an in-process publish/subscribe bus used to fan out
// engine-domain occurrences — module faults, disables, lifecycle state
// changes — to subscribers such as a diagnostics overlay module or a log
// sink, without coupling the Fault Guard or Engine Controller to any
// particular consumer.
package eventbus

import (
	"context"
	"time"
)

// Event represents a message in the event bus.
type Event struct {
	// Topic routes the event to subscribers; hierarchical dot-separated
	// names are conventional, e.g. "module.fault" or "engine.state".
	Topic string `json:"topic"`

	// Payload is the event body. For this engine's own topics it is
	// typically a FaultEvent or a state-transition summary; any
	// serializable value is accepted.
	Payload interface{} `json:"payload"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`

	CreatedAt            time.Time  `json:"createdAt"`
	ProcessingStarted    *time.Time `json:"processingStarted,omitempty"`
	ProcessingCompleted  *time.Time `json:"processingCompleted,omitempty"`
}

// EventHandler processes one delivered event. Handlers should be
// idempotent where possible and respect context cancellation.
type EventHandler func(ctx context.Context, event Event) error

// Subscription represents a subscription to a topic.
type Subscription interface {
	Topic() string
	ID() string
	IsAsync() bool
	Cancel() error
}

// EventBus is the interface the engine and its modules publish/subscribe
// through. MemoryBus is the only implementation this module ships — there
// is exactly one process, so there is no need for a network-backed engine.
type EventBus interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) (Subscription, error)
	SubscribeAsync(ctx context.Context, topic string, handler EventHandler) (Subscription, error)
	Unsubscribe(ctx context.Context, subscription Subscription) error
	Topics() []string
	SubscriberCount(topic string) int
}
