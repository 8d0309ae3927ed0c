package eventbus

// Config configures the in-process MemoryBus. There is exactly one process
// and one bus here — no engine selection, no routing table — so this is
// the single-engine subset of the ecosystem's event bus configuration.
type Config struct {
	// WorkerCount sizes the async-delivery worker pool.
	WorkerCount int `yaml:"worker_count" toml:"worker_count" env:"KESTREL_EVENTBUS_WORKERS"`

	// DefaultEventBufferSize sizes each subscription's per-topic channel.
	DefaultEventBufferSize int `yaml:"default_buffer_size" toml:"default_buffer_size" env:"KESTREL_EVENTBUS_BUFFER_SIZE"`

	// DeliveryMode is one of "drop" (default), "block", or "timeout".
	DeliveryMode string `yaml:"delivery_mode" toml:"delivery_mode" env:"KESTREL_EVENTBUS_DELIVERY_MODE"`

	// PublishBlockTimeoutMillis bounds a "timeout" delivery attempt, in
	// milliseconds.
	PublishBlockTimeoutMillis int `yaml:"publish_block_timeout_millis" toml:"publish_block_timeout_millis"`

	// RotateSubscriberOrder round-robins delivery order across publishes to
	// avoid perpetual head-of-line bias when one subscriber is slow.
	RotateSubscriberOrder bool `yaml:"rotate_subscriber_order" toml:"rotate_subscriber_order"`
}

// DefaultConfig returns sane defaults for a single-process engine bus.
func DefaultConfig() Config {
	return Config{
		WorkerCount:               4,
		DefaultEventBufferSize:    64,
		DeliveryMode:              "drop",
		PublishBlockTimeoutMillis: 0,
		RotateSubscriberOrder:     false,
	}
}
