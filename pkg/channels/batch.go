package channels

import (
	"time"

	gferrors "github.com/vnykmshr/fiberflow/pkg/common/errors"
	"github.com/vnykmshr/fiberflow/pkg/common/validation"
	"github.com/vnykmshr/fiberflow/pkg/core"
	"github.com/vnykmshr/fiberflow/pkg/fiber"
	"github.com/vnykmshr/fiberflow/pkg/metrics"
)

// BatchConfig configures batch and keyed batch subscribers.
type BatchConfig struct {
	// Window is how long messages accumulate after the first one arrives.
	Window time.Duration

	// Name labels the subscriber in metrics.
	Name string

	// Metrics enables instrumentation when set.
	Metrics *metrics.Registry
}

func (c BatchConfig) validate(f fiber.Fiber, sinkNil bool) error {
	if err := validation.ValidateNotNil("channels", "fiber", f); err != nil {
		return err
	}
	if sinkNil {
		return gferrors.NewValidationError("channels", "sink", nil, "cannot be nil").
			WithHint("provide a function receiving each flushed batch")
	}
	return validation.ValidatePositiveDuration("channels", "window", c.Window)
}

func (c BatchConfig) observe(size int) {
	if c.Metrics == nil {
		return
	}
	c.Metrics.BatchFlushes.WithLabelValues(c.Name).Inc()
	c.Metrics.BatchFlushSize.WithLabelValues(c.Name).Observe(float64(size))
}

// BatchSubscriber collects messages arriving within a window and delivers
// them to its sink as one ordered slice, on its fiber.
//
// The first message after a flush opens a window by scheduling a flush on the
// fiber Window later; later messages append until that flush takes the
// buffer. OnMessage is safe for concurrent use and never blocks on the sink.
// The sink owns the delivered slice; a sink that fails loses its batch.
// Disposing the fiber discards the open window and later messages are dropped.
type BatchSubscriber[T any] struct {
	fiber   fiber.Fiber
	sink    func([]T)
	cfg     BatchConfig
	pending *window[[]T]
}

// NewBatchSubscriber creates a batch subscriber with the given window.
func NewBatchSubscriber[T any](f fiber.Fiber, sink func([]T), window time.Duration) (*BatchSubscriber[T], error) {
	return NewBatchSubscriberWithConfig(f, sink, BatchConfig{Window: window})
}

// NewBatchSubscriberWithConfig creates a batch subscriber.
func NewBatchSubscriberWithConfig[T any](f fiber.Fiber, sink func([]T), cfg BatchConfig) (*BatchSubscriber[T], error) {
	if err := cfg.validate(f, sink == nil); err != nil {
		return nil, err
	}
	b := &BatchSubscriber[T]{
		fiber:   f,
		sink:    sink,
		cfg:     cfg,
		pending: newWindow(func() []T { return nil }),
	}
	f.AddOnStop(core.DisposableFunc(b.pending.close))
	return b, nil
}

// OnMessage implements Subscribable.
func (b *BatchSubscriber[T]) OnMessage(msg T) {
	opened := b.pending.put(func(p []T) []T { return append(p, msg) })
	if opened {
		b.fiber.Schedule(b.flush, b.cfg.Window)
	}
}

// Fiber implements Subscribable.
func (b *BatchSubscriber[T]) Fiber() fiber.Fiber { return b.fiber }

func (b *BatchSubscriber[T]) flush() {
	batch := b.pending.take()
	if len(batch) == 0 {
		return
	}
	b.cfg.observe(len(batch))
	b.sink(batch)
}

// KeyedBatchSubscriber is a BatchSubscriber that keeps only the latest
// message per key within a window. Each flush delivers a map from key to the
// last message that resolved to it.
type KeyedBatchSubscriber[K comparable, T any] struct {
	fiber   fiber.Fiber
	sink    func(map[K]T)
	key     func(T) K
	cfg     BatchConfig
	pending *window[map[K]T]
}

// NewKeyedBatchSubscriber creates a keyed batch subscriber with the given window.
func NewKeyedBatchSubscriber[K comparable, T any](f fiber.Fiber, sink func(map[K]T), window time.Duration, key func(T) K) (*KeyedBatchSubscriber[K, T], error) {
	return NewKeyedBatchSubscriberWithConfig(f, sink, key, BatchConfig{Window: window})
}

// NewKeyedBatchSubscriberWithConfig creates a keyed batch subscriber.
func NewKeyedBatchSubscriberWithConfig[K comparable, T any](f fiber.Fiber, sink func(map[K]T), key func(T) K, cfg BatchConfig) (*KeyedBatchSubscriber[K, T], error) {
	if err := cfg.validate(f, sink == nil); err != nil {
		return nil, err
	}
	if key == nil {
		return nil, gferrors.NewValidationError("channels", "key", nil, "cannot be nil").
			WithHint("provide a function resolving each message to its key")
	}
	b := &KeyedBatchSubscriber[K, T]{
		fiber:   f,
		sink:    sink,
		key:     key,
		cfg:     cfg,
		pending: newWindow(func() map[K]T { return make(map[K]T) }),
	}
	f.AddOnStop(core.DisposableFunc(b.pending.close))
	return b, nil
}

// OnMessage implements Subscribable.
func (b *KeyedBatchSubscriber[K, T]) OnMessage(msg T) {
	k := b.key(msg)
	opened := b.pending.put(func(p map[K]T) map[K]T {
		p[k] = msg
		return p
	})
	if opened {
		b.fiber.Schedule(b.flush, b.cfg.Window)
	}
}

// Fiber implements Subscribable.
func (b *KeyedBatchSubscriber[K, T]) Fiber() fiber.Fiber { return b.fiber }

func (b *KeyedBatchSubscriber[K, T]) flush() {
	batch := b.pending.take()
	if len(batch) == 0 {
		return
	}
	b.cfg.observe(len(batch))
	b.sink(batch)
}
