package channels

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/fiberflow/pkg/core"
	"github.com/vnykmshr/fiberflow/pkg/fiber"
	"github.com/vnykmshr/fiberflow/pkg/metrics"
)

// Subscribable receives messages on the publishing goroutine. Fiber returns
// the fiber the subscriber is bound to; a subscription made through
// SubscribeWith is removed when that fiber is disposed. It may return nil.
type Subscribable[T any] interface {
	OnMessage(msg T)
	Fiber() fiber.Fiber
}

// Subscription is the handle returned by a subscribe call.
type Subscription interface {
	// Unsubscribe removes the subscription. Deliveries already queued on the
	// subscriber's fiber still run. Safe to call more than once.
	Unsubscribe()
}

// Config holds channel configuration.
type Config struct {
	// Name labels the channel in metrics and logs.
	Name string

	// Metrics enables instrumentation when set.
	Metrics *metrics.Registry

	// Logger receives subscription lifecycle records. Nil discards.
	Logger *slog.Logger
}

// Stats holds statistics about a channel.
type Stats struct {
	// Published is the total number of Publish calls.
	Published int64

	// Subscribers is the current number of subscriptions.
	Subscribers int

	// LastPublishTime is the time of the most recent Publish, zero if none.
	LastPublishTime time.Time
}

// MemoryChannel is an in-process publish point. Publish delivers to every
// current subscription without taking a lock: the subscription set is a
// copy-on-write slice swapped atomically by Subscribe and Unsubscribe.
type MemoryChannel[T any] struct {
	name    string
	metrics *metrics.Registry
	logger  *slog.Logger

	mu   sync.Mutex // serializes writers of subs
	subs atomic.Pointer[[]*subscription[T]]

	published   atomic.Int64
	lastPublish atomic.Int64
}

// NewMemoryChannel creates a channel with default configuration.
func NewMemoryChannel[T any]() *MemoryChannel[T] {
	return NewMemoryChannelWithConfig[T](Config{})
}

// NewMemoryChannelWithConfig creates a channel with the given configuration.
func NewMemoryChannelWithConfig[T any](cfg Config) *MemoryChannel[T] {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ch := &MemoryChannel[T]{
		name:    cfg.Name,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.With(slog.String("channel", cfg.Name)),
	}
	ch.subs.Store(&[]*subscription[T]{})
	return ch
}

// Subscribe delivers every message published after this call to cb, on f.
// Deliveries to one subscriber run serialized in publish order; different
// subscribers run in parallel. The subscription is removed when f is disposed.
func (ch *MemoryChannel[T]) Subscribe(f fiber.Fiber, cb func(T)) Subscription {
	return ch.SubscribeWith(&fiberCallback[T]{fiber: f, cb: cb})
}

// SubscribeWith registers s. Its OnMessage is called on the publishing
// goroutine, so s is responsible for any hand-off to its fiber.
func (ch *MemoryChannel[T]) SubscribeWith(s Subscribable[T]) Subscription {
	sub := &subscription[T]{ch: ch, target: s}
	ch.add(sub)

	if f := s.Fiber(); f != nil {
		key := f.AddOnStop(core.DisposableFunc(func() { ch.remove(sub) }))
		sub.bind(f, key)
	}
	return sub
}

// Publish hands msg to every current subscription and returns without
// waiting for delivery.
func (ch *MemoryChannel[T]) Publish(msg T) {
	for _, sub := range *ch.subs.Load() {
		sub.target.OnMessage(msg)
	}

	ch.published.Add(1)
	ch.lastPublish.Store(time.Now().UnixNano())
	if ch.metrics != nil {
		ch.metrics.MessagesPublished.WithLabelValues(ch.name).Inc()
	}
}

// SubscriberCount returns the current number of subscriptions.
func (ch *MemoryChannel[T]) SubscriberCount() int {
	return len(*ch.subs.Load())
}

// ClearSubscribers removes every subscription.
func (ch *MemoryChannel[T]) ClearSubscribers() {
	ch.mu.Lock()
	old := *ch.subs.Swap(&[]*subscription[T]{})
	ch.mu.Unlock()

	ch.updateGauge(0)
	for _, sub := range old {
		sub.Unsubscribe()
	}
	ch.logger.Debug("subscribers cleared", slog.Int("count", len(old)))
}

// Stats returns channel statistics.
func (ch *MemoryChannel[T]) Stats() Stats {
	s := Stats{
		Published:   ch.published.Load(),
		Subscribers: ch.SubscriberCount(),
	}
	if ns := ch.lastPublish.Load(); ns != 0 {
		s.LastPublishTime = time.Unix(0, ns)
	}
	return s
}

func (ch *MemoryChannel[T]) add(sub *subscription[T]) {
	ch.mu.Lock()
	old := *ch.subs.Load()
	next := make([]*subscription[T], len(old), len(old)+1)
	copy(next, old)
	next = append(next, sub)
	ch.subs.Store(&next)
	ch.mu.Unlock()

	ch.updateGauge(len(next))
}

func (ch *MemoryChannel[T]) remove(sub *subscription[T]) {
	ch.mu.Lock()
	old := *ch.subs.Load()
	idx := -1
	for i, s := range old {
		if s == sub {
			idx = i
			break
		}
	}
	if idx < 0 {
		ch.mu.Unlock()
		return
	}
	next := make([]*subscription[T], 0, len(old)-1)
	next = append(next, old[:idx]...)
	next = append(next, old[idx+1:]...)
	ch.subs.Store(&next)
	ch.mu.Unlock()

	ch.updateGauge(len(next))
}

func (ch *MemoryChannel[T]) updateGauge(n int) {
	if ch.metrics != nil {
		ch.metrics.ChannelSubscribers.WithLabelValues(ch.name).Set(float64(n))
	}
}

type subscription[T any] struct {
	ch     *MemoryChannel[T]
	target Subscribable[T]
	once   sync.Once

	mu    sync.Mutex
	fiber fiber.Fiber
	key   core.HookKey
}

func (s *subscription[T]) bind(f fiber.Fiber, key core.HookKey) {
	s.mu.Lock()
	s.fiber, s.key = f, key
	s.mu.Unlock()
}

func (s *subscription[T]) Unsubscribe() {
	s.once.Do(func() {
		s.ch.remove(s)

		s.mu.Lock()
		f, key := s.fiber, s.key
		s.mu.Unlock()
		if f != nil {
			f.RemoveOnStop(key)
		}
	})
}

// fiberCallback hands each message to its fiber.
type fiberCallback[T any] struct {
	fiber fiber.Fiber
	cb    func(T)
}

func (c *fiberCallback[T]) OnMessage(msg T) {
	c.fiber.Execute(func() { c.cb(msg) })
}

func (c *fiberCallback[T]) Fiber() fiber.Fiber { return c.fiber }
