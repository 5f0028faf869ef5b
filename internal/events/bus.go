package events

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultBufferSize is the default per-subscriber channel capacity.
const DefaultBufferSize = 64

// Bus is a best-effort broadcast channel. Publish never blocks: a subscriber
// whose buffer is full misses the message.
type Bus[T any] struct {
	mu         sync.RWMutex
	bufferSize int
	logger     logrus.FieldLogger
	subs       map[uint64]*Subscription[T]
	nextID     uint64
	closed     bool
}

// Subscription is a handle on a stream of published values.
type Subscription[T any] struct {
	id   uint64
	ch   chan T
	bus  *Bus[T]
	once sync.Once
}

type Option[T any] func(*Bus[T])

func WithBufferSize[T any](size int) Option[T] {
	return func(b *Bus[T]) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}

func WithLogger[T any](logger logrus.FieldLogger) Option[T] {
	return func(b *Bus[T]) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func New[T any](options ...Option[T]) *Bus[T] {
	bus := &Bus[T]{
		bufferSize: DefaultBufferSize,
		logger:     logrus.StandardLogger(),
		subs:       make(map[uint64]*Subscription[T]),
	}
	for _, option := range options {
		option(bus)
	}
	return bus
}

// Subscribe registers a new subscriber. On a closed bus the returned
// subscription's channel is already closed.
func (b *Bus[T]) Subscribe() *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subscribeLocked()
}

// SubscribeWith registers a subscriber whose stream starts with initial.
func (b *Bus[T]) SubscribeWith(initial T) *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := b.subscribeLocked()
	if !b.closed {
		sub.ch <- initial
	}
	return sub
}

func (b *Bus[T]) subscribeLocked() *Subscription[T] {
	b.nextID++
	sub := &Subscription[T]{id: b.nextID, ch: make(chan T, b.bufferSize), bus: b}
	if b.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}
	b.subs[sub.id] = sub
	return sub
}

func (b *Bus[T]) Publish(value T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub.ch <- value:
		default:
			b.logger.WithField("subscriber", sub.id).Warn("events: subscriber buffer full, dropping message")
		}
	}
}

// Len reports the number of live subscribers.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		sub.once.Do(func() { close(sub.ch) })
	}
}

// C returns the receive side of the subscription.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close detaches the subscriber and closes its channel.
func (s *Subscription[T]) Close() {
	s.bus.mu.Lock()
	delete(s.bus.subs, s.id)
	s.bus.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}
