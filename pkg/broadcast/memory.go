package broadcast

import (
	"context"
	"sync"
)

// MemoryBroadcaster delivers within a single process. Safe for concurrent use.
type MemoryBroadcaster[T any] struct {
	mu         sync.RWMutex
	topics     map[string]map[*subscriber[T]]struct{}
	bufferSize int
	closed     bool
}

// NewMemoryBroadcaster creates a broadcaster with the given per-subscriber
// buffer size (minimum 1).
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	return &MemoryBroadcaster[T]{
		topics:     make(map[string]map[*subscriber[T]]struct{}),
		bufferSize: max(bufferSize, 1),
	}
}

func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context, topic string) (Subscriber[T], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	var sub *subscriber[T]
	sub = newSubscriber[T](b.bufferSize, func() { b.remove(topic, sub) })

	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*subscriber[T]]struct{})
		b.topics[topic] = subs
	}
	subs[sub] = struct{}{}

	context.AfterFunc(ctx, func() { _ = sub.Close() })

	return sub, nil
}

func (b *MemoryBroadcaster[T]) Publish(_ context.Context, topic string, data T) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	msg := Message[T]{Topic: topic, Data: data}
	for sub := range b.topics[topic] {
		sub.send(msg)
	}
	return nil
}

// Subscribers returns the number of live subscribers on topic.
func (b *MemoryBroadcaster[T]) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Close closes every subscriber. It is idempotent.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var all []*subscriber[T]
	for _, subs := range b.topics {
		for sub := range subs {
			all = append(all, sub)
		}
	}
	clear(b.topics)
	b.mu.Unlock()

	for _, sub := range all {
		_ = sub.Close()
	}
	return nil
}

func (b *MemoryBroadcaster[T]) remove(topic string, sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.topics[topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.topics, topic)
		}
	}
}
