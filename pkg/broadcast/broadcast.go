// Package broadcast fans messages out to subscribers of a named topic.
// Delivery is best effort: a subscriber whose buffer is full misses the
// message instead of blocking the publisher.
package broadcast

import "context"

// Message wraps data of type T.
type Message[T any] struct {
	Topic string
	Data  T
}

// Subscriber receives messages for one topic.
type Subscriber[T any] interface {
	// Receive returns the delivery channel. It is closed after Close or when
	// the subscription context is done.
	Receive() <-chan Message[T]
	Close() error
}

// Broadcaster publishes messages to topic subscribers.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber for topic. The subscription ends when
	// ctx is done.
	Subscribe(ctx context.Context, topic string) (Subscriber[T], error)
	Publish(ctx context.Context, topic string, data T) error
	Close() error
}
