package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster fans out across application instances over Redis pub/sub.
// Payloads are JSON encoded.
type RedisBroadcaster[T any] struct {
	client     redis.UniversalClient
	prefix     string
	bufferSize int
}

// NewRedisBroadcaster creates a broadcaster; prefix namespaces the Redis
// channels and is separated from the topic by a colon.
func NewRedisBroadcaster[T any](client redis.UniversalClient, prefix string, bufferSize int) *RedisBroadcaster[T] {
	if prefix = strings.TrimSuffix(prefix, ":"); prefix != "" {
		prefix += ":"
	}
	return &RedisBroadcaster[T]{client: client, prefix: prefix, bufferSize: max(bufferSize, 1)}
}

// Channel returns the Redis channel carrying topic.
func (b *RedisBroadcaster[T]) Channel(topic string) string {
	return b.prefix + topic
}

func (b *RedisBroadcaster[T]) Subscribe(ctx context.Context, topic string) (Subscriber[T], error) {
	ps := b.client.Subscribe(ctx, b.Channel(topic))
	// Wait for the subscription confirmation so no publish after return is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := newSubscriber[T](b.bufferSize, func() {
		cancel()
		_ = ps.Close()
	})

	go func() {
		defer sub.Close()
		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-in:
				if !ok {
					return
				}
				var data T
				if err := json.Unmarshal([]byte(raw.Payload), &data); err != nil {
					continue
				}
				sub.send(Message[T]{Topic: topic, Data: data})
			}
		}
	}()

	return sub, nil
}

func (b *RedisBroadcaster[T]) Publish(ctx context.Context, topic string, data T) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	if err := b.client.Publish(ctx, b.Channel(topic), payload).Err(); err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	return nil
}

// Close is a no-op; subscriptions end with their contexts and the client is
// owned by the caller.
func (b *RedisBroadcaster[T]) Close() error { return nil }
