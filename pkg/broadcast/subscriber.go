package broadcast

import "sync"

type subscriber[T any] struct {
	ch      chan Message[T]
	mu      sync.RWMutex
	closed  bool
	onClose func()
}

func newSubscriber[T any](bufferSize int, onClose func()) *subscriber[T] {
	return &subscriber[T]{
		ch:      make(chan Message[T], max(bufferSize, 1)),
		onClose: onClose,
	}
}

func (s *subscriber[T]) Receive() <-chan Message[T] { return s.ch }

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	if s.onClose != nil {
		s.onClose()
	}
	return nil
}

// send delivers without blocking and reports whether the message was queued.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}
