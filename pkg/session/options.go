package session

import (
	"time"

	"github.com/dmitrymomot/pianoxl/pkg/cookie"
)

// Option is a functional option for configuring the Manager.
type Option func(*Manager)

func WithStore(store Store) Option {
	return func(m *Manager) { m.store = store }
}

func WithTransport(transport Transport) Option {
	return func(m *Manager) { m.transport = transport }
}

func WithConfig(config Config) Option {
	return func(m *Manager) { m.config = config }
}

// WithCookieManager enables the default encrypted cookie transport.
func WithCookieManager(cookies *cookie.Manager) Option {
	return func(m *Manager) { m.cookies = cookies }
}

// WithClock overrides time.Now. Tests only.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
