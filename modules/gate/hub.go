package gate

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/pianoxl/pkg/broadcast"
	"github.com/dmitrymomot/pianoxl/pkg/logger"
)

// Event tells live views of a user that their gate input changed.
type Event string

const (
	EventSignedIn           Event = "signed_in"
	EventSignedOut          Event = "signed_out"
	EventEntitlementChanged Event = "entitlement_changed"
)

// Hub fans gate events out to every live view of the same user, across
// tabs and, with a Redis broadcaster, across instances.
type Hub struct {
	b      broadcast.Broadcaster[Event]
	logger *slog.Logger
}

type HubOption func(*Hub)

func WithHubLogger(l *slog.Logger) HubOption {
	return func(h *Hub) { h.logger = l }
}

func NewHub(b broadcast.Broadcaster[Event], opts ...HubOption) *Hub {
	h := &Hub{b: b, logger: logger.Discard()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func topic(userID uuid.UUID) string { return "gate:" + userID.String() }

// Subscribe follows the events of userID until ctx is done or the
// subscriber is closed.
func (h *Hub) Subscribe(ctx context.Context, userID uuid.UUID) (broadcast.Subscriber[Event], error) {
	return h.b.Subscribe(ctx, topic(userID))
}

// Publish notifies the live views of userID. Delivery is best effort, so
// failures are logged and not returned.
func (h *Hub) Publish(ctx context.Context, userID uuid.UUID, ev Event) {
	if userID == uuid.Nil {
		return
	}
	if err := h.b.Publish(ctx, topic(userID), ev); err != nil {
		h.logger.WarnContext(ctx, "failed to publish gate event",
			logger.Component("gate"),
			logger.UserID(userID),
			logger.Event(string(ev)),
			logger.Error(err),
		)
	}
}
