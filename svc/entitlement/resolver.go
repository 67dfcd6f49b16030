package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/pianoxl/pkg/logger"
)

const (
	PlanFree    = "Free"
	PlanPremium = "Premium"
)

// Store reads the record of a user. Implementations return ErrRecordNotFound
// when the user has no row.
type Store interface {
	Record(ctx context.Context, userID uuid.UUID) (*Record, error)
}

// PlanNamer maps a price id to a display name.
type PlanNamer interface {
	PlanName(priceID string) (string, bool)
}

// Resolver fetches and evaluates entitlements.
type Resolver struct {
	store  Store
	plans  PlanNamer
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Resolver)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithPlanNamer resolves price ids to product names.
func WithPlanNamer(p PlanNamer) Option {
	return func(r *Resolver) { r.plans = p }
}

func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{store: store, now: time.Now, logger: logger.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the user's entitlement. It fails closed: on a fetch error
// the returned entitlement denies access and the error, wrapped in
// ErrFetchFailed, is only a diagnostic. The returned entitlement is never nil.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID) (*Entitlement, error) {
	rec, err := r.store.Record(ctx, userID)
	switch {
	case errors.Is(err, ErrRecordNotFound):
		return Denied(), nil
	case err != nil:
		r.logger.WarnContext(ctx, "entitlement fetch failed, denying access",
			logger.Component("entitlement"),
			logger.UserID(userID),
			logger.Error(err),
		)
		return Denied(), errors.Join(ErrFetchFailed, err)
	case rec == nil:
		return Denied(), nil
	}

	return &Entitlement{
		Record:    *rec,
		HasAccess: HasAccess(rec, r.now()),
		PlanName:  r.planName(rec),
	}, nil
}

func (r *Resolver) planName(rec *Record) string {
	if rec.PriceID == "" {
		return PlanFree
	}
	if r.plans != nil {
		if name, ok := r.plans.PlanName(rec.PriceID); ok {
			return name
		}
	}
	return PlanPremium
}
