package entitlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/pianoxl/pkg/pg"
)

const (
	profileQuery = `
SELECT subscription_status, subscription_tier, tester_expires_at
FROM profiles
WHERE id = $1`

	subscriptionQuery = `
SELECT subscription_status, price_id, current_period_end, cancel_at_period_end
FROM stripe_user_subscriptions
WHERE user_id = $1`
)

// PGStore reads the profile and stripe_user_subscriptions rows of a user and
// combines them with Merge.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) Record(ctx context.Context, userID uuid.UUID) (*Record, error) {
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	subscription, err := s.subscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	rec := Merge(profile, subscription)
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

func (s *PGStore) profile(ctx context.Context, userID uuid.UUID) (*Record, error) {
	var (
		status, tier    string
		testerExpiresAt *time.Time
	)
	err := s.pool.QueryRow(ctx, profileQuery, userID).Scan(&status, &tier, &testerExpiresAt)
	if pg.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Record{
		Status:          ParseStatus(status),
		Tier:            ParseTier(tier),
		TesterExpiresAt: testerExpiresAt,
	}, nil
}

func (s *PGStore) subscription(ctx context.Context, userID uuid.UUID) (*Record, error) {
	var (
		status, priceID   string
		periodEnd         *time.Time
		cancelAtPeriodEnd bool
	)
	err := s.pool.QueryRow(ctx, subscriptionQuery, userID).Scan(&status, &priceID, &periodEnd, &cancelAtPeriodEnd)
	if pg.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Record{
		Status:            ParseStatus(status),
		Tier:              TierStandard,
		CurrentPeriodEnd:  periodEnd,
		CancelAtPeriodEnd: cancelAtPeriodEnd,
		PriceID:           priceID,
	}, nil
}
