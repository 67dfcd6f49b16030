package tester

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/pianoxl/pkg/logger"
)

// Redeemer applies tester codes to freshly created accounts.
type Redeemer struct {
	repo   Repository
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Redeemer)

func WithClock(now func() time.Time) Option {
	return func(r *Redeemer) { r.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Redeemer) { r.logger = l }
}

func NewRedeemer(repo Repository, opts ...Option) *Redeemer {
	r := &Redeemer{repo: repo, now: time.Now, logger: logger.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Redeem claims code for the user and grants one month of tester access.
// Claiming is a single conditional increment, so concurrent redemptions can
// never push a code past its limit. The redemption record is best effort.
// Failures never undo the account, they only withhold the grant. Storage
// errors yield GrantFailed and the returned error is a diagnostic.
func (r *Redeemer) Redeem(ctx context.Context, code string, userID uuid.UUID, email string) (Outcome, error) {
	code = Normalize(code)
	if code == "" {
		return Skipped, nil
	}
	log := r.logger.With(logger.Component("tester"), logger.UserID(userID))

	claimed, err := r.repo.Claim(ctx, code)
	if err != nil {
		if !errors.Is(err, ErrCodeUnavailable) {
			log.ErrorContext(ctx, "tester code claim failed", logger.Error(err))
			return GrantFailed, err
		}
		return r.explainUnavailable(ctx, code)
	}

	now := r.now()
	if err := r.repo.RecordRedemption(ctx, userID, claimed.ID, now); err != nil {
		log.WarnContext(ctx, "failed to record tester code redemption", logger.Error(err))
	}

	if err := r.repo.GrantTesterAccess(ctx, userID, email, now.AddDate(0, 1, 0)); err != nil {
		log.ErrorContext(ctx, "failed to grant tester access", logger.Error(err))
		return GrantFailed, err
	}

	log.InfoContext(ctx, "tester code redeemed", logger.Outcome(string(Redeemed)))
	return Redeemed, nil
}

func (r *Redeemer) explainUnavailable(ctx context.Context, code string) (Outcome, error) {
	c, err := r.repo.Lookup(ctx, code)
	switch {
	case errors.Is(err, ErrCodeNotFound):
		return InvalidCode, nil
	case err != nil:
		return GrantFailed, err
	case !c.IsActive:
		return InvalidCode, nil
	default:
		return UsageLimitReached, nil
	}
}
