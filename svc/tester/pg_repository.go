package tester

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/pianoxl/pkg/pg"
)

const (
	claimQuery = `
UPDATE tester_codes
SET current_uses = current_uses + 1
WHERE code = $1
  AND is_active
  AND (max_uses IS NULL OR current_uses < max_uses)
RETURNING id, code, is_active, max_uses, current_uses`

	lookupQuery = `
SELECT id, code, is_active, max_uses, current_uses
FROM tester_codes
WHERE code = $1`

	redemptionQuery = `
INSERT INTO user_tester_codes (user_id, tester_code_id, redeemed_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, tester_code_id) DO NOTHING`

	grantQuery = `
INSERT INTO profiles (id, email, subscription_status, subscription_tier, tester_expires_at)
VALUES ($1, $2, 'active', 'tester', $3)
ON CONFLICT (id) DO UPDATE SET
	subscription_status = 'active',
	subscription_tier = 'tester',
	tester_expires_at = EXCLUDED.tester_expires_at,
	updated_at = now()`
)

// PGRepository stores codes in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Claim(ctx context.Context, code string) (*Code, error) {
	c, err := scanCode(r.pool.QueryRow(ctx, claimQuery, code))
	if pg.IsNotFoundError(err) {
		return nil, ErrCodeUnavailable
	}
	return c, err
}

func (r *PGRepository) Lookup(ctx context.Context, code string) (*Code, error) {
	c, err := scanCode(r.pool.QueryRow(ctx, lookupQuery, code))
	if pg.IsNotFoundError(err) {
		return nil, ErrCodeNotFound
	}
	return c, err
}

func (r *PGRepository) RecordRedemption(ctx context.Context, userID, codeID uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, redemptionQuery, userID, codeID, at)
	return err
}

func (r *PGRepository) GrantTesterAccess(ctx context.Context, userID uuid.UUID, email string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, grantQuery, userID, email, expiresAt)
	return err
}

type row interface {
	Scan(dest ...any) error
}

func scanCode(row row) (*Code, error) {
	var (
		c       Code
		maxUses *int32
	)
	if err := row.Scan(&c.ID, &c.Code, &c.IsActive, &maxUses, &c.CurrentUses); err != nil {
		return nil, err
	}
	if maxUses != nil {
		n := int(*maxUses)
		c.MaxUses = &n
	}
	return &c, nil
}

var _ Repository = (*PGRepository)(nil)
