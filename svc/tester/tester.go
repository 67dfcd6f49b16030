// Package tester redeems tester codes during sign-up. A redeemed code grants
// one month of tester access.
package tester

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Outcome of a redemption attempt.
type Outcome string

const (
	Redeemed          Outcome = "redeemed"
	InvalidCode       Outcome = "invalid_code"
	UsageLimitReached Outcome = "usage_limit_reached"
	GrantFailed       Outcome = "grant_failed"
	Skipped           Outcome = "skipped"
)

// Message is the notice shown to the user after sign-up.
func (o Outcome) Message() string {
	switch o {
	case Redeemed:
		return "Account created with 1 month tester access!"
	case InvalidCode:
		return "Invalid or inactive tester code"
	case UsageLimitReached:
		return "This tester code has reached its usage limit"
	default:
		return "Account created successfully!"
	}
}

// Granted reports whether the user received tester access.
func (o Outcome) Granted() bool { return o == Redeemed }

// Code is a stored tester code.
type Code struct {
	ID          uuid.UUID
	Code        string
	IsActive    bool
	MaxUses     *int
	CurrentUses int
}

// Exhausted reports whether the code has no uses left.
func (c Code) Exhausted() bool {
	return c.MaxUses != nil && c.CurrentUses >= *c.MaxUses
}

// Normalize trims and upper-cases a code as typed by a user.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Repository is the code store.
type Repository interface {
	// Claim increments current_uses of an active code with uses left, in one
	// atomic step, and returns it. It returns ErrCodeUnavailable when no row
	// qualifies.
	Claim(ctx context.Context, code string) (*Code, error)
	// Lookup returns the code regardless of state, or ErrCodeNotFound.
	Lookup(ctx context.Context, code string) (*Code, error)
	RecordRedemption(ctx context.Context, userID, codeID uuid.UUID, at time.Time) error
	GrantTesterAccess(ctx context.Context, userID uuid.UUID, email string, expiresAt time.Time) error
}
