// Package entitlement decides whether a user may use the gated app. Access is
// always derived from the subscription record at the moment of the check and
// is never stored.
package entitlement

import (
	"strings"
	"time"
)

// Status of a subscription or profile record.
type Status string

const (
	StatusNone     Status = "none"
	StatusActive   Status = "active"
	StatusTrialing Status = "trialing"
	StatusCanceled Status = "canceled"
)

// ParseStatus normalises a stored status; unknown values become StatusNone.
func ParseStatus(s string) Status {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusActive, StatusTrialing, StatusCanceled:
		return st
	case "cancelled":
		return StatusCanceled
	default:
		return StatusNone
	}
}

// Tier of access.
type Tier string

const (
	TierFree     Tier = "free"
	TierStandard Tier = "standard"
	TierTester   Tier = "tester"
)

// ParseTier normalises a stored tier; unknown values become TierFree.
func ParseTier(s string) Tier {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case TierStandard, TierTester:
		return t
	default:
		return TierFree
	}
}

// Record is the backing subscription state of a user.
type Record struct {
	Status            Status
	Tier              Tier
	TesterExpiresAt   *time.Time
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
	PriceID           string
}

// HasAccess applies the access policy to rec at now:
// active testers keep access until their grant expires (forever when no
// expiry is set), any other active or trialing record has access, and
// everything else, including a missing record, does not.
func HasAccess(rec *Record, now time.Time) bool {
	if rec == nil {
		return false
	}
	switch rec.Status {
	case StatusActive:
		if rec.Tier == TierTester && rec.TesterExpiresAt != nil {
			return now.Before(*rec.TesterExpiresAt)
		}
		return true
	case StatusTrialing:
		return true
	default:
		return false
	}
}

// Entitlement is a resolved record.
type Entitlement struct {
	Record    Record
	HasAccess bool
	PlanName  string
}

// Denied is the entitlement used when nothing is known: no access.
func Denied() *Entitlement {
	return &Entitlement{Record: Record{Status: StatusNone, Tier: TierFree}, PlanName: PlanFree}
}
