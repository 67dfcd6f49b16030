// Package gate decides which screen a visitor sees and lets live views follow
// session and entitlement changes.
package gate

import (
	"github.com/dmitrymomot/pianoxl/pkg/session"
	"github.com/dmitrymomot/pianoxl/svc/entitlement"
)

// Intent is an in-app navigation request that has no URL of its own.
type Intent string

const (
	IntentNone             Intent = ""
	IntentShowAuth         Intent = "show_auth"
	IntentShowSignUp       Intent = "show_sign_up"
	IntentShowSubscription Intent = "show_subscription"
	IntentContinue         Intent = "continue"
)

// ParseIntent maps unknown values to IntentNone.
func ParseIntent(s string) Intent {
	switch i := Intent(s); i {
	case IntentShowAuth, IntentShowSignUp, IntentShowSubscription, IntentContinue:
		return i
	default:
		return IntentNone
	}
}

// Input is everything the router looks at. A nil Session means signed out,
// a nil Entitlement means not resolved yet.
type Input struct {
	SessionPending bool
	Session        *session.Session
	Entitlement    *entitlement.Entitlement
	Path           string
	Intent         Intent
}

// Resolve picks the screen for in. The first matching rule wins. It is pure
// and must be re-run on every session, entitlement or navigation change.
func Resolve(in Input) Screen {
	path := NormalizePath(in.Path)

	switch {
	case in.SessionPending:
		return Loading
	case in.Session == nil:
		if path == PathAuth || in.Intent == IntentShowAuth || in.Intent == IntentShowSignUp {
			return Auth
		}
		return Landing
	case in.Entitlement == nil:
		return Loading
	case path == PathSubscription || in.Intent == IntentShowSubscription:
		return Subscription
	case path == PathSuccess && in.Intent != IntentContinue:
		return Success
	case !in.Entitlement.HasAccess:
		return Subscription
	default:
		return Dashboard
	}
}
