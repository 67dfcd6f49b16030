// Package session keeps server-side sessions for signed-in users. The browser
// only holds an encrypted cookie with an opaque token; the user's identity
// and the identity service credentials live in a Store (memory or Redis).
package session

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Session is an authenticated browser session.
type Session struct {
	ID             uuid.UUID     `json:"id"`
	Token          string        `json:"token"`
	UserID         uuid.UUID     `json:"user_id"`
	Email          string        `json:"email"`
	Credentials    *oauth2.Token `json:"credentials,omitempty"`
	ExpiresAt      time.Time     `json:"expires_at"`
	LastActivityAt time.Time     `json:"last_activity_at"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Identity is what the identity service returns on sign-in or sign-up.
type Identity struct {
	UserID      uuid.UUID
	Email       string
	Credentials *oauth2.Token
}

// IsExpired reports whether the session is past its expiry at now.
func (s *Session) IsExpired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}

// AccessToken returns the identity service access token, or "" when the
// session carries no credentials.
func (s *Session) AccessToken() string {
	if s == nil || s.Credentials == nil {
		return ""
	}
	return s.Credentials.AccessToken
}
