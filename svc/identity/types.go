package identity

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// User is the identity service's view of an account.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Session is a token grant. AccessToken is empty after a sign-up that still
// needs email confirmation.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

// Token converts the grant to an oauth2 token so it can drive a bearer transport.
func (s *Session) Token() *oauth2.Token {
	if s == nil || s.AccessToken == "" {
		return nil
	}
	t := &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
	}
	switch {
	case s.ExpiresAt > 0:
		t.Expiry = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		t.Expiry = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return t
}

// Confirmed reports whether the grant carries a usable access token.
func (s *Session) Confirmed() bool {
	return s != nil && s.AccessToken != ""
}
