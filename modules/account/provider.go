// Package account owns the signed-in state of a visitor: it signs users in
// and out against the identity service, keeps the server-side session and
// tells live views when the session changes.
package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/pianoxl/modules/gate"
	"github.com/dmitrymomot/pianoxl/pkg/logger"
	"github.com/dmitrymomot/pianoxl/pkg/session"
	"github.com/dmitrymomot/pianoxl/svc/identity"
	"github.com/dmitrymomot/pianoxl/svc/tester"
)

// refreshSkew renews access tokens shortly before they expire.
const refreshSkew = 30 * time.Second

// IdentityService is the subset of the identity client the provider uses.
type IdentityService interface {
	SignUp(ctx context.Context, email, password string) (*identity.Session, error)
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (*identity.Session, error)
}

type Redeemer interface {
	Redeem(ctx context.Context, code string, userID uuid.UUID, email string) (tester.Outcome, error)
}

// Notifier receives session changes; gate.Hub implements it.
type Notifier interface {
	Publish(ctx context.Context, userID uuid.UUID, ev gate.Event)
}

// SignUpInput is a validated sign-up form.
type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	TesterCode      string
}

// SignUpResult reports a created account. Session is nil when the identity
// service waits for email confirmation.
type SignUpResult struct {
	UserID  uuid.UUID
	Session *session.Session
	Outcome tester.Outcome
}

type Provider struct {
	identity IdentityService
	sessions *session.Manager
	redeemer Redeemer
	notifier Notifier
	observe  func(tester.Outcome)
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Provider)

func WithNotifier(n Notifier) Option {
	return func(p *Provider) { p.notifier = n }
}

// WithOutcomeObserver is called with every redemption outcome.
func WithOutcomeObserver(fn func(tester.Outcome)) Option {
	return func(p *Provider) { p.observe = fn }
}

func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

func NewProvider(id IdentityService, sessions *session.Manager, redeemer Redeemer, opts ...Option) *Provider {
	p := &Provider{
		identity: id,
		sessions: sessions,
		redeemer: redeemer,
		now:      time.Now,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ValidateSignUp checks the form the way the sign-up page promises: matching
// passwords first, then the minimum length.
func ValidateSignUp(in SignUpInput) error {
	if in.Password != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len(in.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// SignIn verifies credentials and starts a session.
func (p *Provider) SignIn(ctx context.Context, w http.ResponseWriter, r *http.Request, email, password string) (*session.Session, error) {
	grant, err := p.identity.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return nil, errors.Join(ErrSignInFailed, err)
	}
	sess, err := p.start(ctx, w, r, grant)
	if err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "user signed in", logger.Component("account"), logger.UserID(sess.UserID))
	return sess, nil
}

// SignUp creates the account, redeems the optional tester code and starts a
// session when the identity service returned one. A failed redemption never
// fails the sign-up; its outcome is reported instead.
func (p *Provider) SignUp(ctx context.Context, w http.ResponseWriter, r *http.Request, in SignUpInput) (*SignUpResult, error) {
	if err := ValidateSignUp(in); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(in.Email)

	grant, err := p.identity.SignUp(ctx, email, in.Password)
	if err != nil {
		return nil, errors.Join(ErrSignUpFailed, err)
	}
	if grant.User.ID == uuid.Nil {
		return nil, errors.Join(ErrSignUpFailed, identity.ErrInvalidResponse)
	}
	if grant.User.Email != "" {
		email = grant.User.Email
	}

	log := p.logger.With(logger.Component("account"), logger.UserID(grant.User.ID))
	res := &SignUpResult{UserID: grant.User.ID}

	res.Outcome, err = p.redeemer.Redeem(ctx, in.TesterCode, grant.User.ID, email)
	if err != nil {
		log.WarnContext(ctx, "tester code redemption failed", logger.Outcome(string(res.Outcome)), logger.Error(err))
	}
	if p.observe != nil && res.Outcome != tester.Skipped {
		p.observe(res.Outcome)
	}

	if grant.Confirmed() {
		res.Session, err = p.start(ctx, w, r, grant)
		if err != nil {
			return nil, err
		}
	}
	log.InfoContext(ctx, "user signed up",
		logger.Outcome(string(res.Outcome)),
		slog.Bool("confirmed", res.Session != nil),
	)
	return res, nil
}

// SignOut ends the session. Revoking the token at the identity service is
// best effort; the local session is always destroyed.
func (p *Provider) SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sess, err := p.sessions.Get(ctx, r)
	if err != nil && !isAbsent(err) {
		p.logger.WarnContext(ctx, "failed to load session on sign out", logger.Component("account"), logger.Error(err))
	}

	if sess != nil {
		if tok := sess.AccessToken(); tok != "" {
			if err := p.identity.SignOut(ctx, tok); err != nil {
				p.logger.WarnContext(ctx, "identity sign out failed", logger.Component("account"), logger.UserID(sess.UserID), logger.Error(err))
			}
		}
	}

	err = p.sessions.Destroy(ctx, w, r)
	if sess != nil {
		p.notify(ctx, sess.UserID, gate.EventSignedOut)
		p.logger.InfoContext(ctx, "user signed out", logger.Component("account"), logger.UserID(sess.UserID))
	}
	return err
}

// Current returns the request's session, or nil when the visitor is signed
// out. An access token close to expiry is refreshed; when the refresh fails
// the session is cleared.
func (p *Provider) Current(ctx context.Context, w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	sess, err := p.sessions.Get(ctx, r)
	switch {
	case isAbsent(err):
		return nil, nil
	case err != nil:
		return nil, err
	}

	creds := sess.Credentials
	if creds == nil || creds.Expiry.IsZero() || p.now().Add(refreshSkew).Before(creds.Expiry) {
		return sess, nil
	}

	grant, err := p.identity.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		p.logger.WarnContext(ctx, "token refresh failed, clearing session",
			logger.Component("account"), logger.UserID(sess.UserID), logger.Error(err))
		_ = p.sessions.Destroy(ctx, w, r)
		p.notify(ctx, sess.UserID, gate.EventSignedOut)
		return nil, nil
	}
	if err := p.sessions.UpdateCredentials(ctx, sess, grant.Token()); err != nil {
		return nil, errors.Join(ErrRefreshFailed, err)
	}
	return sess, nil
}

func (p *Provider) start(ctx context.Context, w http.ResponseWriter, r *http.Request, grant *identity.Session) (*session.Session, error) {
	sess, err := p.sessions.Authenticate(ctx, w, r, session.Identity{
		UserID:      grant.User.ID,
		Email:       grant.User.Email,
		Credentials: grant.Token(),
	})
	if err != nil {
		return nil, err
	}
	p.notify(ctx, sess.UserID, gate.EventSignedIn)
	return sess, nil
}

func (p *Provider) notify(ctx context.Context, userID uuid.UUID, ev gate.Event) {
	if p.notifier != nil {
		p.notifier.Publish(ctx, userID, ev)
	}
}

func isAbsent(err error) bool {
	return errors.Is(err, session.ErrSessionNotFound) ||
		errors.Is(err, session.ErrSessionExpired) ||
		errors.Is(err, session.ErrInvalidSession)
}
