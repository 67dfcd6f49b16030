package account

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/pianoxl/binder"
	"github.com/dmitrymomot/pianoxl/handler"
	"github.com/dmitrymomot/pianoxl/pkg/clientip"
	"github.com/dmitrymomot/pianoxl/pkg/logger"
	"github.com/dmitrymomot/pianoxl/pkg/ratelimiter"
	"github.com/dmitrymomot/pianoxl/svc/identity"
	"github.com/dmitrymomot/pianoxl/svc/tester"
)

// FlashKey is the cookie flash that carries a Notice to the next page.
const FlashKey = "notice"

// FormTarget is the element the auth forms are patched into.
const FormTarget = "#auth-form"

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a one-off message shown above the next screen.
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Text string     `json:"text"`
}

// FormParams is passed to the sign-in and sign-up form views.
type FormParams struct {
	Email      string
	TesterCode string
	Error      string
	Notice     string
}

// Views renders the auth forms.
type Views struct {
	SignInForm func(FormParams) templ.Component
	SignUpForm func(FormParams) templ.Component
}

// Flasher stores a value for the next request.
type Flasher interface {
	SetFlash(w http.ResponseWriter, key string, value any) error
}

type Routes struct {
	provider     *Provider
	views        Views
	flash        Flasher
	limiter      func(http.Handler) http.Handler
	errorHandler handler.ErrorHandler[handler.Context]
	logger       *slog.Logger
}

type RoutesOption func(*Routes)

func WithFlash(f Flasher) RoutesOption {
	return func(rt *Routes) { rt.flash = f }
}

// WithRateLimit guards sign-in and sign-up.
func WithRateLimit(mw func(http.Handler) http.Handler) RoutesOption {
	return func(rt *Routes) { rt.limiter = mw }
}

func WithErrorHandler(h handler.ErrorHandler[handler.Context]) RoutesOption {
	return func(rt *Routes) { rt.errorHandler = h }
}

func WithRoutesLogger(l *slog.Logger) RoutesOption {
	return func(rt *Routes) { rt.logger = l }
}

func NewRoutes(p *Provider, views Views, opts ...RoutesOption) *Routes {
	rt := &Routes{provider: p, views: views, logger: logger.Discard()}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// AuthRateLimit limits credential endpoints per client IP.
func AuthRateLimit(b *ratelimiter.Bucket) func(http.Handler) http.Handler {
	return ratelimiter.Middleware(b, ratelimiter.Composite(
		ratelimiter.Static("auth"),
		func(r *http.Request) string { return clientip.GetIP(r) },
	))
}

// Register adds the account endpoints to r.
func (rt *Routes) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		if rt.limiter != nil {
			r.Use(rt.limiter)
		}
		r.Post("/auth/sign-in", handler.Wrap(rt.signIn,
			handler.WithBinders[handler.Context, SignInRequest](binder.Form(), binder.JSON()),
			handler.WithErrorHandler[handler.Context, SignInRequest](rt.errorHandler),
		))
		r.Post("/auth/sign-up", handler.Wrap(rt.signUp,
			handler.WithBinders[handler.Context, SignUpRequest](binder.Form(), binder.JSON()),
			handler.WithErrorHandler[handler.Context, SignUpRequest](rt.errorHandler),
		))
	})
	r.Post("/auth/sign-out", handler.Wrap(rt.signOut,
		handler.WithErrorHandler[handler.Context, struct{}](rt.errorHandler),
	))
}

type SignInRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (rt *Routes) signIn(ctx handler.Context, req SignInRequest) handler.Response {
	_, err := rt.provider.SignIn(ctx, ctx.ResponseWriter(), ctx.Request(), req.Email, req.Password)
	if err != nil {
		return rt.form(rt.views.SignInForm, FormParams{Email: req.Email, Error: rt.message(ctx, err)})
	}
	return handler.Redirect("/")
}

type SignUpRequest struct {
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	TesterCode      string `form:"tester_code" json:"tester_code"`
}

func (rt *Routes) signUp(ctx handler.Context, req SignUpRequest) handler.Response {
	params := FormParams{Email: req.Email, TesterCode: req.TesterCode}

	res, err := rt.provider.SignUp(ctx, ctx.ResponseWriter(), ctx.Request(), SignUpInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		TesterCode:      req.TesterCode,
	})
	if err != nil {
		params.Error = rt.message(ctx, err)
		return rt.form(rt.views.SignUpForm, params)
	}

	notice := OutcomeNotice(res.Outcome)
	if res.Session == nil {
		params.Notice = notice.Text + " " + msgConfirmEmail
		params.TesterCode = ""
		return rt.form(rt.views.SignInForm, params)
	}

	rt.setFlash(ctx, notice)
	return handler.Redirect("/")
}

func (rt *Routes) signOut(ctx handler.Context, _ struct{}) handler.Response {
	if err := rt.provider.SignOut(ctx, ctx.ResponseWriter(), ctx.Request()); err != nil {
		rt.logger.WarnContext(ctx, "sign out incomplete", logger.Component("account"), logger.Error(err))
	}
	return handler.Redirect("/")
}

func (rt *Routes) form(view func(FormParams) templ.Component, params FormParams) handler.Response {
	return handler.Templ(view(params), handler.WithTarget(FormTarget), handler.WithPatchMode(handler.PatchOuter))
}

// message turns a provider error into the text shown in the form. Identity
// service messages are shown as is.
func (rt *Routes) message(ctx handler.Context, err error) string {
	switch {
	case errors.Is(err, ErrPasswordMismatch):
		return msgPasswordMismatch
	case errors.Is(err, ErrPasswordTooShort):
		return msgPasswordTooShort
	}
	if msg := identity.Message(err); msg != "" {
		return msg
	}
	rt.logger.ErrorContext(ctx, "auth request failed", logger.Component("account"), logger.Error(err))
	return msgUnexpected
}

func (rt *Routes) setFlash(ctx handler.Context, n Notice) {
	if rt.flash == nil {
		return
	}
	if err := rt.flash.SetFlash(ctx.ResponseWriter(), FlashKey, n); err != nil {
		rt.logger.WarnContext(ctx, "failed to set flash", logger.Component("account"), logger.Error(err))
	}
}

// OutcomeNotice maps a redemption outcome to the notice shown after sign-up.
func OutcomeNotice(o tester.Outcome) Notice {
	switch o {
	case tester.InvalidCode, tester.UsageLimitReached:
		return Notice{Kind: NoticeError, Text: o.Message()}
	default:
		return Notice{Kind: NoticeSuccess, Text: o.Message()}
	}
}
