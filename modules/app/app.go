// Package app serves the screens of the gate: page shells, the live screen
// stream, checkout, the widget host and its sign-out channel.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/pianoxl/handler"
	"github.com/dmitrymomot/pianoxl/modules/gate"
	"github.com/dmitrymomot/pianoxl/pkg/broadcast"
	"github.com/dmitrymomot/pianoxl/pkg/logger"
	"github.com/dmitrymomot/pianoxl/pkg/session"
	"github.com/dmitrymomot/pianoxl/svc/checkout"
	"github.com/dmitrymomot/pianoxl/svc/entitlement"
	"github.com/dmitrymomot/pianoxl/views"
)

// Sessions is the session provider; account.Provider implements it.
type Sessions interface {
	Current(ctx context.Context, w http.ResponseWriter, r *http.Request) (*session.Session, error)
	SignOut(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

type Entitlements interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*entitlement.Entitlement, error)
}

type Checkout interface {
	Start(ctx context.Context, sess *session.Session, priceID, origin string) (string, error)
	Catalog() *checkout.Catalog
}

// Events streams gate events of a user; gate.Hub implements it.
type Events interface {
	Subscribe(ctx context.Context, userID uuid.UUID) (broadcast.Subscriber[gate.Event], error)
	Publish(ctx context.Context, userID uuid.UUID, ev gate.Event)
}

type Flash interface {
	SetFlash(w http.ResponseWriter, key string, value any) error
	GetFlash(w http.ResponseWriter, r *http.Request, key string, dest any) error
}

// Observer records domain metrics; metrics.Metrics implements it.
type Observer interface {
	ScreenResolved(screen string)
	CheckoutResult(result string)
	StreamOpened() func()
}

type App struct {
	cfg          Config
	sessions     Sessions
	entitlements Entitlements
	checkout     Checkout
	events       Events
	flash        Flash
	observer     Observer
	errorHandler handler.ErrorHandler[handler.Context]
	logger       *slog.Logger
	origin       string
}

type Option func(*App)

func WithFlash(f Flash) Option {
	return func(a *App) { a.flash = f }
}

func WithObserver(o Observer) Option {
	return func(a *App) {
		if o != nil {
			a.observer = o
		}
	}
}

func WithErrorHandler(h handler.ErrorHandler[handler.Context]) Option {
	return func(a *App) { a.errorHandler = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

func New(cfg Config, sessions Sessions, entitlements Entitlements, co Checkout, events Events, opts ...Option) *App {
	a := &App{
		cfg:          cfg,
		sessions:     sessions,
		entitlements: entitlements,
		checkout:     co,
		events:       events,
		observer:     nopObserver{},
		logger:       logger.Discard(),
		origin:       strings.TrimRight(cfg.Origin, "/"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.errorHandler == nil {
		a.errorHandler = handler.NewErrorHandler(a.logger, ErrorViews())
	}
	return a
}

// ErrorViews renders errors with the application's views.
func ErrorViews() handler.ErrorHandlerConfig {
	return handler.ErrorHandlerConfig{
		ErrorPage: func(p handler.ErrorPageParams) handler.TemplComponent {
			return views.ErrorPage(p.StatusCode, p.Message, p.RequestID)
		},
		ErrorToast: func(msg string) handler.TemplComponent {
			return views.Toast(msg)
		},
	}
}

type nopObserver struct{}

func (nopObserver) ScreenResolved(string) {}
func (nopObserver) CheckoutResult(string) {}
func (nopObserver) StreamOpened() func()  { return func() {} }
