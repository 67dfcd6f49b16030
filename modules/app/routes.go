package app

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/pianoxl/binder"
	"github.com/dmitrymomot/pianoxl/handler"
	"github.com/dmitrymomot/pianoxl/modules/account"
	"github.com/dmitrymomot/pianoxl/modules/gate"
	"github.com/dmitrymomot/pianoxl/pkg/logger"
	"github.com/dmitrymomot/pianoxl/svc/checkout"
	"github.com/dmitrymomot/pianoxl/views"
)

const (
	// MessageSignOut is the only message the widget may send.
	MessageSignOut = "SIGN_OUT"

	msgCheckoutFailed = "Unable to start checkout"
)

func wrap[R any](a *App, h handler.HandlerFunc[handler.Context, R], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](a.errorHandler),
	)
}

// Register adds the screen, checkout and widget endpoints to r.
func (a *App) Register(r chi.Router) {
	for _, path := range []string{gate.PathLanding, gate.PathAuth, gate.PathSubscription, gate.PathSuccess, gate.PathDashboard} {
		r.Get(path, wrap(a, a.shell(path), binder.Query()))
	}
	r.Get("/live", wrap(a, a.live, binder.Query()))

	r.Post("/subscription/checkout", wrap(a, a.startCheckout, binder.Form(), binder.JSON()))
	r.Post("/success/continue", wrap(a, a.continueFromSuccess))

	r.Get(gate.PathWidget, wrap(a, a.widgetHost))
	r.Post("/widget/message", wrap(a, a.widgetMessage))

	r.Get(views.WidgetSrc, func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(a.cfg.StaticDir, filepath.Base(views.WidgetSrc)))
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(a.cfg.StaticDir))))
}

type CheckoutRequest struct {
	PriceID string `form:"price_id" json:"price_id"`
}

func (a *App) startCheckout(ctx handler.Context, req CheckoutRequest) handler.Response {
	sess, err := a.sessions.Current(ctx, ctx.ResponseWriter(), ctx.Request())
	if err != nil || sess == nil {
		a.observer.CheckoutResult("unauthenticated")
		return handler.Redirect(gate.PathAuth)
	}

	priceID := req.PriceID
	if priceID == "" {
		if products := a.checkout.Catalog().Products(); len(products) > 0 {
			priceID = products[0].PriceID
		}
	}

	url, err := a.checkout.Start(ctx, sess, priceID, a.origin)
	switch {
	case errors.Is(err, checkout.ErrUnauthenticated):
		a.observer.CheckoutResult("unauthenticated")
		return handler.Redirect(gate.PathAuth)
	case err != nil:
		a.observer.CheckoutResult("failed")
		return a.checkoutFailed(ctx)
	}

	a.observer.CheckoutResult("started")
	return handler.RedirectExternal(url)
}

func (a *App) checkoutFailed(ctx handler.Context) handler.Response {
	if handler.IsDataStar(ctx.Request()) {
		return handler.Templ(views.Toast(msgCheckoutFailed),
			handler.WithTarget("#toast"),
			handler.WithPatchMode(handler.PatchInner),
		)
	}
	if a.flash != nil {
		notice := account.Notice{Kind: account.NoticeError, Text: msgCheckoutFailed}
		if err := a.flash.SetFlash(ctx.ResponseWriter(), account.FlashKey, notice); err != nil {
			a.logger.WarnContext(ctx, "failed to set flash", logger.Component("app"), logger.Error(err))
		}
	}
	return handler.Redirect(gate.PathSubscription)
}

// continueFromSuccess leaves the success screen after a fresh entitlement
// lookup, so a just-completed payment is taken into account. Other open
// views of the user are told to re-resolve once access is granted.
func (a *App) continueFromSuccess(ctx handler.Context, _ struct{}) handler.Response {
	sess, ent := a.state(ctx, ctx.ResponseWriter(), ctx.Request())
	if sess != nil && ent != nil && ent.HasAccess {
		a.events.Publish(ctx, sess.UserID, gate.EventEntitlementChanged)
	}
	screen := gate.Resolve(gate.Input{
		Session:     sess,
		Entitlement: ent,
		Path:        gate.PathSuccess,
		Intent:      gate.IntentContinue,
	})
	return handler.Redirect(screen.Path())
}

// widgetHost serves the piano only to visitors the router sends to the
// dashboard; everyone else goes to their screen.
func (a *App) widgetHost(ctx handler.Context, _ struct{}) handler.Response {
	sess, ent := a.state(ctx, ctx.ResponseWriter(), ctx.Request())
	screen := gate.Resolve(gate.Input{Session: sess, Entitlement: ent, Path: gate.PathWidget})
	if screen != gate.Dashboard {
		return handler.Redirect(screen.Path())
	}
	return handler.Templ(views.Widget(views.WidgetParams{Header: header(sess, ent)}))
}

// WidgetMessage is a message forwarded from the embedded widget.
type WidgetMessage struct {
	Type string `json:"type"`
	// Path is the page the message was sent from, if known.
	Path string `json:"path,omitempty"`
}

// WidgetReply tells the host page where to go next.
type WidgetReply struct {
	Screen   string `json:"screen"`
	Redirect string `json:"redirect"`
}

// widgetMessage accepts sign-out requests from the widget host page. The
// Origin header must be the app's own origin and the body must be exactly a
// sign-out message.
func (a *App) widgetMessage(ctx handler.Context, _ struct{}) handler.Response {
	r := ctx.Request()
	if !a.sameOrigin(r) {
		a.logger.WarnContext(ctx, "widget message from foreign origin rejected",
			logger.Component("app"), logger.Event("widget_message"))
		return handler.JSONError(handler.ErrForbidden)
	}

	var msg WidgetMessage
	if err := binder.JSON()(r, &msg); err != nil {
		verr := handler.NewValidationError()
		verr.Add("body", "Invalid widget message")
		return handler.JSONError(verr)
	}
	if msg.Type != MessageSignOut {
		verr := handler.NewValidationError()
		verr.Add("type", "Unsupported message type")
		return handler.JSONError(verr)
	}

	if err := a.sessions.SignOut(ctx, ctx.ResponseWriter(), r); err != nil {
		a.logger.WarnContext(ctx, "widget sign out incomplete", logger.Component("app"), logger.Error(err))
	}

	screen := gate.Resolve(gate.Input{Path: msg.Path})
	return handler.JSON(WidgetReply{Screen: screen.String(), Redirect: screen.Path()})
}

func (a *App) sameOrigin(r *http.Request) bool {
	origin := strings.TrimRight(r.Header.Get("Origin"), "/")
	return origin != "" && a.origin != "" && strings.EqualFold(origin, a.origin)
}
