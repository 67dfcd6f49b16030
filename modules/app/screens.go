package app

import (
	"context"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/pianoxl/handler"
	"github.com/dmitrymomot/pianoxl/modules/account"
	"github.com/dmitrymomot/pianoxl/modules/gate"
	"github.com/dmitrymomot/pianoxl/pkg/logger"
	"github.com/dmitrymomot/pianoxl/pkg/session"
	"github.com/dmitrymomot/pianoxl/svc/checkout"
	"github.com/dmitrymomot/pianoxl/svc/entitlement"
	"github.com/dmitrymomot/pianoxl/views"
)

// state loads the session and, only when there is one, a fresh entitlement.
// Session store failures count as signed out and entitlement failures deny
// access.
func (a *App) state(ctx context.Context, w http.ResponseWriter, r *http.Request) (*session.Session, *entitlement.Entitlement) {
	sess, err := a.sessions.Current(ctx, w, r)
	if err != nil {
		a.logger.WarnContext(ctx, "failed to load session", logger.Component("app"), logger.Error(err))
		return nil, nil
	}
	if sess == nil {
		return nil, nil
	}
	return sess, a.resolve(ctx, sess)
}

func (a *App) resolve(ctx context.Context, sess *session.Session) *entitlement.Entitlement {
	// The resolver fails closed and logs its own errors.
	ent, _ := a.entitlements.Resolve(ctx, sess.UserID)
	if ent == nil {
		return entitlement.Denied()
	}
	return ent
}

func header(sess *session.Session, ent *entitlement.Entitlement) views.HeaderParams {
	h := views.HeaderParams{PlanName: entitlement.PlanFree}
	if sess != nil {
		h.Email = sess.Email
	}
	if ent != nil && ent.PlanName != "" {
		h.PlanName = ent.PlanName
	}
	return h
}

func statusLabel(ent *entitlement.Entitlement) string {
	if ent == nil || ent.Record.Status == entitlement.StatusNone {
		return entitlement.PlanFree
	}
	return string(ent.Record.Status)
}

func (a *App) products() []views.ProductParams {
	catalog := a.checkout.Catalog()
	if catalog == nil {
		return nil
	}
	var out []views.ProductParams
	for _, p := range catalog.Products() {
		pp := views.ProductParams{
			PriceID:     p.PriceID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.DisplayPrice(language.AmericanEnglish),
		}
		if p.Mode == checkout.ModeSubscription {
			pp.Interval = "month"
		}
		out = append(out, pp)
	}
	return out
}

// screenView renders screen for the given state.
func (a *App) screenView(screen gate.Screen, intent gate.Intent, sess *session.Session, ent *entitlement.Entitlement) templ.Component {
	switch screen {
	case gate.Landing:
		return views.Landing()
	case gate.Auth:
		return views.Auth(views.AuthParams{SignUpFirst: intent == gate.IntentShowSignUp})
	case gate.Subscription:
		p := views.SubscriptionParams{Header: header(sess, ent), Products: a.products()}
		if ent != nil && ent.HasAccess {
			p.Current = ent.Record.PriceID
			p.CanGoBack = true
		}
		return views.Subscription(p)
	case gate.Success:
		return views.Success(views.SuccessParams{ContinueIn: seconds(a.cfg.SuccessContinueDelay)})
	case gate.Dashboard:
		return views.Dashboard(views.DashboardParams{
			Header:     header(sess, ent),
			Status:     statusLabel(ent),
			RedirectIn: seconds(a.cfg.DashboardRedirectDelay),
		})
	default:
		return views.Loading()
	}
}

type ShellRequest struct {
	Intent string `query:"intent"`
}

// shell serves the page for a screen path. The screen itself arrives over
// the live stream.
func (a *App) shell(path string) handler.HandlerFunc[handler.Context, ShellRequest] {
	return func(ctx handler.Context, req ShellRequest) handler.Response {
		p := views.ShellParams{Path: path, Intent: string(gate.ParseIntent(req.Intent))}
		if a.flash != nil {
			var n account.Notice
			if err := a.flash.GetFlash(ctx.ResponseWriter(), ctx.Request(), account.FlashKey, &n); err == nil && n.Text != "" {
				p.Notice = &n
			}
		}
		return handler.Templ(views.Shell(p))
	}
}

func seconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}
