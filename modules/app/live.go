package app

import (
	"time"

	"github.com/dmitrymomot/pianoxl/handler"
	"github.com/dmitrymomot/pianoxl/modules/gate"
	"github.com/dmitrymomot/pianoxl/pkg/broadcast"
	"github.com/dmitrymomot/pianoxl/pkg/logger"
	"github.com/dmitrymomot/pianoxl/pkg/session"
	"github.com/dmitrymomot/pianoxl/svc/entitlement"
	"github.com/dmitrymomot/pianoxl/views"
)

type LiveRequest struct {
	Path   string `query:"path"`
	Intent string `query:"intent"`
}

// live opens the screen stream of one page. The session is read before the
// stream starts so refreshed credentials can still set cookies.
func (a *App) live(ctx handler.Context, req LiveRequest) handler.Response {
	sess, ent := a.state(ctx, ctx.ResponseWriter(), ctx.Request())
	v := &liveView{
		app:    a,
		sess:   sess,
		ent:    ent,
		path:   gate.NormalizePath(req.Path),
		intent: gate.ParseIntent(req.Intent),
	}
	return handler.Stream(v.run)
}

type timerAction int

const (
	actionNone timerAction = iota
	actionOpenWidget
	actionContinue
)

// liveView owns the state of one open screen. Its timer is stopped on every
// re-render and when the stream ends.
type liveView struct {
	app    *App
	sc     handler.StreamContext
	sess   *session.Session
	ent    *entitlement.Entitlement
	path   string
	intent gate.Intent
	screen gate.Screen

	timer  *time.Timer
	action timerAction
}

func (v *liveView) run(sc handler.StreamContext) error {
	v.sc = sc
	defer v.app.observer.StreamOpened()()
	defer v.stopTimer()

	var events <-chan broadcast.Message[gate.Event]
	if v.sess != nil {
		sub, err := v.app.events.Subscribe(sc, v.sess.UserID)
		if err != nil {
			v.app.logger.WarnContext(sc, "live view runs without gate events",
				logger.Component("app"), logger.UserID(v.sess.UserID), logger.Error(err))
		} else {
			defer sub.Close()
			events = sub.Receive()
		}
	}

	if err := v.render(); err != nil {
		return err
	}

	for {
		select {
		case <-sc.Done():
			return nil
		case msg, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			v.apply(msg.Data)
			if err := v.render(); err != nil {
				return err
			}
		case <-v.timerC():
			done, err := v.fire()
			if err != nil || done {
				return err
			}
		}
	}
}

func (v *liveView) apply(ev gate.Event) {
	switch ev {
	case gate.EventSignedOut:
		v.sess, v.ent, v.intent = nil, nil, gate.IntentNone
	case gate.EventSignedIn, gate.EventEntitlementChanged:
		if v.sess != nil {
			v.ent = v.app.resolve(v.sc, v.sess)
		}
	}
}

// render re-runs the router and patches the screen. It disarms the running
// timer first and arms the one of the new screen.
func (v *liveView) render() error {
	v.stopTimer()

	v.screen = gate.Resolve(gate.Input{
		Session:     v.sess,
		Entitlement: v.ent,
		Path:        v.path,
		Intent:      v.intent,
	})
	v.app.observer.ScreenResolved(v.screen.String())

	if err := v.sc.SendComponent(
		v.app.screenView(v.screen, v.intent, v.sess, v.ent),
		handler.WithTarget(views.ScreenTarget),
		handler.WithPatchMode(handler.PatchInner),
	); err != nil {
		return err
	}

	switch v.screen {
	case gate.Dashboard:
		v.startTimer(v.app.cfg.DashboardRedirectDelay, actionOpenWidget)
	case gate.Success:
		v.startTimer(v.app.cfg.SuccessContinueDelay, actionContinue)
	}
	return nil
}

// fire runs the action of an expired timer and reports whether the stream is
// done.
func (v *liveView) fire() (bool, error) {
	action := v.action
	v.timer, v.action = nil, actionNone

	switch action {
	case actionOpenWidget:
		return true, v.sc.Redirect(gate.PathWidget)
	case actionContinue:
		if v.sess != nil {
			v.ent = v.app.resolve(v.sc, v.sess)
		}
		v.intent = gate.IntentContinue
		return false, v.render()
	default:
		return false, nil
	}
}

func (v *liveView) startTimer(d time.Duration, action timerAction) {
	v.timer = time.NewTimer(d)
	v.action = action
}

func (v *liveView) stopTimer() {
	if v.timer != nil {
		v.timer.Stop()
	}
	v.timer, v.action = nil, actionNone
}

func (v *liveView) timerC() <-chan time.Time {
	if v.timer == nil {
		return nil
	}
	return v.timer.C
}
