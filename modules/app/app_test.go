package app_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pianoxl/modules/account"
	"github.com/dmitrymomot/pianoxl/modules/app"
	"github.com/dmitrymomot/pianoxl/modules/gate"
	"github.com/dmitrymomot/pianoxl/pkg/broadcast"
	"github.com/dmitrymomot/pianoxl/pkg/cookie"
	"github.com/dmitrymomot/pianoxl/pkg/session"
	"github.com/dmitrymomot/pianoxl/svc/checkout"
	"github.com/dmitrymomot/pianoxl/svc/entitlement"
	"github.com/dmitrymomot/pianoxl/svc/identity"
	"github.com/dmitrymomot/pianoxl/svc/tester"
)

const origin = "https://piano.example"

type stubIdentity struct {
	userID uuid.UUID
}

func (s stubIdentity) grant() *identity.Session {
	return &identity.Session{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		User:         identity.User{ID: s.userID, Email: "player@example.com"},
	}
}

func (s stubIdentity) SignUp(context.Context, string, string) (*identity.Session, error) {
	return s.grant(), nil
}

func (s stubIdentity) SignIn(context.Context, string, string) (*identity.Session, error) {
	return s.grant(), nil
}

func (s stubIdentity) SignOut(context.Context, string) error { return nil }

func (s stubIdentity) Refresh(context.Context, string) (*identity.Session, error) {
	return s.grant(), nil
}

type storeFunc func(ctx context.Context, userID uuid.UUID) (*entitlement.Record, error)

func (f storeFunc) Record(ctx context.Context, userID uuid.UUID) (*entitlement.Record, error) {
	return f(ctx, userID)
}

type providerFunc func(ctx context.Context, req checkout.Request) (string, error)

func (f providerFunc) CreateCheckout(ctx context.Context, req checkout.Request) (string, error) {
	return f(ctx, req)
}

type countingObserver struct {
	open    atomic.Int32
	screens atomic.Int32
}

func (o *countingObserver) ScreenResolved(string) { o.screens.Add(1) }
func (o *countingObserver) CheckoutResult(string) {}
func (o *countingObserver) StreamOpened() func() {
	o.open.Add(1)
	return func() { o.open.Add(-1) }
}

type fixture struct {
	srv      *httptest.Server
	provider *account.Provider
	cookies  *cookie.Manager
	hub      *gate.Hub
	userID   uuid.UUID
	observer *countingObserver
	record   atomic.Pointer[entitlement.Record]
}

type options struct {
	dashboardDelay time.Duration
	successDelay   time.Duration
	checkout       providerFunc
}

func newFixture(t *testing.T, o options) *fixture {
	t.Helper()
	if o.dashboardDelay == 0 {
		o.dashboardDelay = time.Hour
	}
	if o.successDelay == 0 {
		o.successDelay = time.Hour
	}
	if o.checkout == nil {
		o.checkout = func(context.Context, checkout.Request) (string, error) {
			return "https://checkout.stripe.com/c/pay/cs_test", nil
		}
	}

	cookies, err := cookie.New([]string{"app-test-secret-that-is-long-enough-12345"})
	require.NoError(t, err)
	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	sessions := session.New(session.WithCookieManager(cookies), session.WithStore(store))

	b := broadcast.NewMemoryBroadcaster[gate.Event](8)
	t.Cleanup(func() { _ = b.Close() })
	hub := gate.NewHub(b)

	f := &fixture{cookies: cookies, hub: hub, userID: uuid.New(), observer: &countingObserver{}}
	f.record.Store(&entitlement.Record{Status: entitlement.StatusNone, Tier: entitlement.TierFree})

	f.provider = account.NewProvider(stubIdentity{userID: f.userID}, sessions,
		tester.NewRedeemer(tester.NewMemoryRepository()), account.WithNotifier(hub))

	resolver := entitlement.NewResolver(storeFunc(func(context.Context, uuid.UUID) (*entitlement.Record, error) {
		rec := *f.record.Load()
		return &rec, nil
	}), entitlement.WithPlanNamer(checkout.DefaultCatalog()))

	a := app.New(app.Config{
		Origin:                 origin,
		StaticDir:              t.TempDir(),
		DashboardRedirectDelay: o.dashboardDelay,
		SuccessContinueDelay:   o.successDelay,
	}, f.provider, resolver, checkout.NewInitiator(o.checkout), hub,
		app.WithFlash(cookies),
		app.WithObserver(f.observer),
	)

	r := chi.NewRouter()
	a.Register(r)
	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) grantAccess() {
	f.record.Store(&entitlement.Record{
		Status:  entitlement.StatusActive,
		Tier:    entitlement.TierStandard,
		PriceID: "price_1SE0ozInzYpYfgpleOnhtDch",
	})
}

// signIn returns the cookies of a fresh session.
func (f *fixture) signIn(t *testing.T) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := f.provider.SignIn(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/auth/sign-in", nil), "player@example.com", "secret1")
	require.NoError(t, err)
	return rec.Result().Cookies()
}

func (f *fixture) do(t *testing.T, req *http.Request, cookies []*http.Cookie) *http.Response {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

type stream struct {
	lines  chan string
	cancel context.CancelFunc
}

func (f *fixture) openLive(t *testing.T, path string, cookies []*http.Cookie) *stream {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.srv.URL+"/live?path="+path, nil)
	require.NoError(t, err)
	req.Header.Set("Datastar-Request", "true")
	resp := f.do(t, req, cookies)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	s := &stream{lines: make(chan string, 64), cancel: cancel}
	go func() {
		defer close(s.lines)
		defer resp.Body.Close()
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
		for sc.Scan() {
			s.lines <- sc.Text()
		}
	}()
	return s
}

// waitFor consumes lines until one contains substr.
func (s *stream) waitFor(t *testing.T, substr string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				t.Fatalf("stream closed before %q", substr)
			}
			if strings.Contains(line, substr) {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", substr)
		}
	}
}

func (s *stream) waitClosed(t *testing.T) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-s.lines:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not end")
		}
	}
}

func TestShell(t *testing.T) {
	t.Parallel()

	f := newFixture(t, options{})
	for _, path := range []string{"/", "/auth", "/subscription", "/success", "/dashboard"} {
		req, _ := http.NewRequest(http.MethodGet, f.srv.URL+path, nil)
		resp := f.do(t, req, nil)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(body), `id="screen"`, path)
		assert.Contains(t, string(body), "/live?path=", path)
	}
}

func TestLive_RequiresDatastar(t *testing.T) {
	t.Parallel()

	f := newFixture(t, options{})
	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/live?path=/", nil)
	resp := f.do(t, req, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLive_FreshVisitorSeesLanding(t *testing.T) {
	t.Parallel()

	f := newFixture(t, options{})
	s := f.openLive(t, "/", nil)
	s.waitFor(t, `data-screen="landing"`)

	s2 := f.openLive(t, "/auth", nil)
	s2.waitFor(t, `data-screen="auth"`)
}

func TestLive_SignUpIntentOpensSignUpForm(t *testing.T) {
	t.Parallel()

	f := newFixture(t, options{})
	s := f.openLive(t, "/&intent=show_sign_up", nil)
	s.waitFor(t, `data-signals="{signup: true}"`)
}

func TestLive_EntitledSubscriptionLinksBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t, options{})
	f.grantAccess()

	s := f.openLive(t, "/subscription", f.signIn(t))
	s.waitFor(t, `href="/dashboard"`)
}

func TestLive_NoAccessShowsSubscription(t *testing.T) {
	t.Parallel()

	f := newFixture(t, options{dashboardDelay: 10 * time.Millisecond})
	s := f.openLive(t, "/dashboard", f.signIn(t))
	s.waitFor(t, `data-screen="subscription"`)
	s.waitFor(t, "price_1SE0ozInzYpYfgpleOnhtDch")
}

func TestLive_DashboardOpensWidgetAfterDelay(t *testing.T) {
	t.Parallel()

	f := newFixture(t, options{dashboardDelay: 30 * time.Millisecond})
	f.grantAccess()

	s := f.openLive(t, "/", f.signIn(t))
	s.waitFor(t, `data-screen="dashboard"`)
	s.waitFor(t, gate.PathWidget)
	s.waitClosed(t)
}

func TestLive_SuccessContinuesWithFreshEntitlement(t *testing.T) {
	t.Parallel()

	f := newFixture(t, options{successDelay: 150 * time.Millisecond})
	s := f.openLive(t, "/success", f.signIn(t))
	s.waitFor(t, `data-screen="success"`)

	// Payment lands while the success screen is shown.
	f.grantAccess()
	s.waitFor(t, `data-screen="dashboard"`)
}

func TestLive_TeardownStopsTimers(t *testing.T) {
	t.Parallel()

	f := newFixture(t, options{dashboardDelay: 200 * time.Millisecond})
	f.grantAccess()

	s := f.openLive(t, "/", f.signIn(t))
	s.waitFor(t, `data-screen="dashboard"`)
	require.Eventually(t, func() bool { return f.observer.open.Load() == 1 }, time.Second, 5*time.Millisecond)

	s.cancel()
	assert.Eventually(t, func() bool { return f.observer.open.Load() == 0 }, time.Second, 5*time.Millisecond)
}

func TestLive_EntitlementChangeRerenders(t *testing.T) {
	t.Parallel()

	f := newFixture(t, options{})
	f.grantAccess()
	cookies := f.signIn(t)

	s := f.openLive(t, "/", cookies)
	s.waitFor(t, `data-screen="dashboard"`)

	yesterday := time.Now().Add(-24 * time.Hour)
	f.record.Store(&entitlement.Record{Status: entitlement.StatusActive, Tier: entitlement.TierTester, TesterExpiresAt: &yesterday})

	f.hub.Publish(context.Background(), f.userID, gate.EventEntitlementChanged)

	s.waitFor(t, `data-screen="subscription"`)
}

func withCookies(req *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func widgetMessage(t *testing.T, f *fixture, originHeader, body string, cookies []*http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/widget/message", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if originHeader != "" {
		req.Header.Set("Origin", originHeader)
	}
	return f.do(t, req, cookies)
}

func widgetHostStatus(t *testing.T, f *fixture, cookies []*http.Cookie) (int, string) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+gate.PathWidget, nil)
	resp := f.do(t, req, cookies)
	resp.Body.Close()
	return resp.StatusCode, resp.Header.Get("Location")
}

func TestWidgetSignOut_FromDashboard(t *testing.T) {
	t.Parallel()

	f := newFixture(t, options{})
	f.grantAccess()
	cookies := f.signIn(t)

	s := f.openLive(t, "/dashboard", cookies)
	s.waitFor(t, `data-screen="dashboard"`)

	resp := widgetMessage(t, f, origin, `{"type":"SIGN_OUT"}`, cookies)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply app.WidgetReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	assert.Equal(t, app.WidgetReply{Screen: "landing", Redirect: "/"}, reply)

	s.waitFor(t, `data-screen="landing"`)

	status, location := widgetHostStatus(t, f, cookies)
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/", location)
}

func TestWidgetSignOut_AuthPath(t *testing.T) {
	t.Parallel()

	f := newFixture(t, options{})
	f.grantAccess()
	cookies := f.signIn(t)

	resp := widgetMessage(t, f, origin, `{"type":"SIGN_OUT","path":"/auth"}`, cookies)
	defer resp.Body.Close()

	var reply app.WidgetReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	assert.Equal(t, app.WidgetReply{Screen: "auth", Redirect: "/auth"}, reply)
}

func TestWidgetMessage_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		origin string
		body   string
		status int
	}{
		{"foreign origin", "https://evil.example", `{"type":"SIGN_OUT"}`, http.StatusForbidden},
		{"missing origin", "", `{"type":"SIGN_OUT"}`, http.StatusForbidden},
		{"other type", origin, `{"type":"PLAY"}`, http.StatusUnprocessableEntity},
		{"unknown field", origin, `{"type":"SIGN_OUT","token":"x"}`, http.StatusUnprocessableEntity},
		{"not an object", origin, `"SIGN_OUT"`, http.StatusUnprocessableEntity},
		{"empty body", origin, ``, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, options{})
			f.grantAccess()
			cookies := f.signIn(t)

			resp := widgetMessage(t, f, tt.origin, tt.body, cookies)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			status, _ := widgetHostStatus(t, f, cookies)
			assert.Equal(t, http.StatusOK, status, "session must survive a rejected message")
		})
	}
}

func TestWidgetHost(t *testing.T) {
	t.Parallel()

	f := newFixture(t, options{})

	status, location := widgetHostStatus(t, f, nil)
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/", location)

	cookies := f.signIn(t)
	status, location = widgetHostStatus(t, f, cookies)
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/subscription", location)

	f.grantAccess()
	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+gate.PathWidget, nil)
	resp := f.do(t, req, cookies)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `src="/piano-xl.html"`)
	assert.Contains(t, string(body), "CHORDINATOR - PIANO XL")
}

func postCheckout(t *testing.T, f *fixture, cookies []*http.Cookie, datastar bool) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodPost, f.srv.URL+"/subscription/checkout",
		strings.NewReader("price_id=price_1SE0ozInzYpYfgpleOnhtDch"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if datastar {
		req.Header.Set("Datastar-Request", "true")
	}
	return f.do(t, req, cookies)
}

func TestCheckout(t *testing.T) {
	t.Parallel()

	t.Run("redirects to hosted checkout", func(t *testing.T) {
		t.Parallel()

		var got checkout.Request
		f := newFixture(t, options{checkout: func(_ context.Context, req checkout.Request) (string, error) {
			got = req
			return "https://checkout.stripe.com/c/pay/cs_test", nil
		}})
		resp := postCheckout(t, f, f.signIn(t), false)
		resp.Body.Close()

		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test", resp.Header.Get("Location"))
		assert.Equal(t, origin+"/success", got.SuccessURL)
		assert.Equal(t, origin+"/subscription", got.CancelURL)
	})

	t.Run("signed out goes to auth", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, options{})
		resp := postCheckout(t, f, nil, false)
		resp.Body.Close()
		assert.Equal(t, "/auth", resp.Header.Get("Location"))
	})

	t.Run("failure flashes a notice", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, options{checkout: func(context.Context, checkout.Request) (string, error) {
			return "", errors.New("stripe unavailable")
		}})
		resp := postCheckout(t, f, f.signIn(t), false)
		resp.Body.Close()

		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/subscription", resp.Header.Get("Location"))

		var notice account.Notice
		req := withCookies(httptest.NewRequest(http.MethodGet, "/subscription", nil), resp.Cookies())
		require.NoError(t, f.cookies.GetFlash(httptest.NewRecorder(), req, account.FlashKey, &notice))
		assert.Equal(t, "Unable to start checkout", notice.Text)
	})

	t.Run("failure over datastar patches a toast", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, options{checkout: func(context.Context, checkout.Request) (string, error) {
			return "", errors.New("stripe unavailable")
		}})
		resp := postCheckout(t, f, f.signIn(t), true)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		assert.Contains(t, string(body), "#toast")
		assert.Contains(t, string(body), "Unable to start checkout")
	})
}

func TestContinueFromSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t, options{})
	cookies := f.signIn(t)

	post := func() string {
		req, _ := http.NewRequest(http.MethodPost, f.srv.URL+"/success/continue", nil)
		resp := f.do(t, req, cookies)
		resp.Body.Close()
		return resp.Header.Get("Location")
	}

	assert.Equal(t, "/subscription", post())
	f.grantAccess()
	assert.Equal(t, "/dashboard", post())
}

func TestContinueFromSuccess_RefreshesOtherViews(t *testing.T) {
	t.Parallel()

	f := newFixture(t, options{})
	cookies := f.signIn(t)

	other := f.openLive(t, "/dashboard", cookies)
	other.waitFor(t, `data-screen="subscription"`)

	f.grantAccess()
	req, _ := http.NewRequest(http.MethodPost, f.srv.URL+"/success/continue", nil)
	resp := f.do(t, req, cookies)
	resp.Body.Close()
	require.Equal(t, "/dashboard", resp.Header.Get("Location"))

	other.waitFor(t, `data-screen="dashboard"`)
}
