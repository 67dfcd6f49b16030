package views_test

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pianoxl/modules/account"
	"github.com/dmitrymomot/pianoxl/views"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, c.Render(context.Background(), &sb))
	return sb.String()
}

func TestShell(t *testing.T) {
	t.Parallel()

	html := render(t, views.Shell(views.ShellParams{
		Path:   "/success",
		Notice: &account.Notice{Kind: account.NoticeSuccess, Text: "Account created successfully!"},
	}))

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, views.DatastarScript)
	assert.Contains(t, html, `id="screen"`)
	assert.Contains(t, html, "/live?path=%2Fsuccess")
	assert.Contains(t, html, `data-screen="loading"`)
	assert.Contains(t, html, "Account created successfully!")
	assert.Contains(t, html, `id="toast"`)
}

func TestForms_EscapeUserInput(t *testing.T) {
	t.Parallel()

	html := render(t, views.SignUpForm(account.FormParams{
		Email: `"><script>alert(1)</script>`,
		Error: "<b>bad</b>",
	}))

	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.NotContains(t, html, "<b>bad</b>")
	assert.Contains(t, html, `id="auth-form"`)
	assert.Contains(t, html, `name="tester_code"`)
	assert.Contains(t, html, `minlength="6"`)
}

func TestAuth_RendersBothForms(t *testing.T) {
	t.Parallel()

	html := render(t, views.Auth(views.AuthParams{}))
	assert.Contains(t, html, "/auth/sign-in")
	assert.Contains(t, html, "/auth/sign-up")
	assert.Contains(t, html, `data-screen="auth"`)
	assert.Contains(t, html, `data-signals="{signup: false}"`)

	signUp := render(t, views.Auth(views.AuthParams{SignUpFirst: true}))
	assert.Contains(t, signUp, `data-signals="{signup: true}"`)
}

func TestLanding_OffersSignInAndSignUp(t *testing.T) {
	t.Parallel()

	html := render(t, views.Landing())
	assert.Contains(t, html, `href="/auth"`)
	assert.Contains(t, html, `href="/auth?intent=show_sign_up"`)
}

func TestSubscription(t *testing.T) {
	t.Parallel()

	html := render(t, views.Subscription(views.SubscriptionParams{
		Header: views.HeaderParams{Email: "p@example.com", PlanName: "Free"},
		Products: []views.ProductParams{{
			PriceID:  "price_1SE0ozInzYpYfgpleOnhtDch",
			Name:     "CHORDINATOR - PIANO XL",
			Price:    "$ 3.99",
			Interval: "month",
		}},
		Error: "Unable to start checkout",
	}))

	assert.Contains(t, html, `value="price_1SE0ozInzYpYfgpleOnhtDch"`)
	assert.Contains(t, html, "/subscription/checkout")
	assert.Contains(t, html, "$ 3.99")
	assert.Contains(t, html, "Unable to start checkout")
	assert.Contains(t, html, "/auth/sign-out")

	current := render(t, views.Subscription(views.SubscriptionParams{
		Products: []views.ProductParams{{PriceID: "p1", Name: "X"}},
		Current:  "p1",
	}))
	assert.Contains(t, current, "Current plan")
	assert.NotContains(t, current, "/subscription/checkout")
	assert.NotContains(t, current, `href="/dashboard"`)

	entitled := render(t, views.Subscription(views.SubscriptionParams{
		Products:  []views.ProductParams{{PriceID: "p1", Name: "X"}},
		Current:   "p1",
		CanGoBack: true,
	}))
	assert.Contains(t, entitled, `href="/dashboard"`)
}

func TestDashboardAndSuccess(t *testing.T) {
	t.Parallel()

	dash := render(t, views.Dashboard(views.DashboardParams{
		Header:     views.HeaderParams{PlanName: "CHORDINATOR - PIANO XL"},
		Status:     "active",
		RedirectIn: 2,
	}))
	assert.Contains(t, dash, `data-screen="dashboard"`)
	assert.Contains(t, dash, "in 2 seconds")
	assert.Contains(t, dash, `href="/chord-inator"`)

	success := render(t, views.Success(views.SuccessParams{ContinueIn: 5}))
	assert.Contains(t, success, "in 5 seconds")
	assert.Contains(t, success, "/success/continue")
}

func TestWidget(t *testing.T) {
	t.Parallel()

	html := render(t, views.Widget(views.WidgetParams{}))
	assert.Contains(t, html, `src="/piano-xl.html"`)
	assert.Contains(t, html, "event.origin !== window.location.origin")
	assert.Contains(t, html, `data.type !== "SIGN_OUT"`)
}
