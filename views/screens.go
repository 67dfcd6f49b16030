package views

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/pianoxl/modules/account"
)

// ScreenTarget is the element live screens are patched into.
const ScreenTarget = "#screen"

func Loading() templ.Component {
	return component(func(_ context.Context, b *buf) error {
		b.raw(`<section class="screen screen-loading" data-screen="loading">`,
			`<div class="spinner" aria-label="Loading"></div></section>`)
		return nil
	})
}

func Landing() templ.Component {
	return component(func(_ context.Context, b *buf) error {
		b.raw(`<section class="screen screen-landing" data-screen="landing">`,
			`<h1>CHORD-INATOR</h1>`,
			`<p>Play any chord with one finger and build chord progressions in seconds.</p>`,
			`<a class="button" href="/auth">Sign in</a> `,
			`<a class="button button-primary" href="/auth?intent=show_sign_up">Sign up</a>`,
			`</section>`)
		return nil
	})
}

// AuthParams prefills the auth forms.
type AuthParams struct {
	SignIn account.FormParams
	SignUp account.FormParams
	// SignUpFirst opens the sign-up form instead of the sign-in form.
	SignUpFirst bool
}

// Auth shows the sign-in form with a toggle to the sign-up form.
func Auth(p AuthParams) templ.Component {
	return component(func(ctx context.Context, b *buf) error {
		b.raw(`<section class="screen screen-auth" data-screen="auth" data-signals="{signup: `,
			strconv.FormatBool(p.SignUpFirst), `}">`,
			`<div data-show="!$signup">`)
		if err := renderInto(ctx, b, SignInForm(p.SignIn)); err != nil {
			return err
		}
		b.raw(`<p>Don't have an account? <button type="button" data-on:click="$signup = true">Sign up</button></p></div>`,
			`<div data-show="$signup">`)
		if err := renderInto(ctx, b, SignUpForm(p.SignUp)); err != nil {
			return err
		}
		b.raw(`<p>Already have an account? <button type="button" data-on:click="$signup = false">Sign in</button></p></div>`,
			`</section>`)
		return nil
	})
}

func formMessages(b *buf, p account.FormParams) {
	if p.Error != "" {
		b.raw(`<div class="notice notice-error" role="alert">`).text(p.Error).raw(`</div>`)
	}
	if p.Notice != "" {
		b.raw(`<div class="notice notice-success" role="status">`).text(p.Notice).raw(`</div>`)
	}
}

// SignInForm posts credentials; errors are patched back into the form.
func SignInForm(p account.FormParams) templ.Component {
	return component(func(_ context.Context, b *buf) error {
		b.raw(`<form id="auth-form" data-on:submit="@post('/auth/sign-in', {contentType: 'form'})">`,
			`<h2>Welcome back</h2>`)
		formMessages(b, p)
		b.raw(`<label>Email <input type="email" name="email" required value="`).text(p.Email).raw(`"></label>`,
			`<label>Password <input type="password" name="password" required></label>`,
			`<button type="submit">Sign in</button></form>`)
		return nil
	})
}

// SignUpForm collects the new account and an optional tester code.
func SignUpForm(p account.FormParams) templ.Component {
	return component(func(_ context.Context, b *buf) error {
		b.raw(`<form id="auth-form" data-on:submit="@post('/auth/sign-up', {contentType: 'form'})">`,
			`<h2>Create account</h2>`)
		formMessages(b, p)
		b.raw(`<label>Email <input type="email" name="email" required value="`).text(p.Email).raw(`"></label>`,
			`<label>Password <input type="password" name="password" required minlength="`, strconv.Itoa(account.MinPasswordLength), `"></label>`,
			`<label>Confirm password <input type="password" name="confirm_password" required></label>`,
			`<label>Tester code (optional) <input type="text" name="tester_code" autocapitalize="characters" value="`).text(p.TesterCode).raw(`"></label>`,
			`<button type="submit">Create account</button></form>`)
		return nil
	})
}

// HeaderParams describes the signed-in user in the page header.
type HeaderParams struct {
	Email    string
	PlanName string
}

func Header(p HeaderParams) templ.Component {
	return component(func(_ context.Context, b *buf) error {
		b.raw(`<header class="app-header"><span class="brand">Piano XL</span>`,
			`<span class="plan">`).text(p.PlanName).raw(`</span>`,
			`<span class="email">`).text(p.Email).raw(`</span>`,
			`<button type="button" data-on:click="@post('/auth/sign-out')">Sign out</button></header>`)
		return nil
	})
}

// ProductParams is a catalog product prepared for display.
type ProductParams struct {
	PriceID     string
	Name        string
	Description string
	Price       string
	Interval    string
}

type SubscriptionParams struct {
	Header   HeaderParams
	Products []ProductParams
	// Current is the price id of the active subscription, if any.
	Current string
	Error   string
	// CanGoBack links back to the dashboard for users who already have access.
	CanGoBack bool
}

func Subscription(p SubscriptionParams) templ.Component {
	return component(func(ctx context.Context, b *buf) error {
		b.raw(`<section class="screen screen-subscription" data-screen="subscription">`)
		if err := renderInto(ctx, b, Header(p.Header)); err != nil {
			return err
		}
		b.raw(`<h1>Piano XL Subscription</h1>`)
		if p.Error != "" {
			b.raw(`<div class="notice notice-error" role="alert">`).text(p.Error).raw(`</div>`)
		}
		b.raw(`<div class="products">`)
		for _, prod := range p.Products {
			b.raw(`<article class="product"><h2>`).text(prod.Name).raw(`</h2>`,
				`<p>`).text(prod.Description).raw(`</p>`,
				`<p class="price">`).text(prod.Price)
			if prod.Interval != "" {
				b.raw(`<span>/`).text(prod.Interval).raw(`</span>`)
			}
			b.raw(`</p>`)
			if prod.PriceID == p.Current {
				b.raw(`<p class="current">Current plan</p>`)
			} else {
				b.raw(`<form data-on:submit="@post('/subscription/checkout', {contentType: 'form'})">`,
					`<input type="hidden" name="price_id" value="`).text(prod.PriceID).raw(`">`,
					`<button type="submit">Subscribe</button></form>`)
			}
			b.raw(`</article>`)
		}
		b.raw(`</div>`)
		if p.CanGoBack {
			b.raw(`<a class="back" href="/dashboard">Back to dashboard</a>`)
		}
		b.raw(`</section>`)
		return nil
	})
}

type SuccessParams struct {
	ContinueIn int
}

// Success thanks the user and continues on its own after ContinueIn seconds.
func Success(p SuccessParams) templ.Component {
	return component(func(_ context.Context, b *buf) error {
		b.raw(`<section class="screen screen-success" data-screen="success">`,
			`<h1>Payment successful!</h1>`,
			`<p>Thank you for subscribing to Piano XL. Your subscription is now active.</p>`,
			`<p>Continuing in `, strconv.Itoa(p.ContinueIn), ` seconds.</p>`,
			`<button type="button" data-on:click="@post('/success/continue')">Continue</button>`,
			`</section>`)
		return nil
	})
}

type DashboardParams struct {
	Header HeaderParams
	// Status is the subscription status, or "Free".
	Status     string
	RedirectIn int
}

// Dashboard confirms access and forwards to the widget after RedirectIn seconds.
func Dashboard(p DashboardParams) templ.Component {
	return component(func(ctx context.Context, b *buf) error {
		b.raw(`<section class="screen screen-dashboard" data-screen="dashboard">`)
		if err := renderInto(ctx, b, Header(p.Header)); err != nil {
			return err
		}
		b.raw(`<h1>Welcome to Piano XL</h1>`,
			`<p>Subscription: <strong>`).text(p.Status).raw(`</strong></p>`,
			`<p>Opening CHORD-INATOR in `, strconv.Itoa(p.RedirectIn), ` seconds.</p>`,
			`<a class="button" href="/chord-inator">Open now</a> `,
			`<a href="/subscription">Subscription</a>`,
			`</section>`)
		return nil
	})
}
