package gate_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pianoxl/modules/gate"
	"github.com/dmitrymomot/pianoxl/pkg/session"
	"github.com/dmitrymomot/pianoxl/svc/entitlement"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type storeFunc func(ctx context.Context, userID uuid.UUID) (*entitlement.Record, error)

func (f storeFunc) Record(ctx context.Context, userID uuid.UUID) (*entitlement.Record, error) {
	return f(ctx, userID)
}

func resolveRecord(t *testing.T, rec *entitlement.Record) *entitlement.Entitlement {
	t.Helper()
	r := entitlement.NewResolver(
		storeFunc(func(context.Context, uuid.UUID) (*entitlement.Record, error) { return rec, nil }),
		entitlement.WithClock(func() time.Time { return now }),
	)
	ent, err := r.Resolve(context.Background(), uuid.New())
	require.NoError(t, err)
	return ent
}

func signedIn() *session.Session {
	return &session.Session{ID: uuid.New(), UserID: uuid.New(), Email: "player@example.com"}
}

func TestResolve_Rules(t *testing.T) {
	t.Parallel()

	granted := &entitlement.Entitlement{HasAccess: true}
	denied := entitlement.Denied()

	tests := []struct {
		name string
		in   gate.Input
		want gate.Screen
	}{
		{"session pending", gate.Input{SessionPending: true, Path: "/dashboard"}, gate.Loading},
		{"pending wins over session", gate.Input{SessionPending: true, Session: signedIn(), Entitlement: granted}, gate.Loading},
		{"signed out on root", gate.Input{Path: "/"}, gate.Landing},
		{"signed out on auth path", gate.Input{Path: "/auth"}, gate.Auth},
		{"signed out with show auth intent", gate.Input{Path: "/", Intent: gate.IntentShowAuth}, gate.Auth},
		{"signed out with sign up intent", gate.Input{Path: "/", Intent: gate.IntentShowSignUp}, gate.Auth},
		{"signed out on gated path", gate.Input{Path: "/dashboard"}, gate.Landing},
		{"signed out on success", gate.Input{Path: "/success"}, gate.Landing},
		{"entitlement unresolved", gate.Input{Session: signedIn(), Path: "/"}, gate.Loading},
		{"subscription path with access", gate.Input{Session: signedIn(), Entitlement: granted, Path: "/subscription"}, gate.Subscription},
		{"show subscription intent", gate.Input{Session: signedIn(), Entitlement: granted, Intent: gate.IntentShowSubscription}, gate.Subscription},
		{"success page", gate.Input{Session: signedIn(), Entitlement: granted, Path: "/success"}, gate.Success},
		{"success without access still shows success", gate.Input{Session: signedIn(), Entitlement: denied, Path: "/success"}, gate.Success},
		{"continue from success with access", gate.Input{Session: signedIn(), Entitlement: granted, Path: "/success", Intent: gate.IntentContinue}, gate.Dashboard},
		{"continue from success without access", gate.Input{Session: signedIn(), Entitlement: denied, Path: "/success", Intent: gate.IntentContinue}, gate.Subscription},
		{"no access", gate.Input{Session: signedIn(), Entitlement: denied, Path: "/"}, gate.Subscription},
		{"no access on dashboard path", gate.Input{Session: signedIn(), Entitlement: denied, Path: "/dashboard"}, gate.Subscription},
		{"access", gate.Input{Session: signedIn(), Entitlement: granted, Path: "/"}, gate.Dashboard},
		{"access on auth path", gate.Input{Session: signedIn(), Entitlement: granted, Path: "/auth"}, gate.Dashboard},
		{"trailing slash and case", gate.Input{Session: signedIn(), Entitlement: granted, Path: "/Subscription/"}, gate.Subscription},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, gate.Resolve(tt.in))
		})
	}
}

func TestResolve_NoAccessNeverReachesDashboard(t *testing.T) {
	t.Parallel()

	paths := []string{"", "/", "/auth", "/subscription", "/success", "/dashboard", "/chord-inator", "/unknown"}
	intents := []gate.Intent{gate.IntentNone, gate.IntentShowAuth, gate.IntentShowSignUp, gate.IntentShowSubscription, gate.IntentContinue}
	yesterday := now.Add(-24 * time.Hour)
	records := []*entitlement.Record{
		nil,
		{Status: entitlement.StatusNone},
		{Status: entitlement.StatusCanceled, Tier: entitlement.TierStandard},
		{Status: entitlement.StatusActive, Tier: entitlement.TierTester, TesterExpiresAt: &yesterday},
		{Status: entitlement.StatusActive, Tier: entitlement.TierTester, TesterExpiresAt: &now},
	}

	for _, rec := range records {
		ent := resolveRecord(t, rec)
		require.False(t, ent.HasAccess)
		for _, p := range paths {
			for _, intent := range intents {
				got := gate.Resolve(gate.Input{Session: signedIn(), Entitlement: ent, Path: p, Intent: intent})
				assert.NotEqual(t, gate.Dashboard, got, "path=%q intent=%q", p, intent)
			}
		}
	}
}

func TestResolve_Scenarios(t *testing.T) {
	t.Parallel()

	t.Run("fresh visitor lands on landing", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, gate.Landing, gate.Resolve(gate.Input{Path: "/"}))
	})

	t.Run("active standard subscriber reaches dashboard", func(t *testing.T) {
		t.Parallel()
		ent := resolveRecord(t, &entitlement.Record{Status: entitlement.StatusActive, Tier: entitlement.TierStandard})
		assert.Equal(t, gate.Dashboard, gate.Resolve(gate.Input{Session: signedIn(), Entitlement: ent, Path: "/"}))
	})

	t.Run("expired tester is sent to subscription", func(t *testing.T) {
		t.Parallel()
		yesterday := now.AddDate(0, 0, -1)
		ent := resolveRecord(t, &entitlement.Record{
			Status:          entitlement.StatusActive,
			Tier:            entitlement.TierTester,
			TesterExpiresAt: &yesterday,
		})
		assert.Equal(t, gate.Subscription, gate.Resolve(gate.Input{Session: signedIn(), Entitlement: ent, Path: "/"}))
	})

	t.Run("losing entitlement overrides dashboard", func(t *testing.T) {
		t.Parallel()
		sess := signedIn()
		in := gate.Input{Session: sess, Entitlement: &entitlement.Entitlement{HasAccess: true}, Path: "/dashboard"}
		require.Equal(t, gate.Dashboard, gate.Resolve(in))

		in.Entitlement = entitlement.Denied()
		assert.Equal(t, gate.Subscription, gate.Resolve(in))
	})

	t.Run("sign out from dashboard", func(t *testing.T) {
		t.Parallel()
		in := gate.Input{Session: signedIn(), Entitlement: &entitlement.Entitlement{HasAccess: true}, Path: "/dashboard"}
		require.Equal(t, gate.Dashboard, gate.Resolve(in))

		in.Session, in.Entitlement = nil, nil
		assert.Equal(t, gate.Landing, gate.Resolve(in))

		in.Path = "/auth"
		assert.Equal(t, gate.Auth, gate.Resolve(in))
	})
}

func TestScreenPaths(t *testing.T) {
	t.Parallel()

	for _, s := range []gate.Screen{gate.Landing, gate.Auth, gate.Subscription, gate.Success, gate.Dashboard} {
		got, ok := gate.ScreenFromPath(s.Path())
		require.True(t, ok, s)
		assert.Equal(t, s, got)
	}
	assert.Equal(t, "/", gate.Loading.Path())

	_, ok := gate.ScreenFromPath("/chord-inator")
	assert.False(t, ok)

	got, ok := gate.ScreenFromPath("/AUTH/?next=1")
	assert.True(t, ok)
	assert.Equal(t, gate.Auth, got)
}

func TestParseIntent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, gate.IntentContinue, gate.ParseIntent("continue"))
	assert.Equal(t, gate.IntentShowAuth, gate.ParseIntent("show_auth"))
	assert.Equal(t, gate.IntentShowSignUp, gate.ParseIntent("show_sign_up"))
	assert.Equal(t, gate.IntentShowSubscription, gate.ParseIntent("show_subscription"))
	assert.Equal(t, gate.IntentNone, gate.ParseIntent("dashboard"))
}
