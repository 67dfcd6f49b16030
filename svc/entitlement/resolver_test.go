package entitlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pianoxl/svc/entitlement"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Record(ctx context.Context, userID uuid.UUID) (*entitlement.Record, error) {
	args := m.Called(ctx, userID)
	rec, _ := args.Get(0).(*entitlement.Record)
	return rec, args.Error(1)
}

type plans map[string]string

func (p plans) PlanName(id string) (string, bool) {
	name, ok := p[id]
	return name, ok
}

func newResolver(store entitlement.Store) *entitlement.Resolver {
	return entitlement.NewResolver(store,
		entitlement.WithClock(func() time.Time { return now }),
		entitlement.WithPlanNamer(plans{"price_1": "CHORDINATOR - PIANO XL"}),
	)
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name     string
		rec      *entitlement.Record
		err      error
		access   bool
		plan     string
		wantErr  error
		noRecord bool
	}{
		{
			name:   "standard subscriber",
			rec:    &entitlement.Record{Status: entitlement.StatusActive, Tier: entitlement.TierStandard, PriceID: "price_1"},
			access: true,
			plan:   "CHORDINATOR - PIANO XL",
		},
		{
			name:   "unknown price falls back to premium",
			rec:    &entitlement.Record{Status: entitlement.StatusActive, Tier: entitlement.TierStandard, PriceID: "price_other"},
			access: true,
			plan:   entitlement.PlanPremium,
		},
		{
			name:   "expired tester",
			rec:    &entitlement.Record{Status: entitlement.StatusActive, Tier: entitlement.TierTester, TesterExpiresAt: at(-24 * time.Hour)},
			access: false,
			plan:   entitlement.PlanFree,
		},
		{
			name:   "missing record",
			err:    entitlement.ErrRecordNotFound,
			access: false,
			plan:   entitlement.PlanFree,
		},
		{
			name:    "fetch failure fails closed",
			err:     errors.New("connection reset"),
			access:  false,
			plan:    entitlement.PlanFree,
			wantErr: entitlement.ErrFetchFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &mockStore{}
			store.On("Record", mock.Anything, userID).Return(tt.rec, tt.err)

			ent, err := newResolver(store).Resolve(context.Background(), userID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NotNil(t, ent)
			assert.Equal(t, tt.access, ent.HasAccess)
			assert.Equal(t, tt.plan, ent.PlanName)
			store.AssertExpectations(t)
		})
	}
}

func TestResolver_Idempotent(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	store := &mockStore{}
	store.On("Record", mock.Anything, userID).Return(&entitlement.Record{
		Status:          entitlement.StatusActive,
		Tier:            entitlement.TierTester,
		TesterExpiresAt: at(time.Hour),
	}, nil).Twice()

	r := newResolver(store)
	first, err := r.Resolve(context.Background(), userID)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, first.HasAccess, second.HasAccess)
	assert.Equal(t, *first, *second)
	store.AssertExpectations(t)
}

func TestResolver_NeverWrites(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	rec := &entitlement.Record{Status: entitlement.StatusActive, Tier: entitlement.TierTester, TesterExpiresAt: at(-time.Hour)}
	snapshot := *rec

	store := &mockStore{}
	store.On("Record", mock.Anything, userID).Return(rec, nil)

	_, err := newResolver(store).Resolve(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, snapshot, *rec)
}
