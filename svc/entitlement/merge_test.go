package entitlement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pianoxl/svc/entitlement"
)

func TestMerge(t *testing.T) {
	t.Parallel()

	const priceID = "price_1SE0ozInzYpYfgpleOnhtDch"

	testerProfile := &entitlement.Record{Status: entitlement.StatusActive, Tier: entitlement.TierTester, TesterExpiresAt: at(30 * 24 * time.Hour)}
	expiredTesterProfile := &entitlement.Record{Status: entitlement.StatusActive, Tier: entitlement.TierTester, TesterExpiresAt: at(-time.Hour)}
	freeProfile := &entitlement.Record{Status: entitlement.StatusNone, Tier: entitlement.TierFree}

	subscription := func(status entitlement.Status) *entitlement.Record {
		return &entitlement.Record{Status: status, Tier: entitlement.TierStandard, PriceID: priceID, CurrentPeriodEnd: at(10 * 24 * time.Hour)}
	}

	tests := []struct {
		name         string
		profile      *entitlement.Record
		subscription *entitlement.Record
		wantAccess   bool
		wantStatus   entitlement.Status
		wantTier     entitlement.Tier
		wantPriceID  string
	}{
		{
			name:         "tester grant survives a never-started subscription row",
			profile:      testerProfile,
			subscription: subscription(entitlement.StatusNone),
			wantAccess:   true,
			wantStatus:   entitlement.StatusActive,
			wantTier:     entitlement.TierTester,
		},
		{
			name:         "tester grant survives a canceled subscription",
			profile:      testerProfile,
			subscription: subscription(entitlement.StatusCanceled),
			wantAccess:   true,
			wantStatus:   entitlement.StatusActive,
			wantTier:     entitlement.TierTester,
		},
		{
			name:         "paid subscriber with an expired tester profile",
			profile:      expiredTesterProfile,
			subscription: subscription(entitlement.StatusActive),
			wantAccess:   true,
			wantStatus:   entitlement.StatusActive,
			wantTier:     entitlement.TierStandard,
			wantPriceID:  priceID,
		},
		{
			name:         "trialing subscription wins over a free profile",
			profile:      freeProfile,
			subscription: subscription(entitlement.StatusTrialing),
			wantAccess:   true,
			wantStatus:   entitlement.StatusTrialing,
			wantTier:     entitlement.TierStandard,
			wantPriceID:  priceID,
		},
		{
			name:         "canceled subscription is reported over an empty profile",
			profile:      freeProfile,
			subscription: subscription(entitlement.StatusCanceled),
			wantStatus:   entitlement.StatusCanceled,
			wantTier:     entitlement.TierStandard,
			wantPriceID:  priceID,
		},
		{
			name:       "profile only",
			profile:    testerProfile,
			wantAccess: true,
			wantStatus: entitlement.StatusActive,
			wantTier:   entitlement.TierTester,
		},
		{
			name:         "subscription only",
			subscription: subscription(entitlement.StatusActive),
			wantAccess:   true,
			wantStatus:   entitlement.StatusActive,
			wantTier:     entitlement.TierStandard,
			wantPriceID:  priceID,
		},
		{
			name:       "expired tester without subscription",
			profile:    expiredTesterProfile,
			wantStatus: entitlement.StatusActive,
			wantTier:   entitlement.TierTester,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := entitlement.Merge(tt.profile, tt.subscription)
			require.NotNil(t, rec)
			assert.Equal(t, tt.wantAccess, entitlement.HasAccess(rec, now))
			assert.Equal(t, tt.wantStatus, rec.Status)
			assert.Equal(t, tt.wantTier, rec.Tier)
			assert.Equal(t, tt.wantPriceID, rec.PriceID)
		})
	}
}

func TestMerge_NothingStored(t *testing.T) {
	t.Parallel()

	assert.Nil(t, entitlement.Merge(nil, nil))
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	t.Parallel()

	profile := &entitlement.Record{Status: entitlement.StatusActive, Tier: entitlement.TierTester, TesterExpiresAt: at(-time.Hour)}
	sub := &entitlement.Record{Status: entitlement.StatusActive, Tier: entitlement.TierTester, TesterExpiresAt: at(-time.Hour)}

	rec := entitlement.Merge(profile, sub)
	assert.Equal(t, entitlement.TierStandard, rec.Tier)
	assert.Nil(t, rec.TesterExpiresAt)
	assert.Equal(t, entitlement.TierTester, sub.Tier)
	assert.NotNil(t, sub.TesterExpiresAt)
}
