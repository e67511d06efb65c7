package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	vo "github.com/guidepress-io/guidepress/internal/domain/subscription/valueobjects"
)

const testRef = "pay_test_123"

// --- helpers ---

func newSub(t *testing.T) *Subscription {
	t.Helper()
	sub, err := NewSubscription(1)
	require.NoError(t, err)
	require.NoError(t, sub.SetID(1))
	return sub
}

func activeSub(t *testing.T, tier catalog.Tier, periodStart, periodEnd time.Time) *Subscription {
	t.Helper()
	sub := newSub(t)
	require.NoError(t, sub.StartCheckout(tier, testRef))
	require.NoError(t, sub.ConfirmCheckout(tier, periodStart, periodEnd, testRef))
	return sub
}

func TestNewSubscription(t *testing.T) {
	sub, err := NewSubscription(42)
	require.NoError(t, err)

	assert.Equal(t, uint(42), sub.UserID())
	assert.Equal(t, catalog.TierFree, sub.Tier())
	assert.Equal(t, vo.StatusNone, sub.Status())
	assert.NotEmpty(t, sub.SID())
	assert.Equal(t, 1, sub.Version())
	assert.True(t, sub.PeriodStart().IsZero())
	assert.True(t, sub.PeriodEnd().IsZero())
}

func TestNewSubscription_RequiresUser(t *testing.T) {
	sub, err := NewSubscription(0)
	require.Error(t, err)
	assert.Nil(t, sub)
}

func TestReconstruct_RejectsInvalidState(t *testing.T) {
	now := time.Now().UTC()
	base := ReconstructParams{
		ID:        1,
		SID:       "sub_abc",
		UserID:    1,
		Tier:      catalog.TierFree,
		Status:    vo.StatusNone,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tests := []struct {
		name   string
		mutate func(*ReconstructParams)
	}{
		{"zero id", func(p *ReconstructParams) { p.ID = 0 }},
		{"zero user", func(p *ReconstructParams) { p.UserID = 0 }},
		{"unknown status", func(p *ReconstructParams) { p.Status = "limbo" }},
		{"unknown tier", func(p *ReconstructParams) { p.Tier = "platinum" }},
		{"active on free tier", func(p *ReconstructParams) {
			p.Status = vo.StatusActive
			p.Tier = catalog.TierFree
		}},
		{"none on paid tier", func(p *ReconstructParams) { p.Tier = catalog.TierPro }},
		{"period end before start", func(p *ReconstructParams) {
			p.Status = vo.StatusActive
			p.Tier = catalog.TierPremium
			p.PeriodStart = now
			p.PeriodEnd = now.Add(-time.Hour)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			sub, err := Reconstruct(p)
			require.Error(t, err)
			assert.Nil(t, sub)
		})
	}
}

func TestStartCheckout(t *testing.T) {
	sub := newSub(t)

	require.NoError(t, sub.StartCheckout(catalog.TierPremium, testRef))

	assert.Equal(t, vo.StatusPending, sub.Status())
	assert.Equal(t, catalog.TierPremium, sub.PendingTier())
	assert.Equal(t, catalog.TierFree, sub.Tier(), "tier only changes on confirmation")
	require.NotNil(t, sub.PaymentReference())
	assert.Equal(t, testRef, *sub.PaymentReference())
}

func TestStartCheckout_Rejections(t *testing.T) {
	t.Run("free tier", func(t *testing.T) {
		sub := newSub(t)
		err := sub.StartCheckout(catalog.TierFree, testRef)
		assert.ErrorIs(t, err, ErrPaidTierRequired)
	})

	t.Run("missing payment reference", func(t *testing.T) {
		sub := newSub(t)
		assert.Error(t, sub.StartCheckout(catalog.TierPremium, ""))
	})

	t.Run("already active", func(t *testing.T) {
		now := time.Now().UTC()
		sub := activeSub(t, catalog.TierPremium, now, now.Add(30*24*time.Hour))
		err := sub.StartCheckout(catalog.TierPro, "pay_other")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestConfirmCheckout(t *testing.T) {
	now := time.Now().UTC()
	end := now.Add(30 * 24 * time.Hour)

	sub := newSub(t)
	require.NoError(t, sub.StartCheckout(catalog.TierPremium, testRef))
	require.NoError(t, sub.ConfirmCheckout(catalog.TierPremium, now, end, testRef))

	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Equal(t, catalog.TierPremium, sub.Tier())
	assert.Equal(t, catalog.Tier(""), sub.PendingTier())
	assert.Equal(t, now, sub.PeriodStart())
	assert.Equal(t, end, sub.PeriodEnd())
}

func TestConfirmCheckout_ReplayIsNoop(t *testing.T) {
	now := time.Now().UTC()
	end := now.Add(30 * 24 * time.Hour)
	sub := activeSub(t, catalog.TierPremium, now, end)
	version := sub.Version()

	require.NoError(t, sub.ConfirmCheckout(catalog.TierPremium, now.Add(time.Hour), end.Add(time.Hour), testRef))

	assert.Equal(t, version, sub.Version(), "replay must not mutate the aggregate")
	assert.Equal(t, now, sub.PeriodStart())
	assert.Equal(t, end, sub.PeriodEnd())
}

func TestConfirmCheckout_ReferenceMismatch(t *testing.T) {
	now := time.Now().UTC()
	sub := newSub(t)
	require.NoError(t, sub.StartCheckout(catalog.TierPremium, testRef))

	err := sub.ConfirmCheckout(catalog.TierPremium, now, now.Add(time.Hour), "pay_wrong")
	assert.ErrorIs(t, err, ErrPaymentReferenceMismatch)
	assert.Equal(t, vo.StatusPending, sub.Status())
}

func TestConfirmCheckout_InvalidPeriod(t *testing.T) {
	now := time.Now().UTC()
	sub := newSub(t)
	require.NoError(t, sub.StartCheckout(catalog.TierPremium, testRef))

	err := sub.ConfirmCheckout(catalog.TierPremium, now, now.Add(-time.Hour), testRef)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestFailCheckout(t *testing.T) {
	sub := newSub(t)
	require.NoError(t, sub.StartCheckout(catalog.TierPremium, testRef))

	require.NoError(t, sub.FailCheckout())

	assert.Equal(t, vo.StatusNone, sub.Status())
	assert.Equal(t, catalog.TierFree, sub.Tier())
	assert.Nil(t, sub.PaymentReference())

	// Already none: replay tolerated.
	require.NoError(t, sub.FailCheckout())
}

func TestConfirmRenewal_RollsPeriodForward(t *testing.T) {
	now := time.Now().UTC()
	end := now.Add(30 * 24 * time.Hour)
	sub := activeSub(t, catalog.TierPremium, now, end)

	newEnd := end.Add(30 * 24 * time.Hour)
	require.NoError(t, sub.ConfirmRenewal(newEnd))

	assert.Equal(t, end, sub.PeriodStart(), "new period starts where the old one ended")
	assert.Equal(t, newEnd, sub.PeriodEnd())
	assert.Equal(t, vo.StatusActive, sub.Status())
}

func TestConfirmRenewal_RecoversPastDue(t *testing.T) {
	now := time.Now().UTC()
	end := now.Add(30 * 24 * time.Hour)
	sub := activeSub(t, catalog.TierPremium, now, end)
	require.NoError(t, sub.FailRenewal())
	require.Equal(t, vo.StatusPastDue, sub.Status())

	require.NoError(t, sub.ConfirmRenewal(end.Add(30*24*time.Hour)))
	assert.Equal(t, vo.StatusActive, sub.Status())
	assert.Equal(t, catalog.TierPremium, sub.Tier())
}

func TestConfirmRenewal_Rejections(t *testing.T) {
	t.Run("not active", func(t *testing.T) {
		sub := newSub(t)
		assert.ErrorIs(t, sub.ConfirmRenewal(time.Now().UTC()), ErrInvalidTransition)
	})

	t.Run("period end moves backwards", func(t *testing.T) {
		now := time.Now().UTC()
		end := now.Add(30 * 24 * time.Hour)
		sub := activeSub(t, catalog.TierPremium, now, end)
		assert.ErrorIs(t, sub.ConfirmRenewal(end.Add(-time.Hour)), ErrInvalidPeriod)
	})
}

func TestFailRenewal(t *testing.T) {
	now := time.Now().UTC()
	sub := activeSub(t, catalog.TierPremium, now, now.Add(30*24*time.Hour))

	require.NoError(t, sub.FailRenewal())
	assert.Equal(t, vo.StatusPastDue, sub.Status())
	assert.Equal(t, catalog.TierPremium, sub.Tier(), "tier retained during grace")

	// Replay tolerated.
	require.NoError(t, sub.FailRenewal())
	assert.Equal(t, vo.StatusPastDue, sub.Status())
}

func TestExpireGrace(t *testing.T) {
	now := time.Now().UTC()
	grace := 3 * 24 * time.Hour
	periodEnd := now.Add(-4 * 24 * time.Hour)
	sub := activeSub(t, catalog.TierPremium, periodEnd.Add(-30*24*time.Hour), periodEnd)
	require.NoError(t, sub.FailRenewal())

	t.Run("within grace window", func(t *testing.T) {
		applied, err := sub.ExpireGrace(grace, periodEnd.Add(grace).Add(-time.Minute))
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, vo.StatusPastDue, sub.Status())
	})

	t.Run("deadline passed", func(t *testing.T) {
		applied, err := sub.ExpireGrace(grace, now)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, vo.StatusCancelled, sub.Status())
		assert.Equal(t, catalog.TierFree, sub.Tier())
		require.NotNil(t, sub.CancelReason())
		assert.Equal(t, "grace window elapsed", *sub.CancelReason())
	})

	t.Run("not past_due is a no-op", func(t *testing.T) {
		fresh := newSub(t)
		applied, err := fresh.ExpireGrace(grace, now)
		require.NoError(t, err)
		assert.False(t, applied)
	})
}

func TestCancel(t *testing.T) {
	now := time.Now().UTC()
	sub := activeSub(t, catalog.TierPro, now, now.Add(30*24*time.Hour))

	require.NoError(t, sub.Cancel("user requested", now))

	assert.Equal(t, vo.StatusCancelled, sub.Status())
	assert.Equal(t, catalog.TierFree, sub.Tier())
	require.NotNil(t, sub.CancelledAt())
	assert.Equal(t, now, *sub.CancelledAt())

	// Cancelling again is tolerated.
	require.NoError(t, sub.Cancel("again", now))
}

func TestCancel_RequiresReason(t *testing.T) {
	now := time.Now().UTC()
	sub := activeSub(t, catalog.TierPro, now, now.Add(30*24*time.Hour))
	assert.Error(t, sub.Cancel("", now))
}

func TestRequestCancellation_And_CompleteDeferred(t *testing.T) {
	now := time.Now().UTC()
	end := now.Add(10 * 24 * time.Hour)
	sub := activeSub(t, catalog.TierPremium, now, end)

	require.NoError(t, sub.RequestCancellation("too expensive"))
	assert.True(t, sub.CancelAtPeriodEnd())
	assert.Equal(t, vo.StatusActive, sub.Status(), "tier remains in force until period end")
	assert.Equal(t, catalog.TierPremium, sub.Tier())

	applied, err := sub.CompleteDeferredCancellation(end.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, applied, "period not over yet")

	applied, err = sub.CompleteDeferredCancellation(end)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, vo.StatusCancelled, sub.Status())
	assert.Equal(t, catalog.TierFree, sub.Tier())
	require.NotNil(t, sub.CancelReason())
	assert.Equal(t, "too expensive", *sub.CancelReason())
	assert.False(t, sub.CancelAtPeriodEnd())
}

func TestRequestCancellation_RequiresBillingState(t *testing.T) {
	sub := newSub(t)
	assert.ErrorIs(t, sub.RequestCancellation("reason"), ErrInvalidTransition)
}

func TestCompleteDeferredCancellation_NoRequestIsNoop(t *testing.T) {
	now := time.Now().UTC()
	sub := activeSub(t, catalog.TierPremium, now.Add(-40*24*time.Hour), now.Add(-time.Hour))

	applied, err := sub.CompleteDeferredCancellation(now)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, vo.StatusActive, sub.Status())
}

func TestAssignTier(t *testing.T) {
	now := time.Now().UTC()
	end := now.Add(30 * 24 * time.Hour)

	t.Run("paid tier from none", func(t *testing.T) {
		sub := newSub(t)
		require.NoError(t, sub.AssignTier(catalog.TierPro, now, end, "support comp", now))
		assert.Equal(t, vo.StatusActive, sub.Status())
		assert.Equal(t, catalog.TierPro, sub.Tier())
		assert.Nil(t, sub.PaymentReference())
		assert.Equal(t, end, sub.PeriodEnd())
	})

	t.Run("tier change on active", func(t *testing.T) {
		sub := activeSub(t, catalog.TierPremium, now, end)
		require.NoError(t, sub.AssignTier(catalog.TierPro, now, end, "upgrade comp", now))
		assert.Equal(t, vo.StatusActive, sub.Status())
		assert.Equal(t, catalog.TierPro, sub.Tier())
	})

	t.Run("recovers past_due", func(t *testing.T) {
		sub := activeSub(t, catalog.TierPremium, now, end)
		require.NoError(t, sub.FailRenewal())
		require.NoError(t, sub.AssignTier(catalog.TierPremium, now, end, "payment sorted offline", now))
		assert.Equal(t, vo.StatusActive, sub.Status())
	})

	t.Run("paid tier from cancelled", func(t *testing.T) {
		sub := activeSub(t, catalog.TierPremium, now, end)
		require.NoError(t, sub.Cancel("gone", now))
		require.NoError(t, sub.AssignTier(catalog.TierPremium, now, end, "win back", now))
		assert.Equal(t, vo.StatusActive, sub.Status())
		assert.Equal(t, catalog.TierPremium, sub.Tier())
		assert.Nil(t, sub.CancelledAt())
	})

	t.Run("free cancels active membership", func(t *testing.T) {
		sub := activeSub(t, catalog.TierPro, now, end)
		require.NoError(t, sub.AssignTier(catalog.TierFree, time.Time{}, time.Time{}, "abuse", now))
		assert.Equal(t, vo.StatusCancelled, sub.Status())
		assert.Equal(t, catalog.TierFree, sub.Tier())
	})

	t.Run("free on none is a no-op", func(t *testing.T) {
		sub := newSub(t)
		version := sub.Version()
		require.NoError(t, sub.AssignTier(catalog.TierFree, time.Time{}, time.Time{}, "nothing to do", now))
		assert.Equal(t, vo.StatusNone, sub.Status())
		assert.Equal(t, version, sub.Version())
	})

	t.Run("requires reason", func(t *testing.T) {
		sub := newSub(t)
		assert.Error(t, sub.AssignTier(catalog.TierPro, now, end, "", now))
	})

	t.Run("rejects unknown tier", func(t *testing.T) {
		sub := newSub(t)
		assert.Error(t, sub.AssignTier("platinum", now, end, "reason", now))
	})

	t.Run("rejects inverted period", func(t *testing.T) {
		sub := newSub(t)
		assert.ErrorIs(t, sub.AssignTier(catalog.TierPro, now, now.Add(-time.Hour), "reason", now), ErrInvalidPeriod)
	})
}

func TestEffectiveTier(t *testing.T) {
	now := time.Now().UTC()
	end := now.Add(30 * 24 * time.Hour)

	sub := newSub(t)
	assert.Equal(t, catalog.TierFree, sub.EffectiveTier())

	require.NoError(t, sub.StartCheckout(catalog.TierPremium, testRef))
	assert.Equal(t, catalog.TierFree, sub.EffectiveTier(), "pending grants nothing")

	require.NoError(t, sub.ConfirmCheckout(catalog.TierPremium, now, end, testRef))
	assert.Equal(t, catalog.TierPremium, sub.EffectiveTier())

	require.NoError(t, sub.FailRenewal())
	assert.Equal(t, catalog.TierPremium, sub.EffectiveTier(), "grace retains the tier")

	require.NoError(t, sub.Cancel("done", now))
	assert.Equal(t, catalog.TierFree, sub.EffectiveTier())
}

func TestUsagePeriodKey(t *testing.T) {
	periodStart := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	periodEnd := periodStart.Add(30 * 24 * time.Hour)
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

	t.Run("billing period keys on period start", func(t *testing.T) {
		sub := activeSub(t, catalog.TierPremium, periodStart, periodEnd)
		assert.Equal(t, "2026-03-15", sub.UsagePeriodKey(now))
	})

	t.Run("no billing period keys on calendar month", func(t *testing.T) {
		sub := newSub(t)
		assert.Equal(t, "2026-04", sub.UsagePeriodKey(now))
	})
}

func TestGraceDeadline(t *testing.T) {
	now := time.Now().UTC()
	end := now.Add(30 * 24 * time.Hour)
	sub := activeSub(t, catalog.TierPremium, now, end)

	assert.Equal(t, end.Add(72*time.Hour), sub.GraceDeadline(72*time.Hour))
}

func TestTouch_BumpsVersion(t *testing.T) {
	sub := newSub(t)
	v := sub.Version()
	require.NoError(t, sub.StartCheckout(catalog.TierPremium, testRef))
	assert.Equal(t, v+1, sub.Version())
}
