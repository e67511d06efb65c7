package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	vo "github.com/guidepress-io/guidepress/internal/domain/subscription/valueobjects"
)

func validHistoryParams() HistoryParams {
	return HistoryParams{
		SubscriptionID: 1,
		EventType:      HistoryActivated,
		Actor:          ActorPayment,
		OldTier:        catalog.TierFree,
		NewTier:        catalog.TierPremium,
		OldStatus:      vo.StatusPending,
		NewStatus:      vo.StatusActive,
	}
}

func TestNewHistory(t *testing.T) {
	ref := "pay_123"
	p := validHistoryParams()
	p.PaymentReference = &ref

	record, err := NewHistory(p)
	require.NoError(t, err)

	assert.NotEmpty(t, record.EID())
	assert.Equal(t, uint(1), record.SubscriptionID())
	assert.Equal(t, HistoryActivated, record.EventType())
	assert.Equal(t, ActorPayment, record.Actor())
	assert.Equal(t, catalog.TierFree, record.OldTier())
	assert.Equal(t, catalog.TierPremium, record.NewTier())
	assert.Equal(t, vo.StatusPending, record.OldStatus())
	assert.Equal(t, vo.StatusActive, record.NewStatus())
	require.NotNil(t, record.PaymentReference())
	assert.Equal(t, ref, *record.PaymentReference())
	assert.False(t, record.CreatedAt().IsZero())
	assert.False(t, record.IsAdminAction())
}

func TestNewHistory_Rejections(t *testing.T) {
	t.Run("zero subscription", func(t *testing.T) {
		p := validHistoryParams()
		p.SubscriptionID = 0
		_, err := NewHistory(p)
		assert.Error(t, err)
	})

	t.Run("missing event type", func(t *testing.T) {
		p := validHistoryParams()
		p.EventType = ""
		_, err := NewHistory(p)
		assert.Error(t, err)
	})

	t.Run("unknown actor", func(t *testing.T) {
		p := validHistoryParams()
		p.Actor = "robot"
		_, err := NewHistory(p)
		assert.Error(t, err)
	})

	t.Run("admin action without reason", func(t *testing.T) {
		p := validHistoryParams()
		p.Actor = ActorAdmin
		_, err := NewHistory(p)
		assert.Error(t, err)

		empty := ""
		p.Reason = &empty
		_, err = NewHistory(p)
		assert.Error(t, err)
	})

	t.Run("admin action with reason", func(t *testing.T) {
		reason := "support escalation"
		p := validHistoryParams()
		p.Actor = ActorAdmin
		p.Reason = &reason
		record, err := NewHistory(p)
		require.NoError(t, err)
		assert.True(t, record.IsAdminAction())
	})
}

func TestHistory_SetID(t *testing.T) {
	record, err := NewHistory(validHistoryParams())
	require.NoError(t, err)

	require.NoError(t, record.SetID(7))
	assert.Equal(t, uint(7), record.ID())

	assert.ErrorIs(t, record.SetID(8), ErrHistoryImmutable)
	assert.Equal(t, uint(7), record.ID())
}

func TestReconstructHistory(t *testing.T) {
	now := time.Now().UTC()
	reason := "grace window elapsed"

	record, err := ReconstructHistory(
		3, "evt_abc", 1,
		HistoryGraceExpired, ActorSystem,
		catalog.TierPremium, catalog.TierFree,
		vo.StatusPastDue, vo.StatusCancelled,
		&reason, nil, now,
	)
	require.NoError(t, err)

	assert.Equal(t, uint(3), record.ID())
	assert.Equal(t, "evt_abc", record.EID())
	assert.Equal(t, HistoryGraceExpired, record.EventType())
	assert.Equal(t, now, record.CreatedAt())

	_, err = ReconstructHistory(0, "evt_abc", 1, HistoryActivated, ActorPayment,
		catalog.TierFree, catalog.TierPremium, vo.StatusPending, vo.StatusActive, nil, nil, now)
	assert.Error(t, err)
}
