package metering

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidepress-io/guidepress/internal/domain/catalog"
)

func TestNewCounter(t *testing.T) {
	c, err := NewCounter(1, catalog.CapabilityAIRequests, "2026-03")
	require.NoError(t, err)

	assert.Equal(t, uint(1), c.UserID())
	assert.Equal(t, catalog.CapabilityAIRequests, c.Capability())
	assert.Equal(t, "2026-03", c.PeriodKey())
	assert.Zero(t, c.Consumed())
}

func TestNewCounter_Rejections(t *testing.T) {
	_, err := NewCounter(0, catalog.CapabilityAIRequests, "2026-03")
	assert.Error(t, err)

	_, err = NewCounter(1, "", "2026-03")
	assert.Error(t, err)

	_, err = NewCounter(1, catalog.CapabilityAIRequests, "")
	assert.ErrorIs(t, err, ErrInvalidPeriodKey)
}

func TestReconstructCounter(t *testing.T) {
	now := time.Now().UTC()

	c, err := ReconstructCounter(5, 1, catalog.CapabilityGuideDownloads, "2026-03-15", 7, now)
	require.NoError(t, err)
	assert.Equal(t, uint(5), c.ID())
	assert.Equal(t, int64(7), c.Consumed())

	_, err = ReconstructCounter(0, 1, catalog.CapabilityGuideDownloads, "2026-03-15", 7, now)
	assert.Error(t, err)

	_, err = ReconstructCounter(5, 1, catalog.CapabilityGuideDownloads, "2026-03-15", -1, now)
	assert.Error(t, err)
}

func TestCounter_Remaining(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name     string
		consumed int64
		limit    int64
		want     int64
	}{
		{"untouched quota", 0, 50, 50},
		{"partially consumed", 30, 50, 20},
		{"exactly exhausted", 50, 50, 0},
		{"over limit clamps to zero", 60, 50, 0},
		{"unlimited passes through", 1000, catalog.Unlimited, catalog.Unlimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ReconstructCounter(1, 1, catalog.CapabilityAIRequests, "2026-03", tt.consumed, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Remaining(tt.limit))
		})
	}
}
