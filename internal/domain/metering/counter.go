// Package metering tracks per-user, per-capability consumption counters
// within a usage period. Counters are created lazily on first consumption
// and never decremented; a period rollover starts a fresh counter under a
// new period key rather than resetting the old row.
package metering

import (
	"errors"
	"time"

	"github.com/guidepress-io/guidepress/internal/domain/catalog"
)

var (
	ErrInvalidPeriodKey = errors.New("period key cannot be empty")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
)

// Counter is one usage counter row: how much of a capability a user has
// consumed within a period.
type Counter struct {
	id         uint
	userID     uint
	capability catalog.Capability
	periodKey  string
	consumed   int64
	updatedAt  time.Time
}

// NewCounter creates a zero counter for (user, capability, period).
func NewCounter(userID uint, capability catalog.Capability, periodKey string) (*Counter, error) {
	if userID == 0 {
		return nil, errors.New("user ID cannot be zero")
	}
	if capability == "" {
		return nil, errors.New("capability cannot be empty")
	}
	if periodKey == "" {
		return nil, ErrInvalidPeriodKey
	}

	return &Counter{
		userID:     userID,
		capability: capability,
		periodKey:  periodKey,
		updatedAt:  time.Now().UTC(),
	}, nil
}

// ReconstructCounter rebuilds a counter from persistence.
func ReconstructCounter(
	counterID, userID uint,
	capability catalog.Capability,
	periodKey string,
	consumed int64,
	updatedAt time.Time,
) (*Counter, error) {
	if counterID == 0 {
		return nil, errors.New("counter ID cannot be zero")
	}
	if userID == 0 {
		return nil, errors.New("user ID cannot be zero")
	}
	if periodKey == "" {
		return nil, ErrInvalidPeriodKey
	}
	if consumed < 0 {
		return nil, errors.New("consumed count cannot be negative")
	}

	return &Counter{
		id:         counterID,
		userID:     userID,
		capability: capability,
		periodKey:  periodKey,
		consumed:   consumed,
		updatedAt:  updatedAt,
	}, nil
}

func (c *Counter) ID() uint                       { return c.id }
func (c *Counter) UserID() uint                   { return c.userID }
func (c *Counter) Capability() catalog.Capability { return c.capability }
func (c *Counter) PeriodKey() string              { return c.periodKey }
func (c *Counter) Consumed() int64                { return c.consumed }
func (c *Counter) UpdatedAt() time.Time           { return c.updatedAt }

// Remaining computes what is left under the given limit, never negative.
// Unlimited capabilities have no meaningful remaining figure.
func (c *Counter) Remaining(limit int64) int64 {
	if limit == catalog.Unlimited {
		return catalog.Unlimited
	}
	if c.consumed >= limit {
		return 0
	}
	return limit - c.consumed
}
