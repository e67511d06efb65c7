package metering

import (
	"context"

	"github.com/guidepress-io/guidepress/internal/domain/catalog"
)

// CounterRepository is the persistence contract for usage counters. The
// store guarantees atomic, monotonic increments within a period; the
// ceiling guard makes check-and-consume a single linearized operation so
// concurrent requests from the same user cannot overshoot a quota. Limit
// policy itself lives with the caller.
type CounterRepository interface {
	// Peek returns the consumed count for (user, capability, period),
	// zero when no counter exists yet.
	Peek(ctx context.Context, userID uint, capability catalog.Capability, periodKey string) (int64, error)

	// IncrementWithCeiling atomically adds quantity to the counter if and
	// only if the result stays at or under ceiling, creating the counter
	// lazily. It returns the post-increment count and whether the
	// increment was applied. A ceiling of catalog.Unlimited never blocks.
	IncrementWithCeiling(ctx context.Context, userID uint, capability catalog.Capability, periodKey string, quantity, ceiling int64) (int64, bool, error)

	// ListByUserAndPeriod returns all counters a user has in the given
	// period, for usage reporting.
	ListByUserAndPeriod(ctx context.Context, userID uint, periodKey string) ([]*Counter, error)
}
