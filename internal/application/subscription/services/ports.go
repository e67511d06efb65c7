package services

import (
	"context"
	"time"

	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	vo "github.com/guidepress-io/guidepress/internal/domain/subscription/valueobjects"
)

// TierSnapshot is the cached view of a user's membership that the
// entitlement evaluator reads on its fast path. It carries enough state to
// detect when a lazy lifecycle transition (grace expiry, deferred
// cancellation) may be due, in which case the cache is bypassed.
type TierSnapshot struct {
	Tier              catalog.Tier
	Status            vo.SubscriptionStatus
	PeriodStart       time.Time
	PeriodEnd         time.Time
	CancelAtPeriodEnd bool
}

// TierCacheManager is the cache port for tier snapshots. Every lifecycle
// transition invalidates the user's entry; a nil manager disables caching.
type TierCacheManager interface {
	GetSnapshot(ctx context.Context, userID uint) (*TierSnapshot, error)
	SetSnapshot(ctx context.Context, userID uint, snapshot *TierSnapshot) error
	Invalidate(ctx context.Context, userID uint) error
}

// TransactionRunner executes a function within a persistence transaction.
// Satisfied by db.TransactionManager.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
