// Package services contains the membership resolution service backing the
// entitlement evaluator's fast path.
package services

import (
	"context"
	"time"

	subservices "github.com/guidepress-io/guidepress/internal/application/subscription/services"
	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	"github.com/guidepress-io/guidepress/internal/shared/biztime"
	sharedcfg "github.com/guidepress-io/guidepress/internal/shared/config"
	apperrors "github.com/guidepress-io/guidepress/internal/shared/errors"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

// Membership is the resolved view the evaluator decides against: the tier
// whose capability table applies right now and the usage period counters
// are keyed under.
type Membership struct {
	Tier      catalog.Tier
	PeriodKey string
}

// TierResolver resolves a user's effective tier, preferring the cached
// snapshot. A snapshot is only trusted while no lazy lifecycle transition
// is due; once the grace deadline or a deferred cancellation date passes,
// the resolver falls through to the lifecycle service so the transition is
// applied and persisted. Users without a subscription record resolve to
// the free tier without creating one.
type TierResolver struct {
	lifecycle     *subservices.LifecycleService
	cacheManager  subservices.TierCacheManager
	membershipCfg sharedcfg.MembershipConfig
	logger        logger.Interface
}

func NewTierResolver(
	lifecycle *subservices.LifecycleService,
	membershipCfg sharedcfg.MembershipConfig,
	log logger.Interface,
) *TierResolver {
	return &TierResolver{
		lifecycle:     lifecycle,
		membershipCfg: membershipCfg,
		logger:        log,
	}
}

// SetCacheManager wires the optional tier snapshot cache.
func (r *TierResolver) SetCacheManager(manager subservices.TierCacheManager) {
	r.cacheManager = manager
}

// Resolve returns the user's effective membership at the given instant.
func (r *TierResolver) Resolve(ctx context.Context, userID uint, now time.Time) (*Membership, error) {
	if snapshot := r.cachedSnapshot(ctx, userID, now); snapshot != nil {
		return snapshotMembership(snapshot, now), nil
	}

	sub, err := r.lifecycle.CurrentSubscription(ctx, userID)
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			// No subscription record yet: free tier, calendar-month metering.
			return &Membership{Tier: catalog.TierFree, PeriodKey: biztime.MonthKey(now)}, nil
		}
		return nil, err
	}

	snapshot := &subservices.TierSnapshot{
		Tier:              sub.Tier(),
		Status:            sub.Status(),
		PeriodStart:       sub.PeriodStart(),
		PeriodEnd:         sub.PeriodEnd(),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd(),
	}
	r.storeSnapshot(ctx, userID, snapshot)

	return &Membership{Tier: sub.EffectiveTier(), PeriodKey: sub.UsagePeriodKey(now)}, nil
}

func (r *TierResolver) cachedSnapshot(ctx context.Context, userID uint, now time.Time) *subservices.TierSnapshot {
	if r.cacheManager == nil {
		return nil
	}
	snapshot, err := r.cacheManager.GetSnapshot(ctx, userID)
	if err != nil {
		r.logger.Warnw("tier snapshot cache read failed", "user_id", userID, "error", err)
		return nil
	}
	if snapshot == nil || r.transitionDue(snapshot, now) {
		return nil
	}
	return snapshot
}

func (r *TierResolver) storeSnapshot(ctx context.Context, userID uint, snapshot *subservices.TierSnapshot) {
	if r.cacheManager == nil {
		return
	}
	if err := r.cacheManager.SetSnapshot(ctx, userID, snapshot); err != nil {
		r.logger.Warnw("tier snapshot cache write failed", "user_id", userID, "error", err)
	}
}

// transitionDue reports whether a lazy lifecycle transition may have come
// due since the snapshot was cached, in which case it must not be trusted.
func (r *TierResolver) transitionDue(snapshot *subservices.TierSnapshot, now time.Time) bool {
	if !snapshot.Status.HasBillingPeriod() || snapshot.PeriodEnd.IsZero() {
		return false
	}
	if snapshot.CancelAtPeriodEnd && !now.Before(snapshot.PeriodEnd) {
		return true
	}
	graceDeadline := snapshot.PeriodEnd.Add(r.membershipCfg.GraceWindow())
	return !now.Before(graceDeadline)
}

func snapshotMembership(snapshot *subservices.TierSnapshot, now time.Time) *Membership {
	tier := catalog.TierFree
	if snapshot.Status.CanUseService() {
		tier = snapshot.Tier
	}
	periodKey := biztime.MonthKey(now)
	if snapshot.Status.HasBillingPeriod() && !snapshot.PeriodStart.IsZero() {
		periodKey = biztime.DayKey(snapshot.PeriodStart)
	}
	return &Membership{Tier: tier, PeriodKey: periodKey}
}
