// Package services contains application services shared between the
// subscription use cases and the entitlement evaluator.
package services

import (
	"context"
	"fmt"

	"github.com/guidepress-io/guidepress/internal/domain/subscription"
	"github.com/guidepress-io/guidepress/internal/shared/biztime"
	sharedcfg "github.com/guidepress-io/guidepress/internal/shared/config"
	apperrors "github.com/guidepress-io/guidepress/internal/shared/errors"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

// LifecycleService loads subscriptions and applies the lazy, time-driven
// transitions on access: grace-window expiry for past_due subscriptions and
// completion of requested end-of-period cancellations. There is no
// background timer; every read path funnels through here so state is
// always current when a decision is made.
type LifecycleService struct {
	subscriptionRepo subscription.SubscriptionRepository
	historyRepo      subscription.HistoryRepository
	cacheManager     TierCacheManager
	membershipCfg    sharedcfg.MembershipConfig
	logger           logger.Interface
}

func NewLifecycleService(
	subscriptionRepo subscription.SubscriptionRepository,
	historyRepo subscription.HistoryRepository,
	membershipCfg sharedcfg.MembershipConfig,
	log logger.Interface,
) *LifecycleService {
	return &LifecycleService{
		subscriptionRepo: subscriptionRepo,
		historyRepo:      historyRepo,
		membershipCfg:    membershipCfg,
		logger:           log,
	}
}

// SetCacheManager wires the optional tier snapshot cache.
func (s *LifecycleService) SetCacheManager(manager TierCacheManager) {
	s.cacheManager = manager
}

// CurrentSubscription returns the user's subscription with lazy
// transitions applied and persisted. Returns a not-found error when the
// user has no subscription record.
func (s *LifecycleService) CurrentSubscription(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	sub, err := s.subscriptionRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Errorw("failed to load subscription", "user_id", userID, "error", err)
		return nil, apperrors.NewUnavailableError("failed to load subscription", err.Error())
	}
	if sub == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no subscription for user %d", userID))
	}

	if err := s.Refresh(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// EnsureSubscription returns the user's subscription, creating the initial
// none/free record if it does not exist yet.
func (s *LifecycleService) EnsureSubscription(ctx context.Context, userID uint) (*subscription.Subscription, error) {
	sub, err := s.subscriptionRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Errorw("failed to load subscription", "user_id", userID, "error", err)
		return nil, apperrors.NewUnavailableError("failed to load subscription", err.Error())
	}
	if sub != nil {
		if err := s.Refresh(ctx, sub); err != nil {
			return nil, err
		}
		return sub, nil
	}

	sub, err = subscription.NewSubscription(userID)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid user", err.Error())
	}
	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		s.logger.Errorw("failed to create subscription", "user_id", userID, "error", err)
		return nil, apperrors.NewUnavailableError("failed to create subscription", err.Error())
	}

	s.logger.Infow("subscription created", "user_id", userID, "sid", sub.SID())
	return sub, nil
}

// Refresh applies any due lazy transition to an already loaded
// subscription and persists the result.
func (s *LifecycleService) Refresh(ctx context.Context, sub *subscription.Subscription) error {
	now := biztime.NowUTC()
	oldTier := sub.Tier()
	oldStatus := sub.Status()

	expired, err := sub.ExpireGrace(s.membershipCfg.GraceWindow(), now)
	if err != nil {
		return apperrors.NewStateConflictError("grace expiry failed", err.Error())
	}
	if expired {
		if err := s.persistTransition(ctx, sub, subscription.HistoryParams{
			SubscriptionID: sub.ID(),
			EventType:      subscription.HistoryGraceExpired,
			Actor:          subscription.ActorSystem,
			OldTier:        oldTier,
			NewTier:        sub.Tier(),
			OldStatus:      oldStatus,
			NewStatus:      sub.Status(),
		}); err != nil {
			return err
		}
		s.logger.Infow("grace window elapsed, subscription cancelled",
			"subscription_id", sub.ID(),
			"user_id", sub.UserID(),
		)
		return nil
	}

	completed, err := sub.CompleteDeferredCancellation(now)
	if err != nil {
		return apperrors.NewStateConflictError("deferred cancellation failed", err.Error())
	}
	if completed {
		if err := s.persistTransition(ctx, sub, subscription.HistoryParams{
			SubscriptionID: sub.ID(),
			EventType:      subscription.HistoryCancelled,
			Actor:          subscription.ActorSystem,
			OldTier:        oldTier,
			NewTier:        sub.Tier(),
			OldStatus:      oldStatus,
			NewStatus:      sub.Status(),
			Reason:         sub.CancelReason(),
		}); err != nil {
			return err
		}
		s.logger.Infow("deferred cancellation completed",
			"subscription_id", sub.ID(),
			"user_id", sub.UserID(),
		)
	}

	return nil
}

// RecordTransition persists an already mutated subscription together with
// its audit record and invalidates the tier snapshot cache.
func (s *LifecycleService) RecordTransition(ctx context.Context, sub *subscription.Subscription, params subscription.HistoryParams) error {
	return s.persistTransition(ctx, sub, params)
}

// InvalidateCache drops the user's tier snapshot. Errors are logged, not
// returned: a stale snapshot self-corrects via its embedded period fields.
func (s *LifecycleService) InvalidateCache(ctx context.Context, userID uint) {
	if s.cacheManager == nil {
		return
	}
	if err := s.cacheManager.Invalidate(ctx, userID); err != nil {
		s.logger.Warnw("failed to invalidate tier snapshot cache", "user_id", userID, "error", err)
	}
}

func (s *LifecycleService) persistTransition(ctx context.Context, sub *subscription.Subscription, params subscription.HistoryParams) error {
	if err := s.subscriptionRepo.Update(ctx, sub); err != nil {
		s.logger.Errorw("failed to persist subscription transition",
			"subscription_id", sub.ID(),
			"error", err,
		)
		return apperrors.NewUnavailableError("failed to persist subscription", err.Error())
	}

	record, err := subscription.NewHistory(params)
	if err != nil {
		return apperrors.NewInternalError("failed to build audit record", err.Error())
	}
	if err := s.historyRepo.Append(ctx, record); err != nil {
		s.logger.Errorw("failed to append subscription history",
			"subscription_id", sub.ID(),
			"event_type", params.EventType,
			"error", err,
		)
		return apperrors.NewUnavailableError("failed to append history", err.Error())
	}

	s.InvalidateCache(ctx, sub.UserID())
	return nil
}
