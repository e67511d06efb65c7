package usecases

import (
	"context"

	"github.com/guidepress-io/guidepress/internal/application/subscription/services"
	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	"github.com/guidepress-io/guidepress/internal/domain/subscription"
	"github.com/guidepress-io/guidepress/internal/shared/biztime"
	sharedcfg "github.com/guidepress-io/guidepress/internal/shared/config"
	apperrors "github.com/guidepress-io/guidepress/internal/shared/errors"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

type AdminAssignTierCommand struct {
	UserID uint
	Tier   string
	Reason string
}

// AdminAssignTierUseCase applies a manual tier override. It bypasses the
// payment flow (no payment reference, no deduplication) but runs through
// the same aggregate transitions, so the status/tier invariants hold and
// the audit trail marks the record as an admin action.
type AdminAssignTierUseCase struct {
	lifecycle     *services.LifecycleService
	catalog       *catalog.Catalog
	membershipCfg sharedcfg.MembershipConfig
	logger        logger.Interface
}

func NewAdminAssignTierUseCase(
	lifecycle *services.LifecycleService,
	cat *catalog.Catalog,
	membershipCfg sharedcfg.MembershipConfig,
	log logger.Interface,
) *AdminAssignTierUseCase {
	return &AdminAssignTierUseCase{
		lifecycle:     lifecycle,
		catalog:       cat,
		membershipCfg: membershipCfg,
		logger:        log,
	}
}

func (uc *AdminAssignTierUseCase) Execute(ctx context.Context, cmd AdminAssignTierCommand) (*subscription.Subscription, error) {
	tier, err := catalog.ParseTier(cmd.Tier)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid tier", err.Error())
	}
	if cmd.Reason == "" {
		return nil, apperrors.NewValidationError("admin tier assignment requires a reason")
	}

	sub, err := uc.lifecycle.EnsureSubscription(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	now := biztime.NowUTC()
	periodStart := now
	periodEnd := now.Add(uc.membershipCfg.BillingInterval())

	oldTier := sub.Tier()
	oldStatus := sub.Status()

	if err := sub.AssignTier(tier, periodStart, periodEnd, cmd.Reason, now); err != nil {
		uc.logger.Warnw("admin tier assignment rejected",
			"user_id", cmd.UserID,
			"tier", tier,
			"status", sub.Status(),
			"error", err,
		)
		return nil, apperrors.NewStateConflictError("cannot assign tier in current state", err.Error())
	}

	reason := cmd.Reason
	if err := uc.lifecycle.RecordTransition(ctx, sub, subscription.HistoryParams{
		SubscriptionID: sub.ID(),
		EventType:      subscription.HistoryTierAssigned,
		Actor:          subscription.ActorAdmin,
		OldTier:        oldTier,
		NewTier:        sub.Tier(),
		OldStatus:      oldStatus,
		NewStatus:      sub.Status(),
		Reason:         &reason,
	}); err != nil {
		return nil, err
	}

	uc.logger.Infow("admin tier assignment applied",
		"user_id", cmd.UserID,
		"subscription_id", sub.ID(),
		"old_tier", oldTier,
		"new_tier", sub.Tier(),
	)
	return sub, nil
}
