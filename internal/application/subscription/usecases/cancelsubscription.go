package usecases

import (
	"context"

	"github.com/guidepress-io/guidepress/internal/application/subscription/services"
	"github.com/guidepress-io/guidepress/internal/domain/subscription"
	"github.com/guidepress-io/guidepress/internal/shared/biztime"
	sharedcfg "github.com/guidepress-io/guidepress/internal/shared/config"
	apperrors "github.com/guidepress-io/guidepress/internal/shared/errors"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

type CancelSubscriptionCommand struct {
	UserID uint
	Reason string
	Actor  subscription.Actor
	// Immediate overrides the configured cancellation mode when set.
	Immediate *bool
}

// CancelSubscriptionUseCase ends a membership on user or admin request.
// The configured cancellation mode decides whether the tier drops
// immediately or at the end of the paid period; either way the transition
// runs through the same state machine as payment-driven cancellations.
type CancelSubscriptionUseCase struct {
	lifecycle     *services.LifecycleService
	membershipCfg sharedcfg.MembershipConfig
	logger        logger.Interface
}

func NewCancelSubscriptionUseCase(
	lifecycle *services.LifecycleService,
	membershipCfg sharedcfg.MembershipConfig,
	log logger.Interface,
) *CancelSubscriptionUseCase {
	return &CancelSubscriptionUseCase{
		lifecycle:     lifecycle,
		membershipCfg: membershipCfg,
		logger:        log,
	}
}

func (uc *CancelSubscriptionUseCase) Execute(ctx context.Context, cmd CancelSubscriptionCommand) error {
	if cmd.Reason == "" {
		return apperrors.NewValidationError("cancellation reason is required")
	}
	actor := cmd.Actor
	if actor == "" {
		actor = subscription.ActorUser
	}
	if actor == subscription.ActorAdmin && cmd.Reason == "" {
		return apperrors.NewValidationError("admin cancellation requires a reason")
	}

	sub, err := uc.lifecycle.CurrentSubscription(ctx, cmd.UserID)
	if err != nil {
		return err
	}

	immediate := uc.membershipCfg.CancellationMode != sharedcfg.CancellationPeriodEnd
	if cmd.Immediate != nil {
		immediate = *cmd.Immediate
	}

	oldTier := sub.Tier()
	oldStatus := sub.Status()
	reason := cmd.Reason

	var eventType string
	if immediate || !sub.Status().HasBillingPeriod() {
		if err := sub.Cancel(reason, biztime.NowUTC()); err != nil {
			return apperrors.NewStateConflictError("cannot cancel in current state", err.Error())
		}
		eventType = subscription.HistoryCancelled
	} else {
		if err := sub.RequestCancellation(reason); err != nil {
			return apperrors.NewStateConflictError("cannot request cancellation in current state", err.Error())
		}
		eventType = subscription.HistoryCancelRequested
	}

	if err := uc.lifecycle.RecordTransition(ctx, sub, subscription.HistoryParams{
		SubscriptionID: sub.ID(),
		EventType:      eventType,
		Actor:          actor,
		OldTier:        oldTier,
		NewTier:        sub.Tier(),
		OldStatus:      oldStatus,
		NewStatus:      sub.Status(),
		Reason:         &reason,
	}); err != nil {
		return err
	}

	uc.logger.Infow("subscription cancellation processed",
		"user_id", cmd.UserID,
		"subscription_id", sub.ID(),
		"immediate", immediate,
		"actor", actor,
	)
	return nil
}
