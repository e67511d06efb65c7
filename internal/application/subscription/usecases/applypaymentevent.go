package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/guidepress-io/guidepress/internal/application/subscription/services"
	"github.com/guidepress-io/guidepress/internal/domain/subscription"
	vo "github.com/guidepress-io/guidepress/internal/domain/subscription/valueobjects"
	"github.com/guidepress-io/guidepress/internal/shared/biztime"
	sharedcfg "github.com/guidepress-io/guidepress/internal/shared/config"
	apperrors "github.com/guidepress-io/guidepress/internal/shared/errors"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

// ApplyPaymentEventUseCase consumes the payment provider's event feed and
// drives the subscription state machine. Delivery is at-least-once, so
// every event is deduplicated by (payment reference, type) before it is
// applied; a replay is a silent no-op with the same end state as a single
// application.
type ApplyPaymentEventUseCase struct {
	subscriptionRepo   subscription.SubscriptionRepository
	processedEventRepo subscription.ProcessedEventRepository
	lifecycle          *services.LifecycleService
	txRunner           services.TransactionRunner
	membershipCfg      sharedcfg.MembershipConfig
	logger             logger.Interface
}

func NewApplyPaymentEventUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	processedEventRepo subscription.ProcessedEventRepository,
	lifecycle *services.LifecycleService,
	txRunner services.TransactionRunner,
	membershipCfg sharedcfg.MembershipConfig,
	log logger.Interface,
) *ApplyPaymentEventUseCase {
	return &ApplyPaymentEventUseCase{
		subscriptionRepo:   subscriptionRepo,
		processedEventRepo: processedEventRepo,
		lifecycle:          lifecycle,
		txRunner:           txRunner,
		membershipCfg:      membershipCfg,
		logger:             log,
	}
}

func (uc *ApplyPaymentEventUseCase) Execute(ctx context.Context, event subscription.PaymentEvent) error {
	if err := event.Validate(); err != nil {
		uc.logger.Warnw("rejected malformed payment event",
			"event_type", event.Type,
			"payment_reference", event.PaymentReference,
			"error", err,
		)
		return apperrors.NewValidationError("invalid payment event", err.Error())
	}

	apply := func(txCtx context.Context) error {
		firstSeen, err := uc.processedEventRepo.MarkProcessed(txCtx, event)
		if err != nil {
			uc.logger.Errorw("failed to record payment event",
				"payment_reference", event.PaymentReference,
				"error", err,
			)
			return apperrors.NewUnavailableError("failed to record payment event", err.Error())
		}
		if !firstSeen {
			uc.logger.Infow("duplicate payment event ignored",
				"event_type", event.Type,
				"payment_reference", event.PaymentReference,
			)
			return nil
		}

		sub, err := uc.subscriptionRepo.GetByUserID(txCtx, event.UserID)
		if err != nil {
			return apperrors.NewUnavailableError("failed to load subscription", err.Error())
		}
		if sub == nil {
			return apperrors.NewNotFoundError(fmt.Sprintf("no subscription for user %d", event.UserID))
		}

		return uc.applyToSubscription(txCtx, sub, event)
	}

	if uc.txRunner != nil {
		return uc.txRunner.RunInTransaction(ctx, apply)
	}
	return apply(ctx)
}

func (uc *ApplyPaymentEventUseCase) applyToSubscription(ctx context.Context, sub *subscription.Subscription, event subscription.PaymentEvent) error {
	now := biztime.NowUTC()
	oldTier := sub.Tier()
	oldStatus := sub.Status()
	ref := event.PaymentReference

	var eventType string
	var actor = subscription.ActorPayment
	var reason *string

	switch event.Type {
	case subscription.EventCheckoutConfirmed:
		if err := sub.ConfirmCheckout(event.Tier, now, event.PeriodEnd, ref); err != nil {
			return uc.transitionError(sub, event, err)
		}
		eventType = subscription.HistoryActivated

	case subscription.EventCheckoutFailed:
		if err := sub.FailCheckout(); err != nil {
			return uc.transitionError(sub, event, err)
		}
		eventType = subscription.HistoryCheckoutFailed

	case subscription.EventRenewalConfirmed:
		recovering := sub.Status() == vo.StatusPastDue
		if err := sub.ConfirmRenewal(event.PeriodEnd); err != nil {
			return uc.transitionError(sub, event, err)
		}
		if recovering {
			eventType = subscription.HistoryRecovered
		} else {
			eventType = subscription.HistoryRenewed
		}

	case subscription.EventRenewalFailed:
		if err := sub.FailRenewal(); err != nil {
			return uc.transitionError(sub, event, err)
		}
		eventType = subscription.HistoryRenewalFailed

	case subscription.EventCancelled:
		r := "cancelled by payment provider"
		reason = &r
		if uc.membershipCfg.CancellationMode == sharedcfg.CancellationPeriodEnd && sub.Status().HasBillingPeriod() {
			if err := sub.RequestCancellation(r); err != nil {
				return uc.transitionError(sub, event, err)
			}
			eventType = subscription.HistoryCancelRequested
		} else {
			if err := sub.Cancel(r, now); err != nil {
				return uc.transitionError(sub, event, err)
			}
			eventType = subscription.HistoryCancelled
		}

	default:
		return apperrors.NewValidationError(fmt.Sprintf("unsupported payment event type: %s", event.Type))
	}

	if err := uc.lifecycle.RecordTransition(ctx, sub, subscription.HistoryParams{
		SubscriptionID:   sub.ID(),
		EventType:        eventType,
		Actor:            actor,
		OldTier:          oldTier,
		NewTier:          sub.Tier(),
		OldStatus:        oldStatus,
		NewStatus:        sub.Status(),
		Reason:           reason,
		PaymentReference: &ref,
	}); err != nil {
		return err
	}

	uc.logger.Infow("payment event applied",
		"event_type", event.Type,
		"payment_reference", ref,
		"subscription_id", sub.ID(),
		"old_status", oldStatus,
		"new_status", sub.Status(),
		"tier", sub.Tier(),
	)
	return nil
}

func (uc *ApplyPaymentEventUseCase) transitionError(sub *subscription.Subscription, event subscription.PaymentEvent, err error) error {
	uc.logger.Errorw("payment event rejected by state machine",
		"event_type", event.Type,
		"payment_reference", event.PaymentReference,
		"subscription_id", sub.ID(),
		"status", sub.Status(),
		"error", err,
	)
	if errors.Is(err, subscription.ErrInvalidTransition) || errors.Is(err, subscription.ErrPaymentReferenceMismatch) {
		return apperrors.NewStateConflictError("payment event invalid for current subscription state", err.Error())
	}
	return apperrors.NewValidationError("payment event rejected", err.Error())
}
