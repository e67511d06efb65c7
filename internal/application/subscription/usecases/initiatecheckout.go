package usecases

import (
	"context"

	"github.com/guidepress-io/guidepress/internal/application/subscription/services"
	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	"github.com/guidepress-io/guidepress/internal/domain/subscription"
	apperrors "github.com/guidepress-io/guidepress/internal/shared/errors"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

type InitiateCheckoutCommand struct {
	UserID           uint
	Tier             string
	PaymentReference string
}

// InitiateCheckoutUseCase moves a subscription into pending when the user
// opens a payment session for a paid tier. The external payment reference
// is recorded so the later confirmation event can be matched against it.
type InitiateCheckoutUseCase struct {
	lifecycle *services.LifecycleService
	catalog   *catalog.Catalog
	logger    logger.Interface
}

func NewInitiateCheckoutUseCase(
	lifecycle *services.LifecycleService,
	cat *catalog.Catalog,
	log logger.Interface,
) *InitiateCheckoutUseCase {
	return &InitiateCheckoutUseCase{
		lifecycle: lifecycle,
		catalog:   cat,
		logger:    log,
	}
}

func (uc *InitiateCheckoutUseCase) Execute(ctx context.Context, cmd InitiateCheckoutCommand) (*subscription.Subscription, error) {
	tier, err := catalog.ParseTier(cmd.Tier)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid tier", err.Error())
	}
	if !tier.IsPaid() {
		return nil, apperrors.NewValidationError("checkout requires a paid tier")
	}
	if cmd.PaymentReference == "" {
		return nil, apperrors.NewValidationError("payment reference is required")
	}

	sub, err := uc.lifecycle.EnsureSubscription(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	oldTier := sub.Tier()
	oldStatus := sub.Status()

	if err := sub.StartCheckout(tier, cmd.PaymentReference); err != nil {
		uc.logger.Warnw("checkout rejected",
			"user_id", cmd.UserID,
			"status", sub.Status(),
			"error", err,
		)
		return nil, apperrors.NewStateConflictError("cannot start checkout in current state", err.Error())
	}

	ref := cmd.PaymentReference
	if err := uc.lifecycle.RecordTransition(ctx, sub, subscription.HistoryParams{
		SubscriptionID:   sub.ID(),
		EventType:        subscription.HistoryCheckoutStarted,
		Actor:            subscription.ActorUser,
		OldTier:          oldTier,
		NewTier:          sub.Tier(),
		OldStatus:        oldStatus,
		NewStatus:        sub.Status(),
		PaymentReference: &ref,
	}); err != nil {
		return nil, err
	}

	uc.logger.Infow("checkout initiated",
		"user_id", cmd.UserID,
		"subscription_id", sub.ID(),
		"tier", tier,
		"payment_reference", cmd.PaymentReference,
	)
	return sub, nil
}
