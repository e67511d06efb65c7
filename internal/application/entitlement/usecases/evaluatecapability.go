package usecases

import (
	"context"

	"github.com/guidepress-io/guidepress/internal/application/entitlement/dto"
	"github.com/guidepress-io/guidepress/internal/application/entitlement/services"
	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	"github.com/guidepress-io/guidepress/internal/domain/metering"
	"github.com/guidepress-io/guidepress/internal/shared/biztime"
	apperrors "github.com/guidepress-io/guidepress/internal/shared/errors"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

type EvaluateCapabilityCommand struct {
	UserID     uint
	Capability string
	// Quantity is the number of units to consume. Zero peeks without
	// consuming.
	Quantity int64
}

// EvaluateCapabilityUseCase is the entitlement decision point. It resolves
// the user's effective tier, checks the capability table, and for metered
// capabilities atomically consumes quota with the limit as a hard ceiling.
// Any resolution or persistence failure denies the request rather than
// letting usage through unmetered.
type EvaluateCapabilityUseCase struct {
	resolver    *services.TierResolver
	counterRepo metering.CounterRepository
	catalog     *catalog.Catalog
	logger      logger.Interface
}

func NewEvaluateCapabilityUseCase(
	resolver *services.TierResolver,
	counterRepo metering.CounterRepository,
	cat *catalog.Catalog,
	log logger.Interface,
) *EvaluateCapabilityUseCase {
	return &EvaluateCapabilityUseCase{
		resolver:    resolver,
		counterRepo: counterRepo,
		catalog:     cat,
		logger:      log,
	}
}

func (uc *EvaluateCapabilityUseCase) Execute(ctx context.Context, cmd EvaluateCapabilityCommand) (*dto.Decision, error) {
	if cmd.UserID == 0 {
		return nil, apperrors.NewValidationError("user ID is required")
	}
	if cmd.Quantity < 0 {
		return nil, apperrors.NewValidationError("quantity cannot be negative")
	}
	capability := catalog.Capability(cmd.Capability)
	if !uc.catalog.HasCapability(capability) {
		return nil, apperrors.NewValidationError("unknown capability", cmd.Capability)
	}

	now := biztime.NowUTC()
	membership, err := uc.resolver.Resolve(ctx, cmd.UserID, now)
	if err != nil {
		return nil, err
	}
	tier := membership.Tier

	if !uc.catalog.IsAllowed(tier, capability) {
		return dto.Denied(tier.String(), dto.ReasonTierTooLow, nil), nil
	}

	limit := uc.catalog.LimitFor(tier, capability)
	if !uc.catalog.IsMetered(capability) {
		return dto.Allowed(tier.String(), nil), nil
	}

	if cmd.Quantity == 0 {
		return uc.peek(ctx, cmd.UserID, capability, membership.PeriodKey, tier, limit)
	}

	newConsumed, applied, err := uc.counterRepo.IncrementWithCeiling(
		ctx, cmd.UserID, capability, membership.PeriodKey, cmd.Quantity, limit,
	)
	if err != nil {
		uc.logger.Errorw("usage increment failed",
			"user_id", cmd.UserID,
			"capability", capability,
			"period_key", membership.PeriodKey,
			"error", err,
		)
		return nil, apperrors.NewUnavailableError("usage metering unavailable", err.Error())
	}

	if !applied {
		remaining := remainingUnder(limit, newConsumed)
		return dto.Denied(tier.String(), dto.ReasonQuotaExhausted, remaining), nil
	}
	return dto.Allowed(tier.String(), remainingUnder(limit, newConsumed)), nil
}

func (uc *EvaluateCapabilityUseCase) peek(
	ctx context.Context,
	userID uint,
	capability catalog.Capability,
	periodKey string,
	tier catalog.Tier,
	limit int64,
) (*dto.Decision, error) {
	if limit == catalog.Unlimited {
		return dto.Allowed(tier.String(), nil), nil
	}

	consumed, err := uc.counterRepo.Peek(ctx, userID, capability, periodKey)
	if err != nil {
		uc.logger.Errorw("usage peek failed",
			"user_id", userID,
			"capability", capability,
			"period_key", periodKey,
			"error", err,
		)
		return nil, apperrors.NewUnavailableError("usage metering unavailable", err.Error())
	}

	// Peeking consumes nothing, so it is allowed even with zero remaining:
	// consumed+0 never exceeds the limit.
	return dto.Allowed(tier.String(), remainingUnder(limit, consumed)), nil
}

func remainingUnder(limit, consumed int64) *int64 {
	if limit == catalog.Unlimited {
		return nil
	}
	remaining := limit - consumed
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}
