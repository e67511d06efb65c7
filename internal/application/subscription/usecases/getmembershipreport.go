package usecases

import (
	"context"

	"github.com/guidepress-io/guidepress/internal/application/subscription/dto"
	"github.com/guidepress-io/guidepress/internal/application/subscription/services"
	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	"github.com/guidepress-io/guidepress/internal/domain/metering"
	"github.com/guidepress-io/guidepress/internal/domain/subscription"
	"github.com/guidepress-io/guidepress/internal/shared/biztime"
	apperrors "github.com/guidepress-io/guidepress/internal/shared/errors"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

const defaultHistoryLimit = 50

type GetMembershipReportQuery struct {
	UserID uint
}

// GetMembershipReportUseCase assembles the read-only membership report:
// current subscription state, consumption against every metered capability
// in the current usage period, and the audit trail with admin markers.
type GetMembershipReportUseCase struct {
	lifecycle   *services.LifecycleService
	historyRepo subscription.HistoryRepository
	counterRepo metering.CounterRepository
	catalog     *catalog.Catalog
	logger      logger.Interface
}

func NewGetMembershipReportUseCase(
	lifecycle *services.LifecycleService,
	historyRepo subscription.HistoryRepository,
	counterRepo metering.CounterRepository,
	cat *catalog.Catalog,
	log logger.Interface,
) *GetMembershipReportUseCase {
	return &GetMembershipReportUseCase{
		lifecycle:   lifecycle,
		historyRepo: historyRepo,
		counterRepo: counterRepo,
		catalog:     cat,
		logger:      log,
	}
}

func (uc *GetMembershipReportUseCase) Execute(ctx context.Context, query GetMembershipReportQuery) (*dto.MembershipReport, error) {
	sub, err := uc.lifecycle.CurrentSubscription(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	now := biztime.NowUTC()
	periodKey := sub.UsagePeriodKey(now)
	tier := sub.EffectiveTier()

	counters, err := uc.counterRepo.ListByUserAndPeriod(ctx, query.UserID, periodKey)
	if err != nil {
		uc.logger.Errorw("failed to load usage counters", "user_id", query.UserID, "error", err)
		return nil, apperrors.NewUnavailableError("failed to load usage counters", err.Error())
	}

	consumedByCapability := make(map[catalog.Capability]int64, len(counters))
	for _, counter := range counters {
		consumedByCapability[counter.Capability()] = counter.Consumed()
	}

	var usage []dto.UsageEntry
	for _, capability := range uc.catalog.Capabilities() {
		if !uc.catalog.IsMetered(capability) {
			continue
		}
		limit := uc.catalog.LimitFor(tier, capability)
		entry := dto.UsageEntry{
			Capability: capability.String(),
			Consumed:   consumedByCapability[capability],
			Limit:      limit,
		}
		if limit != catalog.Unlimited {
			remaining := limit - entry.Consumed
			if remaining < 0 {
				remaining = 0
			}
			entry.Remaining = &remaining
		}
		usage = append(usage, entry)
	}

	records, err := uc.historyRepo.ListBySubscriptionID(ctx, sub.ID(), defaultHistoryLimit)
	if err != nil {
		uc.logger.Errorw("failed to load subscription history", "subscription_id", sub.ID(), "error", err)
		return nil, apperrors.NewUnavailableError("failed to load subscription history", err.Error())
	}

	history := make([]dto.AuditEntry, 0, len(records))
	for _, record := range records {
		history = append(history, dto.AuditEntry{
			EID:              record.EID(),
			EventType:        record.EventType(),
			Actor:            string(record.Actor()),
			AdminAction:      record.IsAdminAction(),
			OldTier:          record.OldTier().String(),
			NewTier:          record.NewTier().String(),
			OldStatus:        record.OldStatus().String(),
			NewStatus:        record.NewStatus().String(),
			Reason:           record.Reason(),
			PaymentReference: record.PaymentReference(),
			CreatedAt:        record.CreatedAt(),
		})
	}

	return &dto.MembershipReport{
		UserID:       query.UserID,
		Subscription: toSubscriptionInfo(sub),
		UsagePeriod:  periodKey,
		Usage:        usage,
		History:      history,
	}, nil
}

func toSubscriptionInfo(sub *subscription.Subscription) dto.SubscriptionInfo {
	info := dto.SubscriptionInfo{
		SID:               sub.SID(),
		Tier:              sub.Tier().String(),
		EffectiveTier:     sub.EffectiveTier().String(),
		Status:            sub.Status().String(),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd(),
		CancelledAt:       sub.CancelledAt(),
		CancelReason:      sub.CancelReason(),
	}
	if sub.Status().HasBillingPeriod() {
		start := sub.PeriodStart()
		end := sub.PeriodEnd()
		info.PeriodStart = &start
		info.PeriodEnd = &end
	}
	return info
}
