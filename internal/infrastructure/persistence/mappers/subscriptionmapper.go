package mappers

import (
	"fmt"
	"time"

	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	"github.com/guidepress-io/guidepress/internal/domain/subscription"
	vo "github.com/guidepress-io/guidepress/internal/domain/subscription/valueobjects"
	"github.com/guidepress-io/guidepress/internal/infrastructure/persistence/models"
	"github.com/guidepress-io/guidepress/internal/shared/mapper"
)

type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)
	ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error)
	ToEntities(models []*models.SubscriptionModel) ([]*subscription.Subscription, error)
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	status := vo.SubscriptionStatus(model.Status)
	if !vo.ValidStatuses[status] {
		return nil, fmt.Errorf("invalid subscription status: %s", model.Status)
	}

	tier, err := catalog.ParseTier(model.Tier)
	if err != nil {
		return nil, fmt.Errorf("invalid subscription tier: %w", err)
	}

	var pendingTier catalog.Tier
	if model.PendingTier != nil && *model.PendingTier != "" {
		pendingTier, err = catalog.ParseTier(*model.PendingTier)
		if err != nil {
			return nil, fmt.Errorf("invalid pending tier: %w", err)
		}
	}

	entity, err := subscription.Reconstruct(subscription.ReconstructParams{
		ID:                model.ID,
		SID:               model.SID,
		UserID:            model.UserID,
		Tier:              tier,
		Status:            status,
		PeriodStart:       timeOrZero(model.PeriodStart),
		PeriodEnd:         timeOrZero(model.PeriodEnd),
		PaymentReference:  model.PaymentReference,
		PendingTier:       pendingTier,
		CancelAtPeriodEnd: model.CancelAtPeriodEnd,
		CancelledAt:       model.CancelledAt,
		CancelReason:      model.CancelReason,
		Version:           model.Version,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription entity: %w", err)
	}

	return entity, nil
}

func (m *SubscriptionMapperImpl) ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error) {
	if entity == nil {
		return nil, nil
	}

	var pendingTier *string
	if pt := entity.PendingTier(); pt != "" {
		s := pt.String()
		pendingTier = &s
	}

	return &models.SubscriptionModel{
		ID:                entity.ID(),
		SID:               entity.SID(),
		UserID:            entity.UserID(),
		Tier:              entity.Tier().String(),
		Status:            entity.Status().String(),
		PeriodStart:       zeroToNil(entity.PeriodStart()),
		PeriodEnd:         zeroToNil(entity.PeriodEnd()),
		PaymentReference:  entity.PaymentReference(),
		PendingTier:       pendingTier,
		CancelAtPeriodEnd: entity.CancelAtPeriodEnd(),
		CancelledAt:       entity.CancelledAt(),
		CancelReason:      entity.CancelReason(),
		Version:           entity.Version(),
		CreatedAt:         entity.CreatedAt(),
		UpdatedAt:         entity.UpdatedAt(),
	}, nil
}

func (m *SubscriptionMapperImpl) ToEntities(modelList []*models.SubscriptionModel) ([]*subscription.Subscription, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.SubscriptionModel) uint { return model.ID })
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func zeroToNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
