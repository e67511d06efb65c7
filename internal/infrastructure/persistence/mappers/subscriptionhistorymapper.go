package mappers

import (
	"fmt"

	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	"github.com/guidepress-io/guidepress/internal/domain/subscription"
	vo "github.com/guidepress-io/guidepress/internal/domain/subscription/valueobjects"
	"github.com/guidepress-io/guidepress/internal/infrastructure/persistence/models"
	"github.com/guidepress-io/guidepress/internal/shared/mapper"
)

type SubscriptionHistoryMapper interface {
	ToEntity(model *models.SubscriptionHistoryModel) (*subscription.History, error)
	ToModel(entity *subscription.History) (*models.SubscriptionHistoryModel, error)
	ToEntities(models []*models.SubscriptionHistoryModel) ([]*subscription.History, error)
}

type SubscriptionHistoryMapperImpl struct{}

func NewSubscriptionHistoryMapper() SubscriptionHistoryMapper {
	return &SubscriptionHistoryMapperImpl{}
}

func (m *SubscriptionHistoryMapperImpl) ToEntity(model *models.SubscriptionHistoryModel) (*subscription.History, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := subscription.ReconstructHistory(
		model.ID,
		model.EID,
		model.SubscriptionID,
		model.EventType,
		subscription.Actor(model.Actor),
		catalog.Tier(model.OldTier),
		catalog.Tier(model.NewTier),
		vo.SubscriptionStatus(model.OldStatus),
		vo.SubscriptionStatus(model.NewStatus),
		model.Reason,
		model.PaymentReference,
		model.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct history entity: %w", err)
	}
	return entity, nil
}

func (m *SubscriptionHistoryMapperImpl) ToModel(entity *subscription.History) (*models.SubscriptionHistoryModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.SubscriptionHistoryModel{
		ID:               entity.ID(),
		EID:              entity.EID(),
		SubscriptionID:   entity.SubscriptionID(),
		EventType:        entity.EventType(),
		Actor:            string(entity.Actor()),
		OldTier:          entity.OldTier().String(),
		NewTier:          entity.NewTier().String(),
		OldStatus:        entity.OldStatus().String(),
		NewStatus:        entity.NewStatus().String(),
		Reason:           entity.Reason(),
		PaymentReference: entity.PaymentReference(),
		CreatedAt:        entity.CreatedAt(),
	}, nil
}

func (m *SubscriptionHistoryMapperImpl) ToEntities(modelList []*models.SubscriptionHistoryModel) ([]*subscription.History, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.SubscriptionHistoryModel) uint { return model.ID })
}
