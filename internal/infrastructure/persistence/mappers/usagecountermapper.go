package mappers

import (
	"fmt"

	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	"github.com/guidepress-io/guidepress/internal/domain/metering"
	"github.com/guidepress-io/guidepress/internal/infrastructure/persistence/models"
	"github.com/guidepress-io/guidepress/internal/shared/mapper"
)

type UsageCounterMapper interface {
	ToEntity(model *models.UsageCounterModel) (*metering.Counter, error)
	ToEntities(models []*models.UsageCounterModel) ([]*metering.Counter, error)
}

type UsageCounterMapperImpl struct{}

func NewUsageCounterMapper() UsageCounterMapper {
	return &UsageCounterMapperImpl{}
}

func (m *UsageCounterMapperImpl) ToEntity(model *models.UsageCounterModel) (*metering.Counter, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := metering.ReconstructCounter(
		model.ID,
		model.UserID,
		catalog.Capability(model.Capability),
		model.PeriodKey,
		model.Consumed,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct usage counter: %w", err)
	}
	return entity, nil
}

func (m *UsageCounterMapperImpl) ToEntities(modelList []*models.UsageCounterModel) ([]*metering.Counter, error) {
	return mapper.MapSlicePtrWithID(modelList, m.ToEntity, func(model *models.UsageCounterModel) uint { return model.ID })
}
