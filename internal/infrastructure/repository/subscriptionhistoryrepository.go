package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/guidepress-io/guidepress/internal/domain/subscription"
	"github.com/guidepress-io/guidepress/internal/infrastructure/persistence/mappers"
	"github.com/guidepress-io/guidepress/internal/infrastructure/persistence/models"
	"github.com/guidepress-io/guidepress/internal/shared/db"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

type SubscriptionHistoryRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionHistoryMapper
	logger logger.Interface
}

func NewSubscriptionHistoryRepository(
	gdb *gorm.DB,
	log logger.Interface,
) subscription.HistoryRepository {
	return &SubscriptionHistoryRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewSubscriptionHistoryMapper(),
		logger: log,
	}
}

func (r *SubscriptionHistoryRepositoryImpl) Append(ctx context.Context, record *subscription.History) error {
	model, err := r.mapper.ToModel(record)
	if err != nil {
		r.logger.Errorw("failed to map history entity to model", "error", err)
		return fmt.Errorf("failed to map history entity: %w", err)
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to append subscription history",
			"subscription_id", model.SubscriptionID,
			"event_type", model.EventType,
			"error", err,
		)
		return fmt.Errorf("failed to append history: %w", err)
	}

	if err := record.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set history ID: %w", err)
	}
	return nil
}

func (r *SubscriptionHistoryRepositoryImpl) ListBySubscriptionID(ctx context.Context, subscriptionID uint, limit int) ([]*subscription.History, error) {
	var modelList []*models.SubscriptionHistoryModel

	query := db.GetTxFromContext(ctx, r.db).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&modelList).Error; err != nil {
		r.logger.Errorw("failed to list subscription history", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	entities, err := r.mapper.ToEntities(modelList)
	if err != nil {
		r.logger.Errorw("failed to map history models", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to map history: %w", err)
	}
	return entities, nil
}
