package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	"github.com/guidepress-io/guidepress/internal/domain/metering"
	"github.com/guidepress-io/guidepress/internal/infrastructure/persistence/mappers"
	"github.com/guidepress-io/guidepress/internal/infrastructure/persistence/models"
	"github.com/guidepress-io/guidepress/internal/shared/db"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

// UsageCounterRepositoryImpl implements the atomic check-and-consume
// contract on top of a guarded UPDATE: the increment only lands when the
// post-increment count stays at or under the ceiling, so concurrent
// consumers cannot overshoot a quota.
type UsageCounterRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.UsageCounterMapper
	logger logger.Interface
}

func NewUsageCounterRepository(
	gdb *gorm.DB,
	log logger.Interface,
) metering.CounterRepository {
	return &UsageCounterRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewUsageCounterMapper(),
		logger: log,
	}
}

func (r *UsageCounterRepositoryImpl) Peek(ctx context.Context, userID uint, capability catalog.Capability, periodKey string) (int64, error) {
	var model models.UsageCounterModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ? AND capability = ? AND period_key = ?", userID, capability.String(), periodKey).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		r.logger.Errorw("failed to read usage counter",
			"user_id", userID,
			"capability", capability,
			"period_key", periodKey,
			"error", err,
		)
		return 0, fmt.Errorf("failed to read usage counter: %w", err)
	}

	return model.Consumed, nil
}

func (r *UsageCounterRepositoryImpl) IncrementWithCeiling(
	ctx context.Context,
	userID uint,
	capability catalog.Capability,
	periodKey string,
	quantity, ceiling int64,
) (int64, bool, error) {
	if quantity <= 0 {
		return 0, false, metering.ErrInvalidQuantity
	}

	gdb := db.GetTxFromContext(ctx, r.db)

	// Create the counter row lazily. The insert-ignore keeps this safe
	// under concurrency: only one of the racing requests creates the row,
	// the rest fall through to the guarded update.
	seed := &models.UsageCounterModel{
		UserID:     userID,
		Capability: capability.String(),
		PeriodKey:  periodKey,
	}
	if err := gdb.Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		r.logger.Errorw("failed to create usage counter",
			"user_id", userID,
			"capability", capability,
			"period_key", periodKey,
			"error", err,
		)
		return 0, false, fmt.Errorf("failed to create usage counter: %w", err)
	}

	query := gdb.Model(&models.UsageCounterModel{}).
		Where("user_id = ? AND capability = ? AND period_key = ?", userID, capability.String(), periodKey)
	if ceiling != catalog.Unlimited {
		query = query.Where("consumed + ? <= ?", quantity, ceiling)
	}
	result := query.UpdateColumn("consumed", gorm.Expr("consumed + ?", quantity))
	if result.Error != nil {
		r.logger.Errorw("failed to increment usage counter",
			"user_id", userID,
			"capability", capability,
			"period_key", periodKey,
			"error", result.Error,
		)
		return 0, false, fmt.Errorf("failed to increment usage counter: %w", result.Error)
	}

	applied := result.RowsAffected > 0
	consumed, err := r.Peek(ctx, userID, capability, periodKey)
	if err != nil {
		return 0, false, err
	}
	return consumed, applied, nil
}

func (r *UsageCounterRepositoryImpl) ListByUserAndPeriod(ctx context.Context, userID uint, periodKey string) ([]*metering.Counter, error) {
	var modelList []*models.UsageCounterModel

	err := db.GetTxFromContext(ctx, r.db).
		Where("user_id = ? AND period_key = ?", userID, periodKey).
		Order("capability ASC").
		Find(&modelList).Error
	if err != nil {
		r.logger.Errorw("failed to list usage counters", "user_id", userID, "period_key", periodKey, "error", err)
		return nil, fmt.Errorf("failed to list usage counters: %w", err)
	}

	entities, err := r.mapper.ToEntities(modelList)
	if err != nil {
		r.logger.Errorw("failed to map usage counters", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to map usage counters: %w", err)
	}
	return entities, nil
}
