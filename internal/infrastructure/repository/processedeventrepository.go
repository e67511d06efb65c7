package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/guidepress-io/guidepress/internal/domain/subscription"
	"github.com/guidepress-io/guidepress/internal/infrastructure/persistence/models"
	"github.com/guidepress-io/guidepress/internal/shared/db"
	apperrors "github.com/guidepress-io/guidepress/internal/shared/errors"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

// ProcessedEventRepositoryImpl deduplicates payment events through the
// unique (payment_reference, event_type) index. The insert either lands,
// meaning this is the first time the event is seen, or collides, meaning a
// replay.
type ProcessedEventRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewProcessedEventRepository(
	gdb *gorm.DB,
	log logger.Interface,
) subscription.ProcessedEventRepository {
	return &ProcessedEventRepositoryImpl{
		db:     gdb,
		logger: log,
	}
}

func (r *ProcessedEventRepositoryImpl) MarkProcessed(ctx context.Context, event subscription.PaymentEvent) (bool, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return false, fmt.Errorf("failed to serialize payment event: %w", err)
	}

	model := &models.PaymentEventModel{
		PaymentReference: event.PaymentReference,
		EventType:        string(event.Type),
		UserID:           event.UserID,
		Payload:          datatypes.JSON(payload),
		ProcessedAt:      time.Now().UTC(),
	}

	result := db.GetTxFromContext(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if result.Error != nil {
		if apperrors.IsDuplicateError(result.Error) {
			return false, nil
		}
		r.logger.Errorw("failed to record payment event",
			"payment_reference", event.PaymentReference,
			"event_type", event.Type,
			"error", result.Error,
		)
		return false, fmt.Errorf("failed to record payment event: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}
