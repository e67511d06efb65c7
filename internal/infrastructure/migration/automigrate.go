package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/guidepress-io/guidepress/internal/infrastructure/persistence/models"
	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

// GormAutoMigrateStrategy lets gorm derive the schema from the model
// structs. Used for development and SQLite test databases; production runs
// versioned SQL scripts.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy() Strategy {
	return &GormAutoMigrateStrategy{
		logger: logger.NewLogger().With("component", "migration.automigrate"),
	}
}

func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB, modelList ...interface{}) error {
	if len(modelList) == 0 {
		modelList = AllModels()
	}

	s.logger.Infow("starting gorm auto migration", "models_count", len(modelList))

	if err := db.AutoMigrate(modelList...); err != nil {
		s.logger.Errorw("auto migration failed", "error", err)
		return fmt.Errorf("auto migration failed: %w", err)
	}

	s.logger.Infow("auto migration completed successfully")
	return nil
}

func (s *GormAutoMigrateStrategy) GetName() string {
	return "gorm_auto_migrate"
}

// AllModels lists every persistence model the schema consists of.
func AllModels() []interface{} {
	return []interface{}{
		&models.SubscriptionModel{},
		&models.SubscriptionHistoryModel{},
		&models.PaymentEventModel{},
		&models.UsageCounterModel{},
	}
}
