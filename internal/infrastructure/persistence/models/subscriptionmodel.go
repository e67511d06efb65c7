package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/guidepress-io/guidepress/internal/shared/constants"
)

// SubscriptionModel represents the database persistence model for
// subscriptions. This is the anti-corruption layer between domain and
// database.
type SubscriptionModel struct {
	ID                uint   `gorm:"primarykey"`
	SID               string `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: sub_xxx"`
	UserID            uint   `gorm:"uniqueIndex;not null;comment:one subscription per user"`
	Tier              string `gorm:"not null;size:20;default:free"`
	Status            string `gorm:"not null;size:20;index:idx_status"`
	PeriodStart       *time.Time
	PeriodEnd         *time.Time `gorm:"index:idx_period_end"`
	PaymentReference  *string    `gorm:"size:191;index:idx_payment_reference"`
	PendingTier       *string    `gorm:"size:20"`
	CancelAtPeriodEnd bool       `gorm:"not null;default:false"`
	CancelledAt       *time.Time
	CancelReason      *string `gorm:"size:500"`
	Version           int     `gorm:"not null;default:1"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// BeforeCreate hook for GORM
func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
