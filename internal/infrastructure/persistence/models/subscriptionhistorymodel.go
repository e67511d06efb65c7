package models

import (
	"time"

	"github.com/guidepress-io/guidepress/internal/shared/constants"
)

// SubscriptionHistoryModel is the append-only audit trail of subscription
// transitions. Rows are never updated or deleted.
type SubscriptionHistoryModel struct {
	ID               uint      `gorm:"primarykey"`
	EID              string    `gorm:"uniqueIndex;not null;size:50;comment:Stripe-style ID: evt_xxx"`
	SubscriptionID   uint      `gorm:"not null;index:idx_history_subscription"`
	EventType        string    `gorm:"not null;size:30"`
	Actor            string    `gorm:"not null;size:20;index:idx_history_actor"`
	OldTier          string    `gorm:"not null;size:20"`
	NewTier          string    `gorm:"not null;size:20"`
	OldStatus        string    `gorm:"not null;size:20"`
	NewStatus        string    `gorm:"not null;size:20"`
	Reason           *string   `gorm:"size:500"`
	PaymentReference *string   `gorm:"size:191"`
	CreatedAt        time.Time `gorm:"index:idx_history_created"`
}

// TableName specifies the table name for GORM
func (SubscriptionHistoryModel) TableName() string {
	return constants.TableSubscriptionHistory
}
