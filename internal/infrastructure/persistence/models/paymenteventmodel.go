package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/guidepress-io/guidepress/internal/shared/constants"
)

// PaymentEventModel records every processed payment event. The composite
// unique index on (payment_reference, event_type) is what makes event
// application idempotent: a replayed event fails the insert and is skipped.
// Payload keeps the event body for audit and debugging.
type PaymentEventModel struct {
	ID               uint   `gorm:"primarykey"`
	PaymentReference string `gorm:"not null;size:191;uniqueIndex:idx_event_dedup,priority:1"`
	EventType        string `gorm:"not null;size:30;uniqueIndex:idx_event_dedup,priority:2"`
	UserID           uint   `gorm:"not null;index:idx_event_user"`
	Payload          datatypes.JSON
	ProcessedAt      time.Time
}

// TableName specifies the table name for GORM
func (PaymentEventModel) TableName() string {
	return constants.TablePaymentEvents
}
