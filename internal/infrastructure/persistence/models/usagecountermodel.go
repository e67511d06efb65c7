package models

import (
	"time"

	"github.com/guidepress-io/guidepress/internal/shared/constants"
)

// UsageCounterModel is one consumption counter row. The composite unique
// index on (user_id, capability, period_key) lets the repository create
// counters lazily with an insert-ignore and increment them atomically.
type UsageCounterModel struct {
	ID         uint   `gorm:"primarykey"`
	UserID     uint   `gorm:"not null;uniqueIndex:idx_usage_counter,priority:1"`
	Capability string `gorm:"not null;size:50;uniqueIndex:idx_usage_counter,priority:2"`
	PeriodKey  string `gorm:"not null;size:20;uniqueIndex:idx_usage_counter,priority:3"`
	Consumed   int64  `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for GORM
func (UsageCounterModel) TableName() string {
	return constants.TableUsageCounters
}
