// Package dto defines the transport shapes returned by the subscription
// use cases.
package dto

import "time"

// SubscriptionInfo is the external view of a subscription.
type SubscriptionInfo struct {
	SID               string     `json:"sid"`
	Tier              string     `json:"tier"`
	EffectiveTier     string     `json:"effective_tier"`
	Status            string     `json:"status"`
	PeriodStart       *time.Time `json:"period_start,omitempty"`
	PeriodEnd         *time.Time `json:"period_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	CancelReason      *string    `json:"cancel_reason,omitempty"`
}

// UsageEntry reports consumption against one metered capability in the
// current usage period. Limit -1 means unlimited, in which case Remaining
// is omitted.
type UsageEntry struct {
	Capability string `json:"capability"`
	Consumed   int64  `json:"consumed"`
	Limit      int64  `json:"limit"`
	Remaining  *int64 `json:"remaining,omitempty"`
}

// AuditEntry is one record of the subscription's transition history.
type AuditEntry struct {
	EID              string    `json:"eid"`
	EventType        string    `json:"event_type"`
	Actor            string    `json:"actor"`
	AdminAction      bool      `json:"admin_action"`
	OldTier          string    `json:"old_tier"`
	NewTier          string    `json:"new_tier"`
	OldStatus        string    `json:"old_status"`
	NewStatus        string    `json:"new_status"`
	Reason           *string   `json:"reason,omitempty"`
	PaymentReference *string   `json:"payment_reference,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// MembershipReport aggregates catalog, lifecycle, and metering data for a
// single user, for the admin back-office and the account page.
type MembershipReport struct {
	UserID       uint             `json:"user_id"`
	Subscription SubscriptionInfo `json:"subscription"`
	UsagePeriod  string           `json:"usage_period"`
	Usage        []UsageEntry     `json:"usage"`
	History      []AuditEntry     `json:"history"`
}
