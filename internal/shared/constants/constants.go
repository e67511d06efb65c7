// Package constants holds shared database table names.
package constants

const (
	TableSubscriptions       = "subscriptions"
	TableSubscriptionHistory = "subscription_history"
	TablePaymentEvents       = "payment_events"
	TableUsageCounters       = "usage_counters"
)
