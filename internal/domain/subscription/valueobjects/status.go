package valueobjects

// SubscriptionStatus is the lifecycle state of a membership subscription.
type SubscriptionStatus string

const (
	// StatusNone is the initial state of every user: no paid membership.
	StatusNone SubscriptionStatus = "none"
	// StatusPending means a checkout was initiated and payment confirmation
	// is outstanding.
	StatusPending SubscriptionStatus = "pending"
	// StatusActive means a paid tier is in force for the current period.
	StatusActive SubscriptionStatus = "active"
	// StatusPastDue means the last renewal failed; the tier is retained
	// during the grace window.
	StatusPastDue SubscriptionStatus = "past_due"
	// StatusCancelled means the membership ended; the record is retained
	// for audit and a new checkout may re-enter pending.
	StatusCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

// CanUseService reports whether the status grants the subscription's paid
// tier for entitlement purposes.
func (s SubscriptionStatus) CanUseService() bool {
	return s == StatusActive || s == StatusPastDue
}

// HasBillingPeriod reports whether period start/end carry meaning in this
// status.
func (s SubscriptionStatus) HasBillingPeriod() bool {
	return s == StatusActive || s == StatusPastDue
}

// CanTransitionTo reports whether the lifecycle state machine permits
// moving from s to target. Renewal of an active subscription extends the
// period without a status change and is not represented here.
func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	transitions := map[SubscriptionStatus][]SubscriptionStatus{
		StatusNone:      {StatusPending},
		StatusPending:   {StatusActive, StatusNone},
		StatusActive:    {StatusPastDue, StatusCancelled},
		StatusPastDue:   {StatusActive, StatusCancelled},
		StatusCancelled: {StatusPending},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}

	for _, allowedStatus := range allowed {
		if allowedStatus == target {
			return true
		}
	}
	return false
}

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusNone:      true,
	StatusPending:   true,
	StatusActive:    true,
	StatusPastDue:   true,
	StatusCancelled: true,
}
