package subscription

import "context"

// SubscriptionRepository persists the subscription aggregate. Lookups
// return (nil, nil) when no record exists; callers decide whether that is
// a not-found error.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id uint) (*Subscription, error)
	GetBySID(ctx context.Context, sid string) (*Subscription, error)
	GetByUserID(ctx context.Context, userID uint) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
}

// HistoryRepository persists the append-only audit trail.
type HistoryRepository interface {
	Append(ctx context.Context, record *History) error
	ListBySubscriptionID(ctx context.Context, subscriptionID uint, limit int) ([]*History, error)
}

// ProcessedEventRepository tracks which payment events have already been
// applied, keyed by (payment reference, event type). MarkProcessed returns
// false when the event was seen before, which callers treat as an
// idempotent replay and skip without error. The full event is retained for
// audit and debugging.
type ProcessedEventRepository interface {
	MarkProcessed(ctx context.Context, event PaymentEvent) (bool, error)
}
