package subscription

import (
	"fmt"
	"time"

	"github.com/guidepress-io/guidepress/internal/domain/catalog"
)

// PaymentEventType enumerates the notifications the payment collaborator
// delivers. Delivery is at-least-once; consumers deduplicate by payment
// reference.
type PaymentEventType string

const (
	EventCheckoutConfirmed PaymentEventType = "checkout_confirmed"
	EventCheckoutFailed    PaymentEventType = "checkout_failed"
	EventRenewalConfirmed  PaymentEventType = "renewal_confirmed"
	EventRenewalFailed     PaymentEventType = "renewal_failed"
	EventCancelled         PaymentEventType = "cancelled"
)

var ValidPaymentEventTypes = map[PaymentEventType]bool{
	EventCheckoutConfirmed: true,
	EventCheckoutFailed:    true,
	EventRenewalConfirmed:  true,
	EventRenewalFailed:     true,
	EventCancelled:         true,
}

func (t PaymentEventType) String() string {
	return string(t)
}

// PaymentEvent is one notification from the payment provider's event feed.
type PaymentEvent struct {
	Type             PaymentEventType
	PaymentReference string
	UserID           uint
	Tier             catalog.Tier
	PeriodEnd        time.Time
	OccurredAt       time.Time
}

// Validate rejects malformed events before any state is touched.
func (e PaymentEvent) Validate() error {
	if !ValidPaymentEventTypes[e.Type] {
		return fmt.Errorf("invalid payment event type: %q", e.Type)
	}
	if e.PaymentReference == "" {
		return fmt.Errorf("payment reference is required")
	}
	if e.UserID == 0 {
		return fmt.Errorf("user ID is required")
	}
	switch e.Type {
	case EventCheckoutConfirmed:
		if !e.Tier.IsPaid() {
			return fmt.Errorf("checkout confirmation requires a paid tier, got %q", e.Tier)
		}
		if e.PeriodEnd.IsZero() {
			return fmt.Errorf("checkout confirmation requires a period end")
		}
	case EventRenewalConfirmed:
		if e.PeriodEnd.IsZero() {
			return fmt.Errorf("renewal confirmation requires a period end")
		}
	}
	return nil
}
