package subscription

import "errors"

var (
	// ErrInvalidTransition marks a lifecycle transition that the state
	// machine does not permit from the current status.
	ErrInvalidTransition = errors.New("invalid subscription state transition")
	// ErrPaymentReferenceMismatch marks a payment event whose reference
	// does not match the reference recorded at checkout.
	ErrPaymentReferenceMismatch = errors.New("payment reference does not match subscription")
	// ErrPaidTierRequired marks an activation attempt with the free tier.
	ErrPaidTierRequired = errors.New("active subscription requires a paid tier")
	// ErrInvalidPeriod marks a billing period whose end precedes its start.
	ErrInvalidPeriod = errors.New("period end must not precede period start")
)
