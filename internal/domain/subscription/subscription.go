package subscription

import (
	"fmt"
	"time"

	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	vo "github.com/guidepress-io/guidepress/internal/domain/subscription/valueobjects"
	"github.com/guidepress-io/guidepress/internal/shared/biztime"
	"github.com/guidepress-io/guidepress/internal/shared/id"
)

// Subscription is the membership aggregate root. Every user owns exactly
// one subscription record; it is created in the none/free state alongside
// the user and never deleted. All lifecycle mutations go through the
// transition methods below, which enforce the state machine regardless of
// whether the trigger was a payment event or an admin override.
type Subscription struct {
	id                uint
	sid               string
	userID            uint
	tier              catalog.Tier
	status            vo.SubscriptionStatus
	periodStart       time.Time
	periodEnd         time.Time
	paymentReference  *string
	pendingTier       catalog.Tier
	cancelAtPeriodEnd bool
	cancelledAt       *time.Time
	cancelReason      *string
	version           int
	createdAt         time.Time
	updatedAt         time.Time
}

// NewSubscription creates the initial subscription for a user: status none,
// tier free, no billing period.
func NewSubscription(userID uint) (*Subscription, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}

	sid, err := id.GenerateWithPrefix(id.PrefixSubscription, id.DefaultLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate subscription ID: %w", err)
	}

	now := time.Now().UTC()
	return &Subscription{
		sid:       sid,
		userID:    userID,
		tier:      catalog.TierFree,
		status:    vo.StatusNone,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructParams carries the persisted state of a subscription.
type ReconstructParams struct {
	ID                uint
	SID               string
	UserID            uint
	Tier              catalog.Tier
	Status            vo.SubscriptionStatus
	PeriodStart       time.Time
	PeriodEnd         time.Time
	PaymentReference  *string
	PendingTier       catalog.Tier
	CancelAtPeriodEnd bool
	CancelledAt       *time.Time
	CancelReason      *string
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Reconstruct rebuilds a subscription from persistence.
func Reconstruct(p ReconstructParams) (*Subscription, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("subscription ID cannot be zero")
	}
	if p.UserID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if !vo.ValidStatuses[p.Status] {
		return nil, fmt.Errorf("invalid subscription status: %s", p.Status)
	}
	if !p.Tier.IsValid() {
		return nil, fmt.Errorf("invalid tier: %s", p.Tier)
	}

	s := &Subscription{
		id:                p.ID,
		sid:               p.SID,
		userID:            p.UserID,
		tier:              p.Tier,
		status:            p.Status,
		periodStart:       p.PeriodStart,
		periodEnd:         p.PeriodEnd,
		paymentReference:  p.PaymentReference,
		pendingTier:       p.PendingTier,
		cancelAtPeriodEnd: p.CancelAtPeriodEnd,
		cancelledAt:       p.CancelledAt,
		cancelReason:      p.CancelReason,
		version:           p.Version,
		createdAt:         p.CreatedAt,
		updatedAt:         p.UpdatedAt,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Subscription) ID() uint                      { return s.id }
func (s *Subscription) SID() string                   { return s.sid }
func (s *Subscription) UserID() uint                  { return s.userID }
func (s *Subscription) Tier() catalog.Tier            { return s.tier }
func (s *Subscription) Status() vo.SubscriptionStatus { return s.status }
func (s *Subscription) PeriodStart() time.Time        { return s.periodStart }
func (s *Subscription) PeriodEnd() time.Time          { return s.periodEnd }
func (s *Subscription) PaymentReference() *string     { return s.paymentReference }
func (s *Subscription) PendingTier() catalog.Tier     { return s.pendingTier }
func (s *Subscription) CancelAtPeriodEnd() bool       { return s.cancelAtPeriodEnd }
func (s *Subscription) CancelledAt() *time.Time       { return s.cancelledAt }
func (s *Subscription) CancelReason() *string         { return s.cancelReason }
func (s *Subscription) Version() int                  { return s.version }
func (s *Subscription) CreatedAt() time.Time          { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time          { return s.updatedAt }

// SetID sets the subscription ID (only for persistence layer use).
func (s *Subscription) SetID(subID uint) error {
	if s.id != 0 {
		return fmt.Errorf("subscription ID is already set")
	}
	if subID == 0 {
		return fmt.Errorf("subscription ID cannot be zero")
	}
	s.id = subID
	return nil
}

// EffectiveTier is the tier that entitlement decisions see: the paid tier
// while the status grants service, free otherwise.
func (s *Subscription) EffectiveTier() catalog.Tier {
	if s.status.CanUseService() {
		return s.tier
	}
	return catalog.TierFree
}

// UsagePeriodKey identifies the usage-metering period at the given instant.
// Paid periods key on the period start date so a renewal rolls counters
// over to a fresh key; users without a billing period meter per business
// calendar month.
func (s *Subscription) UsagePeriodKey(now time.Time) string {
	if s.status.HasBillingPeriod() && !s.periodStart.IsZero() {
		return biztime.DayKey(s.periodStart)
	}
	return biztime.MonthKey(now)
}

// StartCheckout transitions none/cancelled to pending, recording the tier
// being purchased and the external payment reference.
func (s *Subscription) StartCheckout(tier catalog.Tier, paymentReference string) error {
	if !tier.IsPaid() {
		return fmt.Errorf("%w: cannot check out tier %s", ErrPaidTierRequired, tier)
	}
	if paymentReference == "" {
		return fmt.Errorf("payment reference is required")
	}
	if !s.status.CanTransitionTo(vo.StatusPending) {
		return fmt.Errorf("%w: %s -> pending", ErrInvalidTransition, s.status)
	}

	s.status = vo.StatusPending
	s.pendingTier = tier
	s.paymentReference = &paymentReference
	s.cancelAtPeriodEnd = false
	s.touch()
	return nil
}

// ConfirmCheckout transitions pending to active on payment confirmation:
// the purchased tier takes effect and the first billing period opens.
func (s *Subscription) ConfirmCheckout(tier catalog.Tier, periodStart, periodEnd time.Time, paymentReference string) error {
	if s.status == vo.StatusActive && s.referenceMatches(paymentReference) {
		return nil
	}
	if !tier.IsPaid() {
		return fmt.Errorf("%w: tier %s", ErrPaidTierRequired, tier)
	}
	if periodEnd.Before(periodStart) {
		return ErrInvalidPeriod
	}
	if s.status != vo.StatusPending {
		return fmt.Errorf("%w: %s -> active", ErrInvalidTransition, s.status)
	}
	if !s.referenceMatches(paymentReference) {
		return ErrPaymentReferenceMismatch
	}

	s.status = vo.StatusActive
	s.tier = tier
	s.pendingTier = ""
	s.periodStart = periodStart
	s.periodEnd = periodEnd
	s.cancelledAt = nil
	s.cancelReason = nil
	s.touch()
	return nil
}

// FailCheckout transitions pending back to none when the payment failed or
// the checkout session expired.
func (s *Subscription) FailCheckout() error {
	if s.status == vo.StatusNone {
		return nil
	}
	if s.status != vo.StatusPending {
		return fmt.Errorf("%w: %s -> none", ErrInvalidTransition, s.status)
	}

	s.status = vo.StatusNone
	s.tier = catalog.TierFree
	s.pendingTier = ""
	s.paymentReference = nil
	s.touch()
	return nil
}

// ConfirmRenewal extends the billing period on a successful renewal
// payment. On an active subscription the period rolls forward; on a
// past_due one the payment recovers the subscription to active.
func (s *Subscription) ConfirmRenewal(newPeriodEnd time.Time) error {
	if s.status != vo.StatusActive && s.status != vo.StatusPastDue {
		return fmt.Errorf("%w: cannot renew from %s", ErrInvalidTransition, s.status)
	}
	if newPeriodEnd.Before(s.periodEnd) {
		return fmt.Errorf("%w: new period end precedes current period end", ErrInvalidPeriod)
	}

	s.periodStart = s.periodEnd
	s.periodEnd = newPeriodEnd
	if s.status == vo.StatusPastDue {
		s.status = vo.StatusActive
	}
	s.touch()
	return nil
}

// FailRenewal transitions active to past_due; the tier is retained and the
// grace window starts counting from the period end.
func (s *Subscription) FailRenewal() error {
	if s.status == vo.StatusPastDue {
		return nil
	}
	if !s.status.CanTransitionTo(vo.StatusPastDue) {
		return fmt.Errorf("%w: %s -> past_due", ErrInvalidTransition, s.status)
	}

	s.status = vo.StatusPastDue
	s.touch()
	return nil
}

// GraceDeadline is the instant at which a past_due subscription loses its
// tier.
func (s *Subscription) GraceDeadline(graceWindow time.Duration) time.Time {
	return s.periodEnd.Add(graceWindow)
}

// ExpireGrace cancels a past_due subscription whose grace window has
// elapsed. Returns true if the transition was applied.
func (s *Subscription) ExpireGrace(graceWindow time.Duration, now time.Time) (bool, error) {
	if s.status != vo.StatusPastDue {
		return false, nil
	}
	if now.Before(s.GraceDeadline(graceWindow)) {
		return false, nil
	}
	if err := s.cancel("grace window elapsed", now); err != nil {
		return false, err
	}
	return true, nil
}

// Cancel ends the membership immediately: status cancelled, tier free.
func (s *Subscription) Cancel(reason string, now time.Time) error {
	if s.status == vo.StatusCancelled {
		return nil
	}
	if reason == "" {
		return fmt.Errorf("cancel reason is required")
	}
	return s.cancel(reason, now)
}

// RequestCancellation flags the subscription for end-of-period
// cancellation. The tier stays in force until the period ends; the pending
// cancellation completes lazily via CompleteDeferredCancellation.
func (s *Subscription) RequestCancellation(reason string) error {
	if reason == "" {
		return fmt.Errorf("cancel reason is required")
	}
	if s.status != vo.StatusActive && s.status != vo.StatusPastDue {
		return fmt.Errorf("%w: cannot request cancellation from %s", ErrInvalidTransition, s.status)
	}

	s.cancelAtPeriodEnd = true
	s.cancelReason = &reason
	s.touch()
	return nil
}

// CompleteDeferredCancellation finishes a requested end-of-period
// cancellation once the period has elapsed. Returns true if applied.
func (s *Subscription) CompleteDeferredCancellation(now time.Time) (bool, error) {
	if !s.cancelAtPeriodEnd || s.status == vo.StatusCancelled {
		return false, nil
	}
	if now.Before(s.periodEnd) {
		return false, nil
	}
	reason := "cancellation requested"
	if s.cancelReason != nil {
		reason = *s.cancelReason
	}
	if err := s.cancel(reason, now); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Subscription) cancel(reason string, now time.Time) error {
	if !s.status.CanTransitionTo(vo.StatusCancelled) {
		return fmt.Errorf("%w: %s -> cancelled", ErrInvalidTransition, s.status)
	}

	s.status = vo.StatusCancelled
	s.tier = catalog.TierFree
	s.pendingTier = ""
	s.cancelAtPeriodEnd = false
	s.cancelledAt = &now
	s.cancelReason = &reason
	s.touch()
	return nil
}

// AssignTier applies an admin override: the target tier takes effect
// immediately through the same state machine, without a payment reference.
// Assigning free cancels; assigning a paid tier activates with a fresh
// period.
func (s *Subscription) AssignTier(tier catalog.Tier, periodStart, periodEnd time.Time, reason string, now time.Time) error {
	if !tier.IsValid() {
		return fmt.Errorf("invalid tier: %s", tier)
	}
	if reason == "" {
		return fmt.Errorf("assignment reason is required")
	}

	if tier == catalog.TierFree {
		if s.status == vo.StatusNone || s.status == vo.StatusCancelled {
			return nil
		}
		return s.cancel(reason, now)
	}

	if periodEnd.Before(periodStart) {
		return ErrInvalidPeriod
	}

	// Walk the same state machine hops a paid checkout would take so the
	// status invariants cannot be bypassed.
	switch s.status {
	case vo.StatusActive:
		// Tier change on an already active subscription.
	case vo.StatusPastDue:
		if !s.status.CanTransitionTo(vo.StatusActive) {
			return fmt.Errorf("%w: %s -> active", ErrInvalidTransition, s.status)
		}
		s.status = vo.StatusActive
	case vo.StatusNone, vo.StatusCancelled:
		if !s.status.CanTransitionTo(vo.StatusPending) {
			return fmt.Errorf("%w: %s -> pending", ErrInvalidTransition, s.status)
		}
		s.status = vo.StatusPending
		fallthrough
	case vo.StatusPending:
		if !s.status.CanTransitionTo(vo.StatusActive) {
			return fmt.Errorf("%w: %s -> active", ErrInvalidTransition, s.status)
		}
		s.status = vo.StatusActive
	}

	s.tier = tier
	s.pendingTier = ""
	s.paymentReference = nil
	s.periodStart = periodStart
	s.periodEnd = periodEnd
	s.cancelAtPeriodEnd = false
	s.cancelledAt = nil
	s.cancelReason = nil
	s.touch()
	return nil
}

func (s *Subscription) referenceMatches(paymentReference string) bool {
	return s.paymentReference != nil && *s.paymentReference == paymentReference
}

func (s *Subscription) touch() {
	s.updatedAt = time.Now().UTC()
	s.version++
}

// Validate checks the aggregate invariants.
func (s *Subscription) Validate() error {
	if s.userID == 0 {
		return fmt.Errorf("user ID is required")
	}
	if !vo.ValidStatuses[s.status] {
		return fmt.Errorf("invalid status: %s", s.status)
	}
	if s.status == vo.StatusActive && !s.tier.IsPaid() {
		return fmt.Errorf("active subscription must have a paid tier, got %s", s.tier)
	}
	if s.status == vo.StatusNone && s.tier != catalog.TierFree {
		return fmt.Errorf("subscription without membership must be on the free tier, got %s", s.tier)
	}
	if s.status.HasBillingPeriod() && s.periodEnd.Before(s.periodStart) {
		return ErrInvalidPeriod
	}
	return nil
}
