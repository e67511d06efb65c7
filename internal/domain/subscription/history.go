package subscription

import (
	"errors"
	"time"

	"github.com/guidepress-io/guidepress/internal/domain/catalog"
	vo "github.com/guidepress-io/guidepress/internal/domain/subscription/valueobjects"
	"github.com/guidepress-io/guidepress/internal/shared/id"
)

// Actor identifies who triggered a lifecycle transition.
type Actor string

const (
	ActorPayment Actor = "payment"
	ActorAdmin   Actor = "admin"
	ActorUser    Actor = "user"
	ActorSystem  Actor = "system"
)

var ValidActors = map[Actor]bool{
	ActorPayment: true,
	ActorAdmin:   true,
	ActorUser:    true,
	ActorSystem:  true,
}

// History event types for the audit trail.
const (
	HistoryCheckoutStarted = "checkout_started"
	HistoryActivated       = "activated"
	HistoryCheckoutFailed  = "checkout_failed"
	HistoryRenewed         = "renewed"
	HistoryRenewalFailed   = "renewal_failed"
	HistoryRecovered       = "recovered"
	HistoryCancelled       = "cancelled"
	HistoryCancelRequested = "cancel_requested"
	HistoryGraceExpired    = "grace_expired"
	HistoryTierAssigned    = "tier_assigned"
)

var (
	ErrHistoryImmutable = errors.New("history record is immutable")
)

// History is one immutable audit record of a subscription transition.
// Admin overrides are distinguishable by ActorAdmin plus a free-text
// reason; payment-driven records carry the external payment reference.
type History struct {
	id               uint
	eid              string
	subscriptionID   uint
	eventType        string
	actor            Actor
	oldTier          catalog.Tier
	newTier          catalog.Tier
	oldStatus        vo.SubscriptionStatus
	newStatus        vo.SubscriptionStatus
	reason           *string
	paymentReference *string
	createdAt        time.Time
}

// HistoryParams carries the inputs for a new audit record.
type HistoryParams struct {
	SubscriptionID   uint
	EventType        string
	Actor            Actor
	OldTier          catalog.Tier
	NewTier          catalog.Tier
	OldStatus        vo.SubscriptionStatus
	NewStatus        vo.SubscriptionStatus
	Reason           *string
	PaymentReference *string
}

// NewHistory creates an audit record for a transition that just happened.
func NewHistory(p HistoryParams) (*History, error) {
	if p.SubscriptionID == 0 {
		return nil, errors.New("subscription ID cannot be zero")
	}
	if p.EventType == "" {
		return nil, errors.New("event type is required")
	}
	if !ValidActors[p.Actor] {
		return nil, errors.New("invalid actor")
	}
	if p.Actor == ActorAdmin && (p.Reason == nil || *p.Reason == "") {
		return nil, errors.New("admin actions require a reason")
	}

	eid, err := id.GenerateWithPrefix(id.PrefixAuditEvent, id.DefaultLength)
	if err != nil {
		return nil, err
	}

	return &History{
		eid:              eid,
		subscriptionID:   p.SubscriptionID,
		eventType:        p.EventType,
		actor:            p.Actor,
		oldTier:          p.OldTier,
		newTier:          p.NewTier,
		oldStatus:        p.OldStatus,
		newStatus:        p.NewStatus,
		reason:           p.Reason,
		paymentReference: p.PaymentReference,
		createdAt:        time.Now().UTC(),
	}, nil
}

// ReconstructHistory rebuilds an audit record from persistence.
func ReconstructHistory(
	recordID uint,
	eid string,
	subscriptionID uint,
	eventType string,
	actor Actor,
	oldTier, newTier catalog.Tier,
	oldStatus, newStatus vo.SubscriptionStatus,
	reason, paymentReference *string,
	createdAt time.Time,
) (*History, error) {
	if recordID == 0 {
		return nil, errors.New("history ID cannot be zero")
	}
	if subscriptionID == 0 {
		return nil, errors.New("subscription ID cannot be zero")
	}
	return &History{
		id:               recordID,
		eid:              eid,
		subscriptionID:   subscriptionID,
		eventType:        eventType,
		actor:            actor,
		oldTier:          oldTier,
		newTier:          newTier,
		oldStatus:        oldStatus,
		newStatus:        newStatus,
		reason:           reason,
		paymentReference: paymentReference,
		createdAt:        createdAt,
	}, nil
}

func (h *History) ID() uint                         { return h.id }
func (h *History) EID() string                      { return h.eid }
func (h *History) SubscriptionID() uint             { return h.subscriptionID }
func (h *History) EventType() string                { return h.eventType }
func (h *History) Actor() Actor                     { return h.actor }
func (h *History) OldTier() catalog.Tier            { return h.oldTier }
func (h *History) NewTier() catalog.Tier            { return h.newTier }
func (h *History) OldStatus() vo.SubscriptionStatus { return h.oldStatus }
func (h *History) NewStatus() vo.SubscriptionStatus { return h.newStatus }
func (h *History) Reason() *string                  { return h.reason }
func (h *History) PaymentReference() *string        { return h.paymentReference }
func (h *History) CreatedAt() time.Time             { return h.createdAt }

// IsAdminAction reports whether this record came from an admin override.
func (h *History) IsAdminAction() bool {
	return h.actor == ActorAdmin
}

// SetID sets the record ID (only for persistence layer use).
func (h *History) SetID(recordID uint) error {
	if h.id != 0 {
		return ErrHistoryImmutable
	}
	if recordID == 0 {
		return errors.New("history ID cannot be zero")
	}
	h.id = recordID
	return nil
}
