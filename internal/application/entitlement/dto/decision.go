// Package dto defines the decision shapes returned by the entitlement
// evaluator.
package dto

// Decision reasons.
const (
	ReasonOK             = "ok"
	ReasonTierTooLow     = "tier_too_low"
	ReasonQuotaExhausted = "quota_exhausted"
)

// Decision is the outcome of an entitlement evaluation. Remaining is only
// set for metered capabilities with a finite quota.
type Decision struct {
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason"`
	Tier      string `json:"tier"`
	Remaining *int64 `json:"remaining,omitempty"`
}

// Allowed builds a positive decision.
func Allowed(tier string, remaining *int64) *Decision {
	return &Decision{Allowed: true, Reason: ReasonOK, Tier: tier, Remaining: remaining}
}

// Denied builds a negative decision with the given reason.
func Denied(tier, reason string, remaining *int64) *Decision {
	return &Decision{Allowed: false, Reason: reason, Tier: tier, Remaining: remaining}
}
