package catalog

import "fmt"

// Tier is a named membership level with an implied total ordering of
// privilege.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
	TierPro     Tier = "pro"
)

var ValidTiers = map[Tier]bool{
	TierFree:    true,
	TierPremium: true,
	TierPro:     true,
}

func (t Tier) String() string {
	return string(t)
}

func (t Tier) IsValid() bool {
	return ValidTiers[t]
}

// IsPaid reports whether the tier requires an active paid subscription.
func (t Tier) IsPaid() bool {
	return t.IsValid() && t != TierFree
}

// ParseTier converts a string into a Tier, rejecting unknown names.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown tier: %q", s)
	}
	return t, nil
}

// TierDef describes a tier's position and price in the catalog.
type TierDef struct {
	// Rank is the ordinal privilege rank. Ranks strictly increase with
	// privilege; "at least tier X" checks compare ranks.
	Rank int `yaml:"rank"`
	// PriceCents is the price per billing period in the smallest currency
	// unit.
	PriceCents int64 `yaml:"price_cents"`
	// Currency is the ISO 4217 currency code.
	Currency string `yaml:"currency"`
}
