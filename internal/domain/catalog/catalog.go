// Package catalog defines the static tier catalog: the ordered membership
// tiers and the capability-to-tier availability and limit tables. The
// catalog is immutable after construction and injected into the services
// that need it.
package catalog

import (
	"fmt"
	"sort"

	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

// Unlimited is the sentinel limit for metered capabilities with no quota.
const Unlimited int64 = -1

// Catalog is the immutable tier/capability table. Lookup methods never
// fail hard: unknown tiers or capabilities resolve to deny/zero and log the
// anomaly, since catalog lookups sit on the request path.
type Catalog struct {
	tiers        map[Tier]TierDef
	capabilities map[Capability]CapabilityDef
	logger       logger.Interface
}

// New builds a catalog from tier and capability definitions, validating
// exhaustiveness and monotonicity. It fails fast on any gap so a
// misconfigured catalog never reaches the request path.
func New(tiers map[Tier]TierDef, capabilities map[Capability]CapabilityDef, log logger.Interface) (*Catalog, error) {
	c := &Catalog{
		tiers:        tiers,
		capabilities: capabilities,
		logger:       log,
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid tier catalog: %w", err)
	}
	return c, nil
}

// Default returns the built-in marketplace catalog.
func Default(log logger.Interface) *Catalog {
	c, err := New(defaultTiers(), defaultCapabilities(), log)
	if err != nil {
		// The built-in table is covered by tests; failing here means the
		// binary itself is broken.
		panic(fmt.Sprintf("built-in catalog invalid: %v", err))
	}
	return c
}

func defaultTiers() map[Tier]TierDef {
	return map[Tier]TierDef{
		TierFree:    {Rank: 0, PriceCents: 0, Currency: "USD"},
		TierPremium: {Rank: 1, PriceCents: 999, Currency: "USD"},
		TierPro:     {Rank: 2, PriceCents: 1999, Currency: "USD"},
	}
}

func defaultCapabilities() map[Capability]CapabilityDef {
	return map[Capability]CapabilityDef{
		CapabilityEbookAccess: {
			Allowed: map[Tier]bool{TierFree: false, TierPremium: true, TierPro: true},
		},
		CapabilityAdvancedSearch: {
			Allowed: map[Tier]bool{TierFree: false, TierPremium: true, TierPro: true},
		},
		CapabilityCSVImport: {
			Allowed: map[Tier]bool{TierFree: false, TierPremium: false, TierPro: true},
		},
		CapabilityAIRequests: {
			Metered: true,
			Allowed: map[Tier]bool{TierFree: true, TierPremium: true, TierPro: true},
			Limits:  map[Tier]int64{TierFree: 5, TierPremium: 50, TierPro: Unlimited},
		},
		CapabilityGuideDownloads: {
			Metered: true,
			Allowed: map[Tier]bool{TierFree: true, TierPremium: true, TierPro: true},
			Limits:  map[Tier]int64{TierFree: 3, TierPremium: 100, TierPro: Unlimited},
		},
	}
}

// RankOf returns the ordinal rank of a tier. Unknown tiers rank below every
// valid tier so that "at least" comparisons deny.
func (c *Catalog) RankOf(tier Tier) int {
	def, ok := c.tiers[tier]
	if !ok {
		c.logAnomaly("unknown tier in rank lookup", "tier", tier)
		return -1
	}
	return def.Rank
}

// IsAllowed reports whether the capability is available to the tier at all.
// Unknown tiers or capabilities deny.
func (c *Catalog) IsAllowed(tier Tier, capability Capability) bool {
	def, ok := c.capabilities[capability]
	if !ok {
		c.logAnomaly("unknown capability in allow lookup", "capability", capability)
		return false
	}
	allowed, ok := def.Allowed[tier]
	if !ok {
		c.logAnomaly("unknown tier in allow lookup", "tier", tier, "capability", capability)
		return false
	}
	return allowed
}

// LimitFor returns the per-period quota of a metered capability for the
// tier, or Unlimited. Boolean capabilities that are allowed have no quota
// and report Unlimited. Unknown names resolve to a zero limit.
func (c *Catalog) LimitFor(tier Tier, capability Capability) int64 {
	def, ok := c.capabilities[capability]
	if !ok {
		c.logAnomaly("unknown capability in limit lookup", "capability", capability)
		return 0
	}
	if !def.Metered {
		return Unlimited
	}
	limit, ok := def.Limits[tier]
	if !ok {
		c.logAnomaly("unknown tier in limit lookup", "tier", tier, "capability", capability)
		return 0
	}
	return limit
}

// IsMetered reports whether the capability carries a per-period quota.
func (c *Catalog) IsMetered(capability Capability) bool {
	def, ok := c.capabilities[capability]
	return ok && def.Metered
}

// HasCapability reports whether the capability exists in the catalog.
func (c *Catalog) HasCapability(capability Capability) bool {
	_, ok := c.capabilities[capability]
	return ok
}

// PriceCents returns the per-period price of a tier in the smallest
// currency unit. Unknown tiers price at zero.
func (c *Catalog) PriceCents(tier Tier) int64 {
	def, ok := c.tiers[tier]
	if !ok {
		c.logAnomaly("unknown tier in price lookup", "tier", tier)
		return 0
	}
	return def.PriceCents
}

// Capabilities returns the capability names in stable order.
func (c *Catalog) Capabilities() []Capability {
	caps := make([]Capability, 0, len(c.capabilities))
	for name := range c.capabilities {
		caps = append(caps, name)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

// Tiers returns the tier names ordered by ascending rank.
func (c *Catalog) Tiers() []Tier {
	tiers := make([]Tier, 0, len(c.tiers))
	for name := range c.tiers {
		tiers = append(tiers, name)
	}
	sort.Slice(tiers, func(i, j int) bool {
		return c.tiers[tiers[i]].Rank < c.tiers[tiers[j]].Rank
	})
	return tiers
}

func (c *Catalog) validate() error {
	if len(c.tiers) == 0 {
		return fmt.Errorf("no tiers defined")
	}
	for _, required := range []Tier{TierFree, TierPremium, TierPro} {
		if _, ok := c.tiers[required]; !ok {
			return fmt.Errorf("tier %s missing from catalog", required)
		}
	}

	seenRanks := make(map[int]Tier, len(c.tiers))
	for name, def := range c.tiers {
		if !name.IsValid() {
			return fmt.Errorf("unknown tier name %q", name)
		}
		if prev, dup := seenRanks[def.Rank]; dup {
			return fmt.Errorf("tiers %s and %s share rank %d", prev, name, def.Rank)
		}
		seenRanks[def.Rank] = name
		if def.PriceCents < 0 {
			return fmt.Errorf("tier %s has negative price", name)
		}
	}
	if c.tiers[TierFree].Rank >= c.tiers[TierPremium].Rank ||
		c.tiers[TierPremium].Rank >= c.tiers[TierPro].Rank {
		return fmt.Errorf("tier ranks must strictly increase with privilege")
	}

	ordered := c.Tiers()
	for name, def := range c.capabilities {
		for tier := range c.tiers {
			if _, ok := def.Allowed[tier]; !ok {
				return fmt.Errorf("capability %s has no allowed mapping for tier %s", name, tier)
			}
			if def.Metered {
				limit, ok := def.Limits[tier]
				if !ok {
					return fmt.Errorf("capability %s has no limit mapping for tier %s", name, tier)
				}
				if limit < 0 && limit != Unlimited {
					return fmt.Errorf("capability %s has invalid limit %d for tier %s", name, limit, tier)
				}
			}
		}
		if !def.Metered && len(def.Limits) > 0 {
			return fmt.Errorf("capability %s is not metered but defines limits", name)
		}

		// Monotonicity: a higher-ranked tier never loses access and never
		// gets a smaller quota than a lower-ranked one.
		for i := 1; i < len(ordered); i++ {
			lower, higher := ordered[i-1], ordered[i]
			if def.Allowed[lower] && !def.Allowed[higher] {
				return fmt.Errorf("capability %s allowed for %s but not for higher tier %s", name, lower, higher)
			}
			if def.Metered && !limitLess(def.Limits[lower], def.Limits[higher]) {
				return fmt.Errorf("capability %s limit decreases from %s to %s", name, lower, higher)
			}
		}
	}

	return nil
}

// limitLess reports whether a <= b with Unlimited treated as infinity.
func limitLess(a, b int64) bool {
	if b == Unlimited {
		return true
	}
	if a == Unlimited {
		return false
	}
	return a <= b
}

func (c *Catalog) logAnomaly(msg string, keysAndValues ...interface{}) {
	if c.logger != nil {
		c.logger.Warnw(msg, keysAndValues...)
	}
}
