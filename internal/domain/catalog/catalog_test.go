package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_BuildsValidCatalog(t *testing.T) {
	c := Default(nil)
	require.NotNil(t, c)

	assert.Equal(t, []Tier{TierFree, TierPremium, TierPro}, c.Tiers())
	assert.Equal(t, 0, c.RankOf(TierFree))
	assert.Equal(t, 1, c.RankOf(TierPremium))
	assert.Equal(t, 2, c.RankOf(TierPro))
}

func TestCatalog_IsAllowed(t *testing.T) {
	c := Default(nil)

	tests := []struct {
		name       string
		tier       Tier
		capability Capability
		want       bool
	}{
		{"free cannot read ebooks", TierFree, CapabilityEbookAccess, false},
		{"premium can read ebooks", TierPremium, CapabilityEbookAccess, true},
		{"pro can read ebooks", TierPro, CapabilityEbookAccess, true},
		{"free cannot use advanced search", TierFree, CapabilityAdvancedSearch, false},
		{"premium cannot import csv", TierPremium, CapabilityCSVImport, false},
		{"pro can import csv", TierPro, CapabilityCSVImport, true},
		{"free can use ai requests", TierFree, CapabilityAIRequests, true},
		{"free can download guides", TierFree, CapabilityGuideDownloads, true},
		{"unknown tier denies", Tier("platinum"), CapabilityEbookAccess, false},
		{"unknown capability denies", TierPro, Capability("teleport"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsAllowed(tt.tier, tt.capability))
		})
	}
}

func TestCatalog_LimitFor(t *testing.T) {
	c := Default(nil)

	tests := []struct {
		name       string
		tier       Tier
		capability Capability
		want       int64
	}{
		{"free ai requests", TierFree, CapabilityAIRequests, 5},
		{"premium ai requests", TierPremium, CapabilityAIRequests, 50},
		{"pro ai requests unlimited", TierPro, CapabilityAIRequests, Unlimited},
		{"free guide downloads", TierFree, CapabilityGuideDownloads, 3},
		{"premium guide downloads", TierPremium, CapabilityGuideDownloads, 100},
		{"pro guide downloads unlimited", TierPro, CapabilityGuideDownloads, Unlimited},
		{"boolean capability has no quota", TierPremium, CapabilityEbookAccess, Unlimited},
		{"unknown capability limits to zero", TierPro, Capability("teleport"), 0},
		{"unknown tier limits to zero", Tier("platinum"), CapabilityAIRequests, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.LimitFor(tt.tier, tt.capability))
		})
	}
}

func TestCatalog_IsMetered(t *testing.T) {
	c := Default(nil)

	assert.True(t, c.IsMetered(CapabilityAIRequests))
	assert.True(t, c.IsMetered(CapabilityGuideDownloads))
	assert.False(t, c.IsMetered(CapabilityEbookAccess))
	assert.False(t, c.IsMetered(CapabilityAdvancedSearch))
	assert.False(t, c.IsMetered(CapabilityCSVImport))
	assert.False(t, c.IsMetered(Capability("teleport")))
}

func TestCatalog_HasCapability(t *testing.T) {
	c := Default(nil)

	assert.True(t, c.HasCapability(CapabilityEbookAccess))
	assert.True(t, c.HasCapability(CapabilityAIRequests))
	assert.False(t, c.HasCapability(Capability("teleport")))
}

func TestCatalog_RankOf_UnknownTierRanksBelowAll(t *testing.T) {
	c := Default(nil)
	assert.Less(t, c.RankOf(Tier("platinum")), c.RankOf(TierFree))
}

func TestCatalog_Capabilities_StableOrder(t *testing.T) {
	c := Default(nil)
	caps := c.Capabilities()
	require.Len(t, caps, 5)
	for i := 1; i < len(caps); i++ {
		assert.Less(t, string(caps[i-1]), string(caps[i]))
	}
}

func TestNew_ValidationFailures(t *testing.T) {
	base := func() (map[Tier]TierDef, map[Capability]CapabilityDef) {
		return defaultTiers(), defaultCapabilities()
	}

	tests := []struct {
		name    string
		mutate  func(map[Tier]TierDef, map[Capability]CapabilityDef)
		wantErr string
	}{
		{
			name: "missing required tier",
			mutate: func(tiers map[Tier]TierDef, _ map[Capability]CapabilityDef) {
				delete(tiers, TierPremium)
			},
			wantErr: "missing from catalog",
		},
		{
			name: "duplicate ranks",
			mutate: func(tiers map[Tier]TierDef, _ map[Capability]CapabilityDef) {
				tiers[TierPro] = TierDef{Rank: 1, PriceCents: 1999, Currency: "USD"}
			},
			wantErr: "share rank",
		},
		{
			name: "negative price",
			mutate: func(tiers map[Tier]TierDef, _ map[Capability]CapabilityDef) {
				tiers[TierPremium] = TierDef{Rank: 1, PriceCents: -1, Currency: "USD"}
			},
			wantErr: "negative price",
		},
		{
			name: "capability missing tier mapping",
			mutate: func(_ map[Tier]TierDef, caps map[Capability]CapabilityDef) {
				def := caps[CapabilityEbookAccess]
				delete(def.Allowed, TierPro)
			},
			wantErr: "no allowed mapping",
		},
		{
			name: "metered capability missing limit",
			mutate: func(_ map[Tier]TierDef, caps map[Capability]CapabilityDef) {
				def := caps[CapabilityAIRequests]
				delete(def.Limits, TierFree)
			},
			wantErr: "no limit mapping",
		},
		{
			name: "limits on unmetered capability",
			mutate: func(_ map[Tier]TierDef, caps map[Capability]CapabilityDef) {
				def := caps[CapabilityEbookAccess]
				def.Limits = map[Tier]int64{TierFree: 1, TierPremium: 2, TierPro: 3}
				caps[CapabilityEbookAccess] = def
			},
			wantErr: "not metered but defines limits",
		},
		{
			name: "higher tier loses access",
			mutate: func(_ map[Tier]TierDef, caps map[Capability]CapabilityDef) {
				def := caps[CapabilityEbookAccess]
				def.Allowed[TierPro] = false
			},
			wantErr: "not for higher tier",
		},
		{
			name: "quota decreases with rank",
			mutate: func(_ map[Tier]TierDef, caps map[Capability]CapabilityDef) {
				def := caps[CapabilityAIRequests]
				def.Limits[TierPremium] = 2
			},
			wantErr: "limit decreases",
		},
		{
			name: "finite quota above unlimited tier",
			mutate: func(_ map[Tier]TierDef, caps map[Capability]CapabilityDef) {
				def := caps[CapabilityAIRequests]
				def.Limits[TierPremium] = Unlimited
				def.Limits[TierPro] = 100
			},
			wantErr: "limit decreases",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiers, caps := base()
			tt.mutate(tiers, caps)

			c, err := New(tiers, caps, nil)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseTier(t *testing.T) {
	for _, valid := range []string{"free", "premium", "pro"} {
		tier, err := ParseTier(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, tier.String())
	}

	_, err := ParseTier("platinum")
	assert.Error(t, err)

	_, err = ParseTier("")
	assert.Error(t, err)
}

func TestTier_IsPaid(t *testing.T) {
	assert.False(t, TierFree.IsPaid())
	assert.True(t, TierPremium.IsPaid())
	assert.True(t, TierPro.IsPaid())
	assert.False(t, Tier("platinum").IsPaid())
}
