package catalog

// Capability is a named gated feature of the marketplace. Boolean
// capabilities are either available to a tier or not; metered capabilities
// additionally carry a per-period numeric limit.
type Capability string

const (
	// CapabilityEbookAccess gates reading eBooks from the library.
	CapabilityEbookAccess Capability = "ebook_access"
	// CapabilityAdvancedSearch gates the advanced guide search filters.
	CapabilityAdvancedSearch Capability = "advanced_search"
	// CapabilityCSVImport gates bulk guide import from CSV.
	CapabilityCSVImport Capability = "csv_import"
	// CapabilityAIRequests meters AI content-generation calls per period.
	CapabilityAIRequests Capability = "ai_requests"
	// CapabilityGuideDownloads meters offline guide downloads per period.
	CapabilityGuideDownloads Capability = "guide_downloads"
)

func (c Capability) String() string {
	return string(c)
}

// CapabilityDef describes per-tier availability and limits for one
// capability. Every mapping must cover all catalog tiers explicitly; the
// catalog rejects definitions with implicit defaults at load time.
type CapabilityDef struct {
	// Metered marks the capability as quota-limited per usage period.
	Metered bool `yaml:"metered"`
	// Allowed maps each tier to whether the capability is available at all.
	Allowed map[Tier]bool `yaml:"allowed"`
	// Limits maps each tier to its per-period quota. Only consulted for
	// metered capabilities. Unlimited is expressed with the Unlimited
	// sentinel.
	Limits map[Tier]int64 `yaml:"limits"`
}
