package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalogFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFile_ValidCatalog(t *testing.T) {
	path := writeCatalogFile(t, `
tiers:
  free:
    rank: 0
    price_cents: 0
    currency: USD
  premium:
    rank: 1
    price_cents: 1299
    currency: USD
  pro:
    rank: 2
    price_cents: 2499
    currency: USD
capabilities:
  ebook_access:
    metered: false
    allowed:
      free: false
      premium: true
      pro: true
  advanced_search:
    metered: false
    allowed:
      free: false
      premium: true
      pro: true
  csv_import:
    metered: false
    allowed:
      free: false
      premium: false
      pro: true
  ai_requests:
    metered: true
    allowed:
      free: true
      premium: true
      pro: true
    limits:
      free: 10
      premium: 100
      pro: -1
  guide_downloads:
    metered: true
    allowed:
      free: true
      premium: true
      pro: true
    limits:
      free: 3
      premium: 100
      pro: -1
`)

	c, err := LoadFile(path, nil)
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, int64(1299), c.PriceCents(TierPremium))
	assert.Equal(t, int64(10), c.LimitFor(TierFree, CapabilityAIRequests))
	assert.Equal(t, Unlimited, c.LimitFor(TierPro, CapabilityAIRequests))
}

func TestLoadFile_InvalidCatalogRejected(t *testing.T) {
	// Premium outranks pro, which violates the tier ordering.
	path := writeCatalogFile(t, `
tiers:
  free:
    rank: 0
  premium:
    rank: 2
  pro:
    rank: 1
capabilities: {}
`)

	c, err := LoadFile(path, nil)
	require.Error(t, err)
	assert.Nil(t, c)
}

func TestLoadFile_MissingFile(t *testing.T) {
	c, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Nil(t, c)
}

func TestLoadFile_MalformedYAML(t *testing.T) {
	path := writeCatalogFile(t, "tiers: [not: a: map")

	c, err := LoadFile(path, nil)
	require.Error(t, err)
	assert.Nil(t, c)
}
