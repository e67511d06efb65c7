package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/guidepress-io/guidepress/internal/shared/logger"
)

// fileSchema is the YAML shape of an external catalog definition.
type fileSchema struct {
	Tiers        map[Tier]TierDef             `yaml:"tiers"`
	Capabilities map[Capability]CapabilityDef `yaml:"capabilities"`
}

// LoadFile reads a catalog definition from a YAML file. The loaded catalog
// goes through the same exhaustiveness and monotonicity validation as the
// built-in one.
func LoadFile(path string, log logger.Interface) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var schema fileSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}

	return New(schema.Tiers, schema.Capabilities, log)
}
