package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadAliases reads a YAML map of plan names to document labels. The
// coordinator consults it before resolution, so a recurring CSV name that
// never matches (a department template, say) can be pinned to the label
// the listing actually uses.
func LoadAliases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read aliases: %w", err)
	}
	aliases := make(map[string]string)
	if err := yaml.Unmarshal(data, &aliases); err != nil {
		return nil, fmt.Errorf("parse aliases: %w", err)
	}
	return aliases, nil
}
