package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var defaultCategoriesYAML []byte

// CategorySeed is the on-disk shape of the canonical category list.
type CategorySeed struct {
	Categories []string `yaml:"categories"`
}

// LoadCategorySeed reads the canonical categories from path, or the embedded
// default list when path is empty. Blank and duplicate (case-insensitive)
// entries are dropped.
func LoadCategorySeed(path string) ([]string, error) {
	data := defaultCategoriesYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read categories file: %w", err)
		}
		data = b
	}

	var seed CategorySeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}

	seen := make(map[string]bool, len(seed.Categories))
	out := make([]string, 0, len(seed.Categories))
	for _, name := range seed.Categories {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out, nil
}
