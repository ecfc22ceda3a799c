// Package tagging assigns reviews to topical buckets using a keyword taxonomy.
package tagging

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

type Taxonomy struct {
	Version    string     `yaml:"version"`
	Language   string     `yaml:"language"`
	Priority   string     `yaml:"priority"`
	Other      string     `yaml:"other"`
	ShortText  ShortText  `yaml:"short_text"`
	Categories []Category `yaml:"categories"`
}

type ShortText struct {
	MaxTokens int      `yaml:"max_tokens"`
	Positive  []string `yaml:"positive"`
	Negative  []string `yaml:"negative"`
}

type Category struct {
	Name          string        `yaml:"name"`
	Triggers      []string      `yaml:"triggers"`
	Subcategories []Subcategory `yaml:"subcategories"`
}

type Subcategory struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
}

// Default returns the embedded taxonomy.
func Default() *Taxonomy {
	t, err := Parse(defaultTaxonomy)
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy is invalid: %v", err))
	}
	return t
}

// Load reads a taxonomy file; an empty path yields the embedded default.
func Load(path string) (*Taxonomy, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Taxonomy) validate() error {
	if t.Version == "" {
		return fmt.Errorf("taxonomy: version is required")
	}
	if len(t.Categories) == 0 {
		return fmt.Errorf("taxonomy: no categories")
	}
	if t.Other == "" {
		t.Other = "Other"
	}
	if t.ShortText.MaxTokens <= 0 {
		t.ShortText.MaxTokens = 3
	}
	seen := make(map[string]struct{}, len(t.Categories))
	prio := -1
	for i, c := range t.Categories {
		if c.Name == "" {
			return fmt.Errorf("taxonomy: category %d has no name", i)
		}
		if c.Name == t.Other {
			return fmt.Errorf("taxonomy: %q is reserved for non-matches", t.Other)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("taxonomy: duplicate category %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if len(c.Triggers) == 0 {
			return fmt.Errorf("taxonomy: category %q has no triggers", c.Name)
		}
		if c.Name == t.Priority {
			prio = i
		}
	}
	if prio < 0 {
		return fmt.Errorf("taxonomy: priority category %q not defined", t.Priority)
	}
	// priority is always evaluated first
	if prio > 0 {
		p := t.Categories[prio]
		copy(t.Categories[1:prio+1], t.Categories[:prio])
		t.Categories[0] = p
	}
	return nil
}

// Labels lists category names in evaluation order, followed by the fallback label.
func (t *Taxonomy) Labels() []string {
	out := make([]string, 0, len(t.Categories)+1)
	for _, c := range t.Categories {
		out = append(out, c.Name)
	}
	return append(out, t.Other)
}
