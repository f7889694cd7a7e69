// Package schema carries everything the engine knows about the dataset:
// a YAML glossary of tables, columns, and business synonyms, and the
// prompt-ready overview text built from it.
package schema

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Column describes one column and the business vocabulary that refers to it.
type Column struct {
	Description string   `yaml:"description"`
	Synonyms    []string `yaml:"synonyms"`
}

// Table describes one table of the dataset.
type Table struct {
	Description string            `yaml:"description"`
	Columns     map[string]Column `yaml:"columns"`
}

// Glossary is the parsed labels file.
type Glossary struct {
	Conventions []string         `yaml:"conventions"`
	Tables      map[string]Table `yaml:"tables"`
}

// LoadGlossary reads and parses the labels file.
func LoadGlossary(path string) (*Glossary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels file: %w", err)
	}

	var g Glossary
	if err := yaml.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("parse labels file %s: %w", path, err)
	}

	if len(g.Tables) == 0 {
		return nil, fmt.Errorf("labels file %s defines no tables", path)
	}

	return &g, nil
}

// TableNames returns the table names in stable order.
func (g *Glossary) TableNames() []string {
	names := make([]string, 0, len(g.Tables))
	for name := range g.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
