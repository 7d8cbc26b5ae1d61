package alias

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/aliases.yaml
var defaultDataset []byte

// SeriesPlaceholder is replaced by the series number in NumberedSeries formats
const SeriesPlaceholder = "{n}"

// Dataset is the on-disk alias definition.
// Every collection is a sequence so registration order is stable.
type Dataset struct {
	Areas          []AreaSpec       `yaml:"areas" json:"areas"`
	NameVariations []VariantSpec    `yaml:"name_variations" json:"name_variations"`
	NumberedSeries []SeriesSpec     `yaml:"numbered_series" json:"numbered_series"`
	Contextual     []ContextualSpec `yaml:"contextual" json:"contextual"`
}

// AreaSpec groups project and master project tables under a named area
type AreaSpec struct {
	Name           string        `yaml:"name" json:"name"`
	Projects       []VariantSpec `yaml:"projects" json:"projects"`
	MasterProjects []VariantSpec `yaml:"master_projects" json:"master_projects"`
}

// VariantSpec maps a canonical name to the spellings it is known by
type VariantSpec struct {
	Canonical string   `yaml:"canonical" json:"canonical"`
	Variants  []string `yaml:"variants" json:"variants"`
}

// SeriesSpec generates variants Format(Min)..Format(Max) for a canonical name
type SeriesSpec struct {
	Canonical string `yaml:"canonical" json:"canonical"`
	Min       int    `yaml:"min" json:"min"`
	Max       int    `yaml:"max" json:"max"`
	Format    string `yaml:"format" json:"format"`
}

// ContextualSpec is either a single mapping (Project, MasterProject, Alternatives)
// or a list of Contexts selected by the listing's master project.
type ContextualSpec struct {
	Name          string        `yaml:"name" json:"name"`
	Project       string        `yaml:"project,omitempty" json:"project,omitempty"`
	MasterProject string        `yaml:"master_project,omitempty" json:"master_project,omitempty"`
	Alternatives  []string      `yaml:"alternatives,omitempty" json:"alternatives,omitempty"`
	Contexts      []ContextSpec `yaml:"contexts,omitempty" json:"contexts,omitempty"`
}

// ContextSpec is one context-dependent mapping of a contextual rule
type ContextSpec struct {
	Context       string `yaml:"context" json:"context"`
	Project       string `yaml:"project" json:"project"`
	MasterProject string `yaml:"master_project" json:"master_project"`
}

// DefaultDataset returns the dataset compiled into the binary
func DefaultDataset() (*Dataset, error) {
	return ParseDataset(defaultDataset, "yaml")
}

// LoadDataset reads a dataset file. Files ending in .json are decoded as JSON, anything else as YAML.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias dataset %s: %w", path, err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return ParseDataset(data, format)
}

// ParseDataset decodes and validates a dataset
func ParseDataset(data []byte, format string) (*Dataset, error) {
	var ds Dataset
	var err error
	switch format {
	case "json":
		err = json.Unmarshal(data, &ds)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &ds)
	default:
		return nil, fmt.Errorf("unsupported alias dataset format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode alias dataset: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks the dataset for structural mistakes
func (d *Dataset) Validate() error {
	for _, area := range d.Areas {
		if strings.TrimSpace(area.Name) == "" {
			return fmt.Errorf("alias dataset: area with empty name")
		}
		for _, spec := range append(append([]VariantSpec{}, area.Projects...), area.MasterProjects...) {
			if strings.TrimSpace(spec.Canonical) == "" {
				return fmt.Errorf("alias dataset: area %q has an entry with empty canonical name", area.Name)
			}
		}
	}
	for _, spec := range d.NameVariations {
		if strings.TrimSpace(spec.Canonical) == "" {
			return fmt.Errorf("alias dataset: name variation with empty canonical name")
		}
	}
	for _, s := range d.NumberedSeries {
		if strings.TrimSpace(s.Canonical) == "" {
			return fmt.Errorf("alias dataset: numbered series with empty canonical name")
		}
		if s.Min > s.Max {
			return fmt.Errorf("alias dataset: numbered series %q has min %d > max %d", s.Canonical, s.Min, s.Max)
		}
		if !strings.Contains(s.Format, SeriesPlaceholder) {
			return fmt.Errorf("alias dataset: numbered series %q format must contain %s", s.Canonical, SeriesPlaceholder)
		}
	}
	for _, c := range d.Contextual {
		if c.Name == "" {
			return fmt.Errorf("alias dataset: contextual rule with empty name")
		}
		if len(c.Contexts) == 0 && c.Project == "" {
			return fmt.Errorf("alias dataset: contextual rule %q needs a project or contexts", c.Name)
		}
		if len(c.Contexts) > 0 && (c.Project != "" || len(c.Alternatives) > 0) {
			return fmt.Errorf("alias dataset: contextual rule %q mixes contexts with a single mapping", c.Name)
		}
	}
	return nil
}

// Variants expands the series into its generated names
func (s SeriesSpec) Variants() []string {
	out := make([]string, 0, s.Max-s.Min+1)
	for n := s.Min; n <= s.Max; n++ {
		out = append(out, strings.ReplaceAll(s.Format, SeriesPlaceholder, fmt.Sprint(n)))
	}
	return out
}
