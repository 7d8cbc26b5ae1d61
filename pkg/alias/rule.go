package alias

import (
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Scope selects which name table a lookup runs against
type Scope string

const (
	ScopeProject       Scope = "project"
	ScopeMasterProject Scope = "masterProject"
)

// ParseScope accepts the wire names of a scope
func ParseScope(s string) (Scope, bool) {
	switch s {
	case "project", "":
		return ScopeProject, true
	case "masterProject", "master_project", "master":
		return ScopeMasterProject, true
	}
	return "", false
}

// Provenance records which part of the dataset produced a resolution
type Provenance string

const (
	ProvenanceContextual     Provenance = "contextual"
	ProvenanceArea           Provenance = "area"
	ProvenanceNameVariation  Provenance = "name_variation"
	ProvenanceNumberedSeries Provenance = "numbered_series"
	ProvenanceAlternative    Provenance = "alternative"
	ProvenanceUnresolved     Provenance = "unresolved"
)

// Rule is one alias definition, either a SimpleRule or a ContextualRule
type Rule interface {
	isRule()
}

// SimpleRule maps a set of variants to a canonical name within one scope
type SimpleRule struct {
	Canonical  string
	Scope      Scope
	Variants   []string
	Area       string
	Provenance Provenance
}

func (SimpleRule) isRule() {}

// ContextTuple is one branch of a contextual rule.
// An empty Context marks a rule that applies regardless of master project.
type ContextTuple struct {
	Context       string
	Project       string
	MasterProject string
}

// ContextualRule maps a raw project name differently depending on the accompanying master project
type ContextualRule struct {
	Name         string
	Tuples       []ContextTuple
	Alternatives []string
}

func (ContextualRule) isRule() {}

// Select picks the tuple whose context matches masterProject after normalization.
// With no match the first tuple is the default.
func (r ContextualRule) Select(masterProject string) ContextTuple {
	if masterProject != "" {
		key := normalizers.AliasKey(masterProject)
		for _, t := range r.Tuples {
			if t.Context != "" && normalizers.AliasKey(t.Context) == key {
				return t
			}
		}
	}
	return r.Tuples[0]
}

// Rules flattens the dataset into rules, in registration order
func (d *Dataset) Rules() []Rule {
	var rules []Rule
	for _, area := range d.Areas {
		for _, spec := range area.Projects {
			rules = append(rules, SimpleRule{Canonical: spec.Canonical, Scope: ScopeProject, Variants: spec.Variants, Area: area.Name, Provenance: ProvenanceArea})
		}
		for _, spec := range area.MasterProjects {
			rules = append(rules, SimpleRule{Canonical: spec.Canonical, Scope: ScopeMasterProject, Variants: spec.Variants, Area: area.Name, Provenance: ProvenanceArea})
		}
	}
	for _, spec := range d.NameVariations {
		rules = append(rules, SimpleRule{Canonical: spec.Canonical, Scope: ScopeProject, Variants: spec.Variants, Provenance: ProvenanceNameVariation})
	}
	for _, s := range d.NumberedSeries {
		rules = append(rules, SimpleRule{Canonical: s.Canonical, Scope: ScopeProject, Variants: s.Variants(), Provenance: ProvenanceNumberedSeries})
	}
	for _, c := range d.Contextual {
		rule := ContextualRule{Name: c.Name, Alternatives: c.Alternatives}
		if len(c.Contexts) == 0 {
			rule.Tuples = []ContextTuple{{Project: c.Project, MasterProject: c.MasterProject}}
		}
		for _, ctx := range c.Contexts {
			rule.Tuples = append(rule.Tuples, ContextTuple{Context: ctx.Context, Project: ctx.Project, MasterProject: ctx.MasterProject})
		}
		rules = append(rules, rule)
	}
	return rules
}
