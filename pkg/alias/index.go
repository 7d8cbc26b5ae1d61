// Package alias resolves inconsistent project and master project names to canonical forms.
//
// An Index is built once from a Dataset and is read-only afterwards, so a single
// instance can be shared by any number of goroutines without locking.
package alias

import (
	"fmt"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Hint narrows a lookup
type Hint struct {
	// Area restricts table lookups to one area first, e.g. "JVC". Unknown areas are ignored.
	Area string
	// MasterProject selects the branch of a contextual rule
	MasterProject string
}

// Resolution is the outcome of resolving one raw name
type Resolution struct {
	Input      string     `json:"input"`
	Canonical  string     `json:"canonical"`
	Provenance Provenance `json:"provenance"`
	Area       string     `json:"area,omitempty"`
	// MasterProject is set when a contextual rule dictates the companion master project
	MasterProject string `json:"master_project,omitempty"`
}

// Resolved reports whether the name was found in the dataset
func (r Resolution) Resolved() bool {
	return r.Provenance != ProvenanceUnresolved
}

// ListingResolution resolves a listing's project and master project together
type ListingResolution struct {
	Project       Resolution  `json:"project"`
	MasterProject *Resolution `json:"master_project,omitempty"`
}

type entry struct {
	canonical  string
	provenance Provenance
	area       string
}

// table is an ordered lookup keyed by normalized variant. The first registration of a key wins.
type table struct {
	byKey map[string]entry
	keys  []string
}

func newTable() *table {
	return &table{byKey: make(map[string]entry)}
}

func (t *table) register(variant string, e entry) {
	key := normalizers.AliasKey(variant)
	if key == "" {
		return
	}
	if _, exists := t.byKey[key]; exists {
		return
	}
	t.byKey[key] = e
	t.keys = append(t.keys, key)
}

func (t *table) lookup(name string) (entry, bool) {
	e, ok := t.byKey[normalizers.AliasKey(name)]
	return e, ok
}

// Index is the immutable alias lookup structure
type Index struct {
	tables       map[Scope]*table
	areaTables   map[string]map[Scope]*table
	contextual   map[string]ContextualRule
	expansions   map[Scope]map[string][]string
	alternatives map[string][]string
	extras       map[string][]string
	ruleCount    int
}

// Stats summarises an index for logging
type Stats struct {
	Rules           int `json:"rules"`
	ProjectKeys     int `json:"project_keys"`
	MasterKeys      int `json:"master_project_keys"`
	ContextualRules int `json:"contextual_rules"`
	Areas           int `json:"areas"`
}

// NewIndex builds an index from a dataset
func NewIndex(ds *Dataset) (*Index, error) {
	if ds == nil {
		return nil, fmt.Errorf("alias dataset is nil")
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return NewIndexFromRules(ds.Rules()), nil
}

// NewDefaultIndex builds an index from the embedded dataset
func NewDefaultIndex() (*Index, error) {
	ds, err := DefaultDataset()
	if err != nil {
		return nil, err
	}
	return NewIndex(ds)
}

// NewIndexFromRules builds an index from already flattened rules.
//
// Master project registrations take contextual masters first and area tables second.
// Project registrations follow rule order: areas, name variations, numbered series,
// then contextual projects and their alternatives.
func NewIndexFromRules(rules []Rule) *Index {
	idx := &Index{
		tables: map[Scope]*table{
			ScopeProject:       newTable(),
			ScopeMasterProject: newTable(),
		},
		areaTables: make(map[string]map[Scope]*table),
		contextual: make(map[string]ContextualRule),
		expansions: map[Scope]map[string][]string{
			ScopeProject:       {},
			ScopeMasterProject: {},
		},
		alternatives: make(map[string][]string),
		extras:       make(map[string][]string),
		ruleCount:    len(rules),
	}

	for _, rule := range rules {
		c, ok := rule.(ContextualRule)
		if !ok {
			continue
		}
		for _, t := range c.Tuples {
			if t.MasterProject != "" {
				idx.tables[ScopeMasterProject].register(t.MasterProject, entry{canonical: t.MasterProject, provenance: ProvenanceContextual})
			}
		}
	}

	for _, rule := range rules {
		switch r := rule.(type) {
		case SimpleRule:
			idx.addSimple(r)
		case ContextualRule:
			idx.addContextual(r)
		}
	}
	return idx
}

func (idx *Index) addSimple(r SimpleRule) {
	e := entry{canonical: r.Canonical, provenance: r.Provenance, area: r.Area}
	global := idx.tables[r.Scope]
	global.register(r.Canonical, e)
	for _, v := range r.Variants {
		global.register(v, e)
	}

	if r.Provenance == ProvenanceArea {
		areaKey := normalizers.AliasKey(r.Area)
		if idx.areaTables[areaKey] == nil {
			idx.areaTables[areaKey] = map[Scope]*table{
				ScopeProject:       newTable(),
				ScopeMasterProject: newTable(),
			}
		}
		at := idx.areaTables[areaKey][r.Scope]
		at.register(r.Canonical, e)
		for _, v := range r.Variants {
			at.register(v, e)
		}
		idx.expansions[r.Scope][r.Canonical] = appendUnique(idx.expansions[r.Scope][r.Canonical], r.Variants...)
		return
	}
	idx.extras[r.Canonical] = appendUnique(idx.extras[r.Canonical], r.Variants...)
}

func (idx *Index) addContextual(r ContextualRule) {
	if len(r.Tuples) == 0 {
		return
	}
	if _, exists := idx.contextual[r.Name]; !exists {
		idx.contextual[r.Name] = r
	}
	projects := idx.tables[ScopeProject]
	for _, t := range r.Tuples {
		if t.Project != "" {
			projects.register(t.Project, entry{canonical: t.Project, provenance: ProvenanceContextual})
		}
	}
	canonical := r.Tuples[0].Project
	if canonical == "" || len(r.Alternatives) == 0 {
		return
	}
	for _, alt := range r.Alternatives {
		projects.register(alt, entry{canonical: canonical, provenance: ProvenanceAlternative})
	}
	idx.alternatives[canonical] = appendUnique(idx.alternatives[canonical], r.Alternatives...)
}

// Resolve maps a raw name to its canonical form. It never fails: an unknown name
// resolves to itself with ProvenanceUnresolved.
//
// In project scope a contextual rule is looked up by the exact raw name, while the
// rule's context is compared against hint.MasterProject after normalization.
func (idx *Index) Resolve(raw string, scope Scope, hint Hint) Resolution {
	if scope == ScopeProject {
		if rule, ok := idx.contextual[raw]; ok {
			tuple := rule.Select(hint.MasterProject)
			mapped := tuple.Project
			if mapped == "" {
				mapped = raw
			}
			res := Resolution{
				Input:         raw,
				Canonical:     mapped,
				Provenance:    ProvenanceContextual,
				MasterProject: tuple.MasterProject,
			}
			if chained, ok := idx.contextual[mapped]; ok && mapped != raw {
				if p := chained.Tuples[0].Project; p != "" {
					res.Canonical = p
				}
			} else if e, ok := idx.lookup(mapped, scope, hint.Area); ok {
				res.Canonical = e.canonical
				res.Area = e.area
			}
			return res
		}
	}

	if e, ok := idx.lookup(raw, scope, hint.Area); ok {
		return Resolution{Input: raw, Canonical: e.canonical, Provenance: e.provenance, Area: e.area}
	}
	return Resolution{Input: raw, Canonical: raw, Provenance: ProvenanceUnresolved}
}

// ResolveListing resolves a project together with its master project.
// A contextual project rule may replace the master project before it is resolved.
func (idx *Index) ResolveListing(project, masterProject, area string) ListingResolution {
	out := ListingResolution{
		Project: idx.Resolve(project, ScopeProject, Hint{Area: area, MasterProject: masterProject}),
	}
	master := masterProject
	if out.Project.Provenance == ProvenanceContextual && out.Project.MasterProject != "" {
		master = out.Project.MasterProject
	}
	if master != "" {
		m := idx.Resolve(master, ScopeMasterProject, Hint{Area: area})
		out.MasterProject = &m
	}
	return out
}

// Expand returns every known spelling of a canonical name, starting with the name itself.
// Order is deterministic: area tables, contextual alternatives (project scope only),
// name variations, numbered series.
func (idx *Index) Expand(canonical string, scope Scope) []string {
	out := []string{canonical}
	out = appendUnique(out, idx.expansions[scope][canonical]...)
	if scope == ScopeProject {
		out = appendUnique(out, idx.alternatives[canonical]...)
	}
	return appendUnique(out, idx.extras[canonical]...)
}

// Variants is the set of names a store query should accept for a resolution:
// the full expansion when resolved, otherwise just the literal input.
func (idx *Index) Variants(res Resolution, scope Scope) []string {
	if !res.Resolved() {
		return []string{res.Input}
	}
	return idx.Expand(res.Canonical, scope)
}

// ContextualRule returns the contextual rule registered under the exact raw name
func (idx *Index) ContextualRule(raw string) (ContextualRule, bool) {
	r, ok := idx.contextual[raw]
	return r, ok
}

// Stats reports index sizes
func (idx *Index) Stats() Stats {
	return Stats{
		Rules:           idx.ruleCount,
		ProjectKeys:     len(idx.tables[ScopeProject].keys),
		MasterKeys:      len(idx.tables[ScopeMasterProject].keys),
		ContextualRules: len(idx.contextual),
		Areas:           len(idx.areaTables),
	}
}

func (idx *Index) lookup(name string, scope Scope, area string) (entry, bool) {
	if area != "" {
		if scoped, ok := idx.areaTables[normalizers.AliasKey(area)]; ok {
			if e, ok := scoped[scope].lookup(name); ok {
				return e, true
			}
		}
	}
	t, ok := idx.tables[scope]
	if !ok {
		return entry{}, false
	}
	return t.lookup(name)
}

func appendUnique(dst []string, values ...string) []string {
	nonEmpty := ectolinq.Filter(values, func(v string) bool { return v != "" })
	return ectolinq.Distinct(append(dst, nonEmpty...))
}
