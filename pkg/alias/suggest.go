package alias

import (
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Suggestion is a registered variant close to an unresolved name
type Suggestion struct {
	Variant   string `json:"variant"`
	Canonical string `json:"canonical"`
	Distance  int    `json:"distance"`
}

// Suggest lists the n registered variants nearest to raw by edit distance on normalized keys.
// It is a maintenance aid for growing the dataset and takes no part in resolution.
func (idx *Index) Suggest(raw string, scope Scope, n int) []Suggestion {
	t, ok := idx.tables[scope]
	if !ok || n <= 0 {
		return nil
	}
	key := normalizers.AliasKey(raw)
	if key == "" {
		return nil
	}

	suggestions := make([]Suggestion, 0, len(t.keys))
	for _, k := range t.keys {
		suggestions = append(suggestions, Suggestion{
			Variant:   k,
			Canonical: t.byKey[k].canonical,
			Distance:  levenshtein.ComputeDistance(key, k),
		})
	}
	// stable keeps registration order among equal distances
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Distance < suggestions[j].Distance
	})
	if len(suggestions) > n {
		suggestions = suggestions[:n]
	}
	return suggestions
}
