// Package memstore is an in-memory implementation of the store collections.
// It evaluates queries with the same semantics as the SQL repositories and is
// used by tests and by the CLI when resolving against a JSON fixture.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/store"
)

// Fixture is the JSON layout accepted by Load
type Fixture struct {
	Permits   []models.PermitRecord    `json:"permit_records"`
	Canonical []models.CanonicalRecord `json:"canonical_records"`
	Legacy    []models.LegacyRecord    `json:"legacy_records"`
}

// Collection is an append-only, in-memory record collection
type Collection[T any] struct {
	mu      sync.RWMutex
	records []T
	// Err, when set, is returned by every Find. Useful for failure tests.
	Err error
}

// NewCollection creates a collection seeded with records
func NewCollection[T any](records ...T) *Collection[T] {
	return &Collection[T]{records: append([]T(nil), records...)}
}

// Add appends records
func (c *Collection[T]) Add(records ...T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, records...)
}

// Len returns the number of stored records
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Find returns records matching every condition, in insertion order
func (c *Collection[T]) Find(ctx context.Context, q store.Query) ([]T, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []T
	skip := q.Offset
	for _, rec := range c.records {
		if !matches(rec, q.Conditions) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, rec)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

// Store bundles in-memory collections for all three record kinds
type Store struct {
	Permits   *Collection[models.PermitRecord]
	Canonical *Collection[models.CanonicalRecord]
	Legacy    *Collection[models.LegacyRecord]
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		Permits:   NewCollection[models.PermitRecord](),
		Canonical: NewCollection[models.CanonicalRecord](),
		Legacy:    NewCollection[models.LegacyRecord](),
	}
}

// FromFixture creates a store seeded from a fixture
func FromFixture(f Fixture) *Store {
	return &Store{
		Permits:   NewCollection(f.Permits...),
		Canonical: NewCollection(f.Canonical...),
		Legacy:    NewCollection(f.Legacy...),
	}
}

// Load reads a JSON fixture file
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode records fixture %s: %w", path, err)
	}
	return FromFixture(f), nil
}

// Collections exposes the in-memory collections through the store interfaces
func (s *Store) Collections() store.Store {
	return store.Store{
		Permits:   s.Permits,
		Canonical: s.Canonical,
		Legacy:    s.Legacy,
	}
}

func matches(rec any, conditions []store.Condition) bool {
	for _, c := range conditions {
		if !matchesCondition(rec, c) {
			return false
		}
	}
	return true
}

func matchesCondition(rec any, c store.Condition) bool {
	for _, field := range c.Fields {
		v, ok := fieldValue(rec, field)
		if !ok {
			continue
		}
		if evaluate(v, c) {
			return true
		}
	}
	return false
}

func evaluate(v value, c store.Condition) bool {
	switch c.Op {
	case store.OpEqual, store.OpIn:
		s := v.text()
		for _, want := range c.Values {
			if s == want || (c.FoldCase && strings.EqualFold(s, want)) {
				return true
			}
		}
	case store.OpContainsAll:
		s := strings.ToLower(v.text())
		for _, term := range c.Values {
			if !strings.Contains(s, strings.ToLower(term)) {
				return false
			}
		}
		return true
	case store.OpBetween:
		n, ok := v.number()
		return ok && n >= c.Min && n <= c.Max
	}
	return false
}

// value is a non-null column value
type value struct {
	s     string
	f     float64
	isNum bool
}

func (v value) text() string {
	if v.isNum {
		return fmt.Sprint(v.f)
	}
	return v.s
}

func (v value) number() (float64, bool) {
	if v.isNum {
		return v.f, true
	}
	return normalizers.LeadingFloat(v.s)
}

var (
	fieldIndexMu sync.RWMutex
	fieldIndex   = make(map[reflect.Type]map[string]int)
)

// fieldValue reads the struct field tagged db:"name". Nil pointers report absent.
func fieldValue(rec any, name string) (value, bool) {
	rv := reflect.ValueOf(rec)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	idx, ok := columns(rv.Type())[name]
	if !ok {
		return value{}, false
	}
	fv := rv.Field(idx)
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return value{}, false
		}
		fv = fv.Elem()
	}
	switch fv.Kind() {
	case reflect.String:
		return value{s: fv.String()}, true
	case reflect.Float32, reflect.Float64:
		return value{f: fv.Float(), isNum: true}, true
	case reflect.Int, reflect.Int32, reflect.Int64:
		return value{f: float64(fv.Int()), isNum: true}, true
	}
	return value{}, false
}

func columns(t reflect.Type) map[string]int {
	fieldIndexMu.RLock()
	cols, ok := fieldIndex[t]
	fieldIndexMu.RUnlock()
	if ok {
		return cols
	}

	cols = make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("db"); tag != "" && tag != "-" {
			cols[tag] = i
		}
	}
	fieldIndexMu.Lock()
	fieldIndex[t] = cols
	fieldIndexMu.Unlock()
	return cols
}
