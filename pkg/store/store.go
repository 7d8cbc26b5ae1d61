// Package store defines the read-only record collections the matchers query
// and the small query language they use to do it.
package store

import (
	"context"
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Operator is a condition comparison
type Operator string

const (
	// OpEqual matches when a field equals Values[0]
	OpEqual Operator = "eq"
	// OpIn matches when a field equals any of Values. With FoldCase the comparison
	// is case-insensitive but still anchored to the whole value.
	OpIn Operator = "in"
	// OpContainsAll matches when a field contains every term of Values, case-insensitively
	OpContainsAll Operator = "contains_all"
	// OpBetween matches when a numeric field lies within [Min, Max]
	OpBetween Operator = "between"
)

// Condition applies one operator to a set of fields. The fields are alternatives:
// the condition holds when any one of them satisfies the operator.
type Condition struct {
	Fields   []string
	Op       Operator
	Values   []string
	FoldCase bool
	Min      float64
	Max      float64
}

// Query is a conjunction of conditions
type Query struct {
	Conditions []Condition
	// Limit caps the rows returned; zero means unbounded
	Limit int
	// Offset skips that many matching rows
	Offset int
}

// Equal builds an exact match condition on a single field
func Equal(field, value string) Condition {
	return Condition{Fields: []string{field}, Op: OpEqual, Values: []string{value}}
}

// In builds a set membership condition over alternative fields
func In(fields []string, values []string, foldCase bool) Condition {
	return Condition{Fields: fields, Op: OpIn, Values: values, FoldCase: foldCase}
}

// ContainsAll builds a case-insensitive substring condition that requires every term
func ContainsAll(fields []string, terms []string) Condition {
	return Condition{Fields: fields, Op: OpContainsAll, Values: terms, FoldCase: true}
}

// Between builds an inclusive numeric range condition over alternative fields
func Between(fields []string, min, max float64) Condition {
	return Condition{Fields: fields, Op: OpBetween, Min: min, Max: max}
}

// Validate rejects conditions no store could evaluate
func (c Condition) Validate() error {
	if len(c.Fields) == 0 {
		return fmt.Errorf("condition %s has no fields", c.Op)
	}
	switch c.Op {
	case OpEqual:
		if len(c.Values) != 1 {
			return fmt.Errorf("condition %s expects exactly one value, got %d", c.Op, len(c.Values))
		}
	case OpIn, OpContainsAll:
		if len(c.Values) == 0 {
			return fmt.Errorf("condition %s expects at least one value", c.Op)
		}
	case OpBetween:
		if c.Min > c.Max {
			return fmt.Errorf("condition %s has min %f > max %f", c.Op, c.Min, c.Max)
		}
	default:
		return fmt.Errorf("unknown condition operator %q", c.Op)
	}
	return nil
}

// Validate checks every condition of the query
func (q Query) Validate() error {
	if q.Limit < 0 || q.Offset < 0 {
		return fmt.Errorf("query limit and offset must not be negative")
	}
	for _, c := range q.Conditions {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PermitRecords is the permit registry collection
type PermitRecords interface {
	Find(ctx context.Context, q Query) ([]models.PermitRecord, error)
}

// CanonicalRecords is the cleaned transaction registry collection
type CanonicalRecords interface {
	Find(ctx context.Context, q Query) ([]models.CanonicalRecord, error)
}

// LegacyRecords is the legacy property registry collection
type LegacyRecords interface {
	Find(ctx context.Context, q Query) ([]models.LegacyRecord, error)
}

// Store bundles the three collections
type Store struct {
	Permits   PermitRecords
	Canonical CanonicalRecords
	Legacy    LegacyRecords
}

// Column names shared by every store implementation
const (
	ColPermitNumber = "p_number"

	ColUnitNumber     = "unit_number"
	ColProject        = "project"
	ColBuildingName   = "building_name"
	ColBuildingName2  = "building_name_2"
	ColBuildingNameEn = "building_name_en"
	ColProjectLnd     = "project_lnd"
	ColMasterProject  = "master_project"
	ColAreaName       = "area_name"
	ColSize           = "size"
	ColActualSize     = "actual_size"
)
