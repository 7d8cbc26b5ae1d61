package database

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/fern/pkg/store"
)

// likeEscaper escapes LIKE wildcards so search terms match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ApplyQuery translates a store query into WHERE, LIMIT and OFFSET clauses.
// Every field must be one of columns; anything else is rejected rather than interpolated.
// Between must only target numeric columns.
func ApplyQuery(sb *SelectBuilder, q store.Query, columns map[string]bool) error {
	if err := q.Validate(); err != nil {
		return err
	}

	where := make([]string, 0, len(q.Conditions))
	for _, c := range q.Conditions {
		for _, f := range c.Fields {
			if !columns[f] {
				return fmt.Errorf("unknown column %q", f)
			}
		}

		alternatives := make([]string, 0, len(c.Fields))
		for _, f := range c.Fields {
			alternatives = append(alternatives, condition(sb, f, c))
		}
		if len(alternatives) == 1 {
			where = append(where, alternatives[0])
		} else {
			where = append(where, sb.Or(alternatives...))
		}
	}

	if len(where) > 0 {
		sb.Where(where...)
	}
	if q.Limit > 0 {
		sb.Limit(q.Limit)
	}
	if q.Offset > 0 {
		sb.Offset(q.Offset)
	}
	return nil
}

func condition(sb *SelectBuilder, field string, c store.Condition) string {
	switch c.Op {
	case store.OpEqual:
		return sb.Equal(field, c.Values[0])
	case store.OpIn:
		if !c.FoldCase {
			return sb.In(field, toAny(c.Values)...)
		}
		lowered := make([]any, len(c.Values))
		for i, v := range c.Values {
			lowered[i] = strings.ToLower(v)
		}
		return sb.In(fmt.Sprintf("LOWER(%s)", field), lowered...)
	case store.OpContainsAll:
		terms := make([]string, 0, len(c.Values))
		for _, term := range c.Values {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
			terms = append(terms, fmt.Sprintf(`LOWER(%s) LIKE %s ESCAPE '\'`, field, sb.Var(pattern)))
		}
		if len(terms) == 1 {
			return terms[0]
		}
		return sb.And(terms...)
	case store.OpBetween:
		return sb.Between(field, c.Min, c.Max)
	}
	return "1 = 0"
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
