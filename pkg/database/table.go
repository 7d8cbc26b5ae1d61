package database

import (
	"context"
	"fmt"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/store"
)

const upsertBatchSize = 500

// Statement is a rendered query and its arguments
type Statement struct {
	Query string
	Args  []any
}

// Table maps a record struct to a table through its db tags
type Table[T any] struct {
	name    string
	key     string
	record  *sqlbuilder.Struct
	columns map[string]bool
}

func NewTable[T any](name, key string, flavor sqlbuilder.Flavor) *Table[T] {
	var zero T
	record := sqlbuilder.NewStruct(&zero).For(flavor)
	columns := make(map[string]bool)
	for _, col := range record.Columns() {
		columns[col] = true
	}
	return &Table[T]{name: name, key: key, record: record, columns: columns}
}

func (t *Table[T]) Name() string {
	return t.name
}

// SelectQuery renders a store query against the table.
// Rows come back ordered by the table key so limits and pages are repeatable.
func (t *Table[T]) SelectQuery(q store.Query) (string, []any, error) {
	sb := &SelectBuilder{t.record.SelectFrom(t.name)}
	if err := ApplyQuery(sb, q, t.columns); err != nil {
		return "", nil, fmt.Errorf("%s: %w", t.name, err)
	}
	sb.OrderBy(t.key).Asc()
	query, args := sb.Build()
	return query, args, nil
}

// Find runs a store query
func (t *Table[T]) Find(ctx context.Context, db Querier, q store.Query) ([]T, error) {
	query, args, err := t.SelectQuery(q)
	if err != nil {
		return nil, err
	}
	var rows []T
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select from %s: %w", t.name, err)
	}
	return rows, nil
}

// UpsertQueries renders PostgreSQL upserts keyed on the table key, in batches
func (t *Table[T]) UpsertQueries(records []T) []Statement {
	var updates []string
	for _, col := range t.record.Columns() {
		if col != t.key {
			updates = append(updates, col)
		}
	}

	var out []Statement
	for start := 0; start < len(records); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(records))
		values := make([]any, 0, end-start)
		for i := start; i < end; i++ {
			values = append(values, &records[i])
		}
		ib := &InsertBuilder{t.record.InsertInto(t.name, values...)}
		ib.OnConflictUpdate([]string{t.key}, updates...)
		query, args := ib.Build()
		out = append(out, Statement{Query: query, Args: args})
	}
	return out
}

// Upsert writes records inside a transaction taken from ctx or opened here
func (t *Table[T]) Upsert(ctx context.Context, db DB, records []T) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if db.Flavor() != sqlbuilder.PostgreSQL {
		return 0, fmt.Errorf("upserts into %s require postgres", t.name)
	}

	ctx, tx, err := db.GetTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	for _, batch := range t.UpsertQueries(records) {
		if _, err := tx.ExecContext(ctx, batch.Query, batch.Args...); err != nil {
			return 0, fmt.Errorf("upsert into %s: %w", t.name, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(records), nil
}
