package database

import (
	"testing"

	"github.com/huandu/go-sqlbuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/store"
)

var testColumns = map[string]bool{
	store.ColPermitNumber: true,
	store.ColProject:      true,
	store.ColBuildingName: true,
	store.ColSize:         true,
	store.ColActualSize:   true,
}

func build(t *testing.T, flavor sqlbuilder.Flavor, q store.Query) (string, []any) {
	t.Helper()
	sb := NewSelectBuilder(flavor)
	sb.Select("id").From("records")
	require.NoError(t, ApplyQuery(sb, q, testColumns))
	return sb.Build()
}

func TestApplyQuery(t *testing.T) {
	t.Run("should translate an exact match", func(t *testing.T) {
		query, args := build(t, sqlbuilder.PostgreSQL, store.Query{Conditions: []store.Condition{
			store.Equal(store.ColPermitNumber, "23456"),
		}})
		assert.Equal(t, "SELECT id FROM records WHERE p_number = $1", query)
		assert.Equal(t, []any{"23456"}, args)
	})

	t.Run("should fold case across alternative fields", func(t *testing.T) {
		query, args := build(t, sqlbuilder.PostgreSQL, store.Query{Conditions: []store.Condition{
			store.In([]string{store.ColProject, store.ColBuildingName}, []string{"Hillside", "HILLSIDE PARK"}, true),
		}})
		assert.Equal(t, "SELECT id FROM records WHERE (LOWER(project) IN ($1, $2) OR LOWER(building_name) IN ($3, $4))", query)
		assert.Equal(t, []any{"hillside", "hillside park", "hillside", "hillside park"}, args)
	})

	t.Run("should keep case without folding", func(t *testing.T) {
		query, _ := build(t, sqlbuilder.PostgreSQL, store.Query{Conditions: []store.Condition{
			store.In([]string{store.ColPermitNumber}, []string{"2345", "3456"}, false),
		}})
		assert.Equal(t, "SELECT id FROM records WHERE p_number IN ($1, $2)", query)
	})

	t.Run("should require every term and escape wildcards", func(t *testing.T) {
		query, args := build(t, sqlbuilder.PostgreSQL, store.Query{Conditions: []store.Condition{
			store.ContainsAll([]string{store.ColProject}, []string{"Marina", "100%_gate"}),
		}})
		assert.Equal(t, `SELECT id FROM records WHERE (LOWER(project) LIKE $1 ESCAPE '\' AND LOWER(project) LIKE $2 ESCAPE '\')`, query)
		assert.Equal(t, []any{"%marina%", `%100\%\_gate%`}, args)
	})

	t.Run("should and conditions and apply the limit", func(t *testing.T) {
		query, args := build(t, sqlbuilder.PostgreSQL, store.Query{
			Conditions: []store.Condition{
				store.In([]string{store.ColProject}, []string{"hillside"}, true),
				store.Between([]string{store.ColSize, store.ColActualSize}, 109.25, 113.71),
			},
			Limit: 50,
		})
		assert.Contains(t, query, "WHERE LOWER(project) IN ($1) AND (size BETWEEN $2 AND $3 OR actual_size BETWEEN $4 AND $5)")
		assert.Contains(t, query, "LIMIT")
		assert.Contains(t, args, 109.25)
		assert.Contains(t, args, 113.71)
	})

	t.Run("should use oracle placeholders", func(t *testing.T) {
		query, _ := build(t, sqlbuilder.Oracle, store.Query{Conditions: []store.Condition{
			store.Equal(store.ColPermitNumber, "23456"),
		}})
		assert.Equal(t, "SELECT id FROM records WHERE p_number = :1", query)
	})

	t.Run("should reject unknown columns", func(t *testing.T) {
		sb := NewSelectBuilder(sqlbuilder.PostgreSQL)
		sb.Select("id").From("records")
		err := ApplyQuery(sb, store.Query{Conditions: []store.Condition{
			store.Equal("p_number; DROP TABLE records", "1"),
		}}, testColumns)
		assert.ErrorContains(t, err, "unknown column")
	})

	t.Run("should reject invalid queries", func(t *testing.T) {
		sb := NewSelectBuilder(sqlbuilder.PostgreSQL)
		err := ApplyQuery(sb, store.Query{Conditions: []store.Condition{
			store.Between([]string{store.ColSize}, 5, 1),
		}}, testColumns)
		assert.Error(t, err)
	})
}

func TestConfig_DSN(t *testing.T) {
	t.Run("should build a postgres url", func(t *testing.T) {
		dsn, err := Config{Driver: DriverPostgres, Host: "db", Port: "5432", User: "fern", Password: "p@ss", Name: "fern", SSLMode: "disable"}.DSN()
		require.NoError(t, err)
		assert.Equal(t, "postgres://fern:p%40ss@db:5432/fern?sslmode=disable", dsn)
	})

	t.Run("should build an oracle url", func(t *testing.T) {
		dsn, err := Config{Driver: DriverOracle, Host: "ora", Port: "1521", User: "fern", Password: "secret", Name: "ORCLPDB1"}.DSN()
		require.NoError(t, err)
		assert.Contains(t, dsn, "oracle://")
		assert.Contains(t, dsn, "ora:1521/ORCLPDB1")
	})

	t.Run("should reject a bad oracle port", func(t *testing.T) {
		_, err := Config{Driver: DriverOracle, Port: "x"}.DSN()
		assert.Error(t, err)
	})

	t.Run("should reject unknown drivers", func(t *testing.T) {
		_, err := Config{Driver: "mysql"}.DSN()
		assert.Error(t, err)
		_, err = Flavor("mysql")
		assert.Error(t, err)
	})
}

func TestInsertBuilder_OnConflictUpdate(t *testing.T) {
	ib := NewInsertBuilder(sqlbuilder.PostgreSQL)
	ib.InsertInto("permit_records").Cols("id", "p_number").Values("1", "23456")
	ib.OnConflictUpdate([]string{"id"}, "p_number")

	query, args := ib.Build()
	assert.Equal(t, "INSERT INTO permit_records (id, p_number) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET p_number = EXCLUDED.p_number", query)
	assert.Equal(t, []any{"1", "23456"}, args)
}
