package query_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hazards_directory/internal/query"
)

type row map[query.Field]string

func (r row) get(f query.Field) string { return r[f] }

func TestBuild_Defaults(t *testing.T) {
	q := query.Build(query.Filters{})

	assert.Empty(t, q.Eqs)
	assert.Nil(t, q.Search)
	assert.Equal(t, query.FieldProviderName, q.OrderBy)
	assert.True(t, q.Ascending)
	assert.Equal(t, 50, q.Limit)
	assert.Equal(t, 0, q.Offset)
	assert.True(t, q.CountExact)
}

func TestBuild_NegativeOffsetClamped(t *testing.T) {
	q := query.Build(query.Filters{Offset: -5, Limit: -1})
	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, query.DefaultLimit, q.Limit)
}

func TestBuild_EqualityFiltersInFixedOrder(t *testing.T) {
	q := query.Build(query.Filters{
		ServiceCategory: "Mold",
		ZipCode:         "33101",
		State:           "Florida",
		County:          "Miami-Dade",
	})
	assert.Equal(t, []query.Eq{
		{Field: query.FieldState, Value: "Florida"},
		{Field: query.FieldCounty, Value: "Miami-Dade"},
		{Field: query.FieldZipCode, Value: "33101"},
		{Field: query.FieldServiceCategory, Value: "Mold"},
	}, q.Eqs)
}

func TestBuild_FloridaMold_Matches(t *testing.T) {
	q := query.Build(query.Filters{State: "Florida", ServiceCategory: "Mold"})

	assert.True(t, q.Matches(row{query.FieldState: "Florida", query.FieldServiceCategory: "Mold"}.get))
	assert.False(t, q.Matches(row{query.FieldState: "Florida", query.FieldServiceCategory: "Pest"}.get))
	assert.False(t, q.Matches(row{query.FieldState: "Georgia", query.FieldServiceCategory: "Mold"}.get))
}

func TestBuild_NoFiltersMatchesEverything(t *testing.T) {
	q := query.Build(query.Filters{})
	assert.True(t, q.Matches(row{}.get))
	assert.True(t, q.Matches(row{query.FieldState: "Ohio"}.get))
}

func TestMatches_SearchIsCaseInsensitiveOverNameOrAddress(t *testing.T) {
	q := query.Build(query.Filters{Search: "  dry "})

	require.NotNil(t, q.Search)
	assert.Equal(t, "dry", q.Search.Term)
	assert.True(t, q.Matches(row{query.FieldProviderName: "Bone DRY Restoration"}.get))
	assert.True(t, q.Matches(row{query.FieldAddress: "1 Dryden Rd, Tampa, FL"}.get))
	assert.False(t, q.Matches(row{query.FieldProviderName: "Wet Works"}.get))
}

func TestWhere_MySQL(t *testing.T) {
	q := query.Build(query.Filters{State: "Florida", Search: "50%_off"})

	clause, args := q.Where(query.MySQL)
	assert.Equal(t,
		" WHERE state = ? AND (LOWER(provider_name) LIKE LOWER(?) OR LOWER(address) LIKE LOWER(?))",
		clause)
	assert.Equal(t, []any{"Florida", `%50\%\_off%`, `%50\%\_off%`}, args)
}

func TestWhere_PostgresNumbersPlaceholders(t *testing.T) {
	q := query.Build(query.Filters{State: "Georgia", County: "Fulton", Search: "mold"})

	clause, args := q.Where(query.Postgres)
	assert.Equal(t,
		" WHERE state = $1 AND county = $2 AND (provider_name ILIKE $3 OR address ILIKE $4)",
		clause)
	assert.Len(t, args, 4)
}

func TestWhere_Empty(t *testing.T) {
	clause, args := query.Build(query.Filters{}).Where(query.Postgres)
	assert.Empty(t, clause)
	assert.Nil(t, args)
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, " ORDER BY provider_name ASC", query.Build(query.Filters{}).OrderClause())
}

func TestPostgREST(t *testing.T) {
	q := query.Build(query.Filters{
		State:           "North Carolina",
		ServiceCategory: "Water",
		Search:          "a,b",
		Limit:           24,
		Offset:          48,
	})

	v := q.PostgREST()
	assert.Equal(t, "*", v.Get("select"))
	assert.Equal(t, "eq.North Carolina", v.Get("state"))
	assert.Equal(t, "eq.Water", v.Get("service_category"))
	assert.Equal(t, `(provider_name.imatch."a,b",address.imatch."a,b")`, v.Get("or"))
	assert.Equal(t, "provider_name.asc", v.Get("order"))
	assert.Equal(t, "48", v.Get("offset"))
	assert.Equal(t, "24", v.Get("limit"))
	assert.Empty(t, v.Get("county"))
}

// %, _ and * in the search text are literal on every backend.
func TestSearchWildcardsAreLiteral(t *testing.T) {
	q := query.Build(query.Filters{Search: "50%_off*"})

	_, args := q.Where(query.Postgres)
	require.Len(t, args, 2)
	assert.Equal(t, `%50\%\_off*%`, args[0])

	assert.Equal(t,
		`(provider_name.imatch."50%_off\\*",address.imatch."50%_off\\*")`,
		q.PostgREST().Get("or"))

	assert.True(t, q.Matches(row{query.FieldProviderName: "Get 50%_OFF* today"}.get))
	assert.False(t, q.Matches(row{query.FieldProviderName: "50 percent off"}.get))
	assert.False(t, q.Matches(row{query.FieldProviderName: "50x_off*"}.get))
}

func TestSearchRegexMetaIsQuoted(t *testing.T) {
	q := query.Build(query.Filters{Search: `a.b (c)`})
	assert.Equal(t,
		`(provider_name.imatch."a\\.b \\(c\\)",address.imatch."a\\.b \\(c\\)")`,
		q.PostgREST().Get("or"))
}

func TestWindow(t *testing.T) {
	q := query.Build(query.Filters{Limit: 24, Offset: 24})

	from, to := q.Window(50)
	assert.Equal(t, 24, from)
	assert.Equal(t, 48, to)

	from, to = q.Window(30)
	assert.Equal(t, 24, from)
	assert.Equal(t, 30, to)

	from, to = q.Window(10)
	assert.Equal(t, 10, from)
	assert.Equal(t, 10, to)
}

func TestWindow_HugeOffsetDoesNotOverflow(t *testing.T) {
	q := query.Query{Offset: math.MaxInt - 10, Limit: 24}
	from, to := q.Window(5)
	assert.Equal(t, 5, from)
	assert.Equal(t, 5, to)

	q = query.Query{Offset: 3, Limit: math.MaxInt}
	from, to = q.Window(5)
	assert.Equal(t, 3, from)
	assert.Equal(t, 5, to)
}
