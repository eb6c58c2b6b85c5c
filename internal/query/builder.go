// Package query turns listing filters into a backend-neutral predicate chain.
//
// A Query is rendered by each store: as a SQL WHERE clause (Where), as
// PostgREST URL parameters (PostgREST) or evaluated in memory (Matches).
package query

import "strings"

// Field is a providers table column that can be filtered or ordered on.
type Field string

const (
	FieldID              Field = "id"
	FieldState           Field = "state"
	FieldCounty          Field = "county"
	FieldZipCode         Field = "zip_code"
	FieldServiceCategory Field = "service_category"
	FieldProviderName    Field = "provider_name"
	FieldAddress         Field = "address"
)

const DefaultLimit = 50

// Filters are the optional listing parameters. Empty strings mean "not set".
type Filters struct {
	State           string
	County          string
	ZipCode         string
	ServiceCategory string
	Search          string
	Limit           int
	Offset          int
}

// Eq is an exact-match predicate.
type Eq struct {
	Field Field
	Value string
}

// AnyILike matches when any of Fields contains Term, ignoring case.
type AnyILike struct {
	Fields []Field
	Term   string
}

type Query struct {
	Eqs        []Eq
	Search     *AnyILike
	OrderBy    Field
	Ascending  bool
	Offset     int
	Limit      int
	CountExact bool
}

// Build maps filters onto a Query ordered by provider name ascending.
func Build(f Filters) Query {
	q := Query{
		OrderBy:    FieldProviderName,
		Ascending:  true,
		Offset:     f.Offset,
		Limit:      f.Limit,
		CountExact: true,
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	for _, eq := range []Eq{
		{FieldState, f.State},
		{FieldCounty, f.County},
		{FieldZipCode, f.ZipCode},
		{FieldServiceCategory, f.ServiceCategory},
	} {
		if eq.Value != "" {
			q.Eqs = append(q.Eqs, eq)
		}
	}

	if term := strings.TrimSpace(f.Search); term != "" {
		q.Search = &AnyILike{
			Fields: []Field{FieldProviderName, FieldAddress},
			Term:   term,
		}
	}
	return q
}

// Matches evaluates the predicates against a record exposed through get.
// Ordering and paging are not applied.
func (q Query) Matches(get func(Field) string) bool {
	for _, eq := range q.Eqs {
		if get(eq.Field) != eq.Value {
			return false
		}
	}
	if q.Search == nil {
		return true
	}
	term := strings.ToLower(q.Search.Term)
	for _, f := range q.Search.Fields {
		if strings.Contains(strings.ToLower(get(f)), term) {
			return true
		}
	}
	return false
}

// Window clamps the [Offset, Offset+Limit) range to n rows without
// computing Offset+Limit, so huge offsets cannot overflow.
func (q Query) Window(n int) (from, to int) {
	from = min(max(q.Offset, 0), n)
	return from, from + min(max(q.Limit, 0), n-from)
}
