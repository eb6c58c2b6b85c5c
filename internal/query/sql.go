package query

import (
	"fmt"
	"strings"
)

// Dialect describes how a SQL backend spells placeholders and
// case-insensitive matching.
type Dialect struct {
	Name        string
	Placeholder func(n int) string
	ILike       func(col, placeholder string) string
}

var MySQL = Dialect{
	Name:        "mysql",
	Placeholder: func(int) string { return "?" },
	ILike: func(col, ph string) string {
		return fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", col, ph)
	},
}

var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	ILike: func(col, ph string) string {
		return fmt.Sprintf("%s ILIKE %s", col, ph)
	},
}

// Where renders the predicate chain. Placeholders are numbered from 1.
// It returns an empty clause when the query has no predicates.
func (q Query) Where(d Dialect) (string, []any) {
	var (
		parts []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return d.Placeholder(len(args))
	}

	for _, eq := range q.Eqs {
		parts = append(parts, fmt.Sprintf("%s = %s", eq.Field, next(eq.Value)))
	}
	if q.Search != nil {
		pattern := "%" + escapeLike(q.Search.Term) + "%"
		ors := make([]string, 0, len(q.Search.Fields))
		for _, f := range q.Search.Fields {
			ors = append(ors, d.ILike(string(f), next(pattern)))
		}
		parts = append(parts, "("+strings.Join(ors, " OR ")+")")
	}

	if len(parts) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// OrderClause renders ORDER BY for the query's sort field.
func (q Query) OrderClause() string {
	if q.OrderBy == "" {
		return ""
	}
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s", q.OrderBy, dir)
}

// escapeLike makes %, _ and the escape character itself match literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
