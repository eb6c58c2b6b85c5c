package query

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// PostgREST renders the query as request parameters for a PostgREST
// (Supabase) table endpoint. The exact count has to be requested separately
// with the "Prefer: count=exact" header.
func (q Query) PostgREST() url.Values {
	v := url.Values{}
	v.Set("select", "*")
	for _, eq := range q.Eqs {
		v.Set(string(eq.Field), "eq."+eq.Value)
	}
	if q.Search != nil {
		// ilike cannot express a literal "*" (PostgREST rewrites it to %),
		// so the substring match goes through a quoted case-insensitive regex.
		pattern := quoteValue(regexp.QuoteMeta(q.Search.Term))
		ors := make([]string, 0, len(q.Search.Fields))
		for _, f := range q.Search.Fields {
			ors = append(ors, fmt.Sprintf("%s.imatch.%s", f, pattern))
		}
		v.Set("or", "("+strings.Join(ors, ",")+")")
	}
	if q.OrderBy != "" {
		dir := "desc"
		if q.Ascending {
			dir = "asc"
		}
		v.Set("order", string(q.OrderBy)+"."+dir)
	}
	v.Set("offset", strconv.Itoa(q.Offset))
	v.Set("limit", strconv.Itoa(q.Limit))
	return v
}

// quoteValue wraps a value in double quotes so reserved characters
// (commas, dots, parentheses) inside logical operators are taken literally.
func quoteValue(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
