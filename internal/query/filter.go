package query

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Filter accumulates optional predicates. Every predicate is ANDed with the others; empty
// values add nothing. Column names come from code, values are always bound parameters.
type Filter struct {
	clauses []string
	args    []any
}

func NewFilter() *Filter {
	return &Filter{}
}

// Equal adds "column = ?" when value is non-empty.
func (f *Filter) Equal(column, value string) *Filter {
	value = strings.TrimSpace(value)
	if value == "" {
		return f
	}
	f.clauses = append(f.clauses, column+" = ?")
	f.args = append(f.args, value)
	return f
}

// Contains adds a case-insensitive substring match of value against any of columns.
func (f *Filter) Contains(value string, columns ...string) *Filter {
	value = strings.TrimSpace(value)
	if value == "" || len(columns) == 0 {
		return f
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(value)) + "%"
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, "LOWER("+column+") LIKE ?")
		f.args = append(f.args, pattern)
	}
	f.clauses = append(f.clauses, "("+strings.Join(parts, " OR ")+")")
	return f
}

// Where renders the WHERE clause, including the neutral "1=1" head.
func (f *Filter) Where() string {
	var b strings.Builder
	b.WriteString("WHERE 1=1")
	for _, clause := range f.clauses {
		b.WriteString(" AND ")
		b.WriteString(clause)
	}
	return b.String()
}

// Args returns the bound values in clause order.
func (f *Filter) Args() []any {
	out := make([]any, len(f.args))
	copy(out, f.args)
	return out
}
