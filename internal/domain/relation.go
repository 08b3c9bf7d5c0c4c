package domain

// Relation is a generic record set read from a named virtual table.
// The execution engine behind the catalog decides how rows are produced;
// the QC engine only consumes columns and row values.
type Relation struct {
	Columns []string
	Rows    [][]interface{}
}

// Index returns the position of the named column, or -1 if absent.
func (r *Relation) Index(name string) int {
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the relation carries the named column.
func (r *Relation) HasColumn(name string) bool {
	return r.Index(name) >= 0
}

// RequireColumns returns a ValidationError naming the first missing column.
// A source table lacking an expected column aborts the whole step.
func (r *Relation) RequireColumns(table string, names ...string) error {
	for _, n := range names {
		if !r.HasColumn(n) {
			return ErrValidation("table %q has no column %q", table, n)
		}
	}
	return nil
}
