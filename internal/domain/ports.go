package domain

import "context"

// TableCatalog resolves named virtual tables supplied by the external
// execution engine before the QC engine runs. A missing table yields a
// *NotFoundError, which fails the whole step.
type TableCatalog interface {
	// Table reads the named virtual table as a generic record set.
	Table(ctx context.Context, name string) (*Relation, error)
	// Location returns the storage location backing the named table, for
	// qc_reference payloads.
	Location(name string) (string, error)
}

// RowWriter persists a record set to a storage location. Writes are full
// overwrites, never appends. Format names the configured serialization
// format so callers can build location suffixes.
type RowWriter interface {
	WriteRows(ctx context.Context, location string, columns []string, rows [][]interface{}) error
	Format() string
}

// RunStore archives completed QC runs for historical analysis.
type RunStore interface {
	InsertRun(ctx context.Context, run *QcRun) error
}
