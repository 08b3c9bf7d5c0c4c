// Package engine backs the QC virtual-table catalog with DuckDB. Stage
// outputs live as parquet, csv, or json files; each configured source is
// registered as a DuckDB view over the matching reader function, and the
// QC layer reads the views as plain record sets.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"amiqc/internal/domain"
)

// Open opens a DuckDB database. An empty path opens an in-memory database,
// which is the normal mode for a QC run.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return db, nil
}

// Catalog implements domain.TableCatalog over DuckDB views.
type Catalog struct {
	db      *sql.DB
	sources map[string]string
	logger  *slog.Logger
}

// NewCatalog registers each named source as a DuckDB view and returns the
// catalog. Registration is deterministic over source names so failures are
// reproducible.
func NewCatalog(ctx context.Context, db *sql.DB, sources map[string]string, logger *slog.Logger) (*Catalog, error) {
	c := &Catalog{db: db, sources: make(map[string]string, len(sources)), logger: logger}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := c.register(ctx, name, sources[name]); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// register creates one view over the reader function matching the source's
// file extension. The filename pseudo column is always projected so the QC
// layer can attribute rows to their source files.
func (c *Catalog) register(ctx context.Context, name, location string) error {
	reader, err := readerFor(location)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf(
		"CREATE OR REPLACE VIEW %s AS SELECT * FROM %s('%s', filename=true)",
		quoteIdent(name), reader, escapeLiteral(location),
	)
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("register source %q at %q: %w", name, location, err)
	}
	c.sources[name] = location
	c.logger.Debug("registered source", "table", name, "location", location, "reader", reader)
	return nil
}

// readerFor picks the DuckDB table function for a source location by its
// file extension. Glob locations resolve by the glob's extension.
func readerFor(location string) (string, error) {
	ext := strings.ToLower(path.Ext(location))
	if ext == ".gz" {
		ext = strings.ToLower(path.Ext(strings.TrimSuffix(location, ext)))
	}
	switch ext {
	case ".parquet":
		return "read_parquet", nil
	case ".csv", ".tsv", ".txt":
		return "read_csv_auto", nil
	case ".json", ".jsonl", ".ndjson":
		return "read_json_auto", nil
	default:
		return "", domain.ErrValidation("unsupported source extension %q in %q", ext, location)
	}
}

// Table reads the named view into a Relation. Unregistered names fail loudly.
func (c *Catalog) Table(ctx context.Context, name string) (*domain.Relation, error) {
	if _, ok := c.sources[name]; !ok {
		return nil, domain.ErrNotFound("virtual table %q is not registered", name)
	}

	rows, err := c.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(name))
	if err != nil {
		return nil, fmt.Errorf("read virtual table %q: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns of virtual table %q: %w", name, err)
	}

	rel := &domain.Relation{Columns: cols}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan virtual table %q: %w", name, err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		rel.Rows = append(rel.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate virtual table %q: %w", name, err)
	}
	return rel, nil
}

// Location returns the storage location a table was registered from.
func (c *Catalog) Location(name string) (string, error) {
	loc, ok := c.sources[name]
	if !ok {
		return "", domain.ErrNotFound("virtual table %q is not registered", name)
	}
	return loc, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
