package sink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalWriter persists record sets to the local filesystem. Writes are full
// overwrites; parent directories are created on demand.
type LocalWriter struct {
	format string
	logger *slog.Logger
}

// NewLocalWriter creates a LocalWriter for the given serialization format.
func NewLocalWriter(format string, logger *slog.Logger) (*LocalWriter, error) {
	if !ValidFormat(format) {
		return nil, fmt.Errorf("local writer: unsupported format %q", format)
	}
	return &LocalWriter{format: format, logger: logger}, nil
}

func (w *LocalWriter) Format() string { return w.format }

func (w *LocalWriter) WriteRows(ctx context.Context, location string, columns []string, rows [][]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(w.format, columns, rows)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(location), 0o755); err != nil {
		return fmt.Errorf("create directory for %q: %w", location, err)
	}
	if err := os.WriteFile(location, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", location, err)
	}
	w.logger.Debug("wrote record set", "location", location, "rows", len(rows), "format", w.format)
	return nil
}
