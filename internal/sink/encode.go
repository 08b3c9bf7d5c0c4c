// Package sink persists QC record sets. Error-row archives, the daily ami
// summary, and the final QC report all go through the same RowWriter port,
// serialized as csv or as line-delimited JSON, to the local filesystem or
// to S3-compatible object storage.
package sink

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"amiqc/internal/domain"
)

const (
	// FormatCSV serializes record sets as RFC 4180 csv with a header row.
	FormatCSV = "csv"
	// FormatJSON serializes record sets as one JSON object per line, with
	// keys in column order.
	FormatJSON = "json"
)

// ValidFormat reports whether name is a supported serialization format.
func ValidFormat(name string) bool {
	return name == FormatCSV || name == FormatJSON
}

// Encode serializes a record set in the named format.
func Encode(format string, columns []string, rows [][]interface{}) ([]byte, error) {
	switch format {
	case FormatCSV:
		return encodeCSV(columns, rows)
	case FormatJSON:
		return encodeJSON(columns, rows)
	default:
		return nil, domain.ErrValidation("unsupported save format %q", format)
	}
}

func encodeCSV(columns []string, rows [][]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(columns))
	for _, row := range rows {
		if len(row) != len(columns) {
			return nil, domain.ErrValidation("row has %d cells, want %d", len(row), len(columns))
		}
		for i, v := range row {
			record[i] = cellString(v)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeJSON writes one object per line with keys in column order, so the
// output stays diffable across runs.
func encodeJSON(columns []string, rows [][]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	for _, row := range rows {
		if len(row) != len(columns) {
			return nil, domain.ErrValidation("row has %d cells, want %d", len(row), len(columns))
		}
		buf.WriteByte('{')
		for i, col := range columns {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(col)
			if err != nil {
				return nil, fmt.Errorf("marshal column name %q: %w", col, err)
			}
			val, err := json.Marshal(row[i])
			if err != nil {
				return nil, fmt.Errorf("marshal cell for column %q: %w", col, err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteString("}\n")
	}
	return buf.Bytes(), nil
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
