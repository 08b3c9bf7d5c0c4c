package qc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"amiqc/internal/domain"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// Value coercion for relation cells. The execution engine behind the
// catalog may surface numbers as any integer/float width and timestamps as
// time.Time or strings, depending on the source format.

func asString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case int64:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case uint64:
		return int64(t)
	case float64:
		return int64(t)
	case float32:
		return int64(t)
	case json.Number:
		n, _ := t.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64)
		return n
	default:
		return 0
	}
}

func asDecimal(v interface{}) decimal.Decimal {
	switch t := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return t
	case float64:
		return decimal.NewFromFloat(t)
	case float32:
		return decimal.NewFromFloat32(t)
	case int64:
		return decimal.NewFromInt(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero
		}
		return d
	case []byte:
		d, err := decimal.NewFromString(strings.TrimSpace(string(t)))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// asTime coerces a cell to a timestamp. String cells are tried against the
// common interval layouts; ok is false when the cell cannot be read as a time.
func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{timestampLayout, time.RFC3339, dateLayout} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// asDataMap reads an audit `data` cell, which is either a JSON string or an
// already-structured map, depending on how the audit source was written.
func asDataMap(v interface{}) (map[string]interface{}, error) {
	switch t := v.(type) {
	case nil:
		return map[string]interface{}{}, nil
	case map[string]interface{}:
		return t, nil
	case string:
		out := map[string]interface{}{}
		if err := json.Unmarshal([]byte(t), &out); err != nil {
			return nil, fmt.Errorf("parse audit data %q: %w", t, err)
		}
		return out, nil
	case []byte:
		out := map[string]interface{}{}
		if err := json.Unmarshal(t, &out); err != nil {
			return nil, fmt.Errorf("parse audit data: %w", err)
		}
		return out, nil
	default:
		return nil, domain.ErrValidation("audit data cell has unsupported type %T", v)
	}
}
