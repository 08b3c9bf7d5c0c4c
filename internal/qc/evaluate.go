package qc

import (
	"context"
	"crypto/md5" //nolint:gosec // fingerprint for comparison, not security
	"log/slog"
	"math/big"
	"sort"
	"strings"
	"time"

	"amiqc/internal/domain"
)

// scalarPair holds the aggregated left/right values for one metric.
// Counts are lifted into big integers so they compare uniformly with
// checksum fingerprints.
type scalarPair struct {
	left  *big.Int
	right *big.Int
}

func countPair(left, right int64) scalarPair {
	return scalarPair{left: big.NewInt(left), right: big.NewInt(right)}
}

// ChecksumFingerprint reduces a checksum list to a single comparable value:
// the MD5 digest of the sorted, concatenated checksums, interpreted as a big
// integer. Sorting first makes the fingerprint order-independent. The
// big-integer form is preserved for compatibility with existing persisted
// results.
func ChecksumFingerprint(checksums []string) *big.Int {
	sorted := append([]string(nil), checksums...)
	sort.Strings(sorted)
	sum := md5.Sum([]byte(strings.Join(sorted, ""))) //nolint:gosec
	return new(big.Int).SetBytes(sum[:])
}

// evaluateMetric compares one metric's left and right scalars and builds the
// result. On mismatch the metric fails: the registered predicate filters the
// joined rows, each surviving row is stamped with the error message, and the
// filtered set is archived. Archival failure propagates — the verdict fields
// are already set, but the step aborts.
func evaluateMetric[R domain.FieldProvider](
	ctx context.Context,
	logger *slog.Logger,
	arch *Archiver,
	m domain.Metric[R],
	values scalarPair,
	rows []R,
	now time.Time,
) (domain.MetricResult, error) {
	result := domain.MetricResult{
		MetricName:     m.Name,
		LeftDataName:   m.LeftLabel,
		LeftDataValue:  values.left,
		RightDataName:  m.RightLabel,
		RightDataValue: values.right,
		LeftRightDelta: new(big.Int).Sub(values.left, values.right),
		QcTimestamp:    now.UTC().Format(timestampLayout),
	}

	logger.Info("running qc metric", "step", m.Step, "metric", m.Number, "name", m.Name)

	if values.left.Cmp(values.right) == 0 {
		result.QcStatus = 1
		return result, nil
	}

	result.QcStatus = 0
	result.QcErrorMessage = m.ErrorMessage
	logger.Info("qc metric failed", "step", m.Step, "metric", m.Number, "name", m.Name,
		"delta", result.LeftRightDelta.String())

	columns, detail := errorDetail(rows, m.Predicate, m.ErrorMessage)
	location, err := arch.SaveErrorRows(ctx, m.Step, m.Number, columns, detail)
	if err != nil {
		return result, err
	}
	result.QcErrorPath = location
	return result, nil
}

// errorDetail filters the joined rows by the metric predicate and stamps
// each surviving row with the error message. Columns are derived from the
// row type so an empty filter result still has a stable schema.
func errorDetail[R domain.FieldProvider](rows []R, pred func(R) bool, message string) ([]string, [][]interface{}) {
	var zero R
	fields := zero.Fields()
	columns := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		columns = append(columns, f.Name)
	}
	columns = append(columns, "error_message")

	var out [][]interface{}
	for _, r := range rows {
		if !pred(r) {
			continue
		}
		vals := make([]interface{}, 0, len(columns))
		for _, f := range r.Fields() {
			vals = append(vals, f.Value)
		}
		vals = append(vals, message)
		out = append(out, vals)
	}
	return columns, out
}

// fieldColumns returns the persisted column order of a row type.
func fieldColumns(p domain.FieldProvider) []string {
	fields := p.Fields()
	columns := make([]string, 0, len(fields))
	for _, f := range fields {
		columns = append(columns, f.Name)
	}
	return columns
}

// fieldValues flattens typed rows into generic writer rows.
func fieldValues[R domain.FieldProvider](rows []R) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		fields := r.Fields()
		vals := make([]interface{}, 0, len(fields))
		for _, f := range fields {
			vals = append(vals, f.Value)
		}
		out = append(out, vals)
	}
	return out
}
