package qc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"amiqc/internal/domain"
)

// miscEntry is one auxiliary diagnostic attached to a step's output record.
type miscEntry struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// runStepMetrics evaluates every metric registered for a step, in ascending
// metric-number order. Each metric must have a scalar pair supplied by the
// step; a missing pair is a programming error surfaced loudly. Any metric
// whose error-row archival fails aborts the whole step.
func runStepMetrics[R domain.FieldProvider](
	ctx context.Context,
	logger *slog.Logger,
	arch *Archiver,
	set metricSet[R],
	values map[int]scalarPair,
	rows []R,
	now time.Time,
) (map[int]domain.MetricResult, error) {
	results := make(map[int]domain.MetricResult, len(set.All()))
	for _, m := range set.All() {
		pair, ok := values[m.Number]
		if !ok {
			return nil, domain.ErrNotFound("no scalar values supplied for step %d metric %d", set.step, m.Number)
		}
		res, err := evaluateMetric(ctx, logger, arch, m, pair, rows, now)
		if err != nil {
			return nil, err
		}
		results[m.Number] = res
	}
	return results, nil
}

// buildRecord assembles one step's QcRecord, serializing the metric results,
// source references, and misc diagnostics to JSON. Payloads are bounded to
// 2000 characters by schema contract; callers guarantee they fit.
func buildRecord(step int, executionDate string, metrics map[int]domain.MetricResult,
	reference map[string]string, misc map[int]miscEntry) (domain.QcRecord, error) {

	name, err := StepName(step)
	if err != nil {
		return domain.QcRecord{}, err
	}

	metricsJSON, err := marshalNumberKeyed(metrics)
	if err != nil {
		return domain.QcRecord{}, fmt.Errorf("marshal metrics for step %d: %w", step, err)
	}
	referenceJSON, err := json.Marshal(reference)
	if err != nil {
		return domain.QcRecord{}, fmt.Errorf("marshal reference for step %d: %w", step, err)
	}
	miscJSON, err := marshalNumberKeyed(misc)
	if err != nil {
		return domain.QcRecord{}, fmt.Errorf("marshal misc for step %d: %w", step, err)
	}

	return domain.QcRecord{
		ID:            strconv.Itoa(step),
		Name:          name,
		ExecutionDate: executionDate,
		Metrics:       metricsJSON,
		QcReference:   string(referenceJSON),
		Misc:          miscJSON,
	}, nil
}

// marshalNumberKeyed serializes an integer-keyed map as a JSON object with
// keys in ascending numeric order, so metric 10 sorts after metric 2.
func marshalNumberKeyed[V any](m map[int]V) (string, error) {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		val, err := json.Marshal(m[k])
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&buf, "%q:", strconv.Itoa(k))
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// UnionQcOutput unions the completed step records into the final report,
// sorted by step id. An empty input yields a zero-row report with the same
// schema as the non-empty case.
func UnionQcOutput(records []domain.QcRecord) []domain.QcRecord {
	out := append([]domain.QcRecord{}, records...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
