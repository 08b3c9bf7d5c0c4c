package qc

import (
	"fmt"
	"sort"

	"amiqc/internal/domain"
)

// Ingest step numbers. The two rollup stages (5, 6) are valid archive
// destinations but have no in-scope step producing them.
const (
	StepDecrypt          = 1
	StepChannelIngest    = 2
	StepExtractCommonAmi = 3
	StepLoadCommonAmi    = 4
	StepRawToMdisHour    = 5
	StepRawToMdisDay     = 6
)

var stepNames = map[int]string{
	StepDecrypt:          "Decrypt",
	StepChannelIngest:    "Channel Ingest",
	StepExtractCommonAmi: "Extract Common AMI",
	StepLoadCommonAmi:    "Load Common AMI",
}

// StepName returns the human name of an ingest step, failing loudly on an
// unknown step number.
func StepName(step int) (string, error) {
	name, ok := stepNames[step]
	if !ok {
		return "", domain.ErrNotFound("unknown qc step %d", step)
	}
	return name, nil
}

// metricSet is the validated, ordered metric table for one ingest step.
type metricSet[R any] struct {
	step    int
	metrics []domain.Metric[R]
}

// newMetricSet builds a metric set, enforcing (step, metric) uniqueness.
// The registry is hard-coded and assumed well-formed at process start, so a
// malformed definition is a programming error.
func newMetricSet[R any](step int, metrics ...domain.Metric[R]) metricSet[R] {
	seen := map[int]bool{}
	for _, m := range metrics {
		if m.Step != step {
			panic(fmt.Sprintf("metric %d registered under step %d but declares step %d", m.Number, step, m.Step))
		}
		if seen[m.Number] {
			panic(fmt.Sprintf("duplicate metric %d in step %d", m.Number, step))
		}
		if m.Predicate == nil {
			panic(fmt.Sprintf("metric %d in step %d has no error predicate", m.Number, step))
		}
		seen[m.Number] = true
	}
	ordered := append([]domain.Metric[R](nil), metrics...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Number < ordered[j].Number })
	return metricSet[R]{step: step, metrics: ordered}
}

// Get returns the definition for one metric number.
func (s metricSet[R]) Get(number int) (domain.Metric[R], error) {
	for _, m := range s.metrics {
		if m.Number == number {
			return m, nil
		}
	}
	var zero domain.Metric[R]
	return zero, domain.ErrNotFound("unknown metric %d for step %d", number, s.step)
}

// All returns the step's metrics in ascending metric-number order.
func (s metricSet[R]) All() []domain.Metric[R] {
	return s.metrics
}

// decryptMetrics checks delivered files against the ingest audit: file
// counts, line counts, and the checksum-list fingerprint.
var decryptMetrics = newMetricSet(StepDecrypt,
	domain.Metric[domain.DecryptRow]{
		Step:         StepDecrypt,
		Number:       1,
		Name:         "file count",
		LeftLabel:    "manifest file count",
		RightLabel:   "audit file count",
		ErrorMessage: "audit file count does not match manifest",
		Predicate:    func(r domain.DecryptRow) bool { return r.FileMismatch == 1 },
	},
	domain.Metric[domain.DecryptRow]{
		Step:         StepDecrypt,
		Number:       2,
		Name:         "line count",
		LeftLabel:    "manifest line count",
		RightLabel:   "audit line count",
		ErrorMessage: "audit line count does not match manifest",
		Predicate:    func(r domain.DecryptRow) bool { return r.LineCountMismatch == 1 },
	},
	domain.Metric[domain.DecryptRow]{
		Step:         StepDecrypt,
		Number:       3,
		Name:         "checksums",
		LeftLabel:    "manifest checksums",
		RightLabel:   "audit checksums",
		ErrorMessage: "checksum of audit checksum list does not match manifest",
		Predicate:    func(r domain.DecryptRow) bool { return r.ChecksumMismatch == 1 },
	},
)

// channelIngestMetrics checks that every raw channel was mapped, mapped
// exactly once, and mapped to the uuid the reference channel map resolves.
var channelIngestMetrics = newMetricSet(StepChannelIngest,
	domain.Metric[domain.ChannelIngestRow]{
		Step:         StepChannelIngest,
		Number:       1,
		Name:         "all raw ami channels processed",
		LeftLabel:    "raw ami channel count",
		RightLabel:   "channel ingest channel count",
		ErrorMessage: "raw ami channels missing from channel ingest output",
		Predicate:    func(r domain.ChannelIngestRow) bool { return r.NoOutput == 1 },
	},
	domain.Metric[domain.ChannelIngestRow]{
		Step:         StepChannelIngest,
		Number:       2,
		Name:         "no distinct raw ami channels mapped to multiple channel uuids",
		LeftLabel:    "multiple mapped channels expected",
		RightLabel:   "multiple mapped channels count",
		ErrorMessage: "distinct raw ami channels mapped to multiple channel uuids",
		Predicate:    func(r domain.ChannelIngestRow) bool { return r.MultipleChannelUUID == 1 },
	},
	domain.Metric[domain.ChannelIngestRow]{
		Step:         StepChannelIngest,
		Number:       3,
		Name:         "channel uuids in success output are mapped correctly in reference",
		LeftLabel:    "channel ingest success count",
		RightLabel:   "correctly mapped channels from reference",
		ErrorMessage: "channel uuids in success output incorrectly mapped in reference channel map",
		Predicate:    func(r domain.ChannelIngestRow) bool { return r.Success == 1 && r.ChannelUUIDMatch == 0 },
	},
)

// extractMetrics checks that every raw read reached the extract output,
// success or error.
var extractMetrics = newMetricSet(StepExtractCommonAmi,
	domain.Metric[domain.ExtractRow]{
		Step:         StepExtractCommonAmi,
		Number:       1,
		Name:         "all raw ami reads processed",
		LeftLabel:    "raw ami read count",
		RightLabel:   "extract common ami total read count",
		ErrorMessage: "raw ami read count != extract common ami total read count",
		Predicate:    func(r domain.ExtractRow) bool { return r.RawReadCnt != r.EcaTotalCnt },
	},
)

// loadMetrics checks that every ingestable read was loaded.
var loadMetrics = newMetricSet(StepLoadCommonAmi,
	domain.Metric[domain.LoadRow]{
		Step:         StepLoadCommonAmi,
		Number:       1,
		Name:         "all ingestable reads loaded",
		LeftLabel:    "extract common ami success read count",
		RightLabel:   "load common ami metadata count",
		ErrorMessage: "extract common ami success read count != load common ami metadata count",
		Predicate:    func(r domain.LoadRow) bool { return r.EcaSuccessCnt != r.LcaSuccessCnt },
	},
)
