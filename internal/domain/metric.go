package domain

import "math/big"

// Metric is the static definition of one QC metric within an ingest step.
// It is generic over the step's joined comparison row type so the error
// predicate is a plain closure instead of an interpreted filter string.
type Metric[R any] struct {
	Step         int
	Number       int
	Name         string
	LeftLabel    string
	RightLabel   string
	ErrorMessage string

	// Predicate selects the joined rows exposed as error detail when the
	// metric fails. It must stay consistent with the scalar comparison:
	// a left/right mismatch implies the predicate matches at least one row.
	Predicate func(R) bool
}

// MetricResult is the immutable outcome of evaluating one metric.
// Values are big integers so checksum fingerprints (128-bit MD5 digests
// interpreted as integers) compare exactly alongside plain counts.
type MetricResult struct {
	MetricName     string   `json:"metric_name"`
	LeftDataName   string   `json:"left_data_name"`
	LeftDataValue  *big.Int `json:"left_data_value"`
	RightDataName  string   `json:"right_data_name"`
	RightDataValue *big.Int `json:"right_data_value"`
	LeftRightDelta *big.Int `json:"left_right_delta"`
	QcTimestamp    string   `json:"qc_timestamp"`
	QcStatus       int      `json:"qc_status"`
	QcErrorMessage string   `json:"qc_error_message,omitempty"`
	QcErrorPath    string   `json:"qc_error_path,omitempty"`
}

// Passed reports whether the metric compared equal.
func (m *MetricResult) Passed() bool { return m.QcStatus == 1 }
