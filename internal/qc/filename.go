// Package qc implements the AMI ingest reconciliation engine: per-step
// extractors and joiners, the shared metric evaluator, and the run
// controller that assembles the final QC report.
package qc

import "strings"

// UnknownFile is the sentinel file key for empty or missing filenames.
const UnknownFile = "UNKNOWN"

// CleanFileName strips the leading path and trailing extension from a file
// reference so filenames compare across stages: substring after the last
// '/', truncated at the first '.'. Empty input maps to the UNKNOWN sentinel.
func CleanFileName(fullName string) string {
	if fullName == "" {
		return UnknownFile
	}
	name := fullName
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if dot := strings.Index(name, "."); dot > 0 {
		name = name[:dot]
	}
	if name == "" {
		return UnknownFile
	}
	return name
}
