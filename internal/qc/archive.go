package qc

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"amiqc/internal/domain"
)

// stageDirs maps step numbers to the directory convention of the error-row
// sink. Steps 5 and 6 have no in-scope producer but stay valid destinations.
var stageDirs = map[int]string{
	StepDecrypt:          "decrypt",
	StepChannelIngest:    "channel_ingest",
	StepExtractCommonAmi: "extract_common_ami",
	StepLoadCommonAmi:    "load_common_ami",
	StepRawToMdisHour:    "raw_to_mdis_hour",
	StepRawToMdisDay:     "raw_to_mdis_day",
}

// Archiver persists QC data products — error detail rows, the daily AMI
// summary, and the final QC report — through a RowWriter. All writes are
// full overwrites.
type Archiver struct {
	writer      domain.RowWriter
	errorsBase  string
	summaryPath string
	reportPath  string
	logger      *slog.Logger
}

// NewArchiver creates an Archiver writing under the configured base paths.
func NewArchiver(writer domain.RowWriter, errorsBase, summaryPath, reportPath string, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer:      writer,
		errorsBase:  errorsBase,
		summaryPath: summaryPath,
		reportPath:  reportPath,
		logger:      logger,
	}
}

// SaveErrorRows writes the error detail for one failed (step, metric) to its
// long-term location and returns that location.
func (a *Archiver) SaveErrorRows(ctx context.Context, step, metric int, columns []string, rows [][]interface{}) (string, error) {
	dir, ok := stageDirs[step]
	if !ok {
		return "", domain.ErrNotFound("no error destination for step %d", step)
	}
	location := path.Join(a.errorsBase, dir, fmt.Sprintf("metric_number=%d", metric), "errors."+a.writer.Format())
	if err := a.writer.WriteRows(ctx, location, columns, rows); err != nil {
		return "", fmt.Errorf("save error rows for step %d metric %d: %w", step, metric, err)
	}
	a.logger.Info("saved error rows", "step", step, "metric", metric, "rows", len(rows), "location", location)
	return location, nil
}

// SaveSummary writes the daily AMI summary and returns its location.
func (a *Archiver) SaveSummary(ctx context.Context, rows []domain.SummaryRow) (string, error) {
	location := path.Join(a.summaryPath, "ami_summary."+a.writer.Format())
	columns := fieldColumns(domain.SummaryRow{})
	if err := a.writer.WriteRows(ctx, location, columns, fieldValues(rows)); err != nil {
		return "", fmt.Errorf("save ami summary: %w", err)
	}
	a.logger.Info("saved ami summary", "rows", len(rows), "location", location)
	return location, nil
}

// SaveReport writes the unioned QC report and returns its location.
func (a *Archiver) SaveReport(ctx context.Context, records []domain.QcRecord) (string, error) {
	location := path.Join(a.reportPath, "qc_output."+a.writer.Format())
	if err := a.writer.WriteRows(ctx, location, domain.QcRecordColumns, fieldValues(records)); err != nil {
		return "", fmt.Errorf("save qc report: %w", err)
	}
	a.logger.Info("saved qc report", "rows", len(records), "location", location)
	return location, nil
}
