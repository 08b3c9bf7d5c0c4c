package domain

import "time"

// Field is one named value of a persisted row. Row types expose their
// persisted shape as an ordered field list so sinks can write stable
// columns without reflection.
type Field struct {
	Name  string
	Value interface{}
}

// FieldProvider is implemented by every row type that can be handed to a
// row sink (joined comparison rows, summary rows, QC records).
type FieldProvider interface {
	Fields() []Field
}

// QcRecord is one row of the final QC report: the outcome of a single
// ingest step. The metrics, qc_reference, and misc payloads are JSON
// strings bounded to 2000 characters by schema contract; callers must
// guarantee the payloads fit.
type QcRecord struct {
	ID            string
	Name          string
	ExecutionDate string
	Metrics       string
	QcReference   string
	Misc          string
}

// QcRecordColumns is the persisted column order of a QcRecord.
var QcRecordColumns = []string{"id", "name", "execution_date", "metrics", "qc_reference", "misc"}

// Fields implements FieldProvider.
func (r QcRecord) Fields() []Field {
	return []Field{
		{"id", r.ID},
		{"name", r.Name},
		{"execution_date", r.ExecutionDate},
		{"metrics", r.Metrics},
		{"qc_reference", r.QcReference},
		{"misc", r.Misc},
	}
}

// QcRun is one completed run of the QC engine, as stored in the history store.
type QcRun struct {
	ID            string
	TenantID      string
	ExecutionDate string
	CreatedAt     time.Time
	Records       []QcRecord
}
