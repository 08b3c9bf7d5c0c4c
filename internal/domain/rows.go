package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConsumptionClass is the canonical consumption-quality category a
// tenant-specific code maps into. Codes outside the mapping classify as
// ClassUnknown rather than failing.
type ConsumptionClass int

const (
	ClassMissing   ConsumptionClass = 0
	ClassActual    ConsumptionClass = 1
	ClassEstimated ConsumptionClass = 2
	ClassProrated  ConsumptionClass = 3
	ClassUnknown   ConsumptionClass = -1
)

// ChannelKey is the natural identity of one metered stream as the tenant
// names it: the 4-tuple joiners use for channel-grain comparisons.
type ChannelKey struct {
	ExternalLocationID string
	ExternalAccountID  string
	ExternalChannelID  string
	Direction          string
}

// === Decrypt stage record sets ===

// ManifestEntry is one file the tenant manifest claims was delivered.
type ManifestEntry struct {
	Filename  string
	Checksum  string
	LineCount int64
}

// EncryptedFile is one distinct encrypted file observed in the drop.
type EncryptedFile struct {
	Filename string
}

// AuditEntry is one decrypt-success outcome from the ingest audit log.
type AuditEntry struct {
	Filename  string
	Checksum  string
	LineCount int64
}

// DecryptedFile is the per-file read total derived from the AMI summary.
type DecryptedFile struct {
	Filename  string
	LineCount int64
}

// === Common-format and summary record sets ===

// CommonRead is one raw interval read translated into the common QC format.
type CommonRead struct {
	ChannelKey
	IntervalStartRaw time.Time
	IntervalEndRaw   time.Time
	HourRaw          int
	DateRaw          string
	IntervalStartUTC time.Time
	IntervalEndUTC   time.Time
	HourUTC          int
	DateUTC          string
	IntervalSeconds  int
	Class            ConsumptionClass
	Consumption      decimal.Decimal
	FileName         string
}

// SummaryRow is one row of the daily AMI ingest summary: per-channel,
// per-UTC-date, per-file read counts and consumption sums by class.
type SummaryRow struct {
	ChannelKey
	DateUTC                 string
	FileName                string
	IntervalSeconds         int
	NumReadsActual          int64
	DayConsumptionActual    decimal.Decimal
	NumReadsEstimated       int64
	DayConsumptionEstimated decimal.Decimal
	NumReadsProrated        int64
	DayConsumptionProrated  decimal.Decimal
	NumReadsMissed          int64
	DayConsumptionMissed    decimal.Decimal
	NumReadsNoCode          int64
	DayConsumptionNoCode    decimal.Decimal
	NumReadsTotal           int64
	DayConsumptionTotal     decimal.Decimal
}

// Fields implements FieldProvider.
func (s SummaryRow) Fields() []Field {
	return []Field{
		{"external_location_id", s.ExternalLocationID},
		{"external_account_id", s.ExternalAccountID},
		{"external_channel_id", s.ExternalChannelID},
		{"direction", s.Direction},
		{"date_utc", s.DateUTC},
		{"file_name", s.FileName},
		{"interval_seconds", s.IntervalSeconds},
		{"num_reads_actual", s.NumReadsActual},
		{"day_consumption_actual", s.DayConsumptionActual},
		{"num_reads_estimated", s.NumReadsEstimated},
		{"day_consumption_estimated", s.DayConsumptionEstimated},
		{"num_reads_prorated", s.NumReadsProrated},
		{"day_consumption_prorated", s.DayConsumptionProrated},
		{"num_reads_missed", s.NumReadsMissed},
		{"day_consumption_missed", s.DayConsumptionMissed},
		{"num_reads_no_code", s.NumReadsNoCode},
		{"day_consumption_no_code", s.DayConsumptionNoCode},
		{"num_reads_total", s.NumReadsTotal},
		{"day_consumption_total", s.DayConsumptionTotal},
	}
}

// RollupRead is a common-format read enriched with its ingested channel
// identity and local calendar context, feeding the downstream rollup stages.
type RollupRead struct {
	CommonRead
	TimeZone           string
	ChannelUUID        string
	IntervalStartLocal time.Time
	DateLocal          string
}

// === Channel-ingest stage record sets ===

// IngestedChannel is one channel the channel-ingest task mapped successfully.
type IngestedChannel struct {
	ChannelKey
	TenantID     int64
	AccountUUID  string
	LocationUUID string
	ChannelUUID  string
	TimeZone     string
}

// ChannelMapRef is one channel identity independently resolved from the
// reference channel-mapping source.
type ChannelMapRef struct {
	ChannelKey
	AccountUUID  string
	LocationUUID string
	ChannelUUID  string
}

// === Extract / load stage record sets ===

// ChannelReadCount is the per-channel raw read total from the AMI summary.
type ChannelReadCount struct {
	ChannelKey
	RawReadCnt int64
}

// ExtractSuccessChannel is the per-channel success read count from the
// extract task, with the channel uuid set observed for that identity.
type ExtractSuccessChannel struct {
	ChannelKey
	ChannelUUID string
	SuccessCnt  int64
}

// ExtractErrorChannel is the per-channel error read count from the extract task.
type ExtractErrorChannel struct {
	ChannelKey
	ErrorCnt int64
}

// ExtractSuccessDate is the per-tenant, per-UTC-date success read count
// derived from the extract task's partition columns.
type ExtractSuccessDate struct {
	TenantID   int64
	DateUTC    string
	SuccessCnt int64
}

// LoadSuccessDate is the per-tenant, per-UTC-date row count reported by the
// load task.
type LoadSuccessDate struct {
	TenantID   int64
	DateUTC    string
	SuccessCnt int64
}
