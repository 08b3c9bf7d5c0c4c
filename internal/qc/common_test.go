package qc

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amiqc/internal/config"
	"amiqc/internal/domain"
)

var testCodes = config.CodeMap{
	Actual:    []string{"A", "R"},
	Estimated: []string{"E"},
	Prorated:  []string{"P"},
	Missing:   []string{"M"},
}

var testColumns = config.ColumnMap{
	ExternalLocationID: "loc_id",
	ExternalAccountID:  "acct_id",
	ExternalChannelID:  "chan_id",
	Direction:          "dir",
	Timestamp:          "read_ts",
	Consumption:        "kwh",
	Interval:           "ivl_sec",
	ConsumptionCode:    "code",
	ManifestFilename:   "fname",
	ManifestChecksum:   "md5",
	ManifestLineCount:  "lines",
}

func rawRelation(rows ...[]interface{}) *domain.Relation {
	return &domain.Relation{
		Columns: []string{"loc_id", "acct_id", "chan_id", "dir", "read_ts", "kwh", "ivl_sec", "code", "filename"},
		Rows:    rows,
	}
}

func TestClassifyCode(t *testing.T) {
	tests := []struct {
		code string
		want domain.ConsumptionClass
	}{
		{"A", domain.ClassActual},
		{"R", domain.ClassActual},
		{"E", domain.ClassEstimated},
		{"P", domain.ClassProrated},
		{"M", domain.ClassMissing},
		{"Z", domain.ClassUnknown},
		{"", domain.ClassUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyCode(tt.code, testCodes), "code %q", tt.code)
	}
}

func TestRawToCommonTimezoneNormalization(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2024-05-02 00:30 Eastern is 2024-05-02 04:30 UTC (EDT), so the read's
	// UTC interval start crosses back to the same date while the raw date
	// stays local.
	rel := rawRelation(
		[]interface{}{"L1", "A1", "C1", "D", "2024-05-02 00:30:00", 1.5, int64(1800), "A", "/in/acme_0502.csv.pgp"},
	)
	common, err := RawToCommon(rel, testColumns, testCodes, ny)
	require.NoError(t, err)
	require.Len(t, common, 1)

	r := common[0]
	assert.Equal(t, "L1", r.ExternalLocationID)
	assert.Equal(t, "2024-05-02 00:00:00", r.IntervalStartRaw.Format(timestampLayout))
	assert.Equal(t, "2024-05-02 04:00:00", r.IntervalStartUTC.Format(timestampLayout))
	assert.Equal(t, "2024-05-02", r.DateRaw)
	assert.Equal(t, "2024-05-02", r.DateUTC)
	assert.Equal(t, 0, r.HourRaw)
	assert.Equal(t, 4, r.HourUTC)
	assert.Equal(t, 1800, r.IntervalSeconds)
	assert.Equal(t, domain.ClassActual, r.Class)
	assert.Equal(t, "acme_0502", r.FileName)
	assert.True(t, decimal.NewFromFloat(1.5).Equal(r.Consumption))
}

func TestRawToCommonMissingColumn(t *testing.T) {
	rel := &domain.Relation{Columns: []string{"loc_id"}, Rows: nil}
	_, err := RawToCommon(rel, testColumns, testCodes, time.UTC)
	require.Error(t, err)
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestRawToCommonBadTimestamp(t *testing.T) {
	rel := rawRelation(
		[]interface{}{"L1", "A1", "C1", "D", "not a time", 1.0, int64(900), "A", "f.csv"},
	)
	_, err := RawToCommon(rel, testColumns, testCodes, time.UTC)
	require.Error(t, err)
}

func TestBuildSummary(t *testing.T) {
	rel := rawRelation(
		[]interface{}{"L1", "A1", "C1", "D", "2024-05-02 00:30:00", 1.5, int64(1800), "A", "f1.csv"},
		[]interface{}{"L1", "A1", "C1", "D", "2024-05-02 01:00:00", 2.5, int64(1800), "A", "f1.csv"},
		[]interface{}{"L1", "A1", "C1", "D", "2024-05-02 01:30:00", 0.5, int64(1800), "E", "f1.csv"},
		[]interface{}{"L1", "A1", "C1", "D", "2024-05-02 02:00:00", 0.0, int64(1800), "Z", "f1.csv"},
		[]interface{}{"L2", "A2", "C2", "D", "2024-05-02 02:00:00", 4.0, int64(1800), "A", "f2.csv"},
	)
	common, err := RawToCommon(rel, testColumns, testCodes, time.UTC)
	require.NoError(t, err)

	summary := BuildSummary(common)
	require.Len(t, summary, 2)

	s1 := summary[0]
	assert.Equal(t, "L1", s1.ExternalLocationID)
	assert.Equal(t, "f1", s1.FileName)
	assert.Equal(t, int64(2), s1.NumReadsActual)
	assert.Equal(t, int64(1), s1.NumReadsEstimated)
	assert.Equal(t, int64(1), s1.NumReadsNoCode)
	assert.Equal(t, int64(4), s1.NumReadsTotal)
	assert.True(t, decimal.NewFromFloat(4.0).Equal(s1.DayConsumptionActual))
	assert.True(t, decimal.NewFromFloat(4.5).Equal(s1.DayConsumptionTotal))

	s2 := summary[1]
	assert.Equal(t, "L2", s2.ExternalLocationID)
	assert.Equal(t, int64(1), s2.NumReadsTotal)
}

func TestBuildRollup(t *testing.T) {
	rel := rawRelation(
		[]interface{}{"L1", "A1", "C1", "D", "2024-05-02 04:00:00", 1.0, int64(3600), "A", "f1.csv"},
		[]interface{}{"L1", "A1", "C1", "R", "2024-05-02 04:00:00", 1.0, int64(3600), "A", "f1.csv"},
		[]interface{}{"L9", "A9", "C9", "D", "2024-05-02 04:00:00", 1.0, int64(3600), "A", "f1.csv"},
	)
	common, err := RawToCommon(rel, testColumns, testCodes, time.UTC)
	require.NoError(t, err)

	channels := []domain.IngestedChannel{
		{
			ChannelKey:  domain.ChannelKey{ExternalLocationID: "L1", ExternalAccountID: "A1", ExternalChannelID: "C1", Direction: "D"},
			ChannelUUID: "cu-1",
			TimeZone:    "America/New_York",
		},
	}

	rollup, err := BuildRollup(common, channels)
	require.NoError(t, err)
	require.Len(t, rollup, 1, "unmapped channels and non-delivery directions are dropped")

	r := rollup[0]
	assert.Equal(t, "cu-1", r.ChannelUUID)
	// 03:00 UTC interval start is 23:00 the previous day in Eastern time.
	assert.Equal(t, "2024-05-01", r.DateLocal)
	assert.Equal(t, "2024-05-01 23:00:00", r.IntervalStartLocal.Format(timestampLayout))
}

func TestBuildRollupBadTimezone(t *testing.T) {
	rel := rawRelation(
		[]interface{}{"L1", "A1", "C1", "D", "2024-05-02 04:00:00", 1.0, int64(3600), "A", "f1.csv"},
	)
	common, err := RawToCommon(rel, testColumns, testCodes, time.UTC)
	require.NoError(t, err)

	channels := []domain.IngestedChannel{
		{
			ChannelKey:  domain.ChannelKey{ExternalLocationID: "L1", ExternalAccountID: "A1", ExternalChannelID: "C1", Direction: "D"},
			ChannelUUID: "cu-1",
			TimeZone:    "Mars/Olympus",
		},
	}
	_, err = BuildRollup(common, channels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mars/Olympus")
}
