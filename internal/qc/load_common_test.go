package qc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amiqc/internal/domain"
)

func TestExtractSuccessByUTCDate(t *testing.T) {
	rel := &domain.Relation{
		Columns: []string{"channel_uuid", "tenant_id", "year", "month", "day"},
		Rows: [][]interface{}{
			{"cu-1", int64(7), int64(2024), int64(5), int64(2)},
			{"cu-2", int64(7), int64(2024), int64(5), int64(2)},
			{"cu-1", int64(7), int64(2024), int64(5), int64(3)},
			{"cu-1", int64(8), int64(2024), int64(5), int64(2)},
		},
	}
	out, err := ExtractSuccessByUTCDate(rel)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, domain.ExtractSuccessDate{TenantID: 7, DateUTC: "2024-05-02", SuccessCnt: 2}, out[0])
	assert.Equal(t, domain.ExtractSuccessDate{TenantID: 7, DateUTC: "2024-05-03", SuccessCnt: 1}, out[1])
	assert.Equal(t, domain.ExtractSuccessDate{TenantID: 8, DateUTC: "2024-05-02", SuccessCnt: 1}, out[2])
}

func TestExtractLoadSuccessDateCoercion(t *testing.T) {
	rel := &domain.Relation{
		Columns: []string{"tenant_id", "date_utc", "row_count"},
		Rows: [][]interface{}{
			{int64(7), "2024-05-02", int64(10)},
			{int64(7), time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), int64(4)},
		},
	}
	out, err := ExtractLoadSuccess(rel)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "2024-05-02", out[0].DateUTC)
	assert.Equal(t, "2024-05-03", out[1].DateUTC)
}

func TestJoinLoadCommonAmi(t *testing.T) {
	extract := []domain.ExtractSuccessDate{
		{TenantID: 7, DateUTC: "2024-05-02", SuccessCnt: 10},
		{TenantID: 7, DateUTC: "2024-05-03", SuccessCnt: 4},
	}
	load := []domain.LoadSuccessDate{
		{TenantID: 7, DateUTC: "2024-05-02", SuccessCnt: 6},
		{TenantID: 7, DateUTC: "2024-05-02", SuccessCnt: 4},
		{TenantID: 7, DateUTC: "2024-05-04", SuccessCnt: 2},
	}

	joined := JoinLoadCommonAmi(extract, load)
	require.Len(t, joined, 3)

	d2 := joined[0]
	assert.Equal(t, "2024-05-02", d2.DateUTC)
	assert.Equal(t, int64(10), d2.EcaSuccessCnt)
	assert.Equal(t, int64(10), d2.LcaSuccessCnt, "duplicate load rows sum")

	d3 := joined[1]
	assert.Equal(t, int64(4), d3.EcaSuccessCnt)
	assert.Equal(t, int64(0), d3.LcaSuccessCnt)

	d4 := joined[2]
	assert.Equal(t, int64(0), d4.EcaSuccessCnt, "load-only dates still join")
	assert.Equal(t, int64(2), d4.LcaSuccessCnt)

	m, err := loadMetrics.Get(1)
	require.NoError(t, err)
	assert.False(t, m.Predicate(d2))
	assert.True(t, m.Predicate(d3))
	assert.True(t, m.Predicate(d4))

	assert.Equal(t, int64(14), sumExtractSuccess(extract))
	assert.Equal(t, int64(12), sumLoadSuccess(load))
}
