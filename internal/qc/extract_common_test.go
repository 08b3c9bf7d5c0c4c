package qc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amiqc/internal/domain"
)

func TestChannelReadCounts(t *testing.T) {
	summary := []domain.SummaryRow{
		{ChannelKey: key("L1", "A1", "C1"), NumReadsTotal: 3},
		{ChannelKey: key("L1", "A1", "C1"), NumReadsTotal: 2},
		{ChannelKey: key("L2", "A2", "C2"), NumReadsTotal: 7},
	}
	counts := ChannelReadCounts(summary)
	require.Len(t, counts, 2)
	assert.Equal(t, int64(5), counts[0].RawReadCnt)
	assert.Equal(t, int64(7), counts[1].RawReadCnt)
}

func TestExtractSuccessByChannel(t *testing.T) {
	rel := &domain.Relation{
		Columns: []string{"channel_uuid", "tenant_id", "year", "month", "day"},
		Rows: [][]interface{}{
			{"cu-1", int64(7), int64(2024), int64(5), int64(2)},
			{"cu-1", int64(7), int64(2024), int64(5), int64(2)},
			{"cu-2", int64(7), int64(2024), int64(5), int64(2)},
			{"cu-orphan", int64(7), int64(2024), int64(5), int64(2)},
		},
	}
	k1 := key("L1", "A1", "C1")
	channels := []domain.IngestedChannel{
		ingested(k1, "cu-1"),
		ingested(k1, "cu-2"),
	}

	success, err := ExtractSuccessByChannel(rel, channels)
	require.NoError(t, err)
	require.Len(t, success, 2)

	// The orphan uuid groups under the empty identity and sorts first.
	orphan := success[0]
	assert.Equal(t, domain.ChannelKey{}, orphan.ChannelKey)
	assert.Equal(t, "cu-orphan", orphan.ChannelUUID)
	assert.Equal(t, int64(1), orphan.SuccessCnt)

	mapped := success[1]
	assert.Equal(t, k1, mapped.ChannelKey)
	assert.Equal(t, "cu-1, cu-2", mapped.ChannelUUID)
	assert.Equal(t, int64(3), mapped.SuccessCnt)
}

func TestJoinExtractCommonAmi(t *testing.T) {
	k1 := key("L1", "A1", "C1")
	k2 := key("L2", "A2", "C2")
	reads := []domain.ChannelReadCount{
		{ChannelKey: k1, RawReadCnt: 5},
		{ChannelKey: k2, RawReadCnt: 4},
	}
	success := []domain.ExtractSuccessChannel{
		{ChannelKey: k1, ChannelUUID: "cu-1", SuccessCnt: 3},
	}
	errored := []domain.ExtractErrorChannel{
		{ChannelKey: k1, ErrorCnt: 2},
	}

	joined := JoinExtractCommonAmi(reads, success, errored)
	require.Len(t, joined, 2)

	r1 := joined[0]
	assert.Equal(t, int64(5), r1.RawReadCnt)
	assert.Equal(t, int64(3), r1.EcaSuccessCnt)
	assert.Equal(t, int64(2), r1.EcaErrorCnt)
	assert.Equal(t, int64(5), r1.EcaTotalCnt)

	r2 := joined[1]
	assert.Equal(t, int64(4), r2.RawReadCnt)
	assert.Equal(t, int64(0), r2.EcaTotalCnt, "missing extract sides coalesce to zero")

	m, err := extractMetrics.Get(1)
	require.NoError(t, err)
	assert.False(t, m.Predicate(r1))
	assert.True(t, m.Predicate(r2))
}

func TestExtractErrorByChannel(t *testing.T) {
	rel := &domain.Relation{
		Columns: channelKeyColumns,
		Rows: [][]interface{}{
			{"L1", "A1", "C1", "D"},
			{"L1", "A1", "C1", "D"},
			{"L2", "A2", "C2", "D"},
		},
	}
	errored, err := ExtractErrorByChannel(rel)
	require.NoError(t, err)
	require.Len(t, errored, 2)
	assert.Equal(t, int64(2), errored[0].ErrorCnt)
	assert.Equal(t, int64(1), errored[1].ErrorCnt)
}
