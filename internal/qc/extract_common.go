package qc

import (
	"sort"
	"strings"

	"amiqc/internal/domain"
)

// ChannelReadCounts aggregates the daily AMI summary to per-channel raw
// read totals.
func ChannelReadCounts(summary []domain.SummaryRow) []domain.ChannelReadCount {
	acc := map[domain.ChannelKey]int64{}
	var order []domain.ChannelKey
	for _, s := range summary {
		if _, ok := acc[s.ChannelKey]; !ok {
			order = append(order, s.ChannelKey)
		}
		acc[s.ChannelKey] += s.NumReadsTotal
	}
	out := make([]domain.ChannelReadCount, 0, len(order))
	for _, key := range order {
		out = append(out, domain.ChannelReadCount{ChannelKey: key, RawReadCnt: acc[key]})
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i].ChannelKey, out[j].ChannelKey) })
	return out
}

// ExtractSuccessByChannel counts extract-task success reads per channel
// uuid and resolves each uuid back to its external channel identity through
// the ingested channels. Reads whose uuid no ingested channel claims group
// under an empty identity. Identities mapped by several uuids report the
// sorted uuid set.
func ExtractSuccessByChannel(rel *domain.Relation, channels []domain.IngestedChannel) ([]domain.ExtractSuccessChannel, error) {
	if err := rel.RequireColumns(TableExtractSuccess, "channel_uuid"); err != nil {
		return nil, err
	}
	iUUID := rel.Index("channel_uuid")

	countByUUID := map[string]int64{}
	for _, row := range rel.Rows {
		countByUUID[asString(row[iUUID])]++
	}

	type keyUUID struct {
		domain.ChannelKey
		UUID string
	}
	distinct := map[keyUUID]bool{}
	keysByUUID := map[string][]domain.ChannelKey{}
	for _, c := range channels {
		ku := keyUUID{ChannelKey: c.ChannelKey, UUID: c.ChannelUUID}
		if distinct[ku] {
			continue
		}
		distinct[ku] = true
		keysByUUID[c.ChannelUUID] = append(keysByUUID[c.ChannelUUID], c.ChannelKey)
	}

	type agg struct {
		uuids map[string]bool
		cnt   int64
	}
	acc := map[domain.ChannelKey]*agg{}
	uuids := make([]string, 0, len(countByUUID))
	for uuid := range countByUUID {
		uuids = append(uuids, uuid)
	}
	sort.Strings(uuids)
	for _, uuid := range uuids {
		keys := keysByUUID[uuid]
		if len(keys) == 0 {
			keys = []domain.ChannelKey{{}}
		}
		for _, key := range keys {
			a, ok := acc[key]
			if !ok {
				a = &agg{uuids: map[string]bool{}}
				acc[key] = a
			}
			a.uuids[uuid] = true
			a.cnt += countByUUID[uuid]
		}
	}

	out := make([]domain.ExtractSuccessChannel, 0, len(acc))
	for key, a := range acc {
		set := make([]string, 0, len(a.uuids))
		for u := range a.uuids {
			set = append(set, u)
		}
		sort.Strings(set)
		out = append(out, domain.ExtractSuccessChannel{
			ChannelKey:  key,
			ChannelUUID: strings.Join(set, ", "),
			SuccessCnt:  a.cnt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i].ChannelKey, out[j].ChannelKey) })
	return out, nil
}

// ExtractErrorByChannel counts extract-task error reads per external
// channel identity.
func ExtractErrorByChannel(rel *domain.Relation) ([]domain.ExtractErrorChannel, error) {
	if err := rel.RequireColumns(TableExtractError, channelKeyColumns...); err != nil {
		return nil, err
	}
	acc := map[domain.ChannelKey]int64{}
	for _, row := range rel.Rows {
		acc[channelKeyAt(rel, row)]++
	}
	out := make([]domain.ExtractErrorChannel, 0, len(acc))
	for key, cnt := range acc {
		out = append(out, domain.ExtractErrorChannel{ChannelKey: key, ErrorCnt: cnt})
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i].ChannelKey, out[j].ChannelKey) })
	return out, nil
}

// JoinExtractCommonAmi left-joins per-channel raw read counts to the
// extract success and error counts, coalescing missing sides to zero, and
// derives the total extract count per channel.
func JoinExtractCommonAmi(reads []domain.ChannelReadCount,
	success []domain.ExtractSuccessChannel, errored []domain.ExtractErrorChannel) []domain.ExtractRow {

	successByKey := make(map[domain.ChannelKey]domain.ExtractSuccessChannel, len(success))
	for _, s := range success {
		successByKey[s.ChannelKey] = s
	}
	errorByKey := make(map[domain.ChannelKey]int64, len(errored))
	for _, e := range errored {
		errorByKey[e.ChannelKey] = e.ErrorCnt
	}

	out := make([]domain.ExtractRow, 0, len(reads))
	for _, r := range reads {
		row := domain.ExtractRow{
			ChannelKey: r.ChannelKey,
			RawReadCnt: r.RawReadCnt,
		}
		if s, ok := successByKey[r.ChannelKey]; ok {
			row.ChannelUUID = s.ChannelUUID
			row.EcaSuccessCnt = s.SuccessCnt
		}
		row.EcaErrorCnt = errorByKey[r.ChannelKey]
		row.EcaTotalCnt = row.EcaSuccessCnt + row.EcaErrorCnt
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i].ChannelKey, out[j].ChannelKey) })
	return out
}
