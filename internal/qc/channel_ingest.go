package qc

import (
	"sort"
	"strings"

	"amiqc/internal/domain"
)

func lessKey(a, b domain.ChannelKey) bool {
	if a.ExternalLocationID != b.ExternalLocationID {
		return a.ExternalLocationID < b.ExternalLocationID
	}
	if a.ExternalAccountID != b.ExternalAccountID {
		return a.ExternalAccountID < b.ExternalAccountID
	}
	if a.ExternalChannelID != b.ExternalChannelID {
		return a.ExternalChannelID < b.ExternalChannelID
	}
	return a.Direction < b.Direction
}

func channelKeyAt(rel *domain.Relation, row []interface{}) domain.ChannelKey {
	return domain.ChannelKey{
		ExternalLocationID: asString(row[rel.Index("external_location_id")]),
		ExternalAccountID:  asString(row[rel.Index("external_account_id")]),
		ExternalChannelID:  asString(row[rel.Index("external_channel_id")]),
		Direction:          asString(row[rel.Index("direction")]),
	}
}

var channelKeyColumns = []string{"external_location_id", "external_account_id", "external_channel_id", "direction"}

// DistinctRawChannels lists the distinct raw channel identities present in
// the daily AMI summary.
func DistinctRawChannels(summary []domain.SummaryRow) []domain.ChannelKey {
	seen := map[domain.ChannelKey]bool{}
	var out []domain.ChannelKey
	for _, s := range summary {
		if seen[s.ChannelKey] {
			continue
		}
		seen[s.ChannelKey] = true
		out = append(out, s.ChannelKey)
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i], out[j]) })
	return out
}

// ExtractIngestedChannels reads the channel-ingest success output.
func ExtractIngestedChannels(rel *domain.Relation) ([]domain.IngestedChannel, error) {
	cols := append(append([]string{}, channelKeyColumns...),
		"tenant_id", "account_uuid", "location_uuid", "channel_uuid", "time_zone")
	if err := rel.RequireColumns(TableChannelIngestSuccess, cols...); err != nil {
		return nil, err
	}
	out := make([]domain.IngestedChannel, 0, len(rel.Rows))
	for _, row := range rel.Rows {
		out = append(out, domain.IngestedChannel{
			ChannelKey:   channelKeyAt(rel, row),
			TenantID:     asInt64(row[rel.Index("tenant_id")]),
			AccountUUID:  asString(row[rel.Index("account_uuid")]),
			LocationUUID: asString(row[rel.Index("location_uuid")]),
			ChannelUUID:  asString(row[rel.Index("channel_uuid")]),
			TimeZone:     asString(row[rel.Index("time_zone")]),
		})
	}
	return out, nil
}

// ExtractChannelIngestErrors lists the distinct channel identities the
// channel-ingest task rejected.
func ExtractChannelIngestErrors(rel *domain.Relation) ([]domain.ChannelKey, error) {
	if err := rel.RequireColumns(TableChannelIngestError, channelKeyColumns...); err != nil {
		return nil, err
	}
	seen := map[domain.ChannelKey]bool{}
	var out []domain.ChannelKey
	for _, row := range rel.Rows {
		key := channelKeyAt(rel, row)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i], out[j]) })
	return out, nil
}

// ExtractChannelMapRef reads the reference channel-mapping source.
func ExtractChannelMapRef(rel *domain.Relation) ([]domain.ChannelMapRef, error) {
	cols := append(append([]string{}, channelKeyColumns...), "account_uuid", "location_uuid", "channel_uuid")
	if err := rel.RequireColumns(TableChannelMapReference, cols...); err != nil {
		return nil, err
	}
	out := make([]domain.ChannelMapRef, 0, len(rel.Rows))
	for _, row := range rel.Rows {
		out = append(out, domain.ChannelMapRef{
			ChannelKey:   channelKeyAt(rel, row),
			AccountUUID:  asString(row[rel.Index("account_uuid")]),
			LocationUUID: asString(row[rel.Index("location_uuid")]),
			ChannelUUID:  asString(row[rel.Index("channel_uuid")]),
		})
	}
	return out, nil
}

// NewChannelsIngestedCount sums the newly-created channel counts reported by
// CHANNEL_INGEST audit events matching the run's date token.
func NewChannelsIngestedCount(rel *domain.Relation, dateToken string) (int64, error) {
	if err := rel.RequireColumns(TableAudit, "filename", "event_type", "data"); err != nil {
		return 0, err
	}
	iFile := rel.Index("filename")
	iEvent := rel.Index("event_type")
	iData := rel.Index("data")

	var total int64
	for _, row := range rel.Rows {
		if asString(row[iEvent]) != eventChannelIngest {
			continue
		}
		if !strings.Contains(asString(row[iFile]), dateToken) {
			continue
		}
		data, err := asDataMap(row[iData])
		if err != nil {
			return 0, err
		}
		total += asInt64(data["channel_ingest"])
	}
	return total, nil
}

// JoinChannelIngest outer-joins the distinct raw channels against the
// channel-ingest success and error outputs and the reference channel map,
// deriving the per-row outcome flags. The uuid match requires the reference
// map to resolve the same identity tuple to the same channel uuid the
// ingest success path produced. The multiple-uuid flag is a partition-scoped
// count over the external channel identity, computed before the final
// dedup so duplicated success rows still mark their identity.
func JoinChannelIngest(refs []domain.ChannelMapRef, raw []domain.ChannelKey,
	success []domain.IngestedChannel, errored []domain.ChannelKey) []domain.ChannelIngestRow {

	successByKey := map[domain.ChannelKey][]domain.IngestedChannel{}
	for _, s := range success {
		successByKey[s.ChannelKey] = append(successByKey[s.ChannelKey], s)
	}
	errorKeys := map[domain.ChannelKey]bool{}
	for _, e := range errored {
		errorKeys[e] = true
	}
	type refKey struct {
		domain.ChannelKey
		UUID string
	}
	refUUIDs := map[refKey]bool{}
	for _, r := range refs {
		refUUIDs[refKey{ChannelKey: r.ChannelKey, UUID: r.ChannelUUID}] = true
	}

	var joined []domain.ChannelIngestRow
	perKey := map[domain.ChannelKey]int{}
	for _, key := range raw {
		matches := successByKey[key]
		hasError := errorKeys[key]
		if len(matches) == 0 {
			row := domain.ChannelIngestRow{ChannelKey: key}
			if hasError {
				row.Error = 1
			} else {
				row.NoOutput = 1
			}
			joined = append(joined, row)
			perKey[key]++
			continue
		}
		for _, m := range matches {
			row := domain.ChannelIngestRow{
				ChannelKey:         key,
				SuccessChannelUUID: m.ChannelUUID,
			}
			if !hasError {
				row.Success = 1
			}
			if refUUIDs[refKey{ChannelKey: key, UUID: m.ChannelUUID}] {
				row.RefChannelUUID = m.ChannelUUID
				row.ChannelUUIDMatch = 1
			}
			joined = append(joined, row)
			perKey[key]++
		}
	}

	for i := range joined {
		if perKey[joined[i].ChannelKey] > 1 {
			joined[i].MultipleChannelUUID = 1
		}
	}

	// Duplicated success rows collapse here; the multiple-uuid flag above
	// is already derived from the pre-dedup row count.
	seen := map[domain.ChannelIngestRow]bool{}
	out := make([]domain.ChannelIngestRow, 0, len(joined))
	for _, r := range joined {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ChannelKey != out[j].ChannelKey {
			return lessKey(out[i].ChannelKey, out[j].ChannelKey)
		}
		return out[i].SuccessChannelUUID < out[j].SuccessChannelUUID
	})
	return out
}

// MultipleMappedChannelCount counts the distinct external channel
// identities mapped to more than one channel uuid.
func MultipleMappedChannelCount(joined []domain.ChannelIngestRow) int64 {
	seen := map[domain.ChannelKey]bool{}
	for _, r := range joined {
		if r.MultipleChannelUUID == 1 {
			seen[r.ChannelKey] = true
		}
	}
	return int64(len(seen))
}

// CorrectlyMappedCount counts joined rows whose success uuid the reference
// channel map confirms.
func CorrectlyMappedCount(joined []domain.ChannelIngestRow) int64 {
	var n int64
	for _, r := range joined {
		if r.ChannelUUIDMatch == 1 {
			n++
		}
	}
	return n
}
