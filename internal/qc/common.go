package qc

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"amiqc/internal/config"
	"amiqc/internal/domain"
)

// filenameColumn is the per-row origin file column the engine adds to raw
// data sources at registration time.
const filenameColumn = "filename"

// deliveryDirection is the consumption flow direction rolled up for
// downstream consumers.
const deliveryDirection = "D"

// classifyCode maps a tenant-specific consumption-quality code into its
// canonical category. Unmapped codes classify as unknown rather than failing.
func classifyCode(raw string, codes config.CodeMap) domain.ConsumptionClass {
	for _, c := range codes.Actual {
		if raw == c {
			return domain.ClassActual
		}
	}
	for _, c := range codes.Estimated {
		if raw == c {
			return domain.ClassEstimated
		}
	}
	for _, c := range codes.Prorated {
		if raw == c {
			return domain.ClassProrated
		}
	}
	for _, c := range codes.Missing {
		if raw == c {
			return domain.ClassMissing
		}
	}
	return domain.ClassUnknown
}

// localize reinterprets a naive timestamp's wall-clock fields in the given
// location. Raw interval timestamps carry no zone; the tenant's timezone
// decides what instant they name.
func localize(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// RawToCommon translates tenant-specific raw AMI rows into the common QC
// format: canonical channel identity, interval bounds in raw and UTC time,
// calendar context, classified consumption code, and the cleaned origin
// file key. Interval start derives from interval end minus interval length.
func RawToCommon(rel *domain.Relation, cols config.ColumnMap, codes config.CodeMap, loc *time.Location) ([]domain.CommonRead, error) {
	if err := rel.RequireColumns(TableDecrypted,
		cols.ExternalLocationID, cols.ExternalAccountID, cols.ExternalChannelID,
		cols.Direction, cols.Timestamp, cols.Consumption, cols.Interval,
		cols.ConsumptionCode, filenameColumn); err != nil {
		return nil, err
	}

	iLoc := rel.Index(cols.ExternalLocationID)
	iAcct := rel.Index(cols.ExternalAccountID)
	iChan := rel.Index(cols.ExternalChannelID)
	iDir := rel.Index(cols.Direction)
	iTS := rel.Index(cols.Timestamp)
	iCons := rel.Index(cols.Consumption)
	iIvl := rel.Index(cols.Interval)
	iCode := rel.Index(cols.ConsumptionCode)
	iFile := rel.Index(filenameColumn)

	out := make([]domain.CommonRead, 0, len(rel.Rows))
	for n, row := range rel.Rows {
		end, ok := asTime(row[iTS])
		if !ok {
			return nil, domain.ErrValidation("table %q row %d: %q is not a timestamp", TableDecrypted, n, asString(row[iTS]))
		}
		ivl := int(asInt64(row[iIvl]))
		start := end.Add(-time.Duration(ivl) * time.Second)

		startLocal := localize(start, loc)
		endLocal := localize(end, loc)
		startUTC := startLocal.UTC()
		endUTC := endLocal.UTC()

		out = append(out, domain.CommonRead{
			ChannelKey: domain.ChannelKey{
				ExternalLocationID: asString(row[iLoc]),
				ExternalAccountID:  asString(row[iAcct]),
				ExternalChannelID:  asString(row[iChan]),
				Direction:          asString(row[iDir]),
			},
			IntervalStartRaw: start,
			IntervalEndRaw:   end,
			HourRaw:          start.Hour(),
			DateRaw:          start.Format(dateLayout),
			IntervalStartUTC: startUTC,
			IntervalEndUTC:   endUTC,
			HourUTC:          startUTC.Hour(),
			DateUTC:          startUTC.Format(dateLayout),
			IntervalSeconds:  ivl,
			Class:            classifyCode(asString(row[iCode]), codes),
			Consumption:      asDecimal(row[iCons]),
			FileName:         CleanFileName(asString(row[iFile])),
		})
	}
	return out, nil
}

// summaryKey is the aggregation grain of the daily AMI summary.
type summaryKey struct {
	domain.ChannelKey
	DateUTC         string
	FileName        string
	IntervalSeconds int
}

// BuildSummary aggregates common-format reads to the daily AMI summary
// grain: per channel, UTC date, origin file, and interval length, with read
// counts and consumption sums per consumption class plus totals.
func BuildSummary(common []domain.CommonRead) []domain.SummaryRow {
	acc := map[summaryKey]*domain.SummaryRow{}
	var order []summaryKey

	for _, r := range common {
		key := summaryKey{ChannelKey: r.ChannelKey, DateUTC: r.DateUTC, FileName: r.FileName, IntervalSeconds: r.IntervalSeconds}
		row, ok := acc[key]
		if !ok {
			row = &domain.SummaryRow{
				ChannelKey:      r.ChannelKey,
				DateUTC:         r.DateUTC,
				FileName:        r.FileName,
				IntervalSeconds: r.IntervalSeconds,
			}
			acc[key] = row
			order = append(order, key)
		}
		switch r.Class {
		case domain.ClassActual:
			row.NumReadsActual++
			row.DayConsumptionActual = row.DayConsumptionActual.Add(r.Consumption)
		case domain.ClassEstimated:
			row.NumReadsEstimated++
			row.DayConsumptionEstimated = row.DayConsumptionEstimated.Add(r.Consumption)
		case domain.ClassProrated:
			row.NumReadsProrated++
			row.DayConsumptionProrated = row.DayConsumptionProrated.Add(r.Consumption)
		case domain.ClassMissing:
			row.NumReadsMissed++
			row.DayConsumptionMissed = row.DayConsumptionMissed.Add(r.Consumption)
		default:
			row.NumReadsNoCode++
			row.DayConsumptionNoCode = row.DayConsumptionNoCode.Add(r.Consumption)
		}
	}

	out := make([]domain.SummaryRow, 0, len(order))
	for _, key := range order {
		row := acc[key]
		row.NumReadsTotal = row.NumReadsActual + row.NumReadsEstimated +
			row.NumReadsProrated + row.NumReadsMissed + row.NumReadsNoCode
		row.DayConsumptionTotal = decimal.Sum(decimal.Zero,
			row.DayConsumptionActual, row.DayConsumptionEstimated,
			row.DayConsumptionProrated, row.DayConsumptionMissed,
			row.DayConsumptionNoCode)
		out = append(out, *row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ExternalLocationID != out[j].ExternalLocationID {
			return out[i].ExternalLocationID < out[j].ExternalLocationID
		}
		if out[i].DateUTC != out[j].DateUTC {
			return out[i].DateUTC < out[j].DateUTC
		}
		return out[i].FileName < out[j].FileName
	})
	return out
}

// BuildRollup joins common-format reads to their ingested channel identity
// and derives local calendar context for the downstream rollup consumers.
// Reads without a mapped channel are dropped; only the delivery direction
// survives.
func BuildRollup(common []domain.CommonRead, channels []domain.IngestedChannel) ([]domain.RollupRead, error) {
	byKey := make(map[domain.ChannelKey]domain.IngestedChannel, len(channels))
	for _, c := range channels {
		if _, ok := byKey[c.ChannelKey]; !ok {
			byKey[c.ChannelKey] = c
		}
	}

	locs := map[string]*time.Location{}
	out := make([]domain.RollupRead, 0, len(common))
	for _, r := range common {
		ch, ok := byKey[r.ChannelKey]
		if !ok || ch.ChannelUUID == "" {
			continue
		}
		if r.Direction != deliveryDirection {
			continue
		}
		loc, ok := locs[ch.TimeZone]
		if !ok {
			var err error
			loc, err = time.LoadLocation(ch.TimeZone)
			if err != nil {
				return nil, fmt.Errorf("channel %s time zone %q: %w", ch.ChannelUUID, ch.TimeZone, err)
			}
			locs[ch.TimeZone] = loc
		}
		startLocal := r.IntervalStartUTC.In(loc)
		out = append(out, domain.RollupRead{
			CommonRead:         r,
			TimeZone:           ch.TimeZone,
			ChannelUUID:        ch.ChannelUUID,
			IntervalStartLocal: startLocal,
			DateLocal:          startLocal.Format(dateLayout),
		})
	}
	return out, nil
}
