package qc

import (
	"fmt"
	"sort"

	"amiqc/internal/domain"
)

// ExtractSuccessByUTCDate groups the extract task's success output to
// per-tenant, per-UTC-date read counts using its year/month/day partition
// columns.
func ExtractSuccessByUTCDate(rel *domain.Relation) ([]domain.ExtractSuccessDate, error) {
	if err := rel.RequireColumns(TableExtractSuccess, "tenant_id", "year", "month", "day"); err != nil {
		return nil, err
	}
	iTenant := rel.Index("tenant_id")
	iYear := rel.Index("year")
	iMonth := rel.Index("month")
	iDay := rel.Index("day")

	type key struct {
		tenant int64
		date   string
	}
	acc := map[key]int64{}
	for _, row := range rel.Rows {
		date := fmt.Sprintf("%04d-%02d-%02d", asInt64(row[iYear]), asInt64(row[iMonth]), asInt64(row[iDay]))
		acc[key{tenant: asInt64(row[iTenant]), date: date}]++
	}

	out := make([]domain.ExtractSuccessDate, 0, len(acc))
	for k, cnt := range acc {
		out = append(out, domain.ExtractSuccessDate{TenantID: k.tenant, DateUTC: k.date, SuccessCnt: cnt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TenantID != out[j].TenantID {
			return out[i].TenantID < out[j].TenantID
		}
		return out[i].DateUTC < out[j].DateUTC
	})
	return out, nil
}

// ExtractLoadSuccess reads the load task's per-tenant, per-date row counts.
func ExtractLoadSuccess(rel *domain.Relation) ([]domain.LoadSuccessDate, error) {
	if err := rel.RequireColumns(TableLoadSuccess, "tenant_id", "date_utc", "row_count"); err != nil {
		return nil, err
	}
	iTenant := rel.Index("tenant_id")
	iDate := rel.Index("date_utc")
	iCnt := rel.Index("row_count")

	out := make([]domain.LoadSuccessDate, 0, len(rel.Rows))
	for _, row := range rel.Rows {
		date := asString(row[iDate])
		if t, ok := asTime(row[iDate]); ok {
			date = t.Format(dateLayout)
		}
		out = append(out, domain.LoadSuccessDate{
			TenantID:   asInt64(row[iTenant]),
			DateUTC:    date,
			SuccessCnt: asInt64(row[iCnt]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TenantID != out[j].TenantID {
			return out[i].TenantID < out[j].TenantID
		}
		return out[i].DateUTC < out[j].DateUTC
	})
	return out, nil
}

// JoinLoadCommonAmi full-outer-joins the extract and load counts on the
// tenant+date key, coalescing missing sides to zero. Duplicate load rows for
// one key sum together so the joined row carries the full loaded count.
func JoinLoadCommonAmi(extract []domain.ExtractSuccessDate, load []domain.LoadSuccessDate) []domain.LoadRow {
	type key struct {
		tenant int64
		date   string
	}
	extractByKey := make(map[key]int64, len(extract))
	for _, e := range extract {
		extractByKey[key{e.TenantID, e.DateUTC}] += e.SuccessCnt
	}
	loadByKey := make(map[key]int64, len(load))
	for _, l := range load {
		loadByKey[key{l.TenantID, l.DateUTC}] += l.SuccessCnt
	}

	seen := map[key]bool{}
	var keys []key
	for _, e := range extract {
		k := key{e.TenantID, e.DateUTC}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for _, l := range load {
		k := key{l.TenantID, l.DateUTC}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	out := make([]domain.LoadRow, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.LoadRow{
			TenantID:      k.tenant,
			DateUTC:       k.date,
			EcaSuccessCnt: extractByKey[k],
			LcaSuccessCnt: loadByKey[k],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateUTC != out[j].DateUTC {
			return out[i].DateUTC < out[j].DateUTC
		}
		return out[i].TenantID < out[j].TenantID
	})
	return out
}

// sumExtractSuccess totals the per-date extract success counts.
func sumExtractSuccess(rows []domain.ExtractSuccessDate) int64 {
	var n int64
	for _, r := range rows {
		n += r.SuccessCnt
	}
	return n
}

// sumLoadSuccess totals the per-date load counts.
func sumLoadSuccess(rows []domain.LoadSuccessDate) int64 {
	var n int64
	for _, r := range rows {
		n += r.SuccessCnt
	}
	return n
}
