package qc

import (
	"sort"
	"strings"
	"time"

	"amiqc/internal/config"
	"amiqc/internal/domain"
)

// ExtractManifest reads the tenant manifest into comparable entries. File
// names are cleaned to the common file key; when the manifest counts header
// lines, one line per file is subtracted so counts compare against data rows.
func ExtractManifest(rel *domain.Relation, cols config.ColumnMap, countsHeaders bool) ([]domain.ManifestEntry, error) {
	if err := rel.RequireColumns(TableManifest, cols.ManifestFilename, cols.ManifestChecksum, cols.ManifestLineCount); err != nil {
		return nil, err
	}
	iName := rel.Index(cols.ManifestFilename)
	iSum := rel.Index(cols.ManifestChecksum)
	iCnt := rel.Index(cols.ManifestLineCount)

	offset := int64(0)
	if countsHeaders {
		offset = 1
	}

	out := make([]domain.ManifestEntry, 0, len(rel.Rows))
	for _, row := range rel.Rows {
		out = append(out, domain.ManifestEntry{
			Filename:  CleanFileName(asString(row[iName])),
			Checksum:  asString(row[iSum]),
			LineCount: asInt64(row[iCnt]) - offset,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

// ExtractEncrypted lists the distinct cleaned file keys observed in the
// encrypted drop.
func ExtractEncrypted(rel *domain.Relation) ([]domain.EncryptedFile, error) {
	if err := rel.RequireColumns(TableEncrypted, filenameColumn); err != nil {
		return nil, err
	}
	iFile := rel.Index(filenameColumn)

	seen := map[string]bool{}
	var out []domain.EncryptedFile
	for _, row := range rel.Rows {
		name := CleanFileName(asString(row[iFile]))
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, domain.EncryptedFile{Filename: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

// ExtractDecryptAudit reads decrypt-success outcomes from the ingest audit.
// Rows are matched to the run by the tenant-format date token in the file
// name, deduplicated, restricted to the latest ingest date present, and
// adjusted for raw-file header lines.
func ExtractDecryptAudit(rel *domain.Relation, dateToken string, rawHasHeaders bool) ([]domain.AuditEntry, error) {
	if err := rel.RequireColumns(TableAudit, "filename", "event_type", "data", "timestamp_utc"); err != nil {
		return nil, err
	}
	iFile := rel.Index("filename")
	iEvent := rel.Index("event_type")
	iData := rel.Index("data")
	iTS := rel.Index("timestamp_utc")

	offset := int64(0)
	if rawHasHeaders {
		offset = 1
	}

	type dated struct {
		entry domain.AuditEntry
		date  string
	}
	var all []dated
	latest := ""
	for _, row := range rel.Rows {
		if asString(row[iEvent]) != eventDecryptSuccess {
			continue
		}
		if !strings.Contains(asString(row[iFile]), dateToken) {
			continue
		}
		data, err := asDataMap(row[iData])
		if err != nil {
			return nil, err
		}
		date := time.UnixMilli(asInt64(row[iTS])).UTC().Format(dateLayout)
		all = append(all, dated{
			entry: domain.AuditEntry{
				Filename:  asString(row[iFile]),
				Checksum:  asString(data["inDigest"]),
				LineCount: asInt64(data["linesRead"]) - offset,
			},
			date: date,
		})
		if date > latest {
			latest = date
		}
	}

	seen := map[domain.AuditEntry]bool{}
	var out []domain.AuditEntry
	for _, d := range all {
		if d.date != latest || seen[d.entry] {
			continue
		}
		seen[d.entry] = true
		out = append(out, d.entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

// DecryptedFiles derives per-file read totals from the daily AMI summary.
func DecryptedFiles(summary []domain.SummaryRow) []domain.DecryptedFile {
	acc := map[string]int64{}
	for _, s := range summary {
		acc[s.FileName] += s.NumReadsTotal
	}
	out := make([]domain.DecryptedFile, 0, len(acc))
	for name, cnt := range acc {
		out = append(out, domain.DecryptedFile{Filename: name, LineCount: cnt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out
}

// JoinDecryptManifest outer-joins manifest entries to audit entries on the
// cleaned file key and derives the per-file mismatch flags. The audit side
// matches on the cleaned audit file name; missing matches coalesce to zero
// values.
func JoinDecryptManifest(manifest []domain.ManifestEntry, audit []domain.AuditEntry) []domain.DecryptRow {
	auditByKey := make(map[string]domain.AuditEntry, len(audit))
	for _, a := range audit {
		auditByKey[CleanFileName(a.Filename)] = a
	}

	out := make([]domain.DecryptRow, 0, len(manifest))
	for _, m := range manifest {
		row := domain.DecryptRow{
			ManifestFilename:  m.Filename,
			ManifestChecksum:  m.Checksum,
			ManifestLineCount: m.LineCount,
		}
		a, ok := auditByKey[m.Filename]
		if !ok {
			row.FileMismatch = 1
		} else {
			row.AuditFilename = a.Filename
			row.AuditChecksum = a.Checksum
			row.AuditLineCount = a.LineCount
		}
		if row.ManifestLineCount != row.AuditLineCount {
			row.LineCountMismatch = 1
		}
		if row.ManifestChecksum != row.AuditChecksum {
			row.ChecksumMismatch = 1
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ManifestFilename < out[j].ManifestFilename })
	return out
}

// JoinDecryptNoManifest joins comparison data for tenants that deliver no
// manifest: encrypted files against the decrypted summary and the audit.
func JoinDecryptNoManifest(encrypted []domain.EncryptedFile, audit []domain.AuditEntry, decrypted []domain.DecryptedFile) []domain.DecryptRow {
	decryptedByName := make(map[string]domain.DecryptedFile, len(decrypted))
	for _, d := range decrypted {
		decryptedByName[d.Filename] = d
	}
	auditByKey := make(map[string]domain.AuditEntry, len(audit))
	for _, a := range audit {
		auditByKey[CleanFileName(a.Filename)] = a
	}

	out := make([]domain.DecryptRow, 0, len(encrypted))
	for _, e := range encrypted {
		row := domain.DecryptRow{EncryptedFilename: e.Filename}
		d, ok := decryptedByName[e.Filename]
		if !ok {
			row.FileMismatch = 1
		} else {
			row.DecryptedFilename = d.Filename
			row.DecryptedLineCount = d.LineCount
		}
		if a, ok := auditByKey[e.Filename]; ok {
			row.AuditFilename = a.Filename
			row.AuditLineCount = a.LineCount
		}
		if row.AuditLineCount != row.DecryptedLineCount {
			row.LineCountMismatch = 1
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EncryptedFilename < out[j].EncryptedFilename })
	return out
}
