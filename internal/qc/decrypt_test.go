package qc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amiqc/internal/domain"
)

func auditRelation(rows ...[]interface{}) *domain.Relation {
	return &domain.Relation{
		Columns: []string{"filename", "event_type", "data", "timestamp_utc"},
		Rows:    rows,
	}
}

func millis(s string) int64 {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.UnixMilli()
}

func TestExtractManifest(t *testing.T) {
	rel := &domain.Relation{
		Columns: []string{"fname", "md5", "lines"},
		Rows: [][]interface{}{
			{"b_0205.csv.pgp", "sum-b", int64(11)},
			{"a_0205.csv.pgp", "sum-a", int64(5)},
		},
	}

	entries, err := ExtractManifest(rel, testColumns, false)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ManifestEntry{Filename: "a_0205", Checksum: "sum-a", LineCount: 5}, entries[0])
	assert.Equal(t, domain.ManifestEntry{Filename: "b_0205", Checksum: "sum-b", LineCount: 11}, entries[1])

	withHeaders, err := ExtractManifest(rel, testColumns, true)
	require.NoError(t, err)
	assert.Equal(t, int64(4), withHeaders[0].LineCount, "header lines do not count as data rows")
}

func TestExtractDecryptAudit(t *testing.T) {
	rel := auditRelation(
		// Matching success event from the latest ingest date, duplicated.
		[]interface{}{"acme_02052024.csv.pgp", "DECRYPT_SUCCESS", `{"inDigest":"sum-1","linesRead":10}`, millis("2024-05-02T06:00:00Z")},
		[]interface{}{"acme_02052024.csv.pgp", "DECRYPT_SUCCESS", `{"inDigest":"sum-1","linesRead":10}`, millis("2024-05-02T06:05:00Z")},
		// Stale retry from an earlier ingest date drops.
		[]interface{}{"acme_02052024_old.csv.pgp", "DECRYPT_SUCCESS", `{"inDigest":"sum-0","linesRead":9}`, millis("2024-05-01T06:00:00Z")},
		// Wrong event type drops.
		[]interface{}{"acme_02052024.csv.pgp", "CHANNEL_INGEST", `{"channel_ingest":3}`, millis("2024-05-02T06:00:00Z")},
		// Wrong date token drops.
		[]interface{}{"acme_01052024.csv.pgp", "DECRYPT_SUCCESS", `{"inDigest":"sum-x","linesRead":7}`, millis("2024-05-02T06:00:00Z")},
	)

	entries, err := ExtractDecryptAudit(rel, "02052024", false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditEntry{Filename: "acme_02052024.csv.pgp", Checksum: "sum-1", LineCount: 10}, entries[0])

	withHeaders, err := ExtractDecryptAudit(rel, "02052024", true)
	require.NoError(t, err)
	assert.Equal(t, int64(9), withHeaders[0].LineCount)
}

func TestExtractDecryptAuditStructuredData(t *testing.T) {
	rel := auditRelation(
		[]interface{}{"acme_02052024.csv.pgp", "DECRYPT_SUCCESS",
			map[string]interface{}{"inDigest": "sum-1", "linesRead": float64(10)},
			millis("2024-05-02T06:00:00Z")},
	)
	entries, err := ExtractDecryptAudit(rel, "02052024", false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(10), entries[0].LineCount)
}

func TestJoinDecryptManifest(t *testing.T) {
	manifest := []domain.ManifestEntry{
		{Filename: "f1", Checksum: "s1", LineCount: 10},
		{Filename: "f2", Checksum: "s2", LineCount: 5},
		{Filename: "f3", Checksum: "s3", LineCount: 7},
	}
	audit := []domain.AuditEntry{
		{Filename: "f1.csv.pgp", Checksum: "s1", LineCount: 9},
		{Filename: "f2.csv.pgp", Checksum: "s2", LineCount: 5},
	}

	rows := JoinDecryptManifest(manifest, audit)
	require.Len(t, rows, 3)

	f1 := rows[0]
	assert.Equal(t, 0, f1.FileMismatch)
	assert.Equal(t, 1, f1.LineCountMismatch)
	assert.Equal(t, 0, f1.ChecksumMismatch)

	f2 := rows[1]
	assert.Equal(t, 0, f2.FileMismatch)
	assert.Equal(t, 0, f2.LineCountMismatch)
	assert.Equal(t, 0, f2.ChecksumMismatch)

	f3 := rows[2]
	assert.Equal(t, 1, f3.FileMismatch, "manifest file absent from audit")
	assert.Equal(t, 1, f3.LineCountMismatch)
	assert.Equal(t, 1, f3.ChecksumMismatch)
}

func TestJoinDecryptNoManifest(t *testing.T) {
	encrypted := []domain.EncryptedFile{{Filename: "f1"}, {Filename: "f2"}}
	audit := []domain.AuditEntry{{Filename: "f1.csv.pgp", LineCount: 10}}
	decrypted := []domain.DecryptedFile{{Filename: "f1", LineCount: 10}}

	rows := JoinDecryptNoManifest(encrypted, audit, decrypted)
	require.Len(t, rows, 2)

	f1 := rows[0]
	assert.Equal(t, 0, f1.FileMismatch)
	assert.Equal(t, 0, f1.LineCountMismatch)
	assert.Equal(t, int64(10), f1.DecryptedLineCount)

	f2 := rows[1]
	assert.Equal(t, 1, f2.FileMismatch, "encrypted file never decrypted")
}

func TestDecryptedFiles(t *testing.T) {
	summary := []domain.SummaryRow{
		{FileName: "f1", NumReadsTotal: 3},
		{FileName: "f1", NumReadsTotal: 2},
		{FileName: "f2", NumReadsTotal: 7},
	}
	files := DecryptedFiles(summary)
	require.Len(t, files, 2)
	assert.Equal(t, domain.DecryptedFile{Filename: "f1", LineCount: 5}, files[0])
	assert.Equal(t, domain.DecryptedFile{Filename: "f2", LineCount: 7}, files[1])
}
