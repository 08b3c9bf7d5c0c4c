package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amiqc/internal/domain"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func openTestCatalog(t *testing.T, sources map[string]string) *Catalog {
	t.Helper()
	db, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cat, err := NewCatalog(context.Background(), db, sources, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return cat
}

func TestCatalogReadsCSVSource(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "manifest.csv", "fname,md5,lines\na.csv.pgp,sum-a,10\nb.csv.pgp,sum-b,20\n")

	cat := openTestCatalog(t, map[string]string{"manifest": path})

	rel, err := cat.Table(context.Background(), "manifest")
	require.NoError(t, err)
	require.Len(t, rel.Rows, 2)

	// The reader projects the source columns plus the filename pseudo column.
	assert.True(t, rel.HasColumn("fname"))
	assert.True(t, rel.HasColumn("md5"))
	assert.True(t, rel.HasColumn("lines"))
	require.True(t, rel.HasColumn("filename"))

	iName := rel.Index("fname")
	iFile := rel.Index("filename")
	assert.Equal(t, "a.csv.pgp", rel.Rows[0][iName])
	assert.Contains(t, rel.Rows[0][iFile], "manifest.csv")
}

func TestCatalogLocation(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "audit.csv", "filename,event_type\nf,DECRYPT_SUCCESS\n")

	cat := openTestCatalog(t, map[string]string{"audit": path})

	loc, err := cat.Location("audit")
	require.NoError(t, err)
	assert.Equal(t, path, loc)

	_, err = cat.Location("absent")
	require.Error(t, err)
	var nf *domain.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestCatalogUnregisteredTable(t *testing.T) {
	cat := openTestCatalog(t, nil)
	_, err := cat.Table(context.Background(), "decrypted")
	require.Error(t, err)
	var nf *domain.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestCatalogRejectsUnknownExtension(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = NewCatalog(context.Background(), db, map[string]string{"weird": "/data/input.xml"}, slog.New(slog.DiscardHandler))
	require.Error(t, err)
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestReaderFor(t *testing.T) {
	tests := []struct {
		location string
		want     string
		wantErr  bool
	}{
		{"/data/part.parquet", "read_parquet", false},
		{"/data/*.parquet", "read_parquet", false},
		{"/data/input.csv", "read_csv_auto", false},
		{"/data/input.csv.gz", "read_csv_auto", false},
		{"/data/input.tsv", "read_csv_auto", false},
		{"/data/audit.jsonl", "read_json_auto", false},
		{"/data/audit.ndjson", "read_json_auto", false},
		{"/data/blob.bin", "", true},
		{"/data/noext", "", true},
	}
	for _, tt := range tests {
		got, err := readerFor(tt.location)
		if tt.wantErr {
			assert.Error(t, err, tt.location)
			continue
		}
		require.NoError(t, err, tt.location)
		assert.Equal(t, tt.want, got, tt.location)
	}
}
