package sink

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalWriterWritesAndOverwrites(t *testing.T) {
	w, err := NewLocalWriter(FormatCSV, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, w.Format())

	location := filepath.Join(t.TempDir(), "qc", "errors", "errors.csv")
	ctx := context.Background()

	require.NoError(t, w.WriteRows(ctx, location, []string{"id"}, [][]interface{}{{int64(1)}, {int64(2)}}))
	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n2\n", string(data))

	// A second write replaces the file, it never appends.
	require.NoError(t, w.WriteRows(ctx, location, []string{"id"}, [][]interface{}{{int64(9)}}))
	data, err = os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "id\n9\n", string(data))
}

func TestNewLocalWriterRejectsUnknownFormat(t *testing.T) {
	_, err := NewLocalWriter("parquet", slog.New(slog.DiscardHandler))
	require.Error(t, err)
}
