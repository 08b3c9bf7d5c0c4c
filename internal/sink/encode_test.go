package sink

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCSV(t *testing.T) {
	columns := []string{"id", "name", "value"}
	rows := [][]interface{}{
		{int64(1), "alpha", decimal.NewFromFloat(1.5)},
		{int64(2), "with,comma", nil},
	}

	out, err := Encode(FormatCSV, columns, rows)
	require.NoError(t, err)
	assert.Equal(t, "id,name,value\n1,alpha,1.5\n2,\"with,comma\",\n", string(out))
}

func TestEncodeJSONKeepsColumnOrder(t *testing.T) {
	columns := []string{"zeta", "alpha", "count"}
	rows := [][]interface{}{
		{"z", "a", big.NewInt(3)},
	}

	out, err := Encode(FormatJSON, columns, rows)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":"z","alpha":"a","count":3}`+"\n", string(out))
}

func TestEncodeRejectsRaggedRows(t *testing.T) {
	_, err := Encode(FormatCSV, []string{"a", "b"}, [][]interface{}{{1}})
	require.Error(t, err)
	_, err = Encode(FormatJSON, []string{"a", "b"}, [][]interface{}{{1}})
	require.Error(t, err)
}

func TestEncodeUnknownFormat(t *testing.T) {
	_, err := Encode("parquet", []string{"a"}, nil)
	require.Error(t, err)
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat(FormatCSV))
	assert.True(t, ValidFormat(FormatJSON))
	assert.False(t, ValidFormat("xml"))
}
