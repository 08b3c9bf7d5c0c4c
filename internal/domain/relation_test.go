package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationColumnLookup(t *testing.T) {
	rel := &Relation{Columns: []string{"a", "b"}}
	assert.Equal(t, 0, rel.Index("a"))
	assert.Equal(t, 1, rel.Index("b"))
	assert.Equal(t, -1, rel.Index("c"))
	assert.True(t, rel.HasColumn("b"))
	assert.False(t, rel.HasColumn("c"))
}

func TestRequireColumns(t *testing.T) {
	rel := &Relation{Columns: []string{"a", "b"}}
	require.NoError(t, rel.RequireColumns("t", "a", "b"))

	err := rel.RequireColumns("t", "a", "missing")
	require.Error(t, err)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Contains(t, err.Error(), `"missing"`)
	assert.Contains(t, err.Error(), `"t"`)
}
