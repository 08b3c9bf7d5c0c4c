package qc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name", "meter_data", "meter_data"},
		{"strips extension", "meter_data.csv", "meter_data"},
		{"strips all extensions", "meter_data.csv.pgp", "meter_data"},
		{"strips path", "/landing/in/meter_data.csv", "meter_data"},
		{"strips nested path", "s3://bucket/a/b/meter_data.csv.gz", "meter_data"},
		{"empty input", "", "UNKNOWN"},
		{"trailing slash", "a/b/", "UNKNOWN"},
		{"dotfile keeps name", ".hidden", ".hidden"},
		{"already clean", "acme_02052024", "acme_02052024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanFileName(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, CleanFileName(got), "cleaning must be stable under repetition")
		})
	}
}
