package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPatientID(t *testing.T) {
	tests := []struct {
		name  string
		maxID string
		want  string
	}{
		{"empty repository returns seed", "", "P2024001"},
		{"increments the seed", "P2024001", "P2024002"},
		{"increments mid-sequence", "P2024041", "P2024042"},
		{"carries across a digit boundary", "P2024999", "P2025000"},
		{"keeps zero padding", "P0000009", "P0000010"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextPatientID(tt.maxID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextPatientIDMalformed(t *testing.T) {
	for _, maxID := range []string{"2024001", "Pabc", "P", "X2024001", "P-200"} {
		t.Run(maxID, func(t *testing.T) {
			_, err := NextPatientID(maxID)
			assert.ErrorIs(t, err, ErrMalformedID)
		})
	}
}
