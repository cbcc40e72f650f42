package quantity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"12,5", "12.5", false},
		{"12.5", "12.5", false},
		{"3", "3", false},
		{" 7 ", "7", false},
		{"0", "0", false},
		{"", "", true},
		{"abc", "", true},
		{"1,2,3", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := Parse(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotNumeric)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "5", Format(decimal.RequireFromString("5.0")))
	assert.Equal(t, "12.5", Format(decimal.RequireFromString("12.5")))
	assert.Equal(t, "0", Format(decimal.Zero))
}
