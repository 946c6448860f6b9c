package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groovy-hub/groovy-hub/internal/domain/shared"
)

func TestFormatRawSeconds(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"75.5", "1:15.50"},
		{"59.00", "0:59.00"},
		{"60", "1:00.00"},
		{"60.0", "1:00.00"},
		{"125.43", "2:05.43"},
		{"125.437", "2:05.43"},
		{"0", "0:00.00"},
		{"0.5", "0:00.50"},
		{"3600", "60:00.00"},
		{" 75.5 ", "1:15.50"},
	}

	for _, tt := range tests {
		got, err := FormatRawSeconds(tt.raw)
		require.NoError(t, err, "raw %q", tt.raw)
		assert.Equal(t, tt.want, got, "raw %q", tt.raw)
	}
}

func TestFormatRawSecondsRejectsMalformed(t *testing.T) {
	_, err := FormatRawSeconds("")
	assert.ErrorIs(t, err, shared.ErrMalformedEntry)

	_, err = FormatRawSeconds("   ")
	assert.ErrorIs(t, err, shared.ErrMalformedEntry)

	_, err = FormatRawSeconds("abc")
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)

	_, err = FormatRawSeconds("-5")
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)
}

func TestFormatSeconds(t *testing.T) {
	got, err := FormatSeconds(75.5)
	require.NoError(t, err)
	assert.Equal(t, "1:15.50", got)

	got, err = FormatSeconds(60)
	require.NoError(t, err)
	assert.Equal(t, "1:00.00", got)

	_, err = FormatSeconds(-1)
	assert.ErrorIs(t, err, shared.ErrInvalidFormat)
}
