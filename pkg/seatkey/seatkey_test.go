package seatkey

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		capacity int
		want     string
		wantErr  error
	}{
		{"bare decimal", "38", 50, "38", nil},
		{"zero padded", "038", 50, "38", nil},
		{"whitespace trimmed", "  12  ", 50, "12", nil},
		{"L prefixed", "L38", 50, "38", nil},
		{"lowercase l prefixed", "l7", 50, "7", nil},
		{"legacy row letter", "D8", 50, "38", nil},
		{"lowercase legacy", "a1", 50, "1", nil},
		{"legacy column ten", "B10", 50, "20", nil},
		{"first seat", "1", 50, "1", nil},
		{"last seat", "50", 50, "50", nil},
		{"empty", "", 50, "", ErrEmptySeat},
		{"blank", "   ", 50, "", ErrEmptySeat},
		{"zero seat", "0", 50, "", ErrOutOfRange},
		{"beyond capacity", "51", 50, "", ErrOutOfRange},
		{"legacy beyond capacity", "F5", 50, "", ErrOutOfRange},
		{"garbage", "seat-9", 50, "", ErrInvalidFormat},
		{"legacy column zero", "D0", 50, "", ErrInvalidFormat},
		{"multi letter", "AB3", 50, "", ErrInvalidFormat},
		{"negative", "-3", 50, "", ErrInvalidFormat},
		{"default capacity applies", "49", 0, "49", nil},
		{"small bus rejects high seat", "30", 28, "", ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input, tt.capacity)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"38", "L38", "D8", "07", "a10"}
	for _, in := range inputs {
		once, err := Normalize(in, 50)
		require.NoError(t, err)
		twice, err := Normalize(once, 50)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "normalization of %q must be idempotent", in)
	}
}

func TestLegacyRoundTrip(t *testing.T) {
	for n := 1; n <= 50; n++ {
		legacy := ToLegacy(n)
		got, err := Normalize(legacy, 50)
		require.NoError(t, err, "legacy %q for seat %d", legacy, n)
		assert.Equal(t, strconv.Itoa(n), got)
	}
}

func TestToLegacy(t *testing.T) {
	assert.Equal(t, "D8", ToLegacy(38))
	assert.Equal(t, "A1", ToLegacy(1))
	assert.Equal(t, "A10", ToLegacy(10))
	assert.Equal(t, "B1", ToLegacy(11))
	assert.Equal(t, "E10", ToLegacy(50))
	assert.Equal(t, "", ToLegacy(0))
}

func TestLegacyOf(t *testing.T) {
	assert.Equal(t, "D8", LegacyOf("38"))
	assert.Equal(t, "", LegacyOf("D8"))
}
