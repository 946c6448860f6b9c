package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groovy-hub/groovy-hub/internal/domain/shared"
)

func TestParseTrack(t *testing.T) {
	track, err := ParseTrack("Coventry Cove")
	require.NoError(t, err)
	assert.Equal(t, TrackCoventryCove, track)

	track, err = ParseTrack("wicked woods")
	require.NoError(t, err)
	assert.Equal(t, TrackWickedWoods, track)

	_, err = ParseTrack("Beginner Park")
	assert.ErrorIs(t, err, shared.ErrUnknownTrack)
}

func TestParseShortform(t *testing.T) {
	tests := []struct {
		shortform string
		track     Track
		category  Category
		wantErr   bool
	}{
		{"cc", TrackCoventryCove, CategoryTimeAttack, false},
		{"cc100", TrackCoventryCove, CategoryHundred, false},
		{"CC100", TrackCoventryCove, CategoryHundred, false},
		{"mmm", TrackMountMayhem, CategoryTimeAttack, false},
		{"mms", TrackMetroMadness, CategoryTimeAttack, false},
		{"mms100", TrackMetroMadness, CategoryHundred, false},
		{"ii", TrackInfernoIsle, CategoryTimeAttack, false},
		{"ss100", TrackSunsetSands, CategoryHundred, false},
		{"ww", TrackWickedWoods, CategoryTimeAttack, false},
		{"  ww  ", TrackWickedWoods, CategoryTimeAttack, false},
		{"xx", "", "", true},
		{"", "", "", true},
		{"100", "", "", true},
	}

	for _, tt := range tests {
		track, category, err := ParseShortform(tt.shortform)
		if tt.wantErr {
			assert.ErrorIs(t, err, shared.ErrUnknownTrack, "shortform %q", tt.shortform)
			continue
		}
		require.NoError(t, err, "shortform %q", tt.shortform)
		assert.Equal(t, tt.track, track, "shortform %q", tt.shortform)
		assert.Equal(t, tt.category, category, "shortform %q", tt.shortform)
	}
}

func TestNewRecordValidation(t *testing.T) {
	r, err := NewRecord(CategoryTimeAttack, TrackCoventryCove, "Alice", "1:15.50", 1, "2024-03-01")
	require.NoError(t, err)
	assert.True(t, r.IsWorldRecord())

	_, err = NewRecord(CategoryTimeAttack, TrackCoventryCove, "", "1:15.50", 1, "")
	assert.ErrorIs(t, err, shared.ErrEmptyPlayerName)

	_, err = NewRecord(CategoryTimeAttack, TrackCoventryCove, "Alice", "1:15.50", 0, "")
	assert.ErrorIs(t, err, shared.ErrInvalidPlacement)

	_, err = NewRecord(CategoryTimeAttack, TrackCoventryCove, "Alice", "", 1, "")
	assert.ErrorIs(t, err, shared.ErrMalformedEntry)
}

func TestRecordKeyExcludesPlace(t *testing.T) {
	a, err := NewRecord(CategoryTimeAttack, TrackCoventryCove, "Alice", "1:15.50", 1, "2024-03-01")
	require.NoError(t, err)
	b, err := NewRecord(CategoryTimeAttack, TrackCoventryCove, "Alice", "1:15.50", 4, "2024-03-01")
	require.NoError(t, err)

	// A run pushed down the board by others is still the same run.
	assert.Equal(t, a.Key(), b.Key())
}

func TestRecordKeyIncludesDate(t *testing.T) {
	a, err := NewRecord(CategoryHundred, TrackSunsetSands, "Bob", "2:01.00", 2, "2024-03-01")
	require.NoError(t, err)
	b, err := NewRecord(CategoryHundred, TrackSunsetSands, "Bob", "2:01.00", 2, "2024-05-20")
	require.NoError(t, err)

	assert.NotEqual(t, a.Key(), b.Key())
}
