package run

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdinal(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "1st"},
		{2, "2nd"},
		{3, "3rd"},
		{4, "4th"},
		{11, "11th"},
		{12, "12th"},
		{13, "13th"},
		{21, "21st"},
		{22, "22nd"},
		{23, "23rd"},
		{101, "101st"},
		{111, "111th"},
		{112, "112th"},
		{113, "113th"},
		{121, "121st"},
		{213, "213th"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Ordinal(tt.n))
	}
}

func TestBuildRankingOrdersByScoreThenName(t *testing.T) {
	scores := ScoreTable{"Carol": 95, "Alice": 100, "Bob": 97}

	entries := BuildRanking(scores)
	require.Len(t, entries, 3)
	assert.Equal(t, RankingEntry{Position: "1st", Score: 100, Player: "Alice"}, entries[0])
	assert.Equal(t, RankingEntry{Position: "2nd", Score: 97, Player: "Bob"}, entries[1])
	assert.Equal(t, RankingEntry{Position: "3rd", Score: 95, Player: "Carol"}, entries[2])
}

func TestBuildRankingSharesTiedPositions(t *testing.T) {
	scores := ScoreTable{"Alice": 100, "Bob": 100, "Carol": 95, "Dave": 95, "Eve": 90}

	entries := BuildRanking(scores)
	require.Len(t, entries, 5)
	// Competition ranking: 1st, 1st, 3rd, 3rd, 5th.
	assert.Equal(t, "1st", entries[0].Position)
	assert.Equal(t, "1st", entries[1].Position)
	assert.Equal(t, "3rd", entries[2].Position)
	assert.Equal(t, "3rd", entries[3].Position)
	assert.Equal(t, "5th", entries[4].Position)
}

func TestBuildRankingEmpty(t *testing.T) {
	assert.Empty(t, BuildRanking(ScoreTable{}))
}

func TestRenderTable(t *testing.T) {
	entries := []RankingEntry{
		{Position: "1st", Score: 100, Player: "Alice"},
		{Position: "2nd", Score: 97, Player: "Bo"},
	}

	got := RenderTable(entries)
	want := strings.Join([]string{
		"+-----+-------+-------+",
		"| Pos | Score | Name  |",
		"+-----+-------+-------+",
		"| 1st |   100 | Alice |",
		"| 2nd |    97 | Bo    |",
		"+-----+-------+-------+",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRenderTableDeterministic(t *testing.T) {
	scores := ScoreTable{"Alice": 100, "Bob": 97, "Carol": 95}

	first := RenderTable(BuildRanking(scores))
	second := RenderTable(BuildRanking(scores))
	assert.Equal(t, first, second)
}
