package srcom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groovy-hub/groovy-hub/internal/domain/run"
)

func placedRun(place int, playerID, date string, ingame float64) PlacedRunDTO {
	return PlacedRunDTO{
		Place: place,
		Run: RunDTO{
			ID:      "run-" + playerID,
			Players: []RunPlayerDTO{{Rel: "user", ID: playerID}},
			Date:    date,
			Times:   TimesDTO{IngameT: ingame},
		},
	}
}

func embeddedPlayers(players ...PlayerDTO) PlayersEmbed {
	return PlayersEmbed{Data: players}
}

func user(id, name string) PlayerDTO {
	return PlayerDTO{Rel: "user", ID: id, Names: &NamesDTO{International: name}}
}

func TestAppendLeaderboardMapsRankedRuns(t *testing.T) {
	board := &LeaderboardDTO{
		Runs: []PlacedRunDTO{
			placedRun(1, "p1", "2024-03-15", 75.5),
			placedRun(2, "p2", "2024-03-10", 80.12),
		},
		Players: embeddedPlayers(user("p1", "Alice"), user("p2", "Bob")),
	}

	snapshot := run.NewSnapshot(run.NewSnapshotID())
	added := NewMapper(nil).AppendLeaderboard(snapshot, board, run.TrackCoventryCove, run.CategoryTimeAttack)

	require.Equal(t, 2, added)
	records := snapshot.Records()
	require.Len(t, records, 2)

	assert.Equal(t, run.TrackCoventryCove, records[0].Track)
	assert.Equal(t, run.CategoryTimeAttack, records[0].Category)
	assert.Equal(t, "Alice", records[0].Player)
	assert.Equal(t, "1:15.50", records[0].Time)
	assert.Equal(t, 1, records[0].Place)
	assert.Equal(t, "2024-03-15", records[0].Date)

	assert.Equal(t, "Bob", records[1].Player)
	assert.Equal(t, "1:20.12", records[1].Time)
}

func TestAppendLeaderboardSkipsObsoleteRuns(t *testing.T) {
	board := &LeaderboardDTO{
		Runs: []PlacedRunDTO{
			placedRun(0, "p1", "2024-03-15", 75.5),
			placedRun(1, "p2", "2024-03-10", 80.0),
		},
		Players: embeddedPlayers(user("p1", "Alice"), user("p2", "Bob")),
	}

	snapshot := run.NewSnapshot(run.NewSnapshotID())
	added := NewMapper(nil).AppendLeaderboard(snapshot, board, run.TrackWickedWoods, run.CategoryHundred)

	assert.Equal(t, 1, added)
	assert.Equal(t, "Bob", snapshot.Records()[0].Player)
}

func TestAppendLeaderboardSkipsMissingTime(t *testing.T) {
	entry := placedRun(1, "p1", "2024-03-15", 0)
	board := &LeaderboardDTO{
		Runs:    []PlacedRunDTO{entry},
		Players: embeddedPlayers(user("p1", "Alice")),
	}

	snapshot := run.NewSnapshot(run.NewSnapshotID())
	added := NewMapper(nil).AppendLeaderboard(snapshot, board, run.TrackSunsetSands, run.CategoryTimeAttack)

	assert.Equal(t, 0, added)
	assert.True(t, snapshot.IsEmpty())
}

func TestAppendLeaderboardSkipsUnresolvablePlayer(t *testing.T) {
	board := &LeaderboardDTO{
		Runs:    []PlacedRunDTO{placedRun(1, "missing", "2024-03-15", 75.5)},
		Players: embeddedPlayers(user("p1", "Alice")),
	}

	snapshot := run.NewSnapshot(run.NewSnapshotID())
	added := NewMapper(nil).AppendLeaderboard(snapshot, board, run.TrackInfernoIsle, run.CategoryTimeAttack)

	assert.Equal(t, 0, added)
}

func TestAppendLeaderboardResolvesGuestInline(t *testing.T) {
	board := &LeaderboardDTO{
		Runs: []PlacedRunDTO{{
			Place: 1,
			Run: RunDTO{
				ID:      "run-guest",
				Players: []RunPlayerDTO{{Rel: "guest", Name: "GuestRacer"}},
				Date:    "2024-03-15",
				Times:   TimesDTO{IngameT: 62.3},
			},
		}},
		Players: embeddedPlayers(),
	}

	snapshot := run.NewSnapshot(run.NewSnapshotID())
	added := NewMapper(nil).AppendLeaderboard(snapshot, board, run.TrackMountMayhem, run.CategoryTimeAttack)

	require.Equal(t, 1, added)
	assert.Equal(t, "GuestRacer", snapshot.Records()[0].Player)
}

func TestAppendLeaderboardCreditsFirstRunner(t *testing.T) {
	board := &LeaderboardDTO{
		Runs: []PlacedRunDTO{{
			Place: 1,
			Run: RunDTO{
				ID: "run-duo",
				Players: []RunPlayerDTO{
					{Rel: "user", ID: "p1"},
					{Rel: "user", ID: "p2"},
				},
				Date:  "2024-03-15",
				Times: TimesDTO{IngameT: 75.5},
			},
		}},
		Players: embeddedPlayers(user("p1", "Alice"), user("p2", "Bob")),
	}

	snapshot := run.NewSnapshot(run.NewSnapshotID())
	added := NewMapper(nil).AppendLeaderboard(snapshot, board, run.TrackMetroMadness, run.CategoryTimeAttack)

	require.Equal(t, 1, added)
	assert.Equal(t, "Alice", snapshot.Records()[0].Player)
}

func TestTimesDTOBestTimePrefersIngame(t *testing.T) {
	withIngame := TimesDTO{PrimaryT: 80, IngameT: 75.5}
	assert.Equal(t, 75.5, withIngame.BestTime())

	withoutIngame := TimesDTO{PrimaryT: 80}
	assert.Equal(t, 80.0, withoutIngame.BestTime())
}
