// Package postgres implements the PostgreSQL persistence layer for Groovy Hub.
package postgres

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_runs",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_scores",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_rankings",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

// Migration 001: the runs table holds the full records of the last committed
// snapshot. The unique index mirrors the domain identity key; run_date stays
// TEXT because the API may omit it and an empty date is part of the key.
const migration001Up = `
CREATE TABLE IF NOT EXISTS runs (
	id          BIGSERIAL PRIMARY KEY,
	category    TEXT NOT NULL,
	track       TEXT NOT NULL,
	player      TEXT NOT NULL,
	run_time    TEXT NOT NULL,
	place       INTEGER NOT NULL CHECK (place >= 1),
	run_date    TEXT NOT NULL DEFAULT '',
	snapshot_id TEXT NOT NULL,
	created_at  TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_runs_identity
	ON runs (category, track, player, run_time, run_date);

CREATE INDEX IF NOT EXISTS idx_runs_player_lower
	ON runs (LOWER(player));

CREATE INDEX IF NOT EXISTS idx_runs_board
	ON runs (track, category);

CREATE INDEX IF NOT EXISTS idx_runs_place
	ON runs (place);
`

const migration001Down = `
DROP TABLE IF EXISTS runs;
`

// Migration 002: the scores table is the per-player point totals of the last
// committed snapshot.
const migration002Up = `
CREATE TABLE IF NOT EXISTS scores (
	player     TEXT PRIMARY KEY,
	score      INTEGER NOT NULL CHECK (score >= 0),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_scores_score
	ON scores (score DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS scores;
`

// Migration 003: the rankings table holds exactly one row, the rendered
// rankings table of the last committed snapshot. It is compared verbatim
// between cycles to decide whether the rankings moved.
const migration003Up = `
CREATE TABLE IF NOT EXISTS rankings (
	id         SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	rendered   TEXT NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration003Down = `
DROP TABLE IF EXISTS rankings;
`
