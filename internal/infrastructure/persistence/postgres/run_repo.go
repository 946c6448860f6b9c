// Package postgres implements the PostgreSQL persistence layer for Groovy Hub.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/groovy-hub/groovy-hub/internal/domain/run"
	"github.com/groovy-hub/groovy-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RUN REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// RunRepository implements run.Repository on PostgreSQL.
type RunRepository struct {
	conn *Connection
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(conn *Connection) *RunRepository {
	return &RunRepository{conn: conn}
}

const runColumns = "category, track, player, run_time, place, run_date"

// scanRecord scans one runs row into a domain record.
func scanRecord(row pgx.Row) (*run.Record, error) {
	var r run.Record
	if err := row.Scan(&r.Category, &r.Track, &r.Player, &r.Time, &r.Place, &r.Date); err != nil {
		return nil, err
	}
	return &r, nil
}

// PreviousKeys returns the identity keys of the last committed snapshot.
func (r *RunRepository) PreviousKeys(ctx context.Context) (map[run.Key]struct{}, error) {
	rows, err := r.conn.Query(ctx, "SELECT "+runColumns+" FROM runs")
	if err != nil {
		return nil, fmt.Errorf("query previous keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[run.Key]struct{})
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		keys[record.Key()] = struct{}{}
	}

	return keys, rows.Err()
}

// Scores returns the last committed score table.
func (r *RunRepository) Scores(ctx context.Context) (run.ScoreTable, error) {
	rows, err := r.conn.Query(ctx, "SELECT player, score FROM scores")
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	scores := make(run.ScoreTable)
	for rows.Next() {
		var player string
		var score int
		if err := rows.Scan(&player, &score); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		scores[player] = score
	}

	return scores, rows.Err()
}

// RankingTable returns the last committed rendered rankings table, or the
// empty string when nothing has been committed yet.
func (r *RunRepository) RankingTable(ctx context.Context) (string, error) {
	var rendered string
	err := r.conn.QueryRow(ctx, "SELECT rendered FROM rankings WHERE id = 1").Scan(&rendered)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("query ranking table: %w", err)
	}
	return rendered, nil
}

// ReplaceState atomically replaces runs, scores, and the rendered table with
// the given cycle state. Either everything commits or nothing does.
func (r *RunRepository) ReplaceState(ctx context.Context, state run.PersistedState) error {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM runs"); err != nil {
			return fmt.Errorf("clear runs: %w", err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM scores"); err != nil {
			return fmt.Errorf("clear scores: %w", err)
		}

		batch := &pgx.Batch{}
		for _, record := range state.Snapshot.Records() {
			batch.Queue(`
				INSERT INTO runs (category, track, player, run_time, place, run_date, snapshot_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				string(record.Category), string(record.Track), record.Player,
				record.Time, record.Place, record.Date, state.Snapshot.ID,
			)
		}
		for player, score := range state.Scores {
			batch.Queue(
				"INSERT INTO scores (player, score) VALUES ($1, $2)",
				player, score,
			)
		}
		batch.Queue(`
			INSERT INTO rankings (id, rendered) VALUES (1, $1)
			ON CONFLICT (id) DO UPDATE SET rendered = EXCLUDED.rendered, updated_at = NOW()`,
			state.RankingTable,
		)

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("batch insert: %w", err)
			}
		}

		return results.Close()
	})
	if err != nil {
		return shared.WrapError("run", "ReplaceState", shared.ErrCommitFailed, "replacing committed state", err)
	}
	return nil
}

// FindRun returns a player's run on the given board, matching the player name
// case-insensitively.
func (r *RunRepository) FindRun(ctx context.Context, category run.Category, track run.Track, player string) (*run.Record, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE category = $1 AND track = $2 AND LOWER(player) = LOWER($3)
		ORDER BY place
		LIMIT 1`,
		string(category), string(track), player,
	)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrRunNotFound
		}
		return nil, fmt.Errorf("find run: %w", err)
	}

	return record, nil
}

// WorldRecords returns all committed place-1 runs in board order.
func (r *RunRepository) WorldRecords(ctx context.Context) ([]*run.Record, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE place = 1
		ORDER BY track, category`,
	)
	if err != nil {
		return nil, fmt.Errorf("query world records: %w", err)
	}
	defer rows.Close()

	var records []*run.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
