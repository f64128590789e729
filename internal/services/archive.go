package services

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"crypto-crash-backend/internal/models"

	_ "github.com/lib/pq"
)

// RoundArchive keeps the append-only record of finished rounds. Writes are
// best-effort from the round loop's point of view: a failed archive never
// stalls the next round.
type RoundArchive interface {
	ArchiveRound(summary *models.RoundSummary) error
	RecentRounds(limit int) ([]*models.RoundSummary, error)
}

type PostgresArchive struct {
	db *sql.DB
}

func NewPostgresArchive(url string) (*PostgresArchive, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %v", err)
	}
	db.SetMaxOpenConns(10)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %v", err)
	}

	archive := &PostgresArchive{db: db}
	if err := archive.ensureSchema(); err != nil {
		return nil, err
	}

	return archive, nil
}

func (a *PostgresArchive) ensureSchema() error {
	_, err := a.db.Exec(`
		CREATE TABLE IF NOT EXISTS rounds (
			round_id      TEXT PRIMARY KEY,
			seed          TEXT NOT NULL,
			seed_hash     TEXT NOT NULL,
			crash_point   DOUBLE PRECISION NOT NULL,
			started_at    TIMESTAMPTZ NOT NULL,
			crashed_at    TIMESTAMPTZ NOT NULL,
			bet_count     INTEGER NOT NULL,
			cashout_count INTEGER NOT NULL,
			outcomes      JSONB NOT NULL DEFAULT '[]'
		)`)
	if err != nil {
		return fmt.Errorf("failed to create rounds table: %v", err)
	}
	return nil
}

func (a *PostgresArchive) ArchiveRound(summary *models.RoundSummary) error {
	outcomes, err := json.Marshal(summary.Outcomes)
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %v", err)
	}

	_, err = a.db.Exec(`
		INSERT INTO rounds
			(round_id, seed, seed_hash, crash_point, started_at, crashed_at,
			 bet_count, cashout_count, outcomes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		summary.RoundID, summary.Seed, summary.SeedHash, summary.CrashPoint,
		summary.StartedAt, summary.CrashedAt, summary.BetCount,
		summary.Cashouts, outcomes)
	if err != nil {
		return fmt.Errorf("failed to archive round: %v", err)
	}

	return nil
}

func (a *PostgresArchive) RecentRounds(limit int) ([]*models.RoundSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := a.db.Query(`
		SELECT round_id, seed, seed_hash, crash_point, started_at, crashed_at,
		       bet_count, cashout_count, outcomes
		FROM rounds
		ORDER BY crashed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %v", err)
	}
	defer rows.Close()

	var summaries []*models.RoundSummary
	for rows.Next() {
		var summary models.RoundSummary
		var outcomes []byte

		if err := rows.Scan(&summary.RoundID, &summary.Seed, &summary.SeedHash,
			&summary.CrashPoint, &summary.StartedAt, &summary.CrashedAt,
			&summary.BetCount, &summary.Cashouts, &outcomes); err != nil {
			return nil, fmt.Errorf("failed to scan round: %v", err)
		}
		if err := json.Unmarshal(outcomes, &summary.Outcomes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outcomes: %v", err)
		}

		summaries = append(summaries, &summary)
	}

	return summaries, rows.Err()
}

func (a *PostgresArchive) Close() error {
	return a.db.Close()
}
