package storage

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS game_result (
	id          UUID PRIMARY KEY,
	lobby_id    TEXT NOT NULL,
	players     TEXT[] NOT NULL,
	score       INT NOT NULL,
	reason      TEXT NOT NULL,
	turns       INT NOT NULL,
	lives_left  SMALLINT NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_game_result_finished_at ON game_result(finished_at DESC);
`

// PostgresStore persists finished games in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and ensures the game_result table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// InsertGameResult stores one finished game.
func (s *PostgresStore) InsertGameResult(ctx context.Context, r GameResult) error {
	if s == nil || s.pool == nil {
		return nil
	}
	r = prepare(r)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO game_result (id, lobby_id, players, score, reason, turns, lives_left, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.LobbyID, r.Players, r.Score, r.Reason, r.Turns, r.LivesLeft, r.FinishedAt)
	return err
}

// ListRecent returns the most recently finished games, newest first.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]GameResult, error) {
	if s == nil || s.pool == nil {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, lobby_id, players, score, reason, turns, lives_left, finished_at
		FROM game_result
		ORDER BY finished_at DESC
		LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (GameResult, error) {
		var r GameResult
		err := row.Scan(&r.ID, &r.LobbyID, &r.Players, &r.Score, &r.Reason, &r.Turns, &r.LivesLeft, &r.FinishedAt)
		r.FinishedAt = r.FinishedAt.UTC()
		return r, err
	})
}
