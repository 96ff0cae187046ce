package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const createSQLiteTableSQL = `
CREATE TABLE IF NOT EXISTS game_result (
	id          TEXT PRIMARY KEY,
	lobby_id    TEXT NOT NULL,
	players     TEXT NOT NULL,
	score       INTEGER NOT NULL,
	reason      TEXT NOT NULL,
	turns       INTEGER NOT NULL,
	lives_left  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_result_finished_at ON game_result(finished_at DESC);
`

// SQLiteStore persists finished games in a SQLite file. Player names are
// stored as a JSON array and timestamps as unix milliseconds.
type SQLiteStore struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLite opens (creating if needed) a SQLite result store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(createSQLiteTableSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	slog.Info("opened SQLite result store", "tag", "storage", "path", path)
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() {
	if s == nil || s.sqlDB == nil {
		return
	}
	if err := s.sqlDB.Close(); err != nil {
		slog.Warn("closing sqlite db", "tag", "storage", "err", err)
	}
}

// InsertGameResult stores one finished game.
func (s *SQLiteStore) InsertGameResult(ctx context.Context, r GameResult) error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	r = prepare(r)
	players, err := json.Marshal(r.Players)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx, `
		INSERT INTO game_result (id, lobby_id, players, score, reason, turns, lives_left, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.LobbyID, string(players), r.Score, r.Reason, r.Turns, r.LivesLeft, toMillis(r.FinishedAt))
	if err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}
	return nil
}

// ListRecent returns the most recently finished games, newest first.
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]GameResult, error) {
	if s == nil || s.sqlDB == nil {
		return nil, nil
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, lobby_id, players, score, reason, turns, lives_left, finished_at
		FROM game_result
		ORDER BY finished_at DESC
		LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list game results: %w", err)
	}
	defer rows.Close()

	var out []GameResult
	for rows.Next() {
		var (
			r        GameResult
			players  string
			finished int64
		)
		if err := rows.Scan(&r.ID, &r.LobbyID, &players, &r.Score, &r.Reason, &r.Turns, &r.LivesLeft, &finished); err != nil {
			return nil, fmt.Errorf("scan game result: %w", err)
		}
		if err := json.Unmarshal([]byte(players), &r.Players); err != nil {
			return nil, fmt.Errorf("decode players: %w", err)
		}
		r.FinishedAt = fromMillis(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}
