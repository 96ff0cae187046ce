package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultListLimit is used when ListRecent is called without a positive limit.
	DefaultListLimit = 20
	// MaxListLimit caps ListRecent.
	MaxListLimit = 100
)

// GameResult is one finished game.
type GameResult struct {
	ID         string    `json:"id"`
	LobbyID    string    `json:"lobbyId"`
	Players    []string  `json:"players"` // display names in seat order
	Score      int       `json:"score"`
	Reason     string    `json:"reason"`
	Turns      int       `json:"turns"`
	LivesLeft  int       `json:"livesLeft"`
	FinishedAt time.Time `json:"finishedAt"`
}

// ResultStore persists finished games. Lobbies themselves are never stored.
type ResultStore interface {
	InsertGameResult(ctx context.Context, r GameResult) error
	ListRecent(ctx context.Context, limit int) ([]GameResult, error)
	Close()
}

// Ensure both backends implement ResultStore at compile time.
var (
	_ ResultStore = (*PostgresStore)(nil)
	_ ResultStore = (*SQLiteStore)(nil)
)

const sqlitePrefix = "sqlite:"

// Open picks a backend from databaseURL: postgres:// or postgresql:// URLs use
// Postgres, sqlite:<path> uses SQLite. An empty URL returns (nil, nil) and no
// persistence occurs.
func Open(ctx context.Context, databaseURL string) (ResultStore, error) {
	switch {
	case databaseURL == "":
		return nil, nil
	case strings.HasPrefix(databaseURL, sqlitePrefix):
		s, err := OpenSQLite(strings.TrimPrefix(databaseURL, sqlitePrefix))
		if err != nil {
			return nil, err
		}
		return s, nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		s, err := NewPostgresStore(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database url scheme in %q", redact(databaseURL))
	}
}

// prepare fills the generated fields of a result before insertion.
func prepare(r GameResult) GameResult {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
	r.FinishedAt = r.FinishedAt.UTC()
	if r.Players == nil {
		r.Players = []string{}
	}
	return r
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}

// redact drops everything after the scheme so credentials never reach logs.
func redact(databaseURL string) string {
	if i := strings.Index(databaseURL, ":"); i >= 0 {
		return databaseURL[:i+1] + "..."
	}
	return "..."
}
