// Package history keeps a local record of finished matches so players can
// review past games without the server.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"quizmon-client/internal/domain"
)

// Record is one finished match from the local player's perspective.
type Record struct {
	ID          string
	MatchID     string
	UserID      string
	Username    string
	Rank        int
	Score       int
	Leaderboard []domain.LeaderboardEntry
	PlayedAt    time.Time
}

// Store provides data access to the local SQLite history database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB wraps an existing connection (used by tests).
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		match_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		username TEXT,
		rank INTEGER NOT NULL,
		score INTEGER NOT NULL,
		leaderboard TEXT NOT NULL,
		played_at DATETIME NOT NULL
	)`)
	return err
}

// Record inserts one finished match. A missing ID is filled in.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now()
	}
	board, err := json.Marshal(rec.Leaderboard)
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO matches (id, match_id, user_id, username, rank, score, leaderboard, played_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.MatchID, rec.UserID, rec.Username, rec.Rank, rec.Score, string(board), rec.PlayedAt,
	)
	if err != nil {
		return fmt.Errorf("insert match record: %w", err)
	}
	return nil
}

// List returns the most recent records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, match_id, user_id, username, rank, score, leaderboard, played_at
		 FROM matches ORDER BY played_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var board string
		if err := rows.Scan(&rec.ID, &rec.MatchID, &rec.UserID, &rec.Username,
			&rec.Rank, &rec.Score, &board, &rec.PlayedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if err := json.Unmarshal([]byte(board), &rec.Leaderboard); err != nil {
			return nil, fmt.Errorf("decode leaderboard: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Hook adapts the store to the session's finish callback: it records the
// local user's final rank and score. Failures are logged, never surfaced;
// losing a history row must not disturb the session.
func (s *Store) Hook(ctx context.Context, log *zap.Logger) func(matchID string, user domain.User, final []domain.LeaderboardEntry) {
	return func(matchID string, user domain.User, final []domain.LeaderboardEntry) {
		rec := Record{
			MatchID:     matchID,
			UserID:      user.ID,
			Username:    user.Username,
			Leaderboard: final,
		}
		for _, entry := range final {
			if entry.UserID == user.ID {
				rec.Rank = entry.Rank
				rec.Score = entry.Score
				break
			}
		}
		if err := s.Record(ctx, rec); err != nil {
			log.Warn("match not recorded", zap.String("matchId", matchID), zap.Error(err))
		}
	}
}
