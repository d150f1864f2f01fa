// Package sqlite provides a SQLite-backed match storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dotgrid/dotgrid/internal/platform/storage/sqlitemigrate"
	"github.com/dotgrid/dotgrid/internal/storage"
	"github.com/dotgrid/dotgrid/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists match records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite match store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveMatch inserts one completed match record.
func (s *Store) SaveMatch(ctx context.Context, match storage.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	matchID := strings.TrimSpace(match.MatchID)
	roomID := strings.TrimSpace(match.RoomID)
	if matchID == "" {
		return fmt.Errorf("match id is required")
	}
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}
	if match.GridSize <= 0 {
		return fmt.Errorf("grid size must be greater than zero")
	}
	finishedAt := match.FinishedAt.UTC()
	if finishedAt.IsZero() {
		finishedAt = time.Now().UTC()
	}
	startedAt := match.StartedAt.UTC()
	if startedAt.IsZero() {
		startedAt = finishedAt
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO matches (
		   match_id,
		   room_id,
		   grid_size,
		   player1,
		   player2,
		   score1,
		   score2,
		   winner,
		   started_at,
		   finished_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		matchID,
		roomID,
		match.GridSize,
		match.Player1,
		match.Player2,
		match.Score1,
		match.Score2,
		match.Winner,
		toMillis(startedAt),
		toMillis(finishedAt),
	)
	if err != nil {
		return fmt.Errorf("save match: %w", err)
	}
	return nil
}

// GetMatch returns one match record by ID.
func (s *Store) GetMatch(ctx context.Context, matchID string) (storage.Match, error) {
	if err := ctx.Err(); err != nil {
		return storage.Match{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Match{}, fmt.Errorf("storage is not configured")
	}
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return storage.Match{}, fmt.Errorf("match id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT match_id, room_id, grid_size, player1, player2,
		        score1, score2, winner, started_at, finished_at
		   FROM matches
		  WHERE match_id = ?`,
		matchID,
	)

	match, err := scanMatch(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Match{}, storage.ErrNotFound
		}
		return storage.Match{}, fmt.Errorf("get match: %w", err)
	}
	return match, nil
}

// ListRecentMatches returns the most recently finished matches, newest first.
func (s *Store) ListRecentMatches(ctx context.Context, limit int) ([]storage.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT match_id, room_id, grid_size, player1, player2,
		        score1, score2, winner, started_at, finished_at
		   FROM matches
		  ORDER BY finished_at DESC, match_id DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent matches: %w", err)
	}
	defer rows.Close()

	matches := make([]storage.Match, 0, limit)
	for rows.Next() {
		match, err := scanMatch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return matches, nil
}

func scanMatch(scan func(dest ...any) error) (storage.Match, error) {
	var match storage.Match
	var startedAt int64
	var finishedAt int64
	err := scan(
		&match.MatchID,
		&match.RoomID,
		&match.GridSize,
		&match.Player1,
		&match.Player2,
		&match.Score1,
		&match.Score2,
		&match.Winner,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return storage.Match{}, err
	}
	match.StartedAt = fromMillis(startedAt)
	match.FinishedAt = fromMillis(finishedAt)
	return match, nil
}
