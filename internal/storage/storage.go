// Package storage defines persistence contracts for finished match records.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested match record is missing.
var ErrNotFound = errors.New("record not found")

// Match stores the outcome of one completed game.
type Match struct {
	MatchID    string
	RoomID     string
	GridSize   int
	Player1    string
	Player2    string
	Score1     int
	Score2     int
	Winner     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// MatchStore persists completed match records.
type MatchStore interface {
	SaveMatch(ctx context.Context, match Match) error
	GetMatch(ctx context.Context, matchID string) (Match, error)
	ListRecentMatches(ctx context.Context, limit int) ([]Match, error)
}
