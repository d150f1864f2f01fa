// Package engine implements the per-room game state machine. A Room owns its
// board, scores, and turn order; all mutation funnels through the room's
// mutex so at most one move is validated and applied at any instant.
package engine

import (
	"strings"
	"sync"
	"time"

	"github.com/dotgrid/dotgrid/internal/game/board"
	apperrors "github.com/dotgrid/dotgrid/internal/platform/errors"
)

// Status describes the lifecycle state of a room.
type Status int

const (
	// StatusWaiting indicates one seat is filled and the game has not started.
	StatusWaiting Status = iota
	// StatusPlaying indicates both seats are filled and moves are accepted.
	StatusPlaying
	// StatusFinished is terminal; no further moves are accepted.
	StatusFinished
)

// String returns the wire form of the status.
func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusFinished:
		return "finished"
	default:
		return "waiting"
	}
}

// NoWinner marks a draw or an unfinished game in snapshots.
const NoWinner = -1

// Player identifies one seated participant.
type Player struct {
	ID   string
	Name string
	Seat int
}

var (
	// ErrRoomFull indicates both seats are already taken.
	ErrRoomFull = apperrors.New(apperrors.CodeRoomFull, "room is full")
	// ErrAlreadyInRoom indicates a player joining a room they already occupy.
	ErrAlreadyInRoom = apperrors.New(apperrors.CodeAlreadyInRoom, "player is already in this room")
	// ErrNotYourTurn indicates a move by the seat that does not hold the turn.
	ErrNotYourTurn = apperrors.New(apperrors.CodeNotYourTurn, "it is not this seat's turn")
	// ErrGameOver indicates a move against a finished room.
	ErrGameOver = apperrors.New(apperrors.CodeGameOver, "game is over")
	// ErrGameNotStarted indicates a move before the second player joined.
	ErrGameNotStarted = apperrors.New(apperrors.CodeGameNotStarted, "game has not started")
)

// Room is the authoritative state for one game. Its zero value is not
// usable; construct rooms with NewRoom.
type Room struct {
	mu sync.Mutex

	id        string
	board     *board.Board
	players   [2]*Player
	scores    [2]int
	turnSeat  int
	status    Status
	winner    int
	createdAt time.Time
}

// NewRoom creates a waiting room with the creator seated at seat 0.
// Size is in dots per side; zero selects the default.
func NewRoom(id string, size int, creator Player) (*Room, error) {
	if size == 0 {
		size = board.DefaultSize
	}
	b, err := board.New(size)
	if err != nil {
		return nil, err
	}

	creator.Seat = 0
	creator.Name = strings.TrimSpace(creator.Name)
	now := time.Now().UTC()
	return &Room{
		id:        id,
		board:     b,
		players:   [2]*Player{&creator, nil},
		turnSeat:  0,
		status:    StatusWaiting,
		winner:    NoWinner,
		createdAt: now,
	}, nil
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// CreatedAt returns when the room was registered.
func (r *Room) CreatedAt() time.Time { return r.createdAt }

// Join seats a second player and starts the game. The onStart callback, if
// non-nil, runs with the starting snapshot while the room is still locked,
// so the GAME_START fan-out always precedes any move snapshot.
func (r *Room) Join(p Player, onStart func(Snapshot)) (seat int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, seated := range r.players {
		if seated != nil && seated.ID == p.ID {
			return 0, ErrAlreadyInRoom
		}
	}
	if r.players[1] != nil {
		return 0, ErrRoomFull
	}

	p.Seat = 1
	p.Name = strings.TrimSpace(p.Name)
	r.players[1] = &p
	r.status = StatusPlaying
	r.turnSeat = 0

	if onStart != nil {
		onStart(r.snapshotLocked())
	}
	return 1, nil
}

// ApplyMove validates and applies a move for the given seat. On success the
// returned snapshot reflects the board after the move; rejected moves leave
// the room untouched. The onAccept callback, if non-nil, runs with the
// snapshot while the room is still locked, so publication order equals
// acceptance order.
func (r *Room) ApplyMove(seat int, o board.Orientation, row, col int, onAccept func(Snapshot)) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seat != r.turnSeat {
		return Snapshot{}, ErrNotYourTurn
	}
	switch r.status {
	case StatusFinished:
		return Snapshot{}, ErrGameOver
	case StatusWaiting:
		return Snapshot{}, ErrGameNotStarted
	}

	completed, err := r.board.SetEdge(o, row, col)
	if err != nil {
		return Snapshot{}, err
	}

	for _, box := range completed {
		// SetEdge only reports unowned boxes, so Claim cannot fail here.
		if err := r.board.Claim(box, board.Owner(seat)); err != nil {
			return Snapshot{}, err
		}
		r.scores[seat]++
	}

	// Closing at least one box keeps the turn; a double box still grants
	// exactly one extra move.
	if len(completed) == 0 {
		r.turnSeat = 1 - r.turnSeat
	}

	if r.board.Complete() {
		r.status = StatusFinished
		switch {
		case r.scores[0] > r.scores[1]:
			r.winner = 0
		case r.scores[1] > r.scores[0]:
			r.winner = 1
		default:
			r.winner = NoWinner
		}
	}

	snap := r.snapshotLocked()
	if onAccept != nil {
		onAccept(snap)
	}
	return snap, nil
}

// Leave vacates a seat and reports how many players remain. Leaving does not
// declare a winner; abandonment policy belongs to the caller.
func (r *Room) Leave(seat int) (remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seat >= 0 && seat < len(r.players) {
		r.players[seat] = nil
	}
	for _, p := range r.players {
		if p != nil {
			remaining++
		}
	}
	return remaining
}

// Seat returns the player seated at the given index, or nil.
func (r *Room) Seat(seat int) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seat < 0 || seat >= len(r.players) {
		return nil
	}
	if p := r.players[seat]; p != nil {
		copied := *p
		return &copied
	}
	return nil
}

// PlayerNames returns the display names of seated players, seat 0 first.
func (r *Room) PlayerNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, 2)
	for _, p := range r.players {
		if p != nil {
			names = append(names, p.Name)
		}
	}
	return names
}

// Summary returns occupancy and lifecycle data for room listings.
func (r *Room) Summary() (playerCount, gridSize int, names []string, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p != nil {
			playerCount++
			names = append(names, p.Name)
		}
	}
	return playerCount, r.board.Size(), names, r.status
}

// Snapshot is an immutable copy of a room's observable game state. It is the
// sole payload describing game progress; no incremental diff exists.
type Snapshot struct {
	RoomID   string
	Board    board.View
	Scores   [2]int
	TurnSeat int
	Status   Status
	GameOver bool
	// Winner is the winning seat, or NoWinner for a draw or ongoing game.
	Winner  int
	Players [2]string
}

// Snapshot returns the current room state.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() Snapshot {
	snap := Snapshot{
		RoomID:   r.id,
		Board:    r.board.View(),
		Scores:   r.scores,
		TurnSeat: r.turnSeat,
		Status:   r.status,
		GameOver: r.status == StatusFinished,
		Winner:   r.winner,
	}
	for i, p := range r.players {
		if p != nil {
			snap.Players[i] = p.Name
		}
	}
	return snap
}
