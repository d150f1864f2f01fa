package engine

import (
	"errors"
	"testing"

	"github.com/dotgrid/dotgrid/internal/game/board"
)

func newPlayingRoom(t *testing.T, size int) *Room {
	t.Helper()
	room, err := NewRoom("r1", size, Player{ID: "p0", Name: "alice"})
	if err != nil {
		t.Fatalf("new room: %v", err)
	}
	if _, err := room.Join(Player{ID: "p1", Name: "bob"}, nil); err != nil {
		t.Fatalf("join: %v", err)
	}
	return room
}

func mustMove(t *testing.T, room *Room, seat int, o board.Orientation, row, col int) Snapshot {
	t.Helper()
	snap, err := room.ApplyMove(seat, o, row, col, nil)
	if err != nil {
		t.Fatalf("move seat=%d %v (%d,%d): %v", seat, o, row, col, err)
	}
	return snap
}

func TestNewRoomStartsWaiting(t *testing.T) {
	room, err := NewRoom("r1", 3, Player{ID: "p0", Name: "alice"})
	if err != nil {
		t.Fatalf("new room: %v", err)
	}
	snap := room.Snapshot()
	if snap.Status != StatusWaiting {
		t.Fatalf("expected waiting, got %v", snap.Status)
	}
	if snap.Players[0] != "alice" || snap.Players[1] != "" {
		t.Fatalf("unexpected players: %v", snap.Players)
	}
}

func TestNewRoomDefaultsSize(t *testing.T) {
	room, err := NewRoom("r1", 0, Player{ID: "p0"})
	if err != nil {
		t.Fatalf("new room: %v", err)
	}
	if got := room.Snapshot().Board.Size; got != board.DefaultSize {
		t.Fatalf("expected default size %d, got %d", board.DefaultSize, got)
	}
}

func TestNewRoomRejectsInvalidSize(t *testing.T) {
	if _, err := NewRoom("r1", 9, Player{ID: "p0"}); !errors.Is(err, board.ErrInvalidSize) {
		t.Fatalf("expected invalid size error, got %v", err)
	}
}

func TestJoinStartsGame(t *testing.T) {
	room, err := NewRoom("r1", 3, Player{ID: "p0", Name: "alice"})
	if err != nil {
		t.Fatalf("new room: %v", err)
	}

	var started *Snapshot
	seat, err := room.Join(Player{ID: "p1", Name: "bob"}, func(s Snapshot) { started = &s })
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if seat != 1 {
		t.Fatalf("expected seat 1, got %d", seat)
	}
	if started == nil {
		t.Fatal("expected start callback to run")
	}
	if started.Status != StatusPlaying || started.TurnSeat != 0 {
		t.Fatalf("expected playing with seat 0 to move, got %+v", started)
	}
}

func TestJoinRejectsThirdPlayer(t *testing.T) {
	room := newPlayingRoom(t, 3)
	before := room.Snapshot()

	_, err := room.Join(Player{ID: "p2", Name: "carol"}, nil)
	if !errors.Is(err, ErrRoomFull) {
		t.Fatalf("expected room full, got %v", err)
	}
	after := room.Snapshot()
	if after.Players != before.Players || after.Status != before.Status {
		t.Fatal("rejected join must not mutate the room")
	}
}

func TestJoinRejectsSamePlayerTwice(t *testing.T) {
	room, err := NewRoom("r1", 3, Player{ID: "p0", Name: "alice"})
	if err != nil {
		t.Fatalf("new room: %v", err)
	}
	if _, err := room.Join(Player{ID: "p0", Name: "alice"}, nil); !errors.Is(err, ErrAlreadyInRoom) {
		t.Fatalf("expected already in room, got %v", err)
	}
}

func TestApplyMoveRejectsWrongSeat(t *testing.T) {
	room := newPlayingRoom(t, 3)
	before := room.Snapshot()

	_, err := room.ApplyMove(1, board.Horizontal, 0, 0, nil)
	if !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected not your turn, got %v", err)
	}
	assertUnchanged(t, before, room.Snapshot())
}

func TestApplyMoveRejectsBeforeStart(t *testing.T) {
	room, err := NewRoom("r1", 3, Player{ID: "p0"})
	if err != nil {
		t.Fatalf("new room: %v", err)
	}
	if _, err := room.ApplyMove(0, board.Horizontal, 0, 0, nil); !errors.Is(err, ErrGameNotStarted) {
		t.Fatalf("expected game not started, got %v", err)
	}
}

func TestApplyMoveRejectsDuplicateEdge(t *testing.T) {
	room := newPlayingRoom(t, 3)
	mustMove(t, room, 0, board.Horizontal, 0, 0)
	before := room.Snapshot()

	_, err := room.ApplyMove(1, board.Horizontal, 0, 0, nil)
	if !errors.Is(err, board.ErrEdgeAlreadySet) {
		t.Fatalf("expected edge already set, got %v", err)
	}
	assertUnchanged(t, before, room.Snapshot())
}

func TestApplyMoveRejectsOutOfRange(t *testing.T) {
	room := newPlayingRoom(t, 3)
	before := room.Snapshot()

	_, err := room.ApplyMove(0, board.Vertical, 5, 5, nil)
	if !errors.Is(err, board.ErrEdgeOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	assertUnchanged(t, before, room.Snapshot())
}

func TestTurnAlternatesWithoutCapture(t *testing.T) {
	room := newPlayingRoom(t, 3)

	snap := mustMove(t, room, 0, board.Horizontal, 0, 0)
	if snap.TurnSeat != 1 {
		t.Fatalf("expected turn to pass to seat 1, got %d", snap.TurnSeat)
	}
	snap = mustMove(t, room, 1, board.Vertical, 0, 0)
	if snap.TurnSeat != 0 {
		t.Fatalf("expected turn to pass to seat 0, got %d", snap.TurnSeat)
	}
}

func TestCaptureGrantsExtraTurn(t *testing.T) {
	room := newPlayingRoom(t, 3)

	// Build box (0,0) alternating turns; seat 1 places the fourth edge.
	mustMove(t, room, 0, board.Horizontal, 0, 0)
	mustMove(t, room, 1, board.Vertical, 0, 0)
	mustMove(t, room, 0, board.Vertical, 0, 1)
	snap := mustMove(t, room, 1, board.Horizontal, 1, 0)

	if snap.Scores != [2]int{0, 1} {
		t.Fatalf("expected seat 1 to score, got %v", snap.Scores)
	}
	if snap.Board.Boxes[0][0] != board.OwnerSeat1 {
		t.Fatalf("expected box owned by seat 1, got %v", snap.Board.Boxes[0][0])
	}
	if snap.TurnSeat != 1 {
		t.Fatalf("expected seat 1 to keep the turn, got %d", snap.TurnSeat)
	}
}

func TestDoubleBoxScoresTwoGrantsOneExtraTurn(t *testing.T) {
	room := newPlayingRoom(t, 3)

	// Leave only the shared vertical edge (0,1) missing from boxes (0,0)
	// and (0,1). Edges are placed so no box closes along the way.
	mustMove(t, room, 0, board.Horizontal, 0, 0) // turn -> 1
	mustMove(t, room, 1, board.Horizontal, 1, 0) // turn -> 0
	mustMove(t, room, 0, board.Vertical, 0, 0)   // turn -> 1
	mustMove(t, room, 1, board.Horizontal, 0, 1) // turn -> 0
	mustMove(t, room, 0, board.Horizontal, 1, 1) // turn -> 1
	mustMove(t, room, 1, board.Vertical, 0, 2)   // turn -> 0

	snap := mustMove(t, room, 0, board.Vertical, 0, 1)
	if snap.Scores != [2]int{2, 0} {
		t.Fatalf("expected two points in one move, got %v", snap.Scores)
	}
	if snap.TurnSeat != 0 {
		t.Fatalf("double box must grant exactly one extra turn, got seat %d", snap.TurnSeat)
	}
	if snap.Board.Boxes[0][0] != board.OwnerSeat0 || snap.Board.Boxes[0][1] != board.OwnerSeat0 {
		t.Fatalf("expected both boxes owned by seat 0, got %v", snap.Board.Boxes)
	}
}

// playOutGame drives a 3-dot board to completion, always submitting a legal
// move for whichever seat holds the turn, and returns the final snapshot.
func playOutGame(t *testing.T, room *Room) Snapshot {
	t.Helper()
	edges := make([]struct {
		o        board.Orientation
		row, col int
	}, 0, 12)
	for r := 0; r < 3; r++ {
		for c := 0; c < 2; c++ {
			edges = append(edges, struct {
				o        board.Orientation
				row, col int
			}{board.Horizontal, r, c})
		}
	}
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			edges = append(edges, struct {
				o        board.Orientation
				row, col int
			}{board.Vertical, r, c})
		}
	}

	var last Snapshot
	for _, e := range edges {
		seat := room.Snapshot().TurnSeat
		last = mustMove(t, room, seat, e.o, e.row, e.col)
	}
	return last
}

func TestGameFinishesWhenAllEdgesSet(t *testing.T) {
	room := newPlayingRoom(t, 3)
	final := playOutGame(t, room)

	if final.Status != StatusFinished || !final.GameOver {
		t.Fatalf("expected finished game, got %+v", final)
	}
	if total := final.Scores[0] + final.Scores[1]; total != 4 {
		t.Fatalf("scores must sum to the box count, got %d", total)
	}
	switch {
	case final.Scores[0] > final.Scores[1]:
		if final.Winner != 0 {
			t.Fatalf("expected seat 0 winner, got %d", final.Winner)
		}
	case final.Scores[1] > final.Scores[0]:
		if final.Winner != 1 {
			t.Fatalf("expected seat 1 winner, got %d", final.Winner)
		}
	default:
		if final.Winner != NoWinner {
			t.Fatalf("expected draw, got winner %d", final.Winner)
		}
	}

	// Terminal state rejects further moves.
	_, err := room.ApplyMove(final.TurnSeat, board.Horizontal, 0, 0, nil)
	if !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected game over, got %v", err)
	}
}

func TestStatusNeverMovesBackward(t *testing.T) {
	room, err := NewRoom("r1", 3, Player{ID: "p0", Name: "alice"})
	if err != nil {
		t.Fatalf("new room: %v", err)
	}
	statuses := []Status{room.Snapshot().Status}
	if _, err := room.Join(Player{ID: "p1", Name: "bob"}, nil); err != nil {
		t.Fatalf("join: %v", err)
	}
	statuses = append(statuses, room.Snapshot().Status)
	final := playOutGame(t, room)
	statuses = append(statuses, final.Status)

	want := []Status{StatusWaiting, StatusPlaying, StatusFinished}
	for i, status := range statuses {
		if status != want[i] {
			t.Fatalf("expected status sequence %v, got %v", want, statuses)
		}
	}
}

func TestScoresMatchOwnedBoxesThroughout(t *testing.T) {
	room := newPlayingRoom(t, 4)

	edges := make([]struct {
		o        board.Orientation
		row, col int
	}, 0, 24)
	for r := 0; r < 4; r++ {
		for c := 0; c < 3; c++ {
			edges = append(edges, struct {
				o        board.Orientation
				row, col int
			}{board.Horizontal, r, c})
		}
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			edges = append(edges, struct {
				o        board.Orientation
				row, col int
			}{board.Vertical, r, c})
		}
	}

	for _, e := range edges {
		seat := room.Snapshot().TurnSeat
		snap := mustMove(t, room, seat, e.o, e.row, e.col)

		owned := 0
		for _, row := range snap.Board.Boxes {
			for _, owner := range row {
				if owner != board.OwnerNone {
					owned++
				}
			}
		}
		if got := snap.Scores[0] + snap.Scores[1]; got != owned {
			t.Fatalf("scores %v disagree with %d owned boxes", snap.Scores, owned)
		}
	}
}

func TestOnAcceptRunsPerAcceptedMove(t *testing.T) {
	room := newPlayingRoom(t, 3)

	var published []Snapshot
	record := func(s Snapshot) { published = append(published, s) }

	if _, err := room.ApplyMove(1, board.Horizontal, 0, 0, record); err == nil {
		t.Fatal("expected rejection")
	}
	if len(published) != 0 {
		t.Fatal("rejected moves must not publish")
	}

	mustMoveWith := func(seat int, o board.Orientation, row, col int) {
		if _, err := room.ApplyMove(seat, o, row, col, record); err != nil {
			t.Fatalf("move: %v", err)
		}
	}
	mustMoveWith(0, board.Horizontal, 0, 0)
	mustMoveWith(1, board.Vertical, 0, 0)

	if len(published) != 2 {
		t.Fatalf("expected two published snapshots, got %d", len(published))
	}
	if published[0].TurnSeat != 1 || published[1].TurnSeat != 0 {
		t.Fatal("published snapshots out of acceptance order")
	}
}

func TestLeaveReportsRemaining(t *testing.T) {
	room := newPlayingRoom(t, 3)
	if remaining := room.Leave(0); remaining != 1 {
		t.Fatalf("expected one player remaining, got %d", remaining)
	}
	if remaining := room.Leave(1); remaining != 0 {
		t.Fatalf("expected empty room, got %d", remaining)
	}
}

func assertUnchanged(t *testing.T, before, after Snapshot) {
	t.Helper()
	if before.Scores != after.Scores {
		t.Fatalf("scores mutated: %v -> %v", before.Scores, after.Scores)
	}
	if before.TurnSeat != after.TurnSeat {
		t.Fatalf("turn mutated: %d -> %d", before.TurnSeat, after.TurnSeat)
	}
	if before.Status != after.Status {
		t.Fatalf("status mutated: %v -> %v", before.Status, after.Status)
	}
	for r := range before.Board.Horizontal {
		for c := range before.Board.Horizontal[r] {
			if before.Board.Horizontal[r][c] != after.Board.Horizontal[r][c] {
				t.Fatalf("horizontal edge (%d,%d) mutated", r, c)
			}
		}
	}
	for r := range before.Board.Vertical {
		for c := range before.Board.Vertical[r] {
			if before.Board.Vertical[r][c] != after.Board.Vertical[r][c] {
				t.Fatalf("vertical edge (%d,%d) mutated", r, c)
			}
		}
	}
}
