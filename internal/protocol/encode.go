package protocol

import (
	"encoding/json"

	"github.com/dotgrid/dotgrid/internal/game/board"
	"github.com/dotgrid/dotgrid/internal/game/engine"
	"github.com/dotgrid/dotgrid/internal/game/registry"
	apperrors "github.com/dotgrid/dotgrid/internal/platform/errors"
)

type loginOKEvent struct {
	Op       string `json:"op"`
	PlayerID string `json:"player_id"`
}

type roomJoinedEvent struct {
	Op        string `json:"op"`
	RoomID    string `json:"room_id"`
	PlayerNum int    `json:"player_num"`
}

type gameStartEvent struct {
	Op      string `json:"op"`
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
}

type boardPayload struct {
	Horizontal [][]int `json:"horizontal"`
	Vertical   [][]int `json:"vertical"`
	Boxes      [][]int `json:"boxes"`
}

type gameStateEvent struct {
	Op       string       `json:"op"`
	RoomID   string       `json:"room_id"`
	Turn     int          `json:"turn"`
	Scores   [2]int       `json:"scores"`
	Board    boardPayload `json:"board"`
	GameOver bool         `json:"game_over"`
	Winner   int          `json:"winner"`
}

type roomSummaryPayload struct {
	RoomID      string   `json:"room_id"`
	PlayerCount int      `json:"player_count"`
	Players     []string `json:"players"`
	GridSize    int      `json:"grid_size"`
	Status      string   `json:"status"`
}

type roomListEvent struct {
	Op    string               `json:"op"`
	Rooms []roomSummaryPayload `json:"rooms"`
}

type errorEvent struct {
	Op  string `json:"op"`
	Msg string `json:"msg"`
}

type pongEvent struct {
	Op string `json:"op"`
}

// EncodeLoginOK builds a LOGIN_OK frame carrying the assigned player id.
func EncodeLoginOK(playerID string) []byte {
	return marshalFrame(loginOKEvent{Op: OpLoginOK, PlayerID: playerID})
}

// EncodeRoomJoined builds a ROOM_JOINED frame for the caller's seat.
func EncodeRoomJoined(roomID string, seat int) []byte {
	return marshalFrame(roomJoinedEvent{Op: OpRoomJoined, RoomID: roomID, PlayerNum: seat})
}

// EncodeGameStart builds a GAME_START frame with both display names.
func EncodeGameStart(player1, player2 string) []byte {
	return marshalFrame(gameStartEvent{Op: OpGameStart, Player1: player1, Player2: player2})
}

// EncodeGameState builds the full GAME_STATE snapshot frame. Edge grids
// serialize as 0/1 matrices and boxes as -1/0/1 owner values.
func EncodeGameState(snap engine.Snapshot) []byte {
	return marshalFrame(gameStateEvent{
		Op:     OpGameState,
		RoomID: snap.RoomID,
		Turn:   snap.TurnSeat,
		Scores: snap.Scores,
		Board: boardPayload{
			Horizontal: edgesToInts(snap.Board.Horizontal),
			Vertical:   edgesToInts(snap.Board.Vertical),
			Boxes:      ownersToInts(snap.Board.Boxes),
		},
		GameOver: snap.GameOver,
		Winner:   snap.Winner,
	})
}

// EncodeRoomList builds a ROOM_LIST frame preserving summary order.
func EncodeRoomList(summaries []registry.Summary) []byte {
	rooms := make([]roomSummaryPayload, 0, len(summaries))
	for _, s := range summaries {
		players := s.Players
		if players == nil {
			players = []string{}
		}
		rooms = append(rooms, roomSummaryPayload{
			RoomID:      s.RoomID,
			PlayerCount: s.PlayerCount,
			Players:     players,
			GridSize:    s.GridSize,
			Status:      s.Status.String(),
		})
	}
	return marshalFrame(roomListEvent{Op: OpRoomList, Rooms: rooms})
}

// EncodeError builds an ERROR frame with the user-facing message for err.
func EncodeError(err error) []byte {
	return EncodeErrorMessage(apperrors.UserMessage(err))
}

// EncodeErrorMessage builds an ERROR frame with a literal message.
func EncodeErrorMessage(msg string) []byte {
	return marshalFrame(errorEvent{Op: OpError, Msg: msg})
}

// EncodePong builds a PONG frame.
func EncodePong() []byte {
	return marshalFrame(pongEvent{Op: OpPong})
}

// marshalFrame serializes an event and appends the newline delimiter. The
// event types marshal without error by construction.
func marshalFrame(event any) []byte {
	data, err := json.Marshal(event)
	if err != nil {
		data = []byte(`{"op":"ERROR","msg":"encoding failure"}`)
	}
	return append(data, '\n')
}

func edgesToInts(grid [][]bool) [][]int {
	out := make([][]int, len(grid))
	for r, row := range grid {
		out[r] = make([]int, len(row))
		for c, set := range row {
			if set {
				out[r][c] = 1
			}
		}
	}
	return out
}

func ownersToInts(grid [][]board.Owner) [][]int {
	out := make([][]int, len(grid))
	for r, row := range grid {
		out[r] = make([]int, len(row))
		for c, owner := range row {
			out[r][c] = int(owner)
		}
	}
	return out
}
