// Package protocol defines the wire contract: newline-delimited JSON records,
// each carrying an "op" discriminator. Inbound frames decode into a closed
// set of command types; outbound events encode from typed payloads. The codec
// is stateless and knows nothing about connections.
package protocol

import (
	"encoding/json"

	"github.com/dotgrid/dotgrid/internal/game/board"
	apperrors "github.com/dotgrid/dotgrid/internal/platform/errors"
)

// Client to server ops.
const (
	OpLogin      = "LOGIN"
	OpCreateRoom = "CREATE_ROOM"
	OpJoinRoom   = "JOIN_ROOM"
	OpListRooms  = "LIST_ROOMS"
	OpPlaceLine  = "PLACE_LINE"
	OpPing       = "PING"
)

// Server to client ops.
const (
	OpLoginOK    = "LOGIN_OK"
	OpRoomJoined = "ROOM_JOINED"
	OpGameStart  = "GAME_START"
	OpGameState  = "GAME_STATE"
	OpRoomList   = "ROOM_LIST"
	OpError      = "ERROR"
	OpPong       = "PONG"
)

// Orientation wire values.
const (
	OrientationHorizontal = "H"
	OrientationVertical   = "V"
)

var (
	// ErrMalformedFrame indicates a frame that is not a valid command record.
	ErrMalformedFrame = apperrors.New(apperrors.CodeMalformedFrame, "malformed frame")
	// ErrUnknownOp indicates a frame with an unrecognized discriminator.
	ErrUnknownOp = apperrors.New(apperrors.CodeUnknownOp, "unknown op")
)

// Command is one decoded client request. The set of implementations is
// closed; dispatchers switch over the concrete types.
type Command interface {
	Op() string
}

// LoginCommand registers a display name for the connection.
type LoginCommand struct {
	User string
}

// Op returns the wire discriminator.
func (LoginCommand) Op() string { return OpLogin }

// CreateRoomCommand creates a room and joins the caller as seat 0.
type CreateRoomCommand struct {
	RoomID   string
	GridSize int
}

// Op returns the wire discriminator.
func (CreateRoomCommand) Op() string { return OpCreateRoom }

// JoinRoomCommand joins an existing room as seat 1.
type JoinRoomCommand struct {
	RoomID string
}

// Op returns the wire discriminator.
func (JoinRoomCommand) Op() string { return OpJoinRoom }

// ListRoomsCommand requests current room summaries.
type ListRoomsCommand struct{}

// Op returns the wire discriminator.
func (ListRoomsCommand) Op() string { return OpListRooms }

// PlaceLineCommand is a move request. X is the column and Y the row in the
// edge grid for the given orientation.
type PlaceLineCommand struct {
	X           int
	Y           int
	Orientation board.Orientation
}

// Op returns the wire discriminator.
func (PlaceLineCommand) Op() string { return OpPlaceLine }

// PingCommand is a liveness probe.
type PingCommand struct{}

// Op returns the wire discriminator.
func (PingCommand) Op() string { return OpPing }

// envelope covers every inbound field; the op decides which ones matter.
type envelope struct {
	Op          string `json:"op"`
	User        string `json:"user"`
	RoomID      string `json:"room_id"`
	GridSize    int    `json:"grid_size"`
	X           *int   `json:"x"`
	Y           *int   `json:"y"`
	Orientation string `json:"orientation"`
}

// DecodeCommand parses one frame into a typed command. Malformed JSON,
// missing required fields, and unknown discriminators all yield domain
// errors; no partial command is ever returned.
func DecodeCommand(frame []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMalformedFrame, "invalid json frame", err)
	}

	switch env.Op {
	case OpLogin:
		if env.User == "" {
			return nil, apperrors.New(apperrors.CodeMalformedFrame, "login requires user")
		}
		return LoginCommand{User: env.User}, nil
	case OpCreateRoom:
		if env.RoomID == "" {
			return nil, apperrors.New(apperrors.CodeMalformedFrame, "create room requires room_id")
		}
		return CreateRoomCommand{RoomID: env.RoomID, GridSize: env.GridSize}, nil
	case OpJoinRoom:
		if env.RoomID == "" {
			return nil, apperrors.New(apperrors.CodeMalformedFrame, "join room requires room_id")
		}
		return JoinRoomCommand{RoomID: env.RoomID}, nil
	case OpListRooms:
		return ListRoomsCommand{}, nil
	case OpPlaceLine:
		if env.X == nil || env.Y == nil {
			return nil, apperrors.New(apperrors.CodeMalformedFrame, "place line requires x and y")
		}
		orientation, err := parseOrientation(env.Orientation)
		if err != nil {
			return nil, err
		}
		return PlaceLineCommand{X: *env.X, Y: *env.Y, Orientation: orientation}, nil
	case OpPing:
		return PingCommand{}, nil
	case "":
		return nil, apperrors.New(apperrors.CodeMalformedFrame, "missing op")
	default:
		return nil, apperrors.WithMetadata(apperrors.CodeUnknownOp, "unknown op "+env.Op, map[string]string{"op": env.Op})
	}
}

func parseOrientation(value string) (board.Orientation, error) {
	switch value {
	case OrientationHorizontal:
		return board.Horizontal, nil
	case OrientationVertical:
		return board.Vertical, nil
	default:
		return 0, apperrors.New(apperrors.CodeMalformedFrame, "orientation must be H or V")
	}
}
