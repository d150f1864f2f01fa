// Package errors provides structured error handling with machine-readable codes.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Room errors
	CodeRoomNotFound    Code = "ROOM_NOT_FOUND"
	CodeRoomExists      Code = "ROOM_EXISTS"
	CodeRoomFull        Code = "ROOM_FULL"
	CodeAlreadyInRoom   Code = "ALREADY_IN_ROOM"
	CodeInvalidGridSize Code = "INVALID_GRID_SIZE"

	// Move errors
	CodeNotYourTurn    Code = "NOT_YOUR_TURN"
	CodeGameOver       Code = "GAME_OVER"
	CodeGameNotStarted Code = "GAME_NOT_STARTED"
	CodeInvalidEdge    Code = "INVALID_EDGE"
	CodeEdgeAlreadySet Code = "EDGE_ALREADY_SET"

	// Board errors
	CodeBoxAlreadyOwned Code = "BOX_ALREADY_OWNED"

	// Session errors
	CodeNotLoggedIn Code = "NOT_LOGGED_IN"
	CodeNotInRoom   Code = "NOT_IN_ROOM"

	// Protocol errors
	CodeMalformedFrame Code = "MALFORMED_FRAME"
	CodeUnknownOp      Code = "UNKNOWN_OP"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)
