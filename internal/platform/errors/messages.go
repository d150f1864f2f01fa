package errors

import (
	"bytes"
	"text/template"
)

// userMessages maps error codes to user-facing message templates. Templates
// may reference metadata keys attached to the error.
var userMessages = map[Code]string{
	CodeUnknown:         "An unexpected error occurred",
	CodeRoomNotFound:    "Room not found",
	CodeRoomExists:      "Room already exists",
	CodeRoomFull:        "Room is full",
	CodeAlreadyInRoom:   "You are already in this room",
	CodeInvalidGridSize: "Grid size {{.size}} is not supported",
	CodeNotYourTurn:     "It is not your turn",
	CodeGameOver:        "The game is already over",
	CodeGameNotStarted:  "The game has not started yet",
	CodeInvalidEdge:     "Invalid line position",
	CodeEdgeAlreadySet:  "Line already placed",
	CodeBoxAlreadyOwned: "Box is already owned",
	CodeNotLoggedIn:     "Not logged in",
	CodeNotInRoom:       "Not in a room",
	CodeMalformedFrame:  "Invalid message",
	CodeUnknownOp:       "Unknown op",
	CodeNotFound:        "Record not found",
}

// UserMessage renders the user-facing message for an error. Domain errors
// resolve through the message catalog with their metadata; other errors map
// to the generic unknown message so internal details never reach clients.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	code := GetCode(err)
	tmplText, ok := userMessages[code]
	if !ok {
		return string(code)
	}

	metadata := GetMetadata(err)
	if metadata == nil {
		metadata = map[string]string{}
	}

	t, terr := template.New("msg").Parse(tmplText)
	if terr != nil {
		return tmplText
	}
	var buf bytes.Buffer
	if terr := t.Execute(&buf, metadata); terr != nil {
		return tmplText
	}
	return buf.String()
}
