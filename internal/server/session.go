package server

import (
	"sync"
)

// outboundBuffer is the per-session queue depth. A peer that falls this far
// behind is disconnected rather than allowed to stall room broadcasts.
const outboundBuffer = 64

// session is the server-side state of one connection: identity established
// by LOGIN, the room binding if any, and the outbound frame queue drained by
// a dedicated writer goroutine. Deliver never blocks, so room broadcasts
// finish regardless of peer speed.
type session struct {
	conn clientConn

	mu       sync.Mutex
	playerID string
	name     string
	roomID   string
	seat     int

	out       chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

func newSession(conn clientConn) *session {
	return &session{
		conn: conn,
		seat: -1,
		out:  make(chan []byte, outboundBuffer),
		done: make(chan struct{}),
	}
}

// Deliver queues one frame for writing. A full queue means the peer stopped
// reading; the session is closed and the read loop handles teardown.
func (s *session) Deliver(frame []byte) {
	select {
	case <-s.done:
	case s.out <- frame:
	default:
		s.close()
	}
}

// writeLoop drains the outbound queue until the session closes.
func (s *session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case frame := <-s.out:
			if err := s.conn.WriteFrame(frame); err != nil {
				s.close()
				return
			}
		}
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

func (s *session) loggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID != ""
}

func (s *session) login(playerID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerID = playerID
	s.name = name
}

func (s *session) identity() (playerID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID, s.name
}

func (s *session) room() (roomID string, seat int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID, s.seat
}

func (s *session) bindRoom(roomID string, seat int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = roomID
	s.seat = seat
}

func (s *session) clearRoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = ""
	s.seat = -1
}
