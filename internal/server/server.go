// Package server hosts the game service: it accepts TCP and WebSocket
// connections, decodes commands, drives the room registry and game engine,
// and fans state events back out to room members.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dotgrid/dotgrid/internal/broadcast"
	"github.com/dotgrid/dotgrid/internal/game/engine"
	"github.com/dotgrid/dotgrid/internal/game/registry"
	apperrors "github.com/dotgrid/dotgrid/internal/platform/errors"
	"github.com/dotgrid/dotgrid/internal/platform/id"
	"github.com/dotgrid/dotgrid/internal/platform/timeouts"
	"github.com/dotgrid/dotgrid/internal/protocol"
	"github.com/dotgrid/dotgrid/internal/storage"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Config describes the listening surfaces and optional persistence of one
// server instance.
type Config struct {
	TCPAddr string
	WSAddr  string
	// Store archives finished matches. Nil disables archival.
	Store storage.MatchStore
}

// Server owns the connection lifecycle and command dispatch for all rooms.
type Server struct {
	cfg        Config
	rooms      *registry.Registry
	dispatcher *broadcast.Dispatcher
	tracer     trace.Tracer

	tcpListener net.Listener
	httpServer  *http.Server

	mu       sync.Mutex
	sessions map[*session]struct{}
}

var wsUpgrader = websocket.Upgrader{
	HandshakeTimeout: timeouts.WSHandshake,
	CheckOrigin:      func(*http.Request) bool { return true },
}

// New creates a server bound to the configured TCP and WebSocket addresses.
func New(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.TCPAddr) == "" {
		return nil, fmt.Errorf("tcp address is required")
	}
	tcpListener, err := net.Listen("tcp", cfg.TCPAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.TCPAddr, err)
	}

	srv := &Server{
		cfg:         cfg,
		rooms:       registry.New(),
		dispatcher:  broadcast.New(),
		tracer:      otel.Tracer("dotgrid/server"),
		tcpListener: tcpListener,
		sessions:    make(map[*session]struct{}),
	}

	if strings.TrimSpace(cfg.WSAddr) != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", srv.handleWebSocket)
		srv.httpServer = &http.Server{Addr: cfg.WSAddr, Handler: mux}
	}
	return srv, nil
}

// TCPAddr returns the bound TCP listener address.
func (s *Server) TCPAddr() string {
	return s.tcpListener.Addr().String()
}

// Serve accepts connections until the context is canceled or a listener
// fails, then closes the listeners and every live connection.
func (s *Server) Serve(ctx context.Context) error {
	listeners := 1
	if s.httpServer != nil {
		listeners = 2
	}
	errCh := make(chan error, listeners)

	go func() {
		errCh <- s.acceptTCP(ctx)
	}()
	if s.httpServer != nil {
		go func() {
			err := s.httpServer.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			errCh <- err
		}()
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
		listeners--
	}
	s.shutdown()
	for i := 0; i < listeners; i++ {
		if lerr := <-errCh; err == nil {
			err = lerr
		}
	}
	return err
}

func (s *Server) shutdown() {
	_ = s.tcpListener.Close()
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}

	s.mu.Lock()
	live := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()
	for _, sess := range live {
		sess.close()
	}
}

func (s *Server) acceptTCP(ctx context.Context) error {
	for {
		conn, err := s.tcpListener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.serveConn(ctx, newTCPConn(conn))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("event=ws_upgrade_failed remote=%s err=%q", r.RemoteAddr, err)
		return
	}
	s.serveConn(r.Context(), newWSConn(conn))
}

// serveConn runs one connection to completion: a writer goroutine drains the
// session queue while this goroutine reads, decodes, and dispatches frames.
func (s *Server) serveConn(ctx context.Context, conn clientConn) {
	sess := newSession(conn)
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()

	log.Printf("event=connection_open remote=%s", conn.RemoteAddr())
	go sess.writeLoop()

	defer func() {
		s.teardown(sess)
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
		log.Printf("event=connection_closed remote=%s", conn.RemoteAddr())
	}()

	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			return
		}
		if len(frame) == 0 {
			continue
		}
		cmd, err := protocol.DecodeCommand(frame)
		if err != nil {
			log.Printf("event=decode_failed remote=%s err=%q", conn.RemoteAddr(), err)
			sess.Deliver(protocol.EncodeError(err))
			continue
		}
		s.dispatch(ctx, sess, cmd)
	}
}

// dispatch runs one decoded command against the session. Command handling
// errors are reported to the client; they never close the connection.
func (s *Server) dispatch(ctx context.Context, sess *session, cmd protocol.Command) {
	attrs := []attribute.KeyValue{attribute.String("command.op", cmd.Op())}
	if roomID, seat := sess.room(); roomID != "" {
		attrs = append(attrs,
			attribute.String("room.id", roomID),
			attribute.Int("room.seat", seat))
	}
	ctx, span := s.tracer.Start(ctx, "server.dispatch", trace.WithAttributes(attrs...))
	defer span.End()

	var err error
	switch c := cmd.(type) {
	case protocol.LoginCommand:
		err = s.handleLogin(sess, c)
	case protocol.CreateRoomCommand:
		err = s.handleCreateRoom(sess, c)
	case protocol.JoinRoomCommand:
		err = s.handleJoinRoom(sess, c)
	case protocol.ListRoomsCommand:
		err = s.handleListRooms(sess)
	case protocol.PlaceLineCommand:
		err = s.handlePlaceLine(ctx, sess, c)
	case protocol.PingCommand:
		sess.Deliver(protocol.EncodePong())
	default:
		err = protocol.ErrUnknownOp
	}
	if err != nil {
		span.RecordError(err)
		sess.Deliver(protocol.EncodeError(err))
	}
}

func (s *Server) handleLogin(sess *session, cmd protocol.LoginCommand) error {
	playerID, _ := sess.identity()
	if playerID == "" {
		var err error
		playerID, err = id.NewID()
		if err != nil {
			return apperrors.Wrap(apperrors.CodeUnknown, "generate player id", err)
		}
	}
	sess.login(playerID, strings.TrimSpace(cmd.User))
	sess.Deliver(protocol.EncodeLoginOK(playerID))
	return nil
}

func (s *Server) handleCreateRoom(sess *session, cmd protocol.CreateRoomCommand) error {
	player, err := s.requireLobby(sess)
	if err != nil {
		return err
	}

	// The creation callback runs before the room is visible to Join, so the
	// creator's sink is always bound by the time a second player's start
	// events fan out.
	room, err := s.rooms.Create(cmd.RoomID, cmd.GridSize, player, func(room *engine.Room) {
		sess.bindRoom(room.ID(), 0)
		s.dispatcher.Bind(room.ID(), 0, sess)
		sess.Deliver(protocol.EncodeRoomJoined(room.ID(), 0))
	})
	if err != nil {
		return err
	}
	log.Printf("event=room_created room=%s player=%s", room.ID(), player.ID)
	return nil
}

func (s *Server) handleJoinRoom(sess *session, cmd protocol.JoinRoomCommand) error {
	player, err := s.requireLobby(sess)
	if err != nil {
		return err
	}

	// The start callback runs while the room lock is held, so the joiner's
	// ROOM_JOINED and the broadcast GAME_START and GAME_STATE frames reach
	// every member queue before any move can be accepted.
	room, seat, err := s.rooms.Join(cmd.RoomID, player, func(snap engine.Snapshot) {
		sess.bindRoom(snap.RoomID, 1)
		s.dispatcher.Bind(snap.RoomID, 1, sess)
		sess.Deliver(protocol.EncodeRoomJoined(snap.RoomID, 1))
		s.dispatcher.Publish(snap.RoomID, protocol.EncodeGameStart(snap.Players[0], snap.Players[1]))
		s.dispatcher.Publish(snap.RoomID, protocol.EncodeGameState(snap))
	})
	if err != nil {
		return err
	}
	log.Printf("event=room_joined room=%s player=%s seat=%d", room.ID(), player.ID, seat)
	return nil
}

func (s *Server) handleListRooms(sess *session) error {
	if !sess.loggedIn() {
		return apperrors.New(apperrors.CodeNotLoggedIn, "login required")
	}
	sess.Deliver(protocol.EncodeRoomList(s.rooms.List()))
	return nil
}

func (s *Server) handlePlaceLine(ctx context.Context, sess *session, cmd protocol.PlaceLineCommand) error {
	if !sess.loggedIn() {
		return apperrors.New(apperrors.CodeNotLoggedIn, "login required")
	}
	roomID, seat := sess.room()
	if roomID == "" {
		return apperrors.New(apperrors.CodeNotInRoom, "join a room first")
	}
	room, err := s.rooms.Get(roomID)
	if err != nil {
		// The room was torn down after an opponent disconnect.
		sess.clearRoom()
		return err
	}

	// Wire x is the column and y the row of the edge grid.
	snap, err := room.ApplyMove(seat, cmd.Orientation, cmd.Y, cmd.X, func(snap engine.Snapshot) {
		s.dispatcher.Publish(snap.RoomID, protocol.EncodeGameState(snap))
	})
	if err != nil {
		return err
	}
	if snap.GameOver {
		log.Printf("event=game_finished room=%s scores=%d:%d winner=%d",
			snap.RoomID, snap.Scores[0], snap.Scores[1], snap.Winner)
		s.archiveMatch(ctx, room, snap)
	}
	return nil
}

// requireLobby checks that the session is logged in and not already in a
// live room, clearing any binding left stale by room teardown.
func (s *Server) requireLobby(sess *session) (engine.Player, error) {
	playerID, name := sess.identity()
	if playerID == "" {
		return engine.Player{}, apperrors.New(apperrors.CodeNotLoggedIn, "login required")
	}
	if roomID, _ := sess.room(); roomID != "" {
		if _, err := s.rooms.Get(roomID); err == nil {
			return engine.Player{}, apperrors.WithMetadata(apperrors.CodeAlreadyInRoom,
				"already in a room", map[string]string{"room_id": roomID})
		}
		sess.clearRoom()
	}
	return engine.Player{ID: playerID, Name: name}, nil
}

// teardown releases the session's room on disconnect. The opponent, if any,
// is notified and the room is destroyed; abandoned games leave no match
// record.
func (s *Server) teardown(sess *session) {
	sess.close()
	roomID, seat := sess.room()
	if roomID == "" {
		return
	}
	sess.clearRoom()

	room, err := s.rooms.Get(roomID)
	if err != nil {
		return
	}
	room.Leave(seat)
	s.dispatcher.Unbind(roomID, seat)
	s.dispatcher.PublishExcept(roomID, seat,
		protocol.EncodeErrorMessage("Opponent disconnected. Room closed."))
	s.dispatcher.Unbind(roomID, 0)
	s.dispatcher.Unbind(roomID, 1)
	s.rooms.Remove(roomID)
	log.Printf("event=room_closed room=%s reason=disconnect", roomID)
}

// archiveMatch persists the finished game. Archival failure is logged and
// otherwise invisible to players.
func (s *Server) archiveMatch(ctx context.Context, room *engine.Room, snap engine.Snapshot) {
	if s.cfg.Store == nil {
		return
	}
	matchID, err := id.NewID()
	if err != nil {
		log.Printf("event=match_archive_failed room=%s err=%q", snap.RoomID, err)
		return
	}
	match := storage.Match{
		MatchID:    matchID,
		RoomID:     snap.RoomID,
		GridSize:   snap.Board.Size,
		Player1:    snap.Players[0],
		Player2:    snap.Players[1],
		Score1:     snap.Scores[0],
		Score2:     snap.Scores[1],
		Winner:     snap.Winner,
		StartedAt:  room.CreatedAt(),
		FinishedAt: time.Now().UTC(),
	}
	if err := s.cfg.Store.SaveMatch(ctx, match); err != nil {
		log.Printf("event=match_archive_failed room=%s err=%q", snap.RoomID, err)
	}
}
