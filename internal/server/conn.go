package server

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"time"

	"github.com/dotgrid/dotgrid/internal/platform/timeouts"
	"github.com/gorilla/websocket"
)

// maxFrameBytes bounds one inbound frame. The largest legitimate frame is a
// room list, far below this.
const maxFrameBytes = 64 * 1024

// clientConn is one framed bidirectional connection. ReadFrame blocks until
// a full frame arrives; WriteFrame sends one frame with a write deadline.
// Implementations are safe for one concurrent reader and one concurrent
// writer.
type clientConn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(frame []byte) error
	Close() error
	RemoteAddr() string
}

// tcpConn frames messages as newline-delimited records over a raw TCP
// stream.
type tcpConn struct {
	conn   net.Conn
	reader *bufio.Reader
}

func newTCPConn(conn net.Conn) *tcpConn {
	return &tcpConn{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, maxFrameBytes),
	}
}

func (c *tcpConn) ReadFrame() ([]byte, error) {
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	if len(line) > maxFrameBytes {
		return nil, fmt.Errorf("frame exceeds %d bytes", maxFrameBytes)
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

func (c *tcpConn) WriteFrame(frame []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(timeouts.ConnWrite)); err != nil {
		return err
	}
	_, err := c.conn.Write(frame)
	return err
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}

func (c *tcpConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// wsConn frames messages as one JSON document per WebSocket text message.
// Outbound frames keep their trailing newline so both transports carry
// byte-identical payloads.
type wsConn struct {
	conn *websocket.Conn
}

func newWSConn(conn *websocket.Conn) *wsConn {
	conn.SetReadLimit(maxFrameBytes)
	return &wsConn{conn: conn}
}

func (c *wsConn) ReadFrame() ([]byte, error) {
	_, payload, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(payload, "\r\n"), nil
}

func (c *wsConn) WriteFrame(frame []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(timeouts.ConnWrite)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

func (c *wsConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
