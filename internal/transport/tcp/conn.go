// Package tcp provides the raw TCP transport for chat sessions.
package tcp

import (
	"errors"
	"fmt"
	"net"

	"github.com/omochice/peerchat/internal/chat"
)

// Conn adapts *net.TCPConn to chat.Conn interface.
type Conn struct {
	conn *net.TCPConn
}

// NewConn wraps a *net.TCPConn.
func NewConn(conn *net.TCPConn) *Conn {
	return &Conn{conn: conn}
}

// Read implements chat.Conn.
// Reads whatever is available, up to len(p) bytes.
func (c *Conn) Read(p []byte) (int, error) {
	return c.conn.Read(p)
}

// Write implements chat.Conn.
func (c *Conn) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

// Clone implements chat.Conn.
// The clone owns a duplicate of the socket descriptor, so both handles
// refer to the same TCP connection without sharing Go-level state.
func (c *Conn) Clone() (chat.Conn, error) {
	f, err := c.conn.File()
	if err != nil {
		return nil, fmt.Errorf("failed to duplicate descriptor: %w", err)
	}
	defer f.Close()

	fc, err := net.FileConn(f)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap duplicated descriptor: %w", err)
	}

	tc, ok := fc.(*net.TCPConn)
	if !ok {
		fc.Close()
		return nil, fmt.Errorf("unexpected connection type %T", fc)
	}
	return NewConn(tc), nil
}

// Shutdown implements chat.Conn.
// shutdown(2) acts on the socket, not the descriptor, so every clone sees it.
func (c *Conn) Shutdown() error {
	return errors.Join(c.conn.CloseRead(), c.conn.CloseWrite())
}

// Close implements chat.Conn.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
