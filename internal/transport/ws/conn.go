// Package ws carries the raw chat byte stream over WebSocket binary frames.
package ws

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/omochice/peerchat/internal/chat"
)

// transport is the state shared by every handle of one WebSocket connection.
type transport struct {
	conn   net.Conn
	reader io.Reader
	state  ws.State
	wmu    sync.Mutex
	refs   atomic.Int32
}

// Conn adapts a gobwas/ws connection to chat.Conn interface.
// Each Write becomes one binary frame; Read hands out frame payload in
// pieces no larger than the caller's buffer.
type Conn struct {
	t             *transport
	readBuffer    []byte
	readBufferPos int
	closed        atomic.Bool
}

// NewServerConn wraps a connection that completed the server-side handshake.
func NewServerConn(conn net.Conn) *Conn {
	return newConn(conn, conn, ws.StateServerSide)
}

// NewClientConn wraps a dialed connection. reader may hold bytes buffered
// during the handshake; nil means read from conn directly.
func NewClientConn(conn net.Conn, reader io.Reader) *Conn {
	if reader == nil {
		reader = conn
	}
	return newConn(conn, reader, ws.StateClientSide)
}

func newConn(conn net.Conn, reader io.Reader, state ws.State) *Conn {
	t := &transport{conn: conn, reader: reader, state: state}
	t.refs.Store(1)
	return &Conn{t: t}
}

// Read implements chat.Conn.
// A close frame from the peer is reported as io.EOF.
func (c *Conn) Read(p []byte) (int, error) {
	if c.readBufferPos < len(c.readBuffer) {
		n := copy(p, c.readBuffer[c.readBufferPos:])
		c.readBufferPos += n
		if c.readBufferPos >= len(c.readBuffer) {
			c.readBuffer = nil
			c.readBufferPos = 0
		}
		return n, nil
	}

	data, err := c.readMessage()
	if err != nil {
		var closed wsutil.ClosedError
		if errors.As(err, &closed) {
			return 0, io.EOF
		}
		return 0, err
	}

	n := copy(p, data)
	if n < len(data) {
		c.readBuffer = data[n:]
		c.readBufferPos = 0
	}
	return n, nil
}

// readMessage returns the payload of the next data frame, answering
// control frames on the way.
func (c *Conn) readMessage() ([]byte, error) {
	control := func(h ws.Header, r io.Reader) error {
		c.t.wmu.Lock()
		defer c.t.wmu.Unlock()
		return wsutil.ControlFrameHandler(c.t.conn, c.t.state)(h, r)
	}

	rd := wsutil.Reader{
		Source:         c.t.reader,
		State:          c.t.state,
		OnIntermediate: control,
	}
	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			return nil, err
		}
		if hdr.OpCode.IsControl() {
			if err := control(hdr, &rd); err != nil {
				return nil, err
			}
			continue
		}
		if hdr.OpCode&(ws.OpBinary|ws.OpText) == 0 {
			if err := rd.Discard(); err != nil {
				return nil, err
			}
			continue
		}
		data, err := io.ReadAll(&rd)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		return data, nil
	}
}

// Write implements chat.Conn.
func (c *Conn) Write(p []byte) (int, error) {
	c.t.wmu.Lock()
	defer c.t.wmu.Unlock()

	if err := wsutil.WriteMessage(c.t.conn, c.t.state, ws.OpBinary, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Clone implements chat.Conn.
// Clones share the socket and the write lock but keep their own read buffer.
func (c *Conn) Clone() (chat.Conn, error) {
	if c.closed.Load() {
		return nil, net.ErrClosed
	}
	c.t.refs.Add(1)
	return &Conn{t: c.t}, nil
}

// Shutdown implements chat.Conn.
// Sends a close frame, then shuts the socket down in both directions.
func (c *Conn) Shutdown() error {
	c.t.wmu.Lock()
	frame := ws.NewCloseFrame(ws.NewCloseFrameBody(ws.StatusGoingAway, ""))
	if c.t.state.ClientSide() {
		frame = ws.MaskFrameInPlace(frame)
	}
	_ = ws.WriteFrame(c.t.conn, frame)
	c.t.wmu.Unlock()

	if tc, ok := c.t.conn.(*net.TCPConn); ok {
		return errors.Join(tc.CloseRead(), tc.CloseWrite())
	}
	return c.t.conn.Close()
}

// Close implements chat.Conn.
// The socket is closed once the last handle is closed.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if c.t.refs.Add(-1) > 0 {
		return nil
	}
	if err := c.t.conn.Close(); err != nil {
		return fmt.Errorf("failed to close websocket: %w", err)
	}
	return nil
}

// RemoteAddr implements chat.Conn.
func (c *Conn) RemoteAddr() string {
	return c.t.conn.RemoteAddr().String()
}
