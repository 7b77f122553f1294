package chat_test

import (
	"errors"
	"net"
	"sync"

	"github.com/omochice/peerchat/internal/chat"
)

// pipeConn adapts one end of net.Pipe to chat.Conn. Clones share the pipe,
// so Shutdown and Close through any handle end it for all of them.
type pipeConn struct {
	conn net.Conn
}

func (p *pipeConn) Read(b []byte) (int, error)  { return p.conn.Read(b) }
func (p *pipeConn) Write(b []byte) (int, error) { return p.conn.Write(b) }
func (p *pipeConn) Clone() (chat.Conn, error)   { return &pipeConn{conn: p.conn}, nil }
func (p *pipeConn) Shutdown() error             { return p.conn.Close() }
func (p *pipeConn) Close() error                { return p.conn.Close() }
func (p *pipeConn) RemoteAddr() string          { return "pipe-peer" }

var errShutdown = errors.New("connection shut down")

// faultConn is a mock implementation of chat.Conn for failure paths.
// Reads fail with readErr, or block until Close when readErr is nil.
type faultConn struct {
	readErr  error
	writeErr error

	mu       sync.Mutex
	shut     bool
	written  [][]byte
	shutdown chan struct{}
	closed   chan struct{}
	once     sync.Once
	shutOnce sync.Once
}

func newFaultConn(readErr, writeErr error) *faultConn {
	return &faultConn{
		readErr:  readErr,
		writeErr: writeErr,
		shutdown: make(chan struct{}),
		closed:   make(chan struct{}),
	}
}

func (f *faultConn) Read(b []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	<-f.closed
	return 0, net.ErrClosed
}

func (f *faultConn) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shut {
		return 0, errShutdown
	}
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	copied := make([]byte, len(b))
	copy(copied, b)
	f.written = append(f.written, copied)
	return len(b), nil
}

func (f *faultConn) Clone() (chat.Conn, error) { return f, nil }

func (f *faultConn) Shutdown() error {
	f.mu.Lock()
	f.shut = true
	f.mu.Unlock()
	f.shutOnce.Do(func() { close(f.shutdown) })
	return nil
}

func (f *faultConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *faultConn) RemoteAddr() string { return "fault-peer" }

func (f *faultConn) Written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written
}

// Compile-time checks that the mocks implement chat.Conn
var (
	_ chat.Conn = (*pipeConn)(nil)
	_ chat.Conn = (*faultConn)(nil)
)
