package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// QuitCommand ends the session locally. It is never sent to the peer.
	QuitCommand = "!quit"

	// DefaultChunkSize is the largest number of bytes taken by a single receive.
	DefaultChunkSize = 50
)

// Options configures a Session.
type Options struct {
	ChunkSize int
	Logger    *zap.Logger
}

// Session runs the receive and send loops against one connection.
type Session struct {
	id        string
	conn      Conn
	lines     *LineSource
	display   *Display
	chunkSize int
	logger    *zap.Logger
	done      chan struct{}
}

// NewSession creates a Session that owns conn.
func NewSession(conn Conn, lines *LineSource, display *Display, opts Options) *Session {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	id := uuid.NewString()
	return &Session{
		id:        id,
		conn:      conn,
		lines:     lines,
		display:   display,
		chunkSize: opts.ChunkSize,
		logger: opts.Logger.With(
			zap.String("session", id),
			zap.String("peer", conn.RemoteAddr()),
		),
		done: make(chan struct{}),
	}
}

// ID returns the session identifier used in log output.
func (s *Session) ID() string {
	return s.id
}

// Run splits the connection into two handles and runs the receive loop and
// the send loop concurrently. The first terminal event from either loop
// ends the session; the other loop is not waited for.
//
// Run returns nil after a local quit, ErrPeerClosed when the peer went away,
// a *TransportIOError when a write failed, or ctx.Err() on cancellation.
// A read failure stops only the receive loop.
func (s *Session) Run(ctx context.Context) error {
	recvConn := s.conn
	sendConn, err := recvConn.Clone()
	if err != nil {
		close(s.done)
		recvConn.Close()
		return &TransportSetupError{Op: "clone", Addr: recvConn.RemoteAddr(), Err: err}
	}
	defer func() {
		// Mark the session done before the handles go away so the
		// receive loop does not report the local close as a failure.
		close(s.done)
		sendConn.Close()
		recvConn.Close()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.logger.Info("session started")

	// Buffered so neither loop blocks once Run has returned.
	events := make(chan error, 2)
	go s.receiveLoop(recvConn, events)
	go s.sendLoop(ctx, sendConn, events)

	select {
	case err := <-events:
		s.logger.Info("session ended", zap.Error(err))
		return err
	case <-ctx.Done():
		s.logger.Info("session cancelled", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// receiveLoop reads chunks until the peer closes or the transport fails.
func (s *Session) receiveLoop(conn Conn, events chan<- error) {
	buf := make([]byte, s.chunkSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			s.display.Peer(buf[:n])
		}
		if err == nil && n > 0 {
			continue
		}
		if s.stopped() {
			return
		}

		if err == nil || errors.Is(err, io.EOF) {
			s.display.Notice("The other peer has disconnected")
			events <- ErrPeerClosed
			return
		}

		s.display.Notice("An error occurred, terminating connection with %s", conn.RemoteAddr())
		s.logger.Warn("receive failed", zap.Error(err))
		if err := conn.Shutdown(); err != nil {
			s.logger.Debug("shutdown after receive failure", zap.Error(err))
		}
		return
	}
}

// sendLoop forwards operator lines until !quit, end of input or a write failure.
func (s *Session) sendLoop(ctx context.Context, conn Conn, events chan<- error) {
	for {
		line, err := s.lines.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				s.display.Notice("Quitting...")
				events <- nil
			case ctx.Err() != nil:
			default:
				events <- fmt.Errorf("read input: %w", err)
			}
			return
		}

		msg := strings.TrimSpace(line)
		if msg == QuitCommand {
			s.display.Notice("Quitting...")
			events <- nil
			return
		}
		if msg == "" {
			continue
		}

		if _, err := conn.Write([]byte(msg)); err != nil {
			s.display.Notice("Unable to send the message: %v", err)
			events <- &TransportIOError{Op: "write", Peer: conn.RemoteAddr(), Err: err}
			return
		}
		s.logger.Debug("message sent", zap.Int("bytes", len(msg)))
	}
}

func (s *Session) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
