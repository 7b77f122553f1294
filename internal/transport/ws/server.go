package ws

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/gobwas/ws"

	"github.com/omochice/peerchat/internal/chat"
)

// Listener accepts WebSocket peers one at a time.
type Listener struct {
	listener net.Listener
	quit     chan struct{}
	once     sync.Once
}

// Listen binds a TCP listener on address for WebSocket upgrades.
func Listen(ctx context.Context, address string) (*Listener, error) {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	return &Listener{
		listener: l,
		quit:     make(chan struct{}),
	}, nil
}

// Accept blocks until a peer connects and completes the upgrade handshake.
// Cancelling ctx closes the listener.
func (l *Listener) Accept(ctx context.Context) (chat.Conn, error) {
	stop := context.AfterFunc(ctx, func() {
		l.Close()
	})
	defer stop()

	conn, err := l.listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		select {
		case <-l.quit:
			return nil, net.ErrClosed
		default:
			return nil, fmt.Errorf("failed to accept: %w", err)
		}
	}

	if _, err := ws.Upgrade(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to upgrade websocket: %w", err)
	}
	return NewServerConn(conn), nil
}

// Close stops the listener. It is safe to call more than once.
func (l *Listener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.quit)
		err = l.listener.Close()
	})
	return err
}

// Addr returns the listening address.
func (l *Listener) Addr() string {
	return l.listener.Addr().String()
}

// Dial opens a WebSocket connection to address (host:port).
func Dial(ctx context.Context, address string) (chat.Conn, error) {
	conn, br, _, err := ws.Dial(ctx, "ws://"+address+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if br == nil {
		return NewClientConn(conn, nil), nil
	}
	return NewClientConn(conn, br), nil
}
