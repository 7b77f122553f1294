package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/omochice/peerchat/internal/chat"
)

// Listener accepts TCP peers one at a time.
type Listener struct {
	listener *net.TCPListener
	quit     chan struct{}
	once     sync.Once
}

// Listen binds a TCP listener on address.
func Listen(ctx context.Context, address string) (*Listener, error) {
	var lc net.ListenConfig
	l, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	return &Listener{
		listener: l.(*net.TCPListener),
		quit:     make(chan struct{}),
	}, nil
}

// Accept blocks until a peer connects or ctx is done.
// Cancelling ctx closes the listener.
func (l *Listener) Accept(ctx context.Context) (chat.Conn, error) {
	stop := context.AfterFunc(ctx, func() {
		l.Close()
	})
	defer stop()

	conn, err := l.listener.AcceptTCP()
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
	return NewConn(conn), nil
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

// Dial opens a TCP connection to address.
func Dial(ctx context.Context, address string) (chat.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return NewConn(conn.(*net.TCPConn)), nil
}
