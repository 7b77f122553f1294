package tcp_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/omochice/peerchat/internal/transport/tcp"
)

func TestListener_Accept(t *testing.T) {
	l, err := tcp.Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer l.Close()

	go func() {
		conn, err := net.Dial("tcp", l.Addr())
		if err == nil {
			conn.Close()
		}
	}()

	conn, err := l.Accept(context.Background())
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	conn.Close()
}

func TestListener_Addr(t *testing.T) {
	l, err := tcp.Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer l.Close()

	if l.Addr() == "" {
		t.Error("Addr() returned empty string")
	}
}

func TestListener_Close(t *testing.T) {
	l, err := tcp.Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	l.Close()
	l.Close()

	if _, err := net.Dial("tcp", l.Addr()); err == nil {
		t.Error("expected error after close, got nil")
	}
	if _, err := l.Accept(context.Background()); !errors.Is(err, net.ErrClosed) {
		t.Errorf("Accept() after Close() error = %v, want net.ErrClosed", err)
	}
}

func TestListener_AcceptCancelled(t *testing.T) {
	l, err := tcp.Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, err := l.Accept(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Accept() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestListen_AddressInUse(t *testing.T) {
	l, err := tcp.Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer l.Close()

	if _, err := tcp.Listen(context.Background(), l.Addr()); err == nil {
		t.Error("expected error binding an address in use, got nil")
	}
}

func TestDial_Refused(t *testing.T) {
	l, err := tcp.Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := l.Addr()
	l.Close()

	if _, err := tcp.Dial(context.Background(), addr); err == nil {
		t.Error("expected error dialing a closed port, got nil")
	}
}
