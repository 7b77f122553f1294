package ws_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	pws "github.com/omochice/peerchat/internal/transport/ws"
)

func TestDial_RoundTrip(t *testing.T) {
	l, err := pws.Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer l.Close()

	type result struct {
		data string
		err  error
	}
	got := make(chan result, 1)
	go func() {
		conn, err := l.Accept(context.Background())
		if err != nil {
			got <- result{err: err}
			return
		}
		defer conn.Close()
		buf := make([]byte, 50)
		n, err := conn.Read(buf)
		got <- result{data: string(buf[:n]), err: err}
	}()

	conn, err := pws.Dial(context.Background(), l.Addr())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("hello")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	select {
	case r := <-got:
		if r.err != nil {
			t.Fatalf("server error: %v", r.err)
		}
		if r.data != "hello" {
			t.Errorf("server received %q, want %q", r.data, "hello")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for server read")
	}
}

func TestListener_Close(t *testing.T) {
	l, err := pws.Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	l.Close()

	if _, err := l.Accept(context.Background()); !errors.Is(err, net.ErrClosed) {
		t.Errorf("Accept() after Close() error = %v, want net.ErrClosed", err)
	}
}

func TestListener_AcceptRejectsPlainTCP(t *testing.T) {
	l, err := pws.Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer l.Close()

	go func() {
		conn, err := net.Dial("tcp", l.Addr())
		if err != nil {
			return
		}
		conn.Write([]byte("not an http request\r\n\r\n"))
		conn.Close()
	}()

	if _, err := l.Accept(context.Background()); err == nil {
		t.Error("expected upgrade error for plain TCP peer, got nil")
	}
}

func TestDial_Refused(t *testing.T) {
	l, err := pws.Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := l.Addr()
	l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := pws.Dial(ctx, addr); err == nil {
		t.Error("expected error dialing a closed port, got nil")
	}
}
