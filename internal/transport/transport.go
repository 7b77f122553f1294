// Package transport establishes the single connection a chat session runs on.
package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/omochice/peerchat/internal/chat"
	"github.com/omochice/peerchat/internal/transport/tcp"
	"github.com/omochice/peerchat/internal/transport/ws"
)

// Kind selects the wire carrying the chat byte stream.
type Kind string

const (
	KindTCP       Kind = "tcp"
	KindWebSocket Kind = "ws"
)

// ParseKind validates a transport name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindTCP, KindWebSocket:
		return k, nil
	default:
		return "", fmt.Errorf("unknown transport %q", s)
	}
}

// Acceptor hands out inbound peers one at a time.
type Acceptor interface {
	Accept(ctx context.Context) (chat.Conn, error)
	Addr() string
	Close() error
}

// ValidateAddress checks that address is a host:port pair with a numeric port.
func ValidateAddress(address string) error {
	_, port, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

// Listen binds address for the given transport.
func Listen(ctx context.Context, kind Kind, address string) (Acceptor, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, &chat.TransportSetupError{Op: "listen", Addr: address, Err: err}
	}

	var (
		a   Acceptor
		err error
	)
	switch kind {
	case KindTCP:
		a, err = tcp.Listen(ctx, address)
	case KindWebSocket:
		a, err = ws.Listen(ctx, address)
	default:
		err = fmt.Errorf("unknown transport %q", kind)
	}
	if err != nil {
		return nil, &chat.TransportSetupError{Op: "listen", Addr: address, Err: err}
	}
	return a, nil
}

// Dial connects to address over the given transport.
func Dial(ctx context.Context, kind Kind, address string) (chat.Conn, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, &chat.TransportSetupError{Op: "dial", Addr: address, Err: err}
	}

	var (
		conn chat.Conn
		err  error
	)
	switch kind {
	case KindTCP:
		conn, err = tcp.Dial(ctx, address)
	case KindWebSocket:
		conn, err = ws.Dial(ctx, address)
	default:
		err = fmt.Errorf("unknown transport %q", kind)
	}
	if err != nil {
		return nil, &chat.TransportSetupError{Op: "dial", Addr: address, Err: err}
	}
	return conn, nil
}

// Accept waits for the next peer on a and wraps failures as setup errors.
func Accept(ctx context.Context, a Acceptor) (chat.Conn, error) {
	conn, err := a.Accept(ctx)
	if err != nil {
		return nil, &chat.TransportSetupError{Op: "accept", Addr: a.Addr(), Err: err}
	}
	return conn, nil
}

// Establisher obtains the single connection a session runs on.
type Establisher struct {
	Kind Kind

	// Listening, if set, is called with the bound address before a
	// listener starts waiting for its peer.
	Listening func(addr string)
}

// Establish obtains exactly one connection for role. A listener binds,
// accepts a single peer and stops listening; a connector dials.
func (e Establisher) Establish(ctx context.Context, role chat.Role, address string) (chat.Conn, error) {
	switch role {
	case chat.RoleListener:
		a, err := Listen(ctx, e.Kind, address)
		if err != nil {
			return nil, err
		}
		defer a.Close()

		if e.Listening != nil {
			e.Listening(a.Addr())
		}
		return Accept(ctx, a)
	case chat.RoleConnector:
		return Dial(ctx, e.Kind, address)
	default:
		return nil, &chat.TransportSetupError{Op: "establish", Addr: address, Err: fmt.Errorf("unknown role %v", role)}
	}
}

// Establish is Establisher{Kind: kind}.Establish.
func Establish(ctx context.Context, kind Kind, role chat.Role, address string) (chat.Conn, error) {
	return Establisher{Kind: kind}.Establish(ctx, role, address)
}
