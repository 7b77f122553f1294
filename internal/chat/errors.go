package chat

import (
	"errors"
	"fmt"
)

// ErrPeerClosed is returned by Session.Run when the peer closed the connection.
var ErrPeerClosed = errors.New("peer closed the connection")

// TransportSetupError reports a failure to bind, accept or connect.
type TransportSetupError struct {
	Op   string
	Addr string
	Err  error
}

func (e *TransportSetupError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportSetupError) Unwrap() error {
	return e.Err
}

// TransportIOError reports a read or write failure on an established connection.
type TransportIOError struct {
	Op   string
	Peer string
	Err  error
}

func (e *TransportIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Peer, e.Err)
}

func (e *TransportIOError) Unwrap() error {
	return e.Err
}
