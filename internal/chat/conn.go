// Package chat provides the duplex chat session shared by all transports.
package chat

// Conn abstracts a bidirectional byte stream to a single peer for both TCP
// and WebSocket. This interface isolates transport details from chat logic.
type Conn interface {
	// Read reads at most len(p) bytes.
	// Returns io.EOF when the peer has closed the connection.
	Read(p []byte) (int, error)

	// Write sends p as-is. No framing is added.
	Write(p []byte) (int, error)

	// Clone returns an independent handle to the same underlying transport.
	Clone() (Conn, error)

	// Shutdown closes both directions of the underlying transport.
	// Every handle sharing the transport observes it.
	Shutdown() error

	// Close releases this handle.
	Close() error

	// RemoteAddr returns the peer address for display and logging.
	RemoteAddr() string
}
