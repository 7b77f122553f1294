package chat

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/text/encoding/unicode"
)

// clearScreen erases the terminal and moves the cursor home.
const clearScreen = "\x1b[2J\x1b[1;1H"

// Display writes human-facing output for the local operator.
// Each notice is emitted with a single Write so output from the
// receive and send paths may interleave but never splits a line.
type Display struct {
	w  io.Writer
	mu sync.Mutex
}

// NewDisplay creates a Display writing to w.
func NewDisplay(w io.Writer) *Display {
	return &Display{w: w}
}

// Peer shows a chunk received from the peer.
func (d *Display) Peer(chunk []byte) {
	d.write("Peer: " + Decode(chunk) + "\n")
}

// Notice shows a local status line.
func (d *Display) Notice(format string, args ...any) {
	d.write(fmt.Sprintf(format, args...) + "\n")
}

// Clear erases the terminal.
func (d *Display) Clear() {
	d.write(clearScreen)
}

func (d *Display) write(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, _ = io.WriteString(d.w, s)
}

// Decode converts raw bytes to text, replacing invalid UTF-8 sequences
// with U+FFFD. It never fails.
func Decode(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}
