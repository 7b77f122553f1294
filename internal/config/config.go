// Package config turns command-line arguments into a session configuration.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"github.com/omochice/peerchat/internal/chat"
	"github.com/omochice/peerchat/internal/transport"
)

// ErrHelp is returned when -h or --help was requested.
var ErrHelp = pflag.ErrHelp

// ArgumentError reports a malformed invocation.
type ArgumentError struct {
	Msg string
}

func (e *ArgumentError) Error() string {
	return e.Msg
}

// Config holds everything the application needs to start a session.
type Config struct {
	Role      chat.Role
	Address   string
	Transport transport.Kind
	ChunkSize int
	Serve     bool
	LogLevel  zapcore.Level
	NoClear   bool
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("peerchat", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.BoolP("listen", "l", false, "listen for one peer on <address:port>")
	fs.BoolP("connect", "c", false, "connect to a listening peer at <address:port>")
	fs.StringP("transport", "t", string(transport.KindTCP), "transport carrying the chat stream: tcp or ws")
	fs.Int("chunk-size", chat.DefaultChunkSize, "largest number of bytes shown per received message")
	fs.Bool("serve", false, "keep listening and serve peers one after another (listener only)")
	fs.String("log-level", "warn", "diagnostic log level written to stderr")
	fs.Bool("no-clear", false, "do not clear the terminal once connected")
	return fs
}

// Parse parses args (without the program name).
func Parse(args []string) (Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return Config{}, ErrHelp
		}
		return Config{}, &ArgumentError{Msg: err.Error()}
	}

	listen, _ := fs.GetBool("listen")
	connect, _ := fs.GetBool("connect")
	if fs.NArg() != 1 {
		return Config{}, &ArgumentError{Msg: "Invalid Arguments"}
	}
	if listen == connect {
		return Config{}, &ArgumentError{Msg: "Invalid client type! Use -l to listen for connections or -c to connect to a listening peer"}
	}

	cfg := Config{
		Role:    chat.RoleConnector,
		Address: fs.Arg(0),
	}
	if listen {
		cfg.Role = chat.RoleListener
	}

	kind, _ := fs.GetString("transport")
	t, err := transport.ParseKind(kind)
	if err != nil {
		return Config{}, &ArgumentError{Msg: err.Error()}
	}
	cfg.Transport = t

	cfg.ChunkSize, _ = fs.GetInt("chunk-size")
	if cfg.ChunkSize <= 0 {
		return Config{}, &ArgumentError{Msg: fmt.Sprintf("chunk size must be positive, got %d", cfg.ChunkSize)}
	}

	cfg.Serve, _ = fs.GetBool("serve")
	if cfg.Serve && cfg.Role != chat.RoleListener {
		return Config{}, &ArgumentError{Msg: "--serve requires -l"}
	}

	level, _ := fs.GetString("log-level")
	cfg.LogLevel, err = zapcore.ParseLevel(level)
	if err != nil {
		return Config{}, &ArgumentError{Msg: err.Error()}
	}

	cfg.NoClear, _ = fs.GetBool("no-clear")
	return cfg, nil
}

// Usage writes the usage text to w.
func Usage(w io.Writer) {
	var b strings.Builder
	b.WriteString("Usage: peerchat -l|-c <address:port> [flags]\n")
	b.WriteString("Example: peerchat -l 127.0.0.1:9001\n\n")
	b.WriteString(newFlagSet().FlagUsages())
	_, _ = io.WriteString(w, b.String())
}
