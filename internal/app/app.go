// Package app wires configuration, transport and session into one run.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/omochice/peerchat/internal/chat"
	"github.com/omochice/peerchat/internal/config"
	"github.com/omochice/peerchat/internal/logging"
	"github.com/omochice/peerchat/internal/transport"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// Run parses args, establishes the connection and runs the session.
// It returns the process exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Parse(args)
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			config.Usage(stdout)
			return ExitOK
		}
		_, _ = io.WriteString(stdout, err.Error()+"\n")
		config.Usage(stdout)
		return ExitFailure
	}

	logger := logging.New(stderr, cfg.LogLevel)
	defer logger.Sync()

	r := &runner{
		cfg:     cfg,
		display: chat.NewDisplay(stdout),
		lines:   chat.NewLineSource(stdin),
		logger:  logger,
		clear:   !cfg.NoClear && isTerminal(stdout),
	}
	if cfg.Serve {
		return r.serve(ctx)
	}
	return r.single(ctx)
}

type runner struct {
	cfg     config.Config
	display *chat.Display
	lines   *chat.LineSource
	logger  *zap.Logger
	clear   bool
}

// single establishes one connection for the configured role and runs one
// session on it. A listener stops listening once its peer is accepted.
func (r *runner) single(ctx context.Context) int {
	e := transport.Establisher{
		Kind:      r.cfg.Transport,
		Listening: func(string) { r.listening() },
	}
	conn, err := e.Establish(ctx, r.cfg.Role, r.cfg.Address)
	if err != nil {
		return r.setupFailed(err)
	}

	if r.cfg.Role == chat.RoleListener {
		r.display.Notice("Peer connected from %s", conn.RemoteAddr())
	} else {
		if r.clear {
			r.display.Clear()
		}
		r.display.Notice("Connected to %s", r.cfg.Address)
	}
	return exitCode(r.session(ctx, conn))
}

// serve keeps the listener bound and runs one session per peer, one after
// another, until a session ends for any reason other than the peer leaving.
func (r *runner) serve(ctx context.Context) int {
	a, err := transport.Listen(ctx, r.cfg.Transport, r.cfg.Address)
	if err != nil {
		return r.setupFailed(err)
	}
	defer a.Close()
	r.listening()

	var backoff acceptBackoff
	for {
		conn, err := transport.Accept(ctx, a)
		if err != nil {
			if ctx.Err() != nil {
				return r.setupFailed(err)
			}
			delay := backoff.next()
			r.display.Notice("Error: %v", err)
			r.logger.Warn("accept failed", zap.Error(err), zap.Duration("retry_in", delay))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return r.setupFailed(ctx.Err())
			}
			continue
		}
		backoff.reset()
		r.display.Notice("Peer connected from %s", conn.RemoteAddr())

		err = r.session(ctx, conn)
		if errors.Is(err, chat.ErrPeerClosed) {
			r.display.Notice("Waiting for the next peer on %s", r.cfg.Address)
			continue
		}
		return exitCode(err)
	}
}

func (r *runner) listening() {
	if r.clear {
		r.display.Clear()
	}
	r.display.Notice("Server listening on %s", r.cfg.Address)
}

func (r *runner) session(ctx context.Context, conn chat.Conn) error {
	s := chat.NewSession(conn, r.lines, r.display, chat.Options{
		ChunkSize: r.cfg.ChunkSize,
		Logger:    r.logger,
	})
	err := s.Run(ctx)

	var ioErr *chat.TransportIOError
	switch {
	case err == nil, errors.Is(err, chat.ErrPeerClosed):
	case errors.As(err, &ioErr):
		r.logger.Error("session aborted", zap.String("session", s.ID()), zap.Error(err))
	default:
		r.logger.Warn("session failed", zap.String("session", s.ID()), zap.Error(err))
	}
	return err
}

func (r *runner) setupFailed(err error) int {
	r.display.Notice("Error: %v", err)
	r.logger.Error("transport setup failed", zap.Error(err))
	return ExitFailure
}

func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	return ExitFailure
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
