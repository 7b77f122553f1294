package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/omochice/peerchat/internal/app"
)

func main() {
	// Handle interrupt as a session end rather than a hard kill
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()

	os.Exit(code)
}
