package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/stagelog/internal/shared"
)

// Exit codes.
const (
	exitError   = 1
	exitUsage   = 2
	exitSession = 3
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := newApp(runner)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		code := exitCode(err)
		switch code {
		case exitSession:
			logger.Error("not signed in", "error", err, "hint", "stagelog auth login")
		case exitUsage:
			logger.Error("invalid input", "error", err)
		default:
			if errors.Is(err, shared.ErrNetwork) {
				logger.Error("could not reach the server, check your connection and try again", "error", err)
			} else {
				logger.Error("application error", "error", err)
			}
		}
		stop()
		os.Exit(code)
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrRefreshFailed),
		errors.Is(err, shared.ErrSessionRejected):
		return exitSession
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidFlag):
		return exitUsage
	default:
		return exitError
	}
}
