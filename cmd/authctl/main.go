package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/evoauth/internal/authctl/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := app.LoadConfig()

	global := flag.NewFlagSet("authctl", flag.ContinueOnError)
	global.StringVar(&cfg.Profile, "profile", cfg.Profile, "session profile ($EVOAUTH_PROFILE)")
	global.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "identity API root ($EVOAUTH_BASE_URL)")
	global.StringVar(&cfg.SessionDB, "session-db", cfg.SessionDB, "session database file ($EVOAUTH_SESSION_DB)")
	if err := global.Parse(os.Args[1:]); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		return 1
	}
	defer func() { _ = application.Close() }()

	if err := application.Run(ctx, global.Args()); err != nil {
		if errors.Is(err, app.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
