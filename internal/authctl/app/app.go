package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/aussiebroadwan/evoauth/pkg/authsdk"
	"github.com/aussiebroadwan/evoauth/pkg/sessionstore/sqlite"
	"github.com/aussiebroadwan/evoauth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// ErrUsage is returned when the command line cannot be parsed. The usage text
// has already been written by then.
var ErrUsage = errors.New("usage error")

// Application wires the SDK client to a persisted session for one profile.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store  *sqlite.Store
	client *authsdk.Client

	out    io.Writer
	errOut io.Writer
}

// New opens the session database, builds the client and restores whatever
// session the profile already holds.
func New(ctx context.Context, cfg Config, out, errOut io.Writer) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "authctl",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  errOut,
		}),
		out:    out,
		errOut: errOut,
	}

	store, err := sqlite.Open(cfg.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	app.store = store

	sdkCfg := cfg.SDKConfig()
	sdkCfg.Logger = app.logger
	sdkCfg.Persister = store.Sessions(cfg.Profile)

	client, err := authsdk.NewClient(sdkCfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	app.client = client

	if err := client.RestoreSession(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	app.logger.Debug("session restored",
		"profile", cfg.Profile,
		"authenticated", client.IsAuthenticated(),
	)

	return app, nil
}

// Close releases the session database.
func (app *Application) Close() error {
	return app.store.Close()
}

// Run executes one subcommand. args excludes the program name and global flags.
func (app *Application) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		app.usage()
		return ErrUsage
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(app.errOut, "unknown command %q\n\n", args[0])
		app.usage()
		return ErrUsage
	}

	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(app.errOut)
	run := cmd.setup(app, fs)

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return ErrUsage
	}

	ctx = slogx.WithContext(ctx, app.logger.With("command", cmd.name, "profile", app.cfg.Profile))
	return run(ctx, fs.Args())
}

func (app *Application) usage() {
	fmt.Fprintln(app.errOut, "usage: authctl [--profile name] <command> [flags]")
	fmt.Fprintln(app.errOut)
	fmt.Fprintln(app.errOut, "commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(app.errOut, "  %-16s %s\n", name, commands[name].summary)
	}
}

// printJSON writes v to stdout as indented JSON.
func (app *Application) printJSON(v any) error {
	enc := json.NewEncoder(app.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
