// Package cli is the tada command line. Every command opens the
// application context, does its one thing, and closes it again, so state
// flows between invocations through the configured store.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/app"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/ui"
)

// exitError carries an exit code: 1 for runtime failures, 2 for usage.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func usageErr(format string, args ...any) error {
	return &exitError{code: 2, msg: fmt.Sprintf(format, args...)}
}

func failErr(format string, args ...any) error {
	return &exitError{code: 1, msg: fmt.Sprintf(format, args...)}
}

var errNotLoggedIn = failErr("not logged in. Run: tada login")

// env is the per-invocation state shared by all commands.
type env struct {
	configPath string
	backend    string
	dataDir    string
	theme      string

	cfg config.Config
	log *logging.Logger
	app *app.App

	out, errOut io.Writer
	interactive func() bool
	runTUI      func(ctx context.Context, a *app.App) error
}

// Option adjusts the command tree, mainly for tests.
type Option func(*env)

// WithOutput redirects stdout and stderr.
func WithOutput(out, errOut io.Writer) Option {
	return func(e *env) { e.out, e.errOut = out, errOut }
}

// WithInteractive overrides terminal detection.
func WithInteractive(interactive bool) Option {
	return func(e *env) { e.interactive = func() bool { return interactive } }
}

// WithTUI replaces the interactive list runner.
func WithTUI(run func(ctx context.Context, a *app.App) error) Option {
	return func(e *env) { e.runTUI = run }
}

func isTerminal() bool {
	in, out := os.Stdin.Fd(), os.Stdout.Fd()
	return (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in)) &&
		(isatty.IsTerminal(out) || isatty.IsCygwinTerminal(out))
}

func newEnv(opts ...Option) *env {
	e := &env{
		out:         os.Stdout,
		errOut:      os.Stderr,
		interactive: isTerminal,
		runTUI:      runTUI,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// NewRootCommand builds the full command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	return newRoot(newEnv(opts...))
}

func newRoot(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "tada",
		Short: "tada - todos behind a (pretend) login",
		Long: `tada keeps a todo list per user behind a demo login.

Sign in with demo@example.com / password123, then add, toggle, edit and
remove items. Run without arguments on a terminal for the interactive list.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: e.open,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !e.interactive() {
				return cmd.Help()
			}
			return e.tui(cmd)
		},
	}
	root.SetOut(e.out)
	root.SetErr(e.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&e.configPath, "config", "", "config file (default $TADA_CONFIG or <data-dir>/config.yaml)")
	pf.StringVar(&e.backend, "backend", "", "storage backend: json, bolt, badger, memory, sqlite")
	pf.StringVar(&e.dataDir, "data-dir", "", "directory holding the stored records")
	pf.StringVar(&e.theme, "theme", "", "color theme: classic, neon, mono")

	root.AddCommand(
		newLoginCommand(e),
		newLogoutCommand(e),
		newStatusCommand(e),
		newWhoAmICommand(e),
		newProfileCommand(e),
		newAddCommand(e),
		newListCommand(e),
		newDoneCommand(e),
		newEditCommand(e),
		newRemoveCommand(e),
		newClearCommand(e),
		newStatsCommand(e),
		newUICommand(e),
	)
	return root
}

// skipApp lists commands that never touch stored state.
func skipApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

func (e *env) open(cmd *cobra.Command, args []string) error {
	if skipApp(cmd) {
		return nil
	}
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return failErr("config: %v", err)
	}
	if e.backend != "" {
		cfg.Backend = e.backend
	}
	if e.dataDir != "" {
		cfg.DataDir = e.dataDir
	}
	if e.theme != "" {
		cfg.Theme = e.theme
	}
	if err := cfg.Validate(); err != nil {
		return usageErr("%v", err)
	}
	e.cfg = cfg
	ui.SetTheme(cfg.Theme)

	e.log, err = logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile, Service: "tada"})
	if err != nil {
		return failErr("log: %v", err)
	}
	e.app, err = app.Open(cmd.Context(), cfg, e.log.Logger)
	if err != nil {
		e.log.Close()
		return failErr("open: %v", err)
	}
	return nil
}

func (e *env) close() error {
	var errs []error
	if e.app != nil {
		if err := e.app.Close(); err != nil {
			errs = append(errs, err)
		}
		e.app = nil
	}
	if e.log != nil {
		errs = append(errs, e.log.Close())
		e.log = nil
	}
	if err := errors.Join(errs...); err != nil {
		return failErr("close: %v", err)
	}
	return nil
}

func (e *env) requireAuth() error {
	if !e.app.Session.Authenticated() {
		return errNotLoggedIn
	}
	return nil
}

// Execute runs the command line and returns the process exit code
// (0 ok, 1 error, 2 usage).
func Execute(ctx context.Context, args []string, opts ...Option) int {
	e := newEnv(opts...)
	root := newRoot(e)
	if args == nil {
		// cobra falls back to os.Args on nil.
		args = []string{}
	}
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails.
	if cerr := e.close(); err == nil {
		err = cerr
	}
	if err == nil {
		return 0
	}
	ui.Fail(e.errOut, err.Error())
	var xe *exitError
	if errors.As(err, &xe) {
		return xe.code
	}
	// cobra's own argument and flag errors.
	return 2
}
