package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"tandem-cli/internal/config"
	"tandem-cli/internal/dispatch"
	"tandem-cli/internal/journal"
	"tandem-cli/internal/logs"
	"tandem-cli/internal/protocol"
	"tandem-cli/internal/session"
	"tandem-cli/internal/tui"
	"tandem-cli/internal/watch"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

type launchOptions struct {
	OneShot   bool
	Watch     []string
	Debug     bool
	DebugTree bool
}

func newLaunchCmd(app *App) *cobra.Command {
	var opts launchOptions

	cmd := &cobra.Command{
		Use:   "launch [args...]",
		Short: "Show the content pages in the live view",
		Long: strings.TrimSpace(`
Start the content process and show its pages in an interactive terminal view.

The arguments are the content invocation; --ui-json is added when missing.
Flags after the first argument are passed through to the content process.
`),
		Example: strings.TrimSpace(`
tandem launch
tandem launch tools status busy
tandem launch --oneshot main about
tandem launch --watch ./app --debug
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runLaunch(cmd, app, opts, args)
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&opts.OneShot, "oneshot", false, "Start one content process per request instead of a worker")
	cmd.Flags().StringSliceVar(&opts.Watch, "watch", nil, "Restart the content process when files under this path change (repeatable)")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "Show the debug bar and log at debug level")
	cmd.Flags().BoolVar(&opts.DebugTree, "debug-tree", false, "Log the control tree after every render")
	return cmd
}

// invocation is what the live view sends first.
func invocation(args []string) []string {
	inv := slices.Clone(args)
	if !slices.Contains(inv, "--ui-json") {
		inv = append(inv, "--ui-json")
	}
	return inv
}

// contentCommand picks the configured command for the session kind, falling
// back to this executable.
func contentCommand(cfg config.Config, oneshot bool) (session.Command, error) {
	line, sub := cfg.WorkerCommand, "worker"
	if oneshot {
		line, sub = cfg.RunCommand, "run"
	}
	var argv []string
	if strings.TrimSpace(line) != "" {
		argv = config.SplitCommand(line)
	} else {
		exe, err := os.Executable()
		if err != nil {
			return session.Command{}, fmt.Errorf("content command: %w", err)
		}
		argv = []string{exe, sub}
	}
	return session.CommandFrom(argv, cfg.WorkDir, cfg.ContentEnv())
}

// starter returns the function that brings up one content session.
func starter(c session.Command, cfg config.Config, oneshot bool, logger *slog.Logger) func() (session.Session, error) {
	if oneshot {
		return func() (session.Session, error) { return session.NewOneShot(c, logger), nil }
	}
	return func() (session.Session, error) {
		w, err := session.StartWorker(c, logger)
		if err != nil {
			return nil, err
		}
		w.ShutdownTimeout = cfg.ShutdownTimeout.Duration
		return w, nil
	}
}

func launchLogger(app *App, cfg config.Config) (*slog.Logger, func()) {
	logs.SetDebug(cfg.Debug)
	// The terminal belongs to the live view.
	path := cfg.LogFile(app.getenv)
	if path == "" {
		return logs.Discard(nil), func() {}
	}
	logger, closer, err := logs.New(logs.Options{Path: path})
	if err != nil {
		return logs.Discard(nil), func() {}
	}
	return logger, func() { _ = closer.Close() }
}

func runLaunch(cmd *cobra.Command, app *App, opts launchOptions, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := app.config()
	if err != nil {
		return withExit(ExitNoCommand, err)
	}
	if opts.Debug {
		cfg.Debug = true
	}
	if opts.DebugTree {
		cfg.DebugTree = true
	}
	logger, closeLog := launchLogger(app, cfg)
	defer closeLog()

	c, err := contentCommand(cfg, opts.OneShot)
	if err != nil {
		return withExit(ExitNoCommand, err)
	}
	if _, err := c.Resolve(); err != nil {
		return withExit(ExitMissing, err)
	}

	sess, err := session.NewRestartable(starter(c, cfg, opts.OneShot, logger), logger)
	if err != nil {
		if session.IsMissing(err) {
			return withExit(ExitMissing, err)
		}
		return withExit(ExitTransport, err)
	}
	defer sess.Close()

	inv := invocation(args)
	d := dispatch.New(sess, inv, logger)
	if cfg.JournalPath != "" {
		j, err := journal.Open(ctx, cfg.JournalPath)
		if err != nil {
			logger.Warn("launch: journal disabled", "path", cfg.JournalPath, "err", err)
		} else {
			defer j.Close()
			d.Observe = func(ctx context.Context, out dispatch.Outcome) {
				if _, err := j.Append(ctx, journal.FromOutcome(out)); err != nil {
					logger.Warn("launch: journal append", "err", err)
				}
			}
		}
	}
	logger.Info("launch: starting", "command", c.Path, "args", c.Args, "oneshot", opts.OneShot, "config", cfg.Source)

	first := d.Initial(ctx, inv)
	if first.Failed() {
		return withExit(ExitTransport, transportError{args: inv, err: first.Err})
	}

	prog := tui.Program(ctx, tui.Options{
		Dispatcher: d,
		Invocation: inv,
		Initial:    &first,
		Debounce:   cfg.Debounce.Duration,
		Debug:      cfg.Debug,
		DebugTree:  cfg.DebugTree,
		Scheme:     cfg.ColorScheme,
		Logger:     logger,
		Restart: func(ctx context.Context) dispatch.Outcome {
			if err := sess.Restart(); err != nil {
				logger.Error("launch: restart failed", "err", err)
				return dispatch.Outcome{Err: err, Response: protocol.FailureResponse()}
			}
			return d.Initial(ctx, inv)
		},
	})

	if len(opts.Watch) > 0 {
		w, err := watch.Start(opts.Watch, cfg.WatchDelay.Duration, func() { prog.Send(tui.RestartMsg{}) }, logger)
		if err != nil {
			return withExit(ExitUnexpected, err)
		}
		defer w.Close()
	}

	if _, err := prog.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return withExit(ExitUnexpected, err)
	}
	logger.Info("launch: done", "restarts", sess.Restarts())
	return nil
}
