package cli

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"tandem-cli/internal/config"
	"tandem-cli/internal/demo"
	"tandem-cli/internal/logs"
	"tandem-cli/internal/runtime"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newRunCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [app] [page] [args...]",
		Short: "Render one page (the content side)",
		Long: strings.TrimSpace(`
Render a page of the registered apps.

Flags understood here:
  --ui-json          print the structured payload instead of text
  --no-interactive   do not prompt for another app after the text render
  --action <id>      invoke a registered action (with --value, --old, --name)
  --ui-worker        serve the line protocol on stdin/stdout (same as "tandem worker")

Unknown flags are ignored so that the launcher can pass its own through.
`),
		// Content arguments are parsed by the kernel.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := runtime.ParseInvocation(args)
			if err != nil {
				return writeErr(cmd, err)
			}
			k, closeLog := contentKernel(cmd, app)
			defer closeLog()

			if inv.UIWorker {
				return serveWorker(cmd, k)
			}
			if err := k.Run(cmd.Context(), runtime.NewSession(false), args, cmd.OutOrStdout()); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	return cmd
}

func newWorkerCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:    "worker",
		Short:  "Serve the line protocol on stdin/stdout",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, closeLog := contentKernel(cmd, app)
			defer closeLog()
			return serveWorker(cmd, k)
		},
	}
}

func serveWorker(cmd *cobra.Command, k *runtime.Kernel) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	k.Logger.Debug("worker: serving")
	if err := runtime.ServeWorker(ctx, k, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

// contentKernel builds the kernel for the demo apps. The content side logs
// to stderr, which the display process drains into its own log.
func contentKernel(cmd *cobra.Command, app *App) (*runtime.Kernel, func()) {
	logs.SetDebug(config.ParseBool(app.getenv("TANDEM_DEBUG"), false))
	logger, closer, err := logs.New(logs.Options{Writer: cmd.ErrOrStderr()})
	if err != nil {
		logger, closer = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil)), nil
	}

	in, out := isTerminal(os.Stdin), isTerminal(os.Stdout)
	var prompter runtime.Prompter = runtime.SurveyPrompter{}
	if !out {
		prompter = runtime.NewLinePrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	k := &runtime.Kernel{
		Registry:    demo.Registry(),
		Logger:      logger,
		Getenv:      app.getenv,
		Prompter:    prompter,
		Interactive: in,
	}
	return k, func() {
		if closer != nil {
			_ = closer.Close()
		}
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
