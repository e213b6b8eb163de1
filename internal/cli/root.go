// Package cli wires the tandem commands: the content side (run, worker) and
// the display side (launch, webtui) plus a few helpers.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tandem-cli/internal/config"
	"tandem-cli/internal/format"

	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	PrettyJSON bool
	Format     string

	// Getenv and ExeDir are replaced by tests.
	Getenv func(string) string
	ExeDir string

	cfg    *config.Config
	logger *slog.Logger
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tandem",
		Short:        "Interactive pages rendered by one process and shown by another",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Render the default page as text
  tandem run

  # Same, as a structured payload
  tandem main about --ui-json

  # Show the pages in the live view
  tandem launch

  # Restart the content process when sources change
  tandem launch --watch ./app
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to tandem.toml (default: $TANDEM_CONFIG, the config dir, or next to the executable)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("TANDEM_FORMAT", "json"), "Output format (json|text)")

	cmd.AddCommand(newRunCmd(app))
	cmd.AddCommand(newWorkerCmd(app))
	cmd.AddCommand(newLaunchCmd(app))
	cmd.AddCommand(newWebTUICmd(app))
	cmd.AddCommand(newJournalCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// Subcommands lists the names main must not rewrite to `run`.
func Subcommands() map[string]bool {
	out := map[string]bool{"help": true, "completion": true, "__complete": true}
	for _, c := range NewRootCmd().Commands() {
		out[c.Name()] = true
		for _, a := range c.Aliases {
			out[a] = true
		}
	}
	return out
}

func (app *App) getenv(k string) string {
	if app.Getenv != nil {
		return app.Getenv(k)
	}
	return os.Getenv(k)
}

func (app *App) exeDir() string {
	if app.ExeDir != "" {
		return app.ExeDir
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}

// config loads the layered configuration once per command.
func (app *App) config() (config.Config, error) {
	if app.cfg != nil {
		return *app.cfg, nil
	}
	cfg, err := config.Load(config.LoadOptions{
		Path:   app.ConfigPath,
		ExeDir: app.exeDir(),
		Getenv: app.getenv,
	})
	if err != nil {
		return config.Config{}, err
	}
	app.cfg = &cfg
	return cfg, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
