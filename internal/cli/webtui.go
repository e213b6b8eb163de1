package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"tandem-cli/internal/webtui"

	"github.com/spf13/cobra"
)

func newWebTUICmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "webtui [launch args...]",
		Short: "Serve the live view in a browser terminal (experimental)",
		Long: strings.TrimSpace(`
Run "tandem launch" under a server-side PTY and bridge it to a browser terminal.

Notes:
- No authentication; bind to localhost.
- Each browser tab starts its own launcher and content process.
`),
		Example: strings.TrimSpace(`
tandem webtui --addr 127.0.0.1:3335
tandem webtui --addr :3335 -- tools status
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.config()
			if err != nil {
				return writeErr(cmd, err)
			}
			logger, closeLog := launchLogger(app, cfg)
			defer closeLog()

			exe, err := os.Executable()
			if err != nil {
				return writeErr(cmd, err)
			}
			command := []string{exe}
			if app.ConfigPath != "" {
				command = append(command, "--config", app.ConfigPath)
			}
			command = append(append(command, "launch"), args...)

			srv, err := webtui.NewServer(webtui.ServerConfig{
				Addr:    strings.TrimSpace(addr),
				Command: command,
				Dir:     cfg.WorkDir,
				Logger:  logger,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			listenAddr := srv.Addr()
			if listenAddr == "" {
				return writeErr(cmd, errors.New("webtui: missing --addr"))
			}

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      listenAddr,
					"command":   command,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{
					"open http://" + listenAddr,
				},
			})

			fmt.Fprintf(cmd.ErrOrStderr(), "tandem webtui running at http://%s\n", listenAddr)
			return http.ListenAndServe(listenAddr, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3335", "Bind address (host:port or :port)")
	return cmd
}
