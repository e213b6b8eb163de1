package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tandem-cli/internal/cli"
)

// rewriteContentArgs turns `tandem <app> ...` into `tandem run <app> ...`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten
// before parsing. Persistent flags may come first.
func rewriteContentArgs(argv []string, subcommands map[string]bool) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--config": true,
		"--format": true,
	}
	boolFlags := map[string]bool{
		"--pretty":  true,
		"--help":    true,
		"-h":        true,
		"--version": true,
	}

	insertRun := func(i int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "run")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			return argv
		}
		if strings.HasPrefix(a, "-") {
			switch {
			case strings.Contains(a, "="), boolFlags[a]:
				continue
			case valueFlags[a]:
				i++
				continue
			}
			// A content flag such as --ui-json before any positional.
			return insertRun(i)
		}
		if subcommands[a] {
			return argv
		}
		return insertRun(i)
	}
	return argv
}

func main() {
	os.Args = rewriteContentArgs(os.Args, cli.Subcommands())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(cli.ExitCode(err))
	}
}
