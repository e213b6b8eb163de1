package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strings"

	"tandem-cli/internal/dispatch"
	"tandem-cli/internal/logs"
)

const uiJSONFlag = "--ui-json"

// OneShot starts the content command once per request with --ui-json.
type OneShot struct {
	Command Command
	Logger  *slog.Logger
}

func NewOneShot(c Command, logger *slog.Logger) *OneShot {
	return &OneShot{Command: c, Logger: logger}
}

func (o *OneShot) Execute(ctx context.Context, args []string) (dispatch.Reply, error) {
	log := logs.Discard(o.Logger)
	if o.Command.Path == "" {
		return dispatch.Reply{}, ErrNoCommand
	}
	if !slices.Contains(args, uiJSONFlag) {
		args = append(slices.Clone(args), uiJSONFlag)
	}

	cmd := o.Command.cmd(ctx, args)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if s := strings.TrimSpace(stderr.String()); s != "" {
		log.DebugContext(ctx, "oneshot: stderr", "text", s)
	}

	code := 0
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		code = exitErr.ExitCode()
		log.WarnContext(ctx, "oneshot: content process failed", "code", code)
	case IsMissing(err):
		return dispatch.Reply{ExitCode: -1}, &missingError{path: o.Command.Path, err: err}
	default:
		return dispatch.Reply{ExitCode: -1}, fmt.Errorf("session: run %s: %w", o.Command.Path, err)
	}

	out := stdout.String()
	if strings.TrimSpace(out) == "" {
		if code != 0 {
			return dispatch.Reply{ExitCode: code}, ErrStopped
		}
		out = NoOutputText
	}
	return dispatch.Reply{Output: out, ExitCode: code}, nil
}

func (o *OneShot) Close() error { return nil }
