// Package session runs the content process: a persistent worker speaking the
// JSON line protocol, or one process per request.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"tandem-cli/internal/dispatch"
)

// ErrStopped is returned once the content process is gone.
var ErrStopped = errors.New("session: content process stopped unexpectedly")

// ErrNoCommand is returned when there is nothing to start.
var ErrNoCommand = errors.New("session: no content command")

// NoOutputText replaces an empty one-shot answer.
const NoOutputText = "No output was produced by the content process."

// Command describes the content executable.
type Command struct {
	Path string
	Args []string
	Dir  string
	// Env is appended to the launcher's environment.
	Env []string
}

// CommandFrom builds a Command from argv.
func CommandFrom(argv []string, dir string, env []string) (Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return Command{}, ErrNoCommand
	}
	return Command{Path: argv[0], Args: append([]string(nil), argv[1:]...), Dir: dir, Env: env}, nil
}

// Resolve checks that the executable can be found.
func (c Command) Resolve() (string, error) {
	p, err := exec.LookPath(c.Path)
	if err != nil {
		return "", &missingError{path: c.Path, err: err}
	}
	return p, nil
}

func (c Command) cmd(ctx context.Context, extra []string) *exec.Cmd {
	args := append(append([]string(nil), c.Args...), extra...)
	cmd := exec.CommandContext(ctx, c.Path, args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	return cmd
}

type missingError struct {
	path string
	err  error
}

func (e *missingError) Error() string { return fmt.Sprintf("content executable %q not found", e.path) }

func (e *missingError) Unwrap() error { return e.err }

// IsMissing reports whether err means the content executable does not exist.
func IsMissing(err error) bool {
	var m *missingError
	return errors.As(err, &m) || errors.Is(err, exec.ErrNotFound)
}

// Session is a dispatch.Transport that must be closed.
type Session interface {
	dispatch.Transport
	Close() error
}
