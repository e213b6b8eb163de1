package session

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"tandem-cli/internal/config"
	"tandem-cli/internal/dispatch"
	"tandem-cli/internal/logs"
	"tandem-cli/internal/protocol"
)

// Worker keeps one content process alive across requests. Execute may be
// called from any goroutine; requests are serialised.
type Worker struct {
	ShutdownTimeout time.Duration

	cmd    Command
	proc   *exec.Cmd
	log    *slog.Logger
	mu     sync.Mutex // one request in flight
	wmu    sync.Mutex // stdin writes
	stdin  io.WriteCloser
	stdout *bufio.Reader
	outR   *io.PipeReader
	done   chan struct{}
	exit   int
	once   sync.Once
}

// StartWorker starts c with its stdin and stdout wired to the line protocol.
func StartWorker(c Command, logger *slog.Logger) (*Worker, error) {
	if c.Path == "" {
		return nil, ErrNoCommand
	}
	log := logs.Discard(logger)
	cmd := c.cmd(context.Background(), nil)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		if IsMissing(err) {
			return nil, &missingError{path: c.Path, err: err}
		}
		return nil, fmt.Errorf("session: start %s: %w", c.Path, err)
	}
	log.Debug("worker: started", "path", c.Path, "args", c.Args, "pid", cmd.Process.Pid)

	w := &Worker{
		ShutdownTimeout: config.DefaultShutdownTimeout,
		cmd:             c,
		log:             log,
		stdin:           stdin,
		stdout:          bufio.NewReader(outR),
		outR:            outR,
		proc:            cmd,
		done:            make(chan struct{}),
	}

	go drain(errR, log)
	go func() {
		err := cmd.Wait()
		w.exit = cmd.ProcessState.ExitCode()
		log.Debug("worker: exited", "code", w.exit, "err", err)
		outW.CloseWithError(ErrStopped)
		errW.Close()
		close(w.done)
	}()
	return w, nil
}

func drain(r io.Reader, log *slog.Logger) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		log.Debug("worker: stderr", "line", sc.Text())
	}
}

// Execute sends one request line and reads one response line. It is not
// cancellable once the request is written.
func (w *Worker) Execute(ctx context.Context, args []string) (dispatch.Reply, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.Exited() {
		return dispatch.Reply{ExitCode: w.exit}, ErrStopped
	}
	if args == nil {
		args = []string{}
	}
	line, err := json.Marshal(protocol.Request{Args: args})
	if err != nil {
		return dispatch.Reply{}, fmt.Errorf("session: %w", err)
	}
	if err := w.write(line); err != nil {
		w.log.ErrorContext(ctx, "worker: write failed", "err", err)
		return dispatch.Reply{ExitCode: -1}, ErrStopped
	}

	resp, err := w.stdout.ReadString('\n')
	if err != nil {
		w.log.ErrorContext(ctx, "worker: read failed", "err", err, "partial", len(resp))
		return dispatch.Reply{ExitCode: -1}, ErrStopped
	}
	return dispatch.Reply{Output: resp}, nil
}

func (w *Worker) write(line []byte) error {
	w.wmu.Lock()
	defer w.wmu.Unlock()
	if _, err := w.stdin.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}

// Exited reports whether the process has stopped.
func (w *Worker) Exited() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Done is closed when the process exits.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Close asks the worker to exit and kills it after ShutdownTimeout.
func (w *Worker) Close() error {
	var err error
	w.once.Do(func() {
		if !w.Exited() {
			line, _ := json.Marshal(protocol.Request{Command: protocol.CommandExit, Args: []string{}})
			if werr := w.write(line); werr != nil {
				w.log.Debug("worker: exit request not delivered", "err", werr)
			}
		}
		_ = w.stdin.Close()
		// Output written after the last response has no reader. Closing the
		// read end unblocks exec's copier so Wait can return.
		_ = w.outR.CloseWithError(ErrStopped)

		timeout := w.ShutdownTimeout
		if timeout <= 0 {
			timeout = config.DefaultShutdownTimeout
		}
		select {
		case <-w.done:
		case <-time.After(timeout):
			w.log.Warn("worker: did not exit in time, killing", "timeout", timeout)
			if kerr := w.proc.Process.Kill(); kerr != nil {
				err = fmt.Errorf("session: kill worker: %w", kerr)
			}
			<-w.done
		}
	})
	return err
}
