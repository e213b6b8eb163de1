package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"tandem-cli/internal/demo"
	"tandem-cli/internal/dispatch"
	"tandem-cli/internal/protocol"
	"tandem-cli/internal/runtime"
)

// TestHelperProcess is not a real test. It is the content process started by
// the tests below.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("TANDEM_WANT_HELPER") != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	k := &runtime.Kernel{Registry: demo.Registry(), Getenv: func(string) string { return "" }}

	switch os.Getenv("TANDEM_HELPER_MODE") {
	case "worker":
		fmt.Fprintln(os.Stderr, "helper worker ready")
		if err := runtime.ServeWorker(context.Background(), k, os.Stdin, os.Stdout); err != nil {
			os.Exit(1)
		}
	case "crash":
		sc := bufio.NewScanner(os.Stdin)
		sc.Scan()
		os.Exit(3)
	case "stubborn":
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
		}
		time.Sleep(time.Minute)
	case "oneshot":
		if err := k.Run(context.Background(), runtime.NewSession(false), args, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "chatty":
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			if strings.Contains(sc.Text(), `"command":"exit"`) {
				os.Exit(0)
			}
			fmt.Println(`{"text":"ok"}`)
			for i := 0; i < 8192; i++ {
				fmt.Println("Notice: stray output")
			}
		}
	case "silent":
	case "fail":
		os.Exit(2)
	}
	os.Exit(0)
}

func helper(t *testing.T, mode string) Command {
	t.Helper()
	return Command{
		Path: os.Args[0],
		Args: []string{"-test.run=TestHelperProcess", "--"},
		Env:  []string{"TANDEM_WANT_HELPER=1", "TANDEM_HELPER_MODE=" + mode},
	}
}

func startWorker(t *testing.T, mode string) *Worker {
	t.Helper()
	w, err := StartWorker(helper(t, mode), nil)
	if err != nil {
		t.Fatalf("StartWorker: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestWorker_RoundTripsAndKeepsActions(t *testing.T) {
	w := startWorker(t, "worker")
	ctx := context.Background()
	d := dispatch.New(w, []string{"--ui-json"}, nil)

	first := d.Initial(ctx, []string{"main", "--ui-json"})
	if first.Failed() || first.Response.CurrentApp != "main" {
		t.Fatalf("initial request failed: %+v", first)
	}

	var actionID string
	var walk func(n protocol.Node)
	walk = func(n protocol.Node) {
		switch v := n.(type) {
		case protocol.Group:
			for _, c := range v.Children {
				walk(c)
			}
		case protocol.TextInput:
			if v.Name == "mode" {
				actionID = v.OnChangeAction
			}
		}
	}
	walk(first.Response.Nodes)
	if actionID == "" {
		t.Fatalf("worker payload must bind the mode field")
	}

	second := d.Execute(ctx, dispatch.FieldCommit{ActionID: actionID, Name: "mode", New: "fast"})
	if second.Failed() {
		t.Fatalf("field commit failed: %v", second.Err)
	}
	if !strings.Contains(second.Response.Text, "Mode: fast") {
		t.Fatalf("worker must keep the action table between requests, got %q", second.Response.Text)
	}
}

func TestWorker_CloseSendsExit(t *testing.T) {
	w := startWorker(t, "worker")
	start := time.Now()
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !w.Exited() {
		t.Fatalf("worker still running")
	}
	if time.Since(start) >= w.ShutdownTimeout {
		t.Fatalf("worker should exit on request, not by kill")
	}
	if _, err := w.Execute(context.Background(), []string{"main"}); !errors.Is(err, ErrStopped) {
		t.Fatalf("Execute after Close: %v", err)
	}
}

func TestWorker_KillsAfterTimeout(t *testing.T) {
	w := startWorker(t, "stubborn")
	w.ShutdownTimeout = 50 * time.Millisecond
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-w.Done():
	default:
		t.Fatalf("worker not killed")
	}
}

func TestWorker_CloseWithUnreadOutput(t *testing.T) {
	w := startWorker(t, "chatty")
	reply, err := w.Execute(context.Background(), []string{"main"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.TrimSpace(reply.Output) != `{"text":"ok"}` {
		t.Fatalf("unexpected reply %q", reply.Output)
	}

	w.ShutdownTimeout = 300 * time.Millisecond
	closed := make(chan struct{})
	go func() {
		_ = w.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatalf("Close blocked on output nobody reads")
	}
	if !w.Exited() {
		t.Fatalf("worker still running after Close")
	}
}

func TestWorker_CrashIsTransportError(t *testing.T) {
	w := startWorker(t, "crash")
	d := dispatch.New(w, nil, nil)
	out := d.Execute(context.Background(), dispatch.Click{Args: []string{"main"}})
	if !errors.Is(out.Err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", out.Err)
	}
	if out.Response.Text != protocol.TransportErrorText {
		t.Fatalf("expected failure payload, got %+v", out.Response)
	}
}

func TestStartWorker_MissingExecutable(t *testing.T) {
	_, err := StartWorker(Command{Path: "tandem-definitely-missing-binary"}, nil)
	if !IsMissing(err) {
		t.Fatalf("expected missing error, got %v", err)
	}
	if _, err := StartWorker(Command{}, nil); !errors.Is(err, ErrNoCommand) {
		t.Fatalf("expected ErrNoCommand, got %v", err)
	}
}

func TestOneShot(t *testing.T) {
	ctx := context.Background()

	reply, err := NewOneShot(helper(t, "oneshot"), nil).Execute(ctx, []string{"tools", "status", "busy"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	resp, ok := protocol.Parse(reply.Output)
	if !ok || resp.CurrentApp != "tools" || !strings.Contains(resp.Text, "BUSY") {
		t.Fatalf("unexpected one-shot reply: %q", reply.Output)
	}

	reply, err = NewOneShot(helper(t, "silent"), nil).Execute(ctx, nil)
	if err != nil || reply.Output != NoOutputText {
		t.Fatalf("silent process: %q, %v", reply.Output, err)
	}

	reply, err = NewOneShot(helper(t, "fail"), nil).Execute(ctx, nil)
	if !errors.Is(err, ErrStopped) || reply.ExitCode != 2 {
		t.Fatalf("failed process: %+v, %v", reply, err)
	}
}

func TestCommandFrom(t *testing.T) {
	if _, err := CommandFrom(nil, "", nil); !errors.Is(err, ErrNoCommand) {
		t.Fatalf("expected ErrNoCommand, got %v", err)
	}
	c, err := CommandFrom([]string{"php", "index.php"}, "/srv", []string{"COLUMNS=80"})
	if err != nil || c.Path != "php" || len(c.Args) != 1 || c.Dir != "/srv" {
		t.Fatalf("unexpected command: %+v, %v", c, err)
	}
}

type countingSession struct {
	id     int
	closed bool
}

func (c *countingSession) Execute(context.Context, []string) (dispatch.Reply, error) {
	return dispatch.Reply{Output: fmt.Sprintf("session %d", c.id)}, nil
}

func (c *countingSession) Close() error {
	c.closed = true
	return nil
}

func TestRestartable_ReplacesSession(t *testing.T) {
	var started []*countingSession
	fail := false
	start := func() (Session, error) {
		if fail {
			return nil, ErrNoCommand
		}
		s := &countingSession{id: len(started) + 1}
		started = append(started, s)
		return s, nil
	}
	r, err := NewRestartable(start, nil)
	if err != nil {
		t.Fatalf("NewRestartable: %v", err)
	}
	ctx := context.Background()

	if reply, _ := r.Execute(ctx, nil); reply.Output != "session 1" {
		t.Fatalf("first session not used: %q", reply.Output)
	}
	if err := r.Restart(); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if !started[0].closed {
		t.Fatalf("old session must be closed")
	}
	if reply, _ := r.Execute(ctx, nil); reply.Output != "session 2" || r.Restarts() != 1 {
		t.Fatalf("second session not used: %q", reply.Output)
	}

	fail = true
	if err := r.Restart(); !errors.Is(err, ErrNoCommand) {
		t.Fatalf("expected start error, got %v", err)
	}
	if _, err := r.Execute(ctx, nil); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped without a session, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
