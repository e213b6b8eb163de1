package logs

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noJournal() *bool {
	off := false
	return &off
}

func TestNew_WritesToWriterAtLevel(t *testing.T) {
	defer SetDebug(false)
	buf := new(bytes.Buffer)
	logger, closer, err := New(Options{Writer: buf, Journal: noJournal()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closer.Close()

	SetDebug(false)
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")
	SetDebug(true)
	logger.Debug("now visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record leaked at info level: %q", out)
	}
	if !strings.Contains(out, "msg=shown k=v") || !strings.Contains(out, "now visible") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestNew_FileAndRequestTag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "launcher.log")
	logger, closer, err := New(Options{Path: path, Journal: noJournal()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, n := WithRequest(context.Background())
	logger.With("component", "test").InfoContext(ctx, "round trip")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, "component=test") || !strings.Contains(out, "req=") {
		t.Fatalf("missing attrs: %q", out)
	}
	if n == 0 {
		t.Fatalf("expected a request number")
	}
}

func TestToJournalKey(t *testing.T) {
	if got := toJournalKey("worker.pid-1"); got != "WORKER_PID_1" {
		t.Fatalf("got %q", got)
	}
}

func TestDiscard(t *testing.T) {
	Discard(nil).Error("dropped")
}
