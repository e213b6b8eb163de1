package runtime

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"tandem-cli/internal/protocol"
)

func TestServeWorker_OneResponsePerRequest(t *testing.T) {
	in := strings.Join([]string{
		`{"args":["tools","status","warm"]}`,
		``,
		`not json`,
		`{"Args":["main"]}`,
		`{"command":"exit"}`,
		`{"args":["tools"]}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	if err := ServeWorker(context.Background(), testKernel(), strings.NewReader(in), &out); err != nil {
		t.Fatalf("ServeWorker: %v", err)
	}

	var responses []protocol.Response
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		resp, ok := protocol.Parse(sc.Text())
		if !ok {
			t.Fatalf("response line is not a payload: %q", sc.Text())
		}
		responses = append(responses, resp)
	}
	if len(responses) != 3 {
		t.Fatalf("expected 3 responses (blank skipped, stop at exit), got %d", len(responses))
	}
	if responses[0].CurrentApp != "tools" {
		t.Fatalf("expected tools, got %q", responses[0].CurrentApp)
	}
	if !strings.HasPrefix(responses[1].Text, "Error: ") {
		t.Fatalf("expected error payload for unreadable line, got %q", responses[1].Text)
	}
	if responses[2].CurrentApp != "main" {
		t.Fatalf("expected main, got %q", responses[2].CurrentApp)
	}
}

func TestServeWorker_ButtonsCarryActionIDs(t *testing.T) {
	var out bytes.Buffer
	in := `{"args":[]}` + "\n"
	if err := ServeWorker(context.Background(), testKernel(), strings.NewReader(in), &out); err != nil {
		t.Fatalf("ServeWorker: %v", err)
	}
	resp, ok := protocol.Parse(out.String())
	if !ok {
		t.Fatalf("not a payload: %q", out.String())
	}
	if args := button(t, resp, "Tools").Args; len(args) != 2 || args[0] != "--action" {
		t.Fatalf("expected --action reference, got %v", args)
	}
}

func TestServeWorker_UnknownRouteAnswersWithError(t *testing.T) {
	var out bytes.Buffer
	in := `{"args":["nope"]}` + "\n"
	if err := ServeWorker(context.Background(), testKernel(), strings.NewReader(in), &out); err != nil {
		t.Fatalf("ServeWorker: %v", err)
	}
	resp, _ := protocol.Parse(out.String())
	if resp.Text != "Error: app not found: nope" {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
}
