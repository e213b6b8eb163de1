package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"tandem-cli/internal/protocol"

	"github.com/google/go-cmp/cmp"
)

type fakeTransport struct {
	calls   [][]string
	replies []Reply
	errs    []error
}

func (f *fakeTransport) Execute(_ context.Context, args []string) (Reply, error) {
	i := len(f.calls)
	f.calls = append(f.calls, args)
	var r Reply
	var err error
	if i < len(f.replies) {
		r = f.replies[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return r, err
}

const okPayload = `{"text":"hi","actions":[],"nodes":{"type":"app","id":"app-1","children":[{"type":"text","id":"text-2","text":"hi"}]},"currentApp":"main"}`

func TestPersistentFlags(t *testing.T) {
	got := PersistentFlags([]string{"main", "--ui-json", "home", "-v", "x"})
	if diff := cmp.Diff([]string{"--ui-json", "-v"}, got); diff != "" {
		t.Fatalf("flags (-want +got):\n%s", diff)
	}
}

func TestArgs(t *testing.T) {
	base := []string{"--ui-json"}
	cases := []struct {
		name string
		req  Request
		want []string
		err  bool
	}{
		{"click", Click{Label: "Go", Args: []string{"tools", "status", "busy"}}, []string{"tools", "status", "busy", "--ui-json"}, false},
		{"commit", FieldCommit{ActionID: "abc", Name: "mode", Old: "a", New: "b"}, []string{"--action", "abc", "--value", "b", "--old", "a", "--ui-json"}, false},
		{"empty old", FieldCommit{ActionID: "abc", Name: "mode", New: "b"}, []string{"--action", "abc", "--value", "b", "--old", "", "--ui-json"}, false},
		{"unbound click", Click{Label: "Nope"}, nil, true},
		{"unbound field", FieldCommit{Name: "mode"}, nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Args(tc.req, base)
			if tc.err {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Args: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("args (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecute_ParsesResponse(t *testing.T) {
	tr := &fakeTransport{replies: []Reply{{Output: okPayload}}}
	d := New(tr, []string{"main", "--ui-json"}, nil)

	var seen []Outcome
	d.Observe = func(_ context.Context, o Outcome) { seen = append(seen, o) }

	out := d.Execute(context.Background(), Click{Label: "Go", Args: []string{"main", "about"}})
	if out.Failed() {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if diff := cmp.Diff([][]string{{"main", "about", "--ui-json"}}, tr.calls); diff != "" {
		t.Fatalf("calls (-want +got):\n%s", diff)
	}
	if out.Response.CurrentApp != "main" || out.Response.Nodes == nil {
		t.Fatalf("unexpected response: %+v", out.Response)
	}
	if len(seen) != 1 || seen[0].Bytes != len(okPayload) {
		t.Fatalf("observer not called once: %+v", seen)
	}
}

func TestExecute_TextFallback(t *testing.T) {
	tr := &fakeTransport{replies: []Reply{{Output: "plain words\n"}}}
	d := New(tr, nil, nil)
	out := d.Execute(context.Background(), Click{Args: []string{"main"}})
	if out.Failed() || out.Response.Text != "plain words" || out.Response.Nodes != nil {
		t.Fatalf("expected text fallback, got %+v", out)
	}
}

func TestExecute_TransportFailure(t *testing.T) {
	cases := []struct {
		name  string
		reply Reply
		err   error
		want  error
	}{
		{"error", Reply{ExitCode: 1}, errors.New("worker stopped"), nil},
		{"empty", Reply{Output: "  \n"}, nil, ErrEmptyResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := &fakeTransport{replies: []Reply{tc.reply}, errs: []error{tc.err}}
			d := New(tr, nil, nil)
			out := d.Execute(context.Background(), FieldCommit{ActionID: "x", Name: "mode", New: "b"})
			if !out.Failed() {
				t.Fatalf("expected failure")
			}
			if tc.want != nil && !errors.Is(out.Err, tc.want) {
				t.Fatalf("got %v, want %v", out.Err, tc.want)
			}
			if diff := cmp.Diff(protocol.FailureResponse(), out.Response); diff != "" {
				t.Fatalf("failure payload (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecute_UnboundNeverSends(t *testing.T) {
	tr := &fakeTransport{}
	d := New(tr, nil, nil)
	out := d.Execute(context.Background(), Click{Label: "Inert"})
	if !errors.Is(out.Err, ErrUnbound) || out.Sent || len(tr.calls) != 0 {
		t.Fatalf("unbound click must not reach the transport: %+v", out)
	}
}

func TestInitial_SendsInvocationAndTimes(t *testing.T) {
	tr := &fakeTransport{replies: []Reply{{Output: okPayload}}}
	d := New(tr, []string{"tools", "status", "--ui-json"}, nil)
	clock := time.Unix(0, 0)
	d.now = func() time.Time {
		clock = clock.Add(5 * time.Millisecond)
		return clock
	}

	out := d.Initial(context.Background(), []string{"tools", "status", "--ui-json"})
	if diff := cmp.Diff([]string{"tools", "status", "--ui-json"}, tr.calls[0]); diff != "" {
		t.Fatalf("initial args (-want +got):\n%s", diff)
	}
	if out.Elapsed != 5*time.Millisecond {
		t.Fatalf("elapsed = %v", out.Elapsed)
	}
}
