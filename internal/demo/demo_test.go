package demo

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"tandem-cli/internal/protocol"
	"tandem-cli/internal/runtime"
)

func kernel() *runtime.Kernel {
	return &runtime.Kernel{Registry: Registry(), Getenv: func(string) string { return "" }}
}

func TestDemo_EveryPageRenders(t *testing.T) {
	routes := [][]string{
		{"main", "home"},
		{"main", "about", "1.2.3"},
		{"tools", "status"},
	}
	for _, r := range routes {
		t.Run(strings.Join(r, "/"), func(t *testing.T) {
			var buf bytes.Buffer
			args := append(append([]string(nil), r...), "--ui-json")
			if err := kernel().Run(context.Background(), runtime.NewSession(true), args, &buf); err != nil {
				t.Fatalf("Run: %v", err)
			}
			resp, ok := protocol.Parse(buf.String())
			if !ok {
				t.Fatalf("not a payload: %q", buf.String())
			}
			if resp.CurrentApp != r[0] {
				t.Fatalf("expected app %q, got %q", r[0], resp.CurrentApp)
			}
			if _, ok := resp.Nodes.(protocol.Group); !ok {
				t.Fatalf("expected group root, got %#v", resp.Nodes)
			}
		})
	}
}

func TestDemo_HomeTextMode(t *testing.T) {
	var buf bytes.Buffer
	if err := kernel().Run(context.Background(), runtime.NewSession(false), []string{"main", "home", "a", "b"}, &buf); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Main App", "WELCOME", "[Next]", "| Args | a b", "Name *: ", "Mode: "} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestDemo_ModeFieldIsReactiveInWorker(t *testing.T) {
	var buf bytes.Buffer
	if err := kernel().Run(context.Background(), runtime.NewSession(true), []string{"--ui-json"}, &buf); err != nil {
		t.Fatalf("Run: %v", err)
	}
	resp, _ := protocol.Parse(buf.String())
	found := false
	var visit func(protocol.Node)
	visit = func(n protocol.Node) {
		switch v := n.(type) {
		case protocol.Group:
			for _, c := range v.Children {
				visit(c)
			}
		case protocol.TextInput:
			if v.Name == "mode" && v.OnChangeAction != "" {
				found = true
			}
			if v.Name == "name" && v.OnChangeAction != "" {
				t.Fatalf("name field must stay unbound")
			}
		}
	}
	visit(resp.Nodes)
	if !found {
		t.Fatalf("expected mode field to carry a change action")
	}
}
