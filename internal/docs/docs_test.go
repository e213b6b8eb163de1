package docs

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTopics(t *testing.T) {
	want := []string{"config", "keys", "payload", "protocol", "worker"}
	if diff := cmp.Diff(want, Topics()); diff != "" {
		t.Fatalf("topics (-want +got):\n%s", diff)
	}
}

func TestGet(t *testing.T) {
	body, ok := Get(" Protocol ")
	if !ok || !strings.Contains(body, "--action <id>") {
		t.Fatalf("protocol topic: ok=%v", ok)
	}
	if _, ok := Get("../docs"); ok {
		t.Fatalf("unexpected topic")
	}
	if _, ok := Get(""); ok {
		t.Fatalf("empty topic must not resolve")
	}
}

func TestRender(t *testing.T) {
	out, err := Render("# Title\n\nbody text", 60, "notty")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "Title") || !strings.Contains(out, "body text") {
		t.Fatalf("rendered output lost text:\n%s", out)
	}
}
