package format

import (
	"bytes"
	"strings"
	"testing"
)

type rows []string

func (r rows) Table() Table {
	t := Table{Headers: []string{"NAME"}}
	for _, s := range r {
		t.Rows = append(t.Rows, []string{s})
	}
	return t
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]int{"a": 1}, "", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := buf.String(); got != "{\"a\":1}\n" {
		t.Fatalf("got %q", got)
	}

	buf.Reset()
	if err := Write(&buf, map[string]int{"a": 1}, "json", true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := buf.String(); got != "{\n  \"a\": 1\n}\n" {
		t.Fatalf("got %q", got)
	}
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, rows{"alpha", "beta"}, "text", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"NAME", "alpha", "beta"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := Write(&buf, rows(nil), "text", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "(none)" {
		t.Fatalf("empty table: %q", buf.String())
	}

	buf.Reset()
	if err := Write(&buf, "plain", "text", false); err != nil || buf.String() != "plain\n" {
		t.Fatalf("string: %q, %v", buf.String(), err)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, 1, "edn", false); err == nil {
		t.Fatalf("expected error")
	}
}
