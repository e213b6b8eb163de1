package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_FullJSON(t *testing.T) {
	out := `{"text":"hi","actions":[{"label":"Go","args":["main","home"]}],"currentApp":"main",
"nodes":{"type":"app","id":"app-1","children":[
  {"type":"page","id":"page-2","title":"Home","children":[
    {"type":"text","id":"text-3","text":"hello"},
    {"type":"table","headers":["a","b"],"rows":[[1,true],[],["x",null]]},
    {"type":"buttonRow","buttons":[{"label":"About","args":["main","about"],"active":true},{"hint":"x"}]},
    {"type":"textInput","id":"f","name":"mode","required":true,"columnSpan":"2"},
    {"type":"select","name":"theme","options":{"light":"Light","dark":"Dark"},"value":"dark"},
    {"type":"chart","id":"c"},
    "junk",
    {"id":"no-type"}
  ]}
]}}`
	resp, ok := Parse(out)
	if !ok {
		t.Fatalf("expected ok")
	}
	want := Response{
		Text:       "hi",
		CurrentApp: "main",
		Actions:    []Action{{Label: "Go", Args: []string{"main", "home"}}},
	}
	if resp.Text != want.Text || resp.CurrentApp != want.CurrentApp {
		t.Fatalf("unexpected header: %+v", resp)
	}
	if diff := cmp.Diff(want.Actions, resp.Actions); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}

	root, isGroup := resp.Nodes.(Group)
	if !isGroup || root.Type != TypeApp {
		t.Fatalf("expected app root, got %#v", resp.Nodes)
	}
	page := root.Children[0].(Group)
	if len(page.Children) != 6 {
		t.Fatalf("expected 6 children (junk and untyped skipped), got %d", len(page.Children))
	}

	table := page.Children[1].(Table)
	if diff := cmp.Diff([][]string{{"1", "true"}, {"x", ""}}, table.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}

	row := page.Children[2].(ButtonRow)
	if row.Buttons[1].Label != "Action" || row.Buttons[1].Args != nil {
		t.Fatalf("expected default label and unbound args, got %+v", row.Buttons[1])
	}
	if !row.Buttons[0].Active {
		t.Fatalf("expected active button")
	}

	in := page.Children[3].(TextInput)
	if !in.Required || in.ColumnSpan != 2 || in.FieldName() != "mode" || in.DisplayLabel() != "mode" {
		t.Fatalf("unexpected input: %+v", in)
	}

	sel := page.Children[4].(Select)
	if diff := cmp.Diff(OptionList{{"light", "Light"}, {"dark", "Dark"}}, sel.Options); diff != "" {
		t.Fatalf("options must keep order (-want +got):\n%s", diff)
	}

	if u, ok := page.Children[5].(Unknown); !ok || u.Type != "chart" {
		t.Fatalf("expected unknown chart node, got %#v", page.Children[5])
	}
}

func TestParse_Fallbacks(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		wantOK   bool
		wantText string
	}{
		{"bom", "\ufeff{\"text\":\"a\"}", true, "a"},
		{"noise around json", "Warning: x\n{\"text\":\"b\"}\ntrailer", true, "b"},
		{"raw text", "  plain output \n", false, "plain output"},
		{"broken json", "{\"text\": ", false, "{\"text\":"},
		{"empty", "   ", false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, ok := Parse(tc.in)
			if ok != tc.wantOK {
				t.Fatalf("ok: expected %v, got %v", tc.wantOK, ok)
			}
			if resp.Text != tc.wantText {
				t.Fatalf("text: expected %q, got %q", tc.wantText, resp.Text)
			}
		})
	}
}

func TestOptionList_ArrayForm(t *testing.T) {
	var l OptionList
	if err := json.Unmarshal([]byte(`["a","b"]`), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(OptionList{{"a", "a"}, {"b", "b"}}, l); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if i, ok := l.Lookup("b"); !ok || i != 1 {
		t.Fatalf("Lookup(b): got %d %v", i, ok)
	}
}

func TestResponse_EncodeKeepsOptionOrder(t *testing.T) {
	resp := Response{Nodes: Group{Type: TypePage, ID: "p", Children: []Node{
		Select{ID: "s", Name: "k", Options: OptionList{{"z", "Zed"}, {"a", "Ay"}}},
	}}}
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"options":{"z":"Zed","a":"Ay"}`) {
		t.Fatalf("expected ordered options, got %s", b)
	}
	back, ok := Parse(string(b))
	if !ok {
		t.Fatalf("re-parse failed: %s", b)
	}
	if diff := cmp.Diff(resp.Nodes, back.Nodes); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"COMMAND":"Exit","Args":["x"]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !req.IsExit() {
		t.Fatalf("expected exit, got %+v", req)
	}
	req, err = DecodeRequest([]byte(`{"args":["main","--action","abc"]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.IsExit() || len(req.Args) != 3 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestFailureResponse(t *testing.T) {
	resp := FailureResponse()
	root := resp.Nodes.(Group)
	if root.Type != TypeApp || len(root.Children) != 1 {
		t.Fatalf("unexpected failure tree: %#v", root)
	}
	if txt := root.Children[0].(Text); txt.ID != TransportErrorID || txt.Text != TransportErrorText {
		t.Fatalf("unexpected failure text: %#v", txt)
	}
}

func TestParse_NonArrayListsDecodeEmpty(t *testing.T) {
	out := `{"nodes":{"type":"page","children":[
  {"type":"text","id":"t1","text":"hi"},
  {"type":"section","id":"s","children":{}},
  {"type":"table","id":"tb","headers":["a"],"rows":"none"},
  {"type":"buttonRow","id":"br","buttons":{"label":"x"}}
]}}`
	resp, ok := Parse(out)
	if !ok {
		t.Fatalf("expected ok")
	}
	page := resp.Nodes.(Group)
	want := []Node{
		Text{ID: "t1", Text: "hi"},
		Group{Type: TypeSection, ID: "s"},
		Table{ID: "tb", Headers: []string{"a"}},
		ButtonRow{ID: "br"},
	}
	if diff := cmp.Diff(want, page.Children); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
}
