package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// CommandExit asks a worker to stop its request loop.
const CommandExit = "exit"

// TransportErrorID is the id of the text node in FailureResponse.
const TransportErrorID = "transport-error"

// TransportErrorText is the message shown when the content process is unreachable.
const TransportErrorText = "The content process stopped unexpectedly. Restart the launcher to continue."

var errUnsupportedNode = errors.New("protocol: unsupported node value")

// Action is a top-level action listed next to the node tree.
type Action struct {
	Label string   `json:"label"`
	Args  []string `json:"args"`
}

// Response is one content payload. Nodes is nil when the content process sent
// only text.
type Response struct {
	Text       string
	Actions    []Action
	Nodes      Node
	CurrentApp string
}

type wireResponse struct {
	Text       scalar            `json:"text"`
	Actions    []json.RawMessage `json:"actions"`
	Nodes      json.RawMessage   `json:"nodes"`
	CurrentApp scalar            `json:"currentApp"`
}

func (r *Response) UnmarshalJSON(b []byte) error {
	var w wireResponse
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	r.Text = string(w.Text)
	r.CurrentApp = string(w.CurrentApp)
	r.Actions = nil
	for _, raw := range w.Actions {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}
		var a struct {
			Label scalar     `json:"label"`
			Args  StringList `json:"args"`
		}
		if err := json.Unmarshal(raw, &a); err != nil {
			return err
		}
		r.Actions = append(r.Actions, Action{Label: string(a.Label), Args: []string(a.Args)})
	}
	n, err := DecodeNode(w.Nodes)
	if err != nil {
		return err
	}
	r.Nodes = n
	return nil
}

func (r Response) MarshalJSON() ([]byte, error) {
	nodes, err := EncodeNode(r.Nodes)
	if err != nil {
		return nil, err
	}
	actions := r.Actions
	if actions == nil {
		actions = []Action{}
	}
	return json.Marshal(struct {
		Text       string          `json:"text"`
		Actions    []Action        `json:"actions"`
		Nodes      json.RawMessage `json:"nodes"`
		CurrentApp string          `json:"currentApp,omitempty"`
	}{r.Text, actions, nodes, r.CurrentApp})
}

// Request is one line sent to a worker.
type Request struct {
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args"`
}

// IsExit reports whether the request asks the worker to stop.
func (r Request) IsExit() bool {
	return strings.EqualFold(strings.TrimSpace(r.Command), CommandExit)
}

// DecodeRequest decodes a request line. Field names match case-insensitively,
// which encoding/json already does.
func DecodeRequest(line []byte) (Request, error) {
	var w struct {
		Command scalar     `json:"command"`
		Args    StringList `json:"args"`
	}
	if err := json.Unmarshal(line, &w); err != nil {
		return Request{}, err
	}
	return Request{Command: string(w.Command), Args: []string(w.Args)}, nil
}

// Parse decodes content output. It strips a leading BOM, then tries the whole
// output, then the substring between the first '{' and the last '}'. When
// neither decodes it returns a text-only response holding the trimmed output.
// ok is false only for the text fallback.
func Parse(output string) (resp Response, ok bool) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(output, "\ufeff"))
	if trimmed == "" {
		return Response{}, false
	}
	if err := json.Unmarshal([]byte(trimmed), &resp); err == nil {
		return resp, true
	}
	start := strings.IndexByte(trimmed, '{')
	end := strings.LastIndexByte(trimmed, '}')
	if start >= 0 && end > start {
		resp = Response{}
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &resp); err == nil {
			return resp, true
		}
	}
	return TextResponse(trimmed), false
}

// TextResponse wraps plain output.
func TextResponse(text string) Response {
	return Response{Text: text}
}

// FailureResponse is the fixed payload shown when the transport fails.
func FailureResponse() Response {
	return Response{
		Text: TransportErrorText,
		Nodes: Group{
			Type: TypeApp,
			ID:   "transport",
			Children: []Node{
				Text{ID: TransportErrorID, Text: TransportErrorText},
			},
		},
	}
}
