package webtui

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, command ...string) *httptest.Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{Addr: "127.0.0.1:0", Command: command, Title: "demo"})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestNewServer_RequiresAddr(t *testing.T) {
	if _, err := NewServer(ServerConfig{}); err == nil {
		t.Fatalf("expected error for missing addr")
	}
}

func TestHandler_Pages(t *testing.T) {
	ts := newTestServer(t, "echo", "hi")
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	res, err := client.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusFound || res.Header.Get("Location") != "/terminal" {
		t.Fatalf("GET / = %d %q", res.StatusCode, res.Header.Get("Location"))
	}

	res, err = client.Get(ts.URL + "/terminal")
	if err != nil {
		t.Fatalf("GET /terminal: %v", err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != http.StatusOK || !strings.Contains(string(body), "<title>demo</title>") || !strings.Contains(string(body), "echo hi") {
		t.Fatalf("terminal page: %d\n%s", res.StatusCode, body)
	}

	res, err = client.Get(ts.URL + "/static/app.js")
	if err != nil {
		t.Fatalf("GET app.js: %v", err)
	}
	res.Body.Close()
	if !strings.HasPrefix(res.Header.Get("Content-Type"), "text/javascript") {
		t.Fatalf("app.js content type %q", res.Header.Get("Content-Type"))
	}
}

func TestWS_BridgesPTYOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no pty on windows")
	}
	echo, err := exec.LookPath("echo")
	if err != nil {
		t.Skip("echo not available")
	}
	ts := newTestServer(t, echo, "tandem-webtui-ok")

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"resize","cols":80,"rows":24}`))

	var got strings.Builder
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for !strings.Contains(got.String(), "tandem-webtui-ok") {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read after %q: %v", got.String(), err)
		}
		got.Write(data)
	}
}
