// Package webtui serves the live view in a browser: each websocket gets its
// own launcher running under a pseudo terminal.
package webtui

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"tandem-cli/internal/logs"
)

//go:embed templates/*.html static/*.css static/*.js
var assetsFS embed.FS

// xterm is loaded from a CDN; the page works offline only with a cached copy.
const xtermVersion = "5.3.0"

type ServerConfig struct {
	Addr string
	// Command is started under a PTY for each connection. Empty means this
	// executable's "launch" subcommand.
	Command []string
	Dir     string
	Env     []string
	Title   string
	Logger  *slog.Logger
}

type Server struct {
	cfg  ServerConfig
	tmpl *template.Template
	log  *slog.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("webtui: missing addr")
	}
	if len(cfg.Command) == 0 {
		exe, err := os.Executable()
		if err != nil {
			return nil, err
		}
		cfg.Command = []string{exe, "launch"}
	}
	if cfg.Title == "" {
		cfg.Title = "tandem"
	}
	tmpl, err := template.ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, tmpl: tmpl, log: logs.Discard(cfg.Logger)}, nil
}

func (s *Server) Addr() string {
	return strings.TrimSpace(s.cfg.Addr)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/terminal", http.StatusFound)
	})
	mux.HandleFunc("GET /terminal", s.handleTerminal)
	mux.HandleFunc("GET /ws", s.handleWS)

	mux.HandleFunc("GET /static/app.css", s.handleStatic("static/app.css", "text/css; charset=utf-8"))
	mux.HandleFunc("GET /static/app.js", s.handleStatic("static/app.js", "text/javascript; charset=utf-8"))

	return mux
}

func (s *Server) handleStatic(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := assetsFS.ReadFile(path)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(b)
	}
}

type terminalVM struct {
	Title        string
	Command      string
	XtermVersion string
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	vm := terminalVM{
		Title:        s.cfg.Title,
		Command:      strings.Join(s.cfg.Command, " "),
		XtermVersion: xtermVersion,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "terminal.html", vm); err != nil {
		s.log.Error("webtui: render page", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
