// Package logs builds the process logger: a text handler for the terminal or
// log file, fanned out to the systemd journal when running as a service.
package logs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

// Level is shared by every logger built here.
var Level = new(slog.LevelVar)

// SetDebug raises or lowers the process level.
func SetDebug(on bool) {
	if on {
		Level.Set(slog.LevelDebug)
		return
	}
	Level.Set(slog.LevelInfo)
}

type Options struct {
	// Path, when set, sends the text handler to this file instead of Writer.
	Path   string
	Writer io.Writer
	// Journal forces the journal handler on or off; nil detects a systemd
	// service from the cgroup.
	Journal *bool
}

// New returns the logger and a closer for the log file, if any.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var handlers []slog.Handler
	var closer io.Closer = nopCloser{}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("logs: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logs: %w", err)
		}
		w, closer = f, f
	}

	journal := isSystemdService()
	if opts.Journal != nil {
		journal = *opts.Journal
	}

	var textHandler slog.Handler
	if !journal || opts.Path != "" {
		textHandler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: Level})
		handlers = append(handlers, textHandler)
	}

	if journal {
		jh, err := slogjournal.NewHandler(&slogjournal.Options{
			Level: Level,
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			if textHandler == nil {
				textHandler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: Level})
				handlers = append(handlers, textHandler)
			}
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "logs: journal handler unavailable", 0)
			record.Add("err", err)
			_ = textHandler.Handle(context.Background(), record)
		} else {
			handlers = append(handlers, jh)
		}
	}

	return slog.New(&Handler{Handler: slogmulti.Fanout(handlers...)}), closer, nil
}

// Discard returns l, or a logger that drops everything when l is nil.
func Discard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type requestKey struct{}

var requestSeq atomic.Uint64

// WithRequest tags ctx with a fresh round trip number that Handler adds to
// every record logged under it.
func WithRequest(ctx context.Context) (context.Context, uint64) {
	n := requestSeq.Add(1)
	return context.WithValue(ctx, requestKey{}, n), n
}

// Handler adds the round trip number to records.
type Handler struct {
	slog.Handler
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if v, ok := ctx.Value(requestKey{}).(uint64); ok {
		record.Add("req", v)
	}
	return h.Handler.Handle(ctx, record)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{Handler: h.Handler.WithGroup(name)}
}

func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}

func isSystemdService() bool {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}
	parts := strings.Split(strings.TrimSpace(string(content)), ":")
	if len(parts) < 3 {
		return false
	}
	return strings.HasSuffix(path.Dir(parts[2]), ".service")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
