package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"tandem-cli/internal/dispatch"
	"tandem-cli/internal/logs"
)

// Restartable keeps a current session and can replace it with a fresh one.
// Requests issued during a restart wait for it to finish.
type Restartable struct {
	start func() (Session, error)
	log   *slog.Logger

	mu       sync.Mutex
	cur      Session
	restarts int
}

// NewRestartable starts the first session right away.
func NewRestartable(start func() (Session, error), logger *slog.Logger) (*Restartable, error) {
	s, err := start()
	if err != nil {
		return nil, err
	}
	return &Restartable{start: start, log: logs.Discard(logger), cur: s}, nil
}

func (r *Restartable) Execute(ctx context.Context, args []string) (dispatch.Reply, error) {
	r.mu.Lock()
	cur := r.cur
	r.mu.Unlock()
	if cur == nil {
		return dispatch.Reply{ExitCode: -1}, ErrStopped
	}
	return cur.Execute(ctx, args)
}

// Restart closes the current session and starts a new one. When the new one
// fails to start, Execute reports ErrStopped until the next Restart.
func (r *Restartable) Restart() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cur != nil {
		if err := r.cur.Close(); err != nil {
			r.log.Warn("session: close before restart", "err", err)
		}
		r.cur = nil
	}
	s, err := r.start()
	if err != nil {
		return fmt.Errorf("session: restart: %w", err)
	}
	r.cur = s
	r.restarts++
	r.log.Info("session: restarted", "count", r.restarts)
	return nil
}

// Restarts reports how many times the session was replaced.
func (r *Restartable) Restarts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.restarts
}

func (r *Restartable) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur == nil {
		return nil
	}
	err := r.cur.Close()
	r.cur = nil
	return err
}
