package runtime

import (
	"sync"

	"github.com/google/uuid"
)

// Handler receives a field's new and old value. Click handlers ignore both.
type Handler func(value, old string) (*RouteIntent, error)

// ActionTable maps opaque ids to handlers. Handlers stay valid for the
// whole session, so requests queued by the display behind several renders
// still resolve; the table is dropped with the session.
type ActionTable struct {
	mu       sync.Mutex
	gen      uint64
	handlers map[string]binding
}

type binding struct {
	gen uint64
	fn  Handler
}

func NewActionTable() *ActionTable {
	return &ActionTable{handlers: map[string]binding{}}
}

// Advance starts a new render generation.
func (t *ActionTable) Advance() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
}

// Generation reports the current render generation.
func (t *ActionTable) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// Register stores fn under a fresh id.
func (t *ActionTable) Register(fn Handler) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := uuid.NewString()
	t.handlers[id] = binding{gen: t.gen, fn: fn}
	return id
}

// Invoke calls the handler registered under id.
func (t *ActionTable) Invoke(id, value, old string) (*RouteIntent, error) {
	t.mu.Lock()
	b, ok := t.handlers[id]
	t.mu.Unlock()
	if !ok {
		return nil, errNotFound("action", id)
	}
	return b.fn(value, old)
}

func (t *ActionTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handlers)
}
