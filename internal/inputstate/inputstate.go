// Package inputstate holds display-side field values and the quiet-period
// scheduler used for reactive fields.
package inputstate

import "time"

// DefaultQuietPeriod is how long a field must stay unchanged before a commit.
const DefaultQuietPeriod = 250 * time.Millisecond

// Cache maps field names to their last edited value for one session.
type Cache struct {
	values map[string]string
}

func NewCache() *Cache {
	return &Cache{values: map[string]string{}}
}

func (c *Cache) Get(name string) (string, bool) {
	v, ok := c.values[name]
	return v, ok
}

func (c *Cache) Put(name, value string) {
	c.values[name] = value
}

func (c *Cache) Len() int { return len(c.values) }

// Token identifies one armed quiet period.
type Token uint64

// Debouncer hands out tokens per field name. Only the latest token of a name
// settles; the host delivers the timer back on its own loop. It is not safe
// for concurrent use.
type Debouncer struct {
	Quiet time.Duration

	next    Token
	pending map[string]Token
}

func NewDebouncer(quiet time.Duration) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Debouncer{Quiet: quiet, pending: map[string]Token{}}
}

// Touch supersedes any pending token for name.
func (d *Debouncer) Touch(name string) (Token, time.Duration) {
	d.next++
	d.pending[name] = d.next
	return d.next, d.Quiet
}

// Settle reports whether tok is still the latest for name and clears it.
func (d *Debouncer) Settle(name string, tok Token) bool {
	cur, ok := d.pending[name]
	if !ok || cur != tok {
		return false
	}
	delete(d.pending, name)
	return true
}

// IsPending reports whether name has an armed quiet period.
func (d *Debouncer) IsPending(name string) bool {
	_, ok := d.pending[name]
	return ok
}

// Cancel drops any pending token for name.
func (d *Debouncer) Cancel(name string) {
	delete(d.pending, name)
}

// Pending reports how many names have an armed quiet period.
func (d *Debouncer) Pending() int { return len(d.pending) }
