package reconcile

// Key identifies a control by its parent's serial and its declared id.
type Key struct {
	Parent uint64
	ID     string
}

// Arena indexes the live controls that carry an id and hands out serials.
// Serial 0 belongs to the root container.
type Arena struct {
	serial uint64
	byKey  map[Key]Control
	live   int
}

func NewArena() *Arena {
	return &Arena{byKey: map[Key]Control{}}
}

func (a *Arena) nextSerial() uint64 {
	a.serial++
	return a.serial
}

func (a *Arena) add(c Control) {
	a.live++
	t := c.Tag()
	if t.ID == "" {
		return
	}
	a.byKey[Key{Parent: t.Parent, ID: t.ID}] = c
}

func (a *Arena) remove(c Control) {
	a.live--
	t := c.Tag()
	if t.ID == "" {
		return
	}
	k := Key{Parent: t.Parent, ID: t.ID}
	if cur, ok := a.byKey[k]; ok && cur.Tag().Serial == t.Serial {
		delete(a.byKey, k)
	}
}

// Lookup returns the live control declared as id under the parent serial.
func (a *Arena) Lookup(parent uint64, id string) (Control, bool) {
	c, ok := a.byKey[Key{Parent: parent, ID: id}]
	return c, ok
}

// Len is the number of live controls, with or without an id.
func (a *Arena) Len() int { return a.live }
