package store

type EventKind string

const (
	EventInserted   EventKind = "inserted"
	EventReplaced   EventKind = "replaced"
	EventRemoved    EventKind = "removed"
	EventPromoted   EventKind = "promoted"
	EventRolledBack EventKind = "rolled_back"
	EventLoaded     EventKind = "loaded"
	EventReset      EventKind = "reset"
)

// Event describes one cache change. For EventPromoted, PrevID is the
// temporary id. Group is empty for whole-cache events.
type Event[E any] struct {
	Kind   EventKind
	Group  string
	ID     string
	PrevID string
	Entity E
}

// Subscribe registers fn for change events and returns a function that
// removes it. fn runs synchronously on the mutating goroutine with no
// cache lock held, so it may read the collection.
func (c *Collection[E]) Subscribe(fn func(Event[E])) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Collection[E]) emit(ev Event[E]) {
	c.subMu.Lock()
	fns := make([]func(Event[E]), 0, len(c.subs))
	for i := 0; i < c.nextSub; i++ {
		if fn, ok := c.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
