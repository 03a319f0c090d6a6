package store

import (
	"sort"
	"sync"

	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
	"github.com/dmitrijs2005/tripkeeper/internal/metrics"
)

// Collection is the cache for one entity type. The lock is never held
// across a gateway call.
type Collection[E any] struct {
	schema  Schema[E]
	docs    gateway.DocumentStore
	logger  logging.Logger
	metrics metrics.Recorder

	mu     sync.RWMutex
	groups map[string][]E
	// where maps entity id to its group key.
	where map[string]string
	// gen changes on Reset and Load. Mutations that started under an
	// older generation do not write their results back.
	gen uint64
	// rekeyed maps promoted temporary parent ids to server ids.
	rekeyed map[string]string

	subMu   sync.Mutex
	subs    map[int]func(Event[E])
	nextSub int
}

type Option func(*options)

type options struct {
	logger  logging.Logger
	metrics metrics.Recorder
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(o *options) { o.metrics = m }
}

func New[E any](docs gateway.DocumentStore, schema Schema[E], opts ...Option) *Collection[E] {
	o := options{logger: logging.Nop{}, metrics: metrics.Noop{}}
	for _, fn := range opts {
		fn(&o)
	}
	return &Collection[E]{
		schema:  schema,
		docs:    docs,
		logger:  o.logger,
		metrics: o.metrics,
		groups:  make(map[string][]E),
		where:   make(map[string]string),
		rekeyed: make(map[string]string),
		subs:    make(map[int]func(Event[E])),
	}
}

// Name is the remote collection name.
func (c *Collection[E]) Name() string { return c.schema.Collection }

// ByParent returns the group for parent sorted by the schema ordering. The
// result is a fresh copy.
func (c *Collection[E]) ByParent(parent string) []E {
	c.mu.RLock()
	out := append([]E{}, c.groups[parent]...)
	c.mu.RUnlock()

	if c.schema.Less != nil {
		sort.SliceStable(out, func(i, j int) bool { return c.schema.Less(out[i], out[j]) })
	}
	return out
}

// List returns every cached entity. Ungrouped collections keep cache
// order; grouped ones are concatenated by group key.
func (c *Collection[E]) List() []E {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.groups))
	for k := range c.groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]E, 0, len(c.where))
	for _, k := range keys {
		out = append(out, c.groups[k]...)
	}
	return out
}

func (c *Collection[E]) Get(id string) (E, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key, ok := c.where[id]
	if !ok {
		var zero E
		return zero, false
	}
	i := c.indexLocked(key, id)
	return c.groups[key][i], true
}

// Has reports whether the group exists, even if empty.
func (c *Collection[E]) Has(parent string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.groups[parent]
	return ok
}

// Resolve returns the server id a temporary parent id was promoted to, or
// parent itself.
func (c *Collection[E]) Resolve(parent string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if to, ok := c.rekeyed[parent]; ok {
		return to
	}
	return parent
}

func (c *Collection[E]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.where)
}

// Snapshot copies the whole cache, keyed by group.
func (c *Collection[E]) Snapshot() map[string][]E {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string][]E, len(c.groups))
	for k, g := range c.groups {
		out[k] = append([]E{}, g...)
	}
	return out
}

// Reset empties the cache.
func (c *Collection[E]) Reset() {
	c.mu.Lock()
	c.groups = make(map[string][]E)
	c.where = make(map[string]string)
	c.rekeyed = make(map[string]string)
	c.gen++
	c.mu.Unlock()

	c.emit(Event[E]{Kind: EventReset})
}

func (c *Collection[E]) indexLocked(key, id string) int {
	for i, e := range c.groups[key] {
		if c.schema.ID(e) == id {
			return i
		}
	}
	return -1
}

// insertLocked puts e at position at of its group, clamped to the group
// bounds; at < 0 applies the schema insertion policy.
func (c *Collection[E]) insertLocked(key string, e E, at int) {
	g := c.groups[key]
	if at < 0 {
		if c.schema.Prepend {
			at = 0
		} else {
			at = len(g)
		}
	}
	if at > len(g) {
		at = len(g)
	}
	g = append(g, e)
	copy(g[at+1:], g[at:])
	g[at] = e
	c.groups[key] = g
	c.where[c.schema.ID(e)] = key
}

// removeLocked drops id from its group and returns the entity, its group
// key and index. The group stays even when it becomes empty.
func (c *Collection[E]) removeLocked(id string) (E, string, int, bool) {
	var zero E
	key, ok := c.where[id]
	if !ok {
		return zero, "", -1, false
	}
	i := c.indexLocked(key, id)
	g := c.groups[key]
	e := g[i]
	out := make([]E, 0, len(g)-1)
	out = append(out, g[:i]...)
	out = append(out, g[i+1:]...)
	c.groups[key] = out
	delete(c.where, id)
	return e, key, i, true
}

// replaceLocked swaps the entity with id for e at the same position and
// reports whether id was present.
func (c *Collection[E]) replaceLocked(id string, e E) bool {
	key, ok := c.where[id]
	if !ok {
		return false
	}
	i := c.indexLocked(key, id)
	g := append([]E{}, c.groups[key]...)
	g[i] = e
	c.groups[key] = g
	newID := c.schema.ID(e)
	if newID != id {
		delete(c.where, id)
	}
	c.where[newID] = key
	return true
}

// upsertLocked replaces e in place when cached, otherwise inserts it by
// the schema policy.
func (c *Collection[E]) upsertLocked(e E) {
	id := c.schema.ID(e)
	if key, ok := c.where[id]; ok && key == c.schema.groupKey(e) {
		c.replaceLocked(id, e)
		return
	}
	if _, ok := c.where[id]; ok {
		c.removeLocked(id)
	}
	c.insertLocked(c.schema.groupKey(e), e, -1)
}
