package store

import (
	"context"

	"github.com/dmitrijs2005/tripkeeper/internal/client/tempid"
)

func (c *Collection[E]) ensureGroup(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.groups[key]; ok {
		return false
	}
	c.groups[key] = []E{}
	return true
}

func (c *Collection[E]) dropGroup(key string) {
	c.mu.Lock()
	for _, e := range c.groups[key] {
		delete(c.where, c.schema.ID(e))
	}
	delete(c.groups, key)
	c.mu.Unlock()

	c.emit(Event[E]{Kind: EventRemoved, Group: key})
}

// rekeyGroup moves the group of a promoted parent to its server id and
// points every member at the new parent. Members already written remotely
// get their parent field updated; members still being created are fixed
// when they are promoted.
func (c *Collection[E]) rekeyGroup(ctx context.Context, from, to string) {
	c.mu.Lock()
	g, ok := c.groups[from]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.groups, from)
	moved := make([]E, 0, len(g))
	var written []string
	for _, e := range g {
		if c.schema.WithParent != nil {
			e = c.schema.WithParent(e, to)
		}
		id := c.schema.ID(e)
		c.where[id] = to
		if !tempid.IsTemporary(id) {
			written = append(written, id)
		}
		moved = append(moved, e)
	}
	c.groups[to] = append(c.groups[to], moved...)
	c.rekeyed[from] = to
	c.mu.Unlock()

	c.emit(Event[E]{Kind: EventPromoted, Group: to, PrevID: from})
	c.reparentRemote(ctx, written, to)
}

// reparentRemote sets the parent field of the given documents. Failures
// are logged only.
func (c *Collection[E]) reparentRemote(ctx context.Context, ids []string, parent string) {
	if c.schema.ParentField == "" {
		return
	}
	for _, id := range ids {
		err := c.docs.UpdateDocument(ctx, c.schema.Collection, id, map[string]any{c.schema.ParentField: parent})
		if err != nil {
			c.logger.Error(ctx, "could not point document at promoted parent", "collection", c.schema.Collection, "id", id, "parent", parent, "error", err)
		}
	}
}

// detachGroup removes the group and returns a function that puts it back.
// The restore does nothing once the cache was reset or reloaded.
func (c *Collection[E]) detachGroup(key string) func() {
	c.mu.Lock()
	g, ok := c.groups[key]
	gen := c.gen
	if ok {
		delete(c.groups, key)
		for _, e := range g {
			delete(c.where, c.schema.ID(e))
		}
	}
	c.mu.Unlock()

	if !ok {
		return func() {}
	}
	c.emit(Event[E]{Kind: EventRemoved, Group: key})

	return func() {
		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return
		}
		c.groups[key] = append(g, c.groups[key]...)
		for _, e := range g {
			c.where[c.schema.ID(e)] = key
		}
		c.mu.Unlock()

		c.emit(Event[E]{Kind: EventRolledBack, Group: key})
	}
}
