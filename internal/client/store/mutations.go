package store

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tripkeeper/internal/client/payload"
	"github.com/dmitrijs2005/tripkeeper/internal/client/tempid"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
	"github.com/dmitrijs2005/tripkeeper/internal/metrics"
)

// BuildFunc resolves side effects for a provisional entity (for example a
// blob upload) and returns the entity to keep plus its create payload.
type BuildFunc[E any] func(ctx context.Context, provisional E) (E, payload.Doc, error)

// ResolveFunc runs side effects for an update against the entity as it was
// before the update and returns the patch to send.
type ResolveFunc[E any] func(ctx context.Context, before E) (Patch[E], error)

// PrepareFunc runs after the entity left the cache and before the remote
// delete. The returned cleanup runs only after the delete succeeded.
type PrepareFunc[E any] func(ctx context.Context, deleted E) (cleanup func(context.Context), err error)

// Create inserts provisional under a temporary id, sends it and promotes it
// to the server id. On failure the provisional entity is evicted and the
// error returned.
func (c *Collection[E]) Create(ctx context.Context, provisional E, build BuildFunc[E]) (E, error) {
	var zero E

	tmp := tempid.Allocate()
	prov := c.schema.WithID(provisional, tmp)
	key := c.schema.groupKey(prov)

	c.mu.Lock()
	if to, ok := c.rekeyed[key]; ok && c.schema.WithParent != nil {
		prov = c.schema.WithParent(prov, to)
		key = to
	}
	gen := c.gen
	_, groupExisted := c.groups[key]
	c.insertLocked(key, prov, -1)
	c.mu.Unlock()

	var createdChildren []Child
	for _, ch := range c.schema.Children {
		if ch.ensureGroup(tmp) {
			createdChildren = append(createdChildren, ch)
		}
	}
	c.emit(Event[E]{Kind: EventInserted, Group: key, ID: tmp, Entity: prov})

	resolved := prov
	var doc payload.Doc
	var err error
	if build != nil {
		resolved, doc, err = build(ctx, prov)
	}

	var created gateway.Document
	if err == nil {
		created, err = c.docs.CreateDocument(ctx, c.schema.Collection, doc)
	}
	if err != nil {
		c.mu.Lock()
		current := c.gen == gen
		if current {
			c.removeLocked(tmp)
			if g, ok := c.groups[key]; ok && !groupExisted && len(g) == 0 {
				delete(c.groups, key)
			}
		}
		c.mu.Unlock()
		if current {
			for _, ch := range createdChildren {
				ch.dropGroup(tmp)
			}
		}

		c.logger.Warn(ctx, "optimistic create rolled back", "collection", c.schema.Collection, "temp_id", tmp, "error", err)
		c.metrics.Mutation(c.schema.Collection, "create", metrics.OutcomeRolledBack)
		c.emit(Event[E]{Kind: EventRolledBack, Group: key, ID: tmp, Entity: prov})
		return zero, err
	}

	final := c.schema.WithID(resolved, created.ID)
	if c.schema.Decode != nil {
		decoded, derr := c.schema.Decode(created)
		if derr != nil {
			c.logger.Warn(ctx, "created document not decodable, keeping local copy", "collection", c.schema.Collection, "id", created.ID, "error", derr)
		} else {
			final = decoded
		}
	}

	var promoted bool
	var reparent string
	c.mu.Lock()
	if c.gen == gen {
		if to, ok := c.rekeyed[c.schema.groupKey(final)]; ok && c.schema.WithParent != nil {
			final = c.schema.WithParent(final, to)
			reparent = to
		}
		promoted = c.replaceLocked(tmp, final)
	}
	c.mu.Unlock()

	if promoted {
		for _, ch := range c.schema.Children {
			ch.rekeyGroup(ctx, tmp, created.ID)
		}
	}
	if reparent != "" {
		c.reparentRemote(ctx, []string{created.ID}, reparent)
	}

	c.metrics.Mutation(c.schema.Collection, "create", metrics.OutcomeOK)
	if promoted {
		c.emit(Event[E]{Kind: EventPromoted, Group: c.schema.groupKey(final), ID: created.ID, PrevID: tmp, Entity: final})
	}
	return final, nil
}

// Update applies patch locally, resolves side effects, then sends the
// resolved patch. A missing id is a no-op. On failure the entity is
// restored to its state at the start of this call, unless the cache was
// reset or reloaded in the meantime.
func (c *Collection[E]) Update(ctx context.Context, id string, patch Patch[E], resolve ResolveFunc[E]) error {
	c.mu.Lock()
	key, ok := c.where[id]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	before := c.groups[key][c.indexLocked(key, id)]
	optimistic := patch.Apply(before)
	c.replaceLocked(id, optimistic)
	gen := c.gen
	c.mu.Unlock()

	c.emit(Event[E]{Kind: EventReplaced, Group: key, ID: id, Entity: optimistic})

	final := patch
	var err error
	if resolve != nil {
		final, err = resolve(ctx, before)
	}
	if err == nil {
		err = c.docs.UpdateDocument(ctx, c.schema.Collection, id, final.Fields())
	}
	if err != nil {
		c.mu.Lock()
		if c.gen == gen {
			c.replaceLocked(id, before)
		}
		c.mu.Unlock()

		c.logger.Warn(ctx, "optimistic update rolled back", "collection", c.schema.Collection, "id", id, "error", err)
		c.metrics.Mutation(c.schema.Collection, "update", metrics.OutcomeRolledBack)
		c.emit(Event[E]{Kind: EventRolledBack, Group: key, ID: id, Entity: before})
		return err
	}

	c.mu.Lock()
	var confirmed E
	if k, ok := c.where[id]; ok && c.gen == gen {
		confirmed = final.Apply(c.groups[k][c.indexLocked(k, id)])
		c.replaceLocked(id, confirmed)
	}
	c.mu.Unlock()

	c.metrics.Mutation(c.schema.Collection, "update", metrics.OutcomeOK)
	c.emit(Event[E]{Kind: EventReplaced, Group: key, ID: id, Entity: confirmed})
	return nil
}

// Delete removes the entity and its child groups locally, then deletes it
// remotely. A missing id is a no-op. On failure the entity goes back to
// its original position with its child groups, unless the cache was
// reset or reloaded in the meantime.
func (c *Collection[E]) Delete(ctx context.Context, id string, prepare PrepareFunc[E]) error {
	c.mu.Lock()
	deleted, key, at, ok := c.removeLocked(id)
	gen := c.gen
	c.mu.Unlock()
	if !ok {
		return nil
	}

	restores := make([]func(), 0, len(c.schema.Children))
	for _, ch := range c.schema.Children {
		restores = append(restores, ch.detachGroup(id))
	}
	c.emit(Event[E]{Kind: EventRemoved, Group: key, ID: id, Entity: deleted})

	var cleanup func(context.Context)
	var err error
	if prepare != nil {
		cleanup, err = prepare(ctx, deleted)
	}
	if err == nil {
		err = c.docs.DeleteDocument(ctx, c.schema.Collection, id)
	}
	if err != nil {
		c.mu.Lock()
		current := c.gen == gen
		if _, exists := c.where[id]; !exists && current {
			c.insertLocked(key, deleted, at)
		}
		c.mu.Unlock()
		if current {
			for _, restore := range restores {
				restore()
			}
		}

		c.logger.Warn(ctx, "optimistic delete rolled back", "collection", c.schema.Collection, "id", id, "error", err)
		c.metrics.Mutation(c.schema.Collection, "delete", metrics.OutcomeRolledBack)
		c.emit(Event[E]{Kind: EventRolledBack, Group: key, ID: id, Entity: deleted})
		return err
	}

	c.metrics.Mutation(c.schema.Collection, "delete", metrics.OutcomeOK)
	if cleanup != nil {
		cleanup(ctx)
	}
	return nil
}

// Fetch reads one document and merges it into the cache. ok is false when
// the document does not exist.
func (c *Collection[E]) Fetch(ctx context.Context, id string) (E, bool, error) {
	var zero E

	doc, err := c.docs.GetDocument(ctx, c.schema.Collection, id)
	if err != nil {
		if isNotFound(err) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("fetch %s/%s: %w", c.schema.Collection, id, err)
	}
	e, err := c.schema.Decode(doc)
	if err != nil {
		return zero, false, err
	}

	c.mu.Lock()
	c.upsertLocked(e)
	c.mu.Unlock()

	c.emit(Event[E]{Kind: EventReplaced, Group: c.schema.groupKey(e), ID: id, Entity: e})
	return e, true, nil
}

// FetchByParent loads every document whose field equals parent and
// replaces that group with them.
func (c *Collection[E]) FetchByParent(ctx context.Context, field, parent string, order *gateway.Order) ([]E, error) {
	q := gateway.Where(field, parent)
	q.OrderBy = order

	docs, err := c.docs.QueryDocuments(ctx, c.schema.Collection, q)
	if err != nil {
		c.metrics.Load(c.schema.Collection, 0, err)
		return nil, fmt.Errorf("query %s by %s: %w", c.schema.Collection, field, err)
	}
	list := c.decodeAll(ctx, docs)

	c.mu.Lock()
	for _, e := range c.groups[parent] {
		delete(c.where, c.schema.ID(e))
	}
	c.groups[parent] = []E{}
	for _, e := range list {
		if _, dup := c.where[c.schema.ID(e)]; dup {
			c.removeLocked(c.schema.ID(e))
		}
		c.insertLocked(parent, e, len(c.groups[parent]))
	}
	c.mu.Unlock()

	c.metrics.Load(c.schema.Collection, len(list), nil)
	c.emit(Event[E]{Kind: EventLoaded, Group: parent})
	return append([]E{}, list...), nil
}

// Load replaces the whole cache with the query result, grouped by Parent
// in result order. On error the cache is left untouched.
func (c *Collection[E]) Load(ctx context.Context, q gateway.Query) error {
	docs, err := c.docs.QueryDocuments(ctx, c.schema.Collection, q)
	if err != nil {
		c.metrics.Load(c.schema.Collection, 0, err)
		return fmt.Errorf("load %s: %w", c.schema.Collection, err)
	}
	list := c.decodeAll(ctx, docs)

	groups := make(map[string][]E)
	where := make(map[string]string, len(list))
	for _, e := range list {
		id := c.schema.ID(e)
		if _, dup := where[id]; dup {
			continue
		}
		key := c.schema.groupKey(e)
		groups[key] = append(groups[key], e)
		where[id] = key
	}

	c.mu.Lock()
	c.groups = groups
	c.where = where
	c.rekeyed = make(map[string]string)
	c.gen++
	c.mu.Unlock()

	c.metrics.Load(c.schema.Collection, len(where), nil)
	c.emit(Event[E]{Kind: EventLoaded})
	return nil
}

func (c *Collection[E]) decodeAll(ctx context.Context, docs []gateway.Document) []E {
	out := make([]E, 0, len(docs))
	for _, d := range docs {
		e, err := c.schema.Decode(d)
		if err != nil {
			c.logger.Warn(ctx, "skipping undecodable document", "collection", c.schema.Collection, "id", d.ID, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out
}
