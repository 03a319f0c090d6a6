// Package store implements the optimistic cache shared by every entity
// type: a grouped in-memory collection whose mutations are applied
// locally first, sent to the gateway, then promoted or rolled back.
package store

import (
	"context"

	"github.com/dmitrijs2005/tripkeeper/internal/client/payload"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
)

// Schema describes how a Collection handles its entity type.
type Schema[E any] struct {
	// Collection is the remote collection name.
	Collection string
	ID         func(E) string
	WithID     func(E, string) E
	// Parent returns the group key. A nil Parent keeps every entity in the
	// single group "".
	Parent func(E) string
	// WithParent sets the group key, and ParentField names it on the wire.
	// Both are used when a temporary parent id is promoted.
	WithParent  func(E, string) E
	ParentField string
	// Prepend inserts new entities at the front of their group.
	Prepend bool
	// Less sorts ByParent results. Nil keeps cache order.
	Less   func(a, b E) bool
	Decode func(gateway.Document) (E, error)
	// Children are collections grouped by this entity's id. Their groups
	// follow the parent through promotion, rollback and deletion.
	Children []Child
}

func (s Schema[E]) groupKey(e E) string {
	if s.Parent == nil {
		return ""
	}
	return s.Parent(e)
}

// Patch is a partial update. Apply merges it into an entity; Fields is the
// sparse wire form.
type Patch[E any] interface {
	Apply(E) E
	Fields() payload.Doc
}

// Child is a grouped collection that can be managed on behalf of a parent
// entity. It is implemented by *Collection.
type Child interface {
	ensureGroup(key string) bool
	dropGroup(key string)
	rekeyGroup(ctx context.Context, from, to string)
	detachGroup(key string) (restore func())
}
