// Package memory is an in-process Gateway. It keeps documents and blobs in
// maps, records every call and can be told to fail chosen operations,
// which makes it the backing store for tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
)

// Operation names used by Fail and in the call log.
const (
	OpCreate  = "CreateDocument"
	OpSet     = "SetDocument"
	OpGet     = "GetDocument"
	OpQuery   = "QueryDocuments"
	OpUpdate  = "UpdateDocument"
	OpDelete  = "DeleteDocument"
	OpUpload  = "UploadBlob"
	OpResolve = "ResolveBlobURL"
	OpDelBlob = "DeleteBlob"
)

// Call is one recorded gateway call. Ref holds the blob path for blob
// operations.
type Call struct {
	Op         string
	Collection string
	ID         string
	Ref        string
	Fields     map[string]any
}

type collection struct {
	docs  map[string]map[string]any
	order []string
}

// Gateway implements gateway.Gateway in memory.
type Gateway struct {
	mu          sync.Mutex
	collections map[string]*collection
	blobs       map[string][]byte
	failures    map[string][]error
	sticky      map[string]error
	calls       []Call
	newID       func() string
	urlPrefix   string
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithIDs makes the gateway assign ids from fn instead of random UUIDs.
func WithIDs(fn func() string) Option {
	return func(g *Gateway) { g.newID = fn }
}

// WithSequentialIDs assigns prefix-1, prefix-2, ...
func WithSequentialIDs(prefix string) Option {
	n := 0
	return WithIDs(func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	})
}

// WithURLPrefix sets the prefix ResolveBlobURL puts in front of a ref.
func WithURLPrefix(prefix string) Option {
	return func(g *Gateway) { g.urlPrefix = prefix }
}

func New(opts ...Option) *Gateway {
	g := &Gateway{
		collections: make(map[string]*collection),
		blobs:       make(map[string][]byte),
		failures:    make(map[string][]error),
		sticky:      make(map[string]error),
		newID:       uuid.NewString,
		urlPrefix:   "memory://",
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// FailNext makes the next call of op return err. Repeated calls queue.
func (g *Gateway) FailNext(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op] = append(g.failures[op], err)
}

// Fail makes every call of op return err until Heal is called.
func (g *Gateway) Fail(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sticky[op] = err
}

func (g *Gateway) Heal(op string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sticky, op)
	delete(g.failures, op)
}

// Calls returns a copy of the call log.
func (g *Gateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}

// CallsOf returns the logged calls of one operation.
func (g *Gateway) CallsOf(op string) []Call {
	var out []Call
	for _, c := range g.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (g *Gateway) ResetCalls() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = nil
}

// Seed stores a document directly, bypassing failure injection and the
// call log.
func (g *Gateway) Seed(coll, id string, fields map[string]any) {
	norm, err := gateway.NormalizeFields(fields)
	if err != nil {
		panic(err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.put(coll, id, norm)
}

// Blob returns a stored blob.
func (g *Gateway) Blob(ref string) ([]byte, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.blobs[ref]
	return b, ok
}

// HasDocument reports whether the document exists.
func (g *Gateway) HasDocument(coll, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.collections[coll]
	if !ok {
		return false
	}
	_, ok = c.docs[id]
	return ok
}

// record logs the call and returns the injected failure for op, if any.
// The caller holds g.mu.
func (g *Gateway) record(c Call) error {
	if c.Fields != nil {
		cp := make(map[string]any, len(c.Fields))
		for k, v := range c.Fields {
			cp[k] = v
		}
		c.Fields = cp
	}
	g.calls = append(g.calls, c)

	if q := g.failures[c.Op]; len(q) > 0 {
		g.failures[c.Op] = q[1:]
		return q[0]
	}
	return g.sticky[c.Op]
}

func (g *Gateway) coll(name string) *collection {
	c, ok := g.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]map[string]any)}
		g.collections[name] = c
	}
	return c
}

func (g *Gateway) put(coll, id string, fields map[string]any) {
	c := g.coll(coll)
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	stored := make(map[string]any, len(fields))
	for k, v := range fields {
		if v != nil {
			stored[k] = v
		}
	}
	c.docs[id] = stored
}

func copyDoc(id string, fields map[string]any) gateway.Document {
	cp := make(map[string]any, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return gateway.Document{ID: id, Fields: cp}
}

func (g *Gateway) CreateDocument(ctx context.Context, coll string, fields map[string]any) (gateway.Document, error) {
	norm, err := gateway.NormalizeFields(fields)
	if err != nil {
		return gateway.Document{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.record(Call{Op: OpCreate, Collection: coll, Fields: fields}); err != nil {
		return gateway.Document{}, err
	}
	if err := ctx.Err(); err != nil {
		return gateway.Document{}, err
	}

	id := g.newID()
	g.put(coll, id, norm)
	return copyDoc(id, g.collections[coll].docs[id]), nil
}

func (g *Gateway) SetDocument(ctx context.Context, coll, id string, fields map[string]any) error {
	norm, err := gateway.NormalizeFields(fields)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.record(Call{Op: OpSet, Collection: coll, ID: id, Fields: fields}); err != nil {
		return err
	}
	g.put(coll, id, norm)
	return ctx.Err()
}

func (g *Gateway) GetDocument(ctx context.Context, coll, id string) (gateway.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.record(Call{Op: OpGet, Collection: coll, ID: id}); err != nil {
		return gateway.Document{}, err
	}
	c, ok := g.collections[coll]
	if !ok {
		return gateway.Document{}, gateway.ErrNotFound
	}
	fields, ok := c.docs[id]
	if !ok {
		return gateway.Document{}, gateway.ErrNotFound
	}
	return copyDoc(id, fields), nil
}

func (g *Gateway) QueryDocuments(ctx context.Context, coll string, q gateway.Query) ([]gateway.Document, error) {
	filters := make([]gateway.Filter, len(q.Filters))
	for i, f := range q.Filters {
		v, err := gateway.Normalize(f.Value)
		if err != nil {
			return nil, err
		}
		filters[i] = gateway.Filter{Field: f.Field, Value: v}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.record(Call{Op: OpQuery, Collection: coll}); err != nil {
		return nil, err
	}
	c, ok := g.collections[coll]
	if !ok {
		return []gateway.Document{}, nil
	}

	out := make([]gateway.Document, 0, len(c.order))
	for _, id := range c.order {
		fields := c.docs[id]
		match := true
		for _, f := range filters {
			if !gateway.Equal(fields[f.Field], f.Value) {
				match = false
				break
			}
		}
		if match {
			out = append(out, copyDoc(id, fields))
		}
	}

	if o := q.OrderBy; o != nil {
		sort.SliceStable(out, func(i, j int) bool {
			cmp := gateway.Compare(out[i].Fields[o.Field], out[j].Fields[o.Field])
			if o.Dir == gateway.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	return out, nil
}

func (g *Gateway) UpdateDocument(ctx context.Context, coll, id string, fields map[string]any) error {
	norm, err := gateway.NormalizeFields(fields)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.record(Call{Op: OpUpdate, Collection: coll, ID: id, Fields: fields}); err != nil {
		return err
	}
	c, ok := g.collections[coll]
	if !ok {
		return gateway.ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return gateway.ErrNotFound
	}
	gateway.Merge(doc, norm)
	return nil
}

func (g *Gateway) DeleteDocument(ctx context.Context, coll, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.record(Call{Op: OpDelete, Collection: coll, ID: id}); err != nil {
		return err
	}
	c, ok := g.collections[coll]
	if !ok {
		return nil
	}
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (g *Gateway) UploadBlob(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.record(Call{Op: OpUpload, Ref: path}); err != nil {
		return "", err
	}
	g.blobs[path] = append([]byte(nil), data...)
	return path, nil
}

func (g *Gateway) ResolveBlobURL(ctx context.Context, ref string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.record(Call{Op: OpResolve, Ref: ref}); err != nil {
		return "", err
	}
	if _, ok := g.blobs[ref]; !ok {
		return "", fmt.Errorf("blob %q: %w", ref, gateway.ErrNotFound)
	}
	return g.urlPrefix + ref, nil
}

func (g *Gateway) DeleteBlob(ctx context.Context, ref string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.record(Call{Op: OpDelBlob, Ref: ref}); err != nil {
		return err
	}
	delete(g.blobs, ref)
	return nil
}

var _ gateway.Gateway = (*Gateway)(nil)
