// Package gateway defines the remote document and blob store contract the
// client stores are written against. Implementations live in subpackages.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("gateway: document not found")

// Document is a stored document: its server-assigned id and its fields.
// A nil field value means the field is absent.
type Document struct {
	ID     string
	Fields map[string]any
}

// Decode converts the document into dst through its JSON form, with the id
// written into the "id" field.
func (d Document) Decode(dst any) error {
	m := make(map[string]any, len(d.Fields)+1)
	for k, v := range d.Fields {
		m[k] = v
	}
	m["id"] = d.ID
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}

// Direction orders query results.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Filter matches documents whose Field equals Value.
type Filter struct {
	Field string
	Value any
}

// Order sorts query results by one field.
type Order struct {
	Field string
	Dir   Direction
}

// Query is a conjunction of equality filters with an optional ordering.
type Query struct {
	Filters []Filter
	OrderBy *Order
}

// Where builds a query with a single equality filter.
func Where(field string, value any) Query {
	return Query{Filters: []Filter{{Field: field, Value: value}}}
}

// Ordered returns a copy of q ordered by field.
func (q Query) Ordered(field string, dir Direction) Query {
	q.OrderBy = &Order{Field: field, Dir: dir}
	return q
}

// DocumentStore is the remote document store.
type DocumentStore interface {
	CreateDocument(ctx context.Context, collection string, fields map[string]any) (Document, error)
	// SetDocument writes the document with a caller-chosen id, replacing
	// any existing one.
	SetDocument(ctx context.Context, collection, id string, fields map[string]any) error
	GetDocument(ctx context.Context, collection, id string) (Document, error)
	QueryDocuments(ctx context.Context, collection string, q Query) ([]Document, error)
	// UpdateDocument merges fields into an existing document. A nil value
	// removes the key.
	UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) error
	// DeleteDocument succeeds when the document does not exist.
	DeleteDocument(ctx context.Context, collection, id string) error
}

// BlobStore is the remote blob store. Refs are storage paths.
type BlobStore interface {
	UploadBlob(ctx context.Context, path string, data []byte, contentType string) (string, error)
	ResolveBlobURL(ctx context.Context, ref string) (string, error)
	// DeleteBlob succeeds when the blob does not exist.
	DeleteBlob(ctx context.Context, ref string) error
}

// Gateway is everything a client store needs from the remote side.
type Gateway interface {
	DocumentStore
	BlobStore
}

// Compose joins a document store and a blob store into a Gateway.
func Compose(docs DocumentStore, blobs BlobStore) Gateway {
	return composite{DocumentStore: docs, BlobStore: blobs}
}

type composite struct {
	DocumentStore
	BlobStore
}
