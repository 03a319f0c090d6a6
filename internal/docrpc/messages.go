package docrpc

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
)

// Message keys.
const (
	keyCollection  = "collection"
	keyID          = "id"
	keyFields      = "fields"
	keyFilters     = "filters"
	keyField       = "field"
	keyValue       = "value"
	keyOrderBy     = "orderBy"
	keyDir         = "dir"
	keyDocuments   = "documents"
	keyPath        = "path"
	keyRef         = "ref"
	keyContentType = "contentType"
	keyURL         = "url"
	keyStatus      = "status"
)

// Request carries the arguments of every method; each method reads the
// members it needs.
type Request struct {
	Collection  string
	ID          string
	Fields      map[string]any
	Query       gateway.Query
	Path        string
	Ref         string
	ContentType string
}

// Response carries the results of every method.
type Response struct {
	Document  gateway.Document
	Documents []gateway.Document
	URL       string
	Status    string
}

func (r Request) Struct() (*structpb.Struct, error) {
	m := map[string]any{}
	putString(m, keyCollection, r.Collection)
	putString(m, keyID, r.ID)
	putString(m, keyPath, r.Path)
	putString(m, keyRef, r.Ref)
	putString(m, keyContentType, r.ContentType)

	if r.Fields != nil {
		fields, err := gateway.NormalizeFields(r.Fields)
		if err != nil {
			return nil, fmt.Errorf("normalize fields: %w", err)
		}
		m[keyFields] = fields
	}

	if len(r.Query.Filters) > 0 {
		filters := make([]any, 0, len(r.Query.Filters))
		for _, f := range r.Query.Filters {
			v, err := gateway.Normalize(f.Value)
			if err != nil {
				return nil, fmt.Errorf("normalize filter %s: %w", f.Field, err)
			}
			filters = append(filters, map[string]any{keyField: f.Field, keyValue: v})
		}
		m[keyFilters] = filters
	}
	if o := r.Query.OrderBy; o != nil {
		m[keyOrderBy] = map[string]any{keyField: o.Field, keyDir: string(o.Dir)}
	}

	return structpb.NewStruct(m)
}

func ParseRequest(s *structpb.Struct) (Request, error) {
	m := s.AsMap()
	r := Request{
		Collection:  getString(m, keyCollection),
		ID:          getString(m, keyID),
		Path:        getString(m, keyPath),
		Ref:         getString(m, keyRef),
		ContentType: getString(m, keyContentType),
	}

	if raw, ok := m[keyFields]; ok {
		fields, ok := raw.(map[string]any)
		if !ok {
			return Request{}, fmt.Errorf("%s: expected object", keyFields)
		}
		r.Fields = fields
	}

	if raw, ok := m[keyFilters]; ok {
		list, ok := raw.([]any)
		if !ok {
			return Request{}, fmt.Errorf("%s: expected list", keyFilters)
		}
		for _, item := range list {
			f, ok := item.(map[string]any)
			if !ok {
				return Request{}, fmt.Errorf("%s: expected object entries", keyFilters)
			}
			r.Query.Filters = append(r.Query.Filters, gateway.Filter{Field: getString(f, keyField), Value: f[keyValue]})
		}
	}

	if raw, ok := m[keyOrderBy]; ok {
		o, ok := raw.(map[string]any)
		if !ok {
			return Request{}, fmt.Errorf("%s: expected object", keyOrderBy)
		}
		dir := gateway.Direction(getString(o, keyDir))
		if dir != gateway.Asc && dir != gateway.Desc {
			return Request{}, fmt.Errorf("%s: unknown direction %q", keyOrderBy, dir)
		}
		r.Query.OrderBy = &gateway.Order{Field: getString(o, keyField), Dir: dir}
	}

	return r, nil
}

func (r Response) Struct() (*structpb.Struct, error) {
	m := map[string]any{}
	putString(m, keyURL, r.URL)
	putString(m, keyStatus, r.Status)

	if r.Document.ID != "" {
		doc, err := documentValue(r.Document)
		if err != nil {
			return nil, err
		}
		for k, v := range doc {
			m[k] = v
		}
	}

	if r.Documents != nil {
		docs := make([]any, 0, len(r.Documents))
		for _, d := range r.Documents {
			doc, err := documentValue(d)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
		m[keyDocuments] = docs
	}

	return structpb.NewStruct(m)
}

func ParseResponse(s *structpb.Struct) (Response, error) {
	m := s.AsMap()
	r := Response{
		URL:    getString(m, keyURL),
		Status: getString(m, keyStatus),
	}

	if _, ok := m[keyID]; ok {
		doc, err := parseDocument(m)
		if err != nil {
			return Response{}, err
		}
		r.Document = doc
	}

	if raw, ok := m[keyDocuments]; ok {
		list, ok := raw.([]any)
		if !ok {
			return Response{}, fmt.Errorf("%s: expected list", keyDocuments)
		}
		r.Documents = make([]gateway.Document, 0, len(list))
		for _, item := range list {
			dm, ok := item.(map[string]any)
			if !ok {
				return Response{}, fmt.Errorf("%s: expected object entries", keyDocuments)
			}
			doc, err := parseDocument(dm)
			if err != nil {
				return Response{}, err
			}
			r.Documents = append(r.Documents, doc)
		}
	}

	return r, nil
}

func documentValue(d gateway.Document) (map[string]any, error) {
	fields, err := gateway.NormalizeFields(d.Fields)
	if err != nil {
		return nil, fmt.Errorf("normalize document %s: %w", d.ID, err)
	}
	return map[string]any{keyID: d.ID, keyFields: fields}, nil
}

func parseDocument(m map[string]any) (gateway.Document, error) {
	doc := gateway.Document{ID: getString(m, keyID), Fields: map[string]any{}}
	if raw, ok := m[keyFields]; ok && raw != nil {
		fields, ok := raw.(map[string]any)
		if !ok {
			return gateway.Document{}, fmt.Errorf("document %s: fields must be an object", doc.ID)
		}
		doc.Fields = fields
	}
	return doc, nil
}

func putString(m map[string]any, key, v string) {
	if v != "" {
		m[key] = v
	}
}

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
