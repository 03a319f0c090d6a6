// Package payload builds sparse wire documents from typed values.
//
// Every optional field is written through one rule table:
//
//	absent  (zero Opt, nil pointer)   -> key omitted
//	cleared (Clear[T]())              -> key present with nil
//	present (Some(v), non-nil pointer) -> key present with v
//
// A nil value reaching UpdateDocument removes the field remotely.
package payload

// Opt is an optional value with an explicit "cleared" state.
type Opt[T any] struct {
	val     T
	set     bool
	cleared bool
}

// Some returns a present Opt.
func Some[T any](v T) Opt[T] { return Opt[T]{val: v, set: true} }

// Clear returns an Opt that asks for the field to be removed.
func Clear[T any]() Opt[T] { return Opt[T]{cleared: true} }

// FromPtr maps nil to absent and a non-nil pointer to present.
func FromPtr[T any](p *T) Opt[T] {
	if p == nil {
		return Opt[T]{}
	}
	return Some(*p)
}

func (o Opt[T]) IsSet() bool     { return o.set }
func (o Opt[T]) IsCleared() bool { return o.cleared }
func (o Opt[T]) IsAbsent() bool  { return !o.set && !o.cleared }

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) { return o.val, o.set }

// Apply folds o into the pointer-typed field it targets: present replaces,
// cleared sets nil, absent keeps cur.
func (o Opt[T]) Apply(cur *T) *T {
	switch {
	case o.set:
		v := o.val
		return &v
	case o.cleared:
		return nil
	}
	return cur
}

// Doc is a wire document under construction.
type Doc map[string]any

func New() Doc { return Doc{} }

// Set writes a required field.
func (d Doc) Set(key string, v any) Doc {
	d[key] = v
	return d
}

// Put writes an optional field according to the rule table.
func Put[T any](d Doc, key string, o Opt[T]) Doc {
	switch {
	case o.set:
		d[key] = o.val
	case o.cleared:
		d[key] = nil
	}
	return d
}

// PutPtr writes p when it is non-nil and omits the key otherwise.
func PutPtr[T any](d Doc, key string, p *T) Doc {
	if p != nil {
		d[key] = *p
	}
	return d
}

// Merge copies every key of other into d.
func (d Doc) Merge(other Doc) Doc {
	for k, v := range other {
		d[k] = v
	}
	return d
}

// Has reports whether key is present, including as an explicit nil.
func (d Doc) Has(key string) bool {
	_, ok := d[key]
	return ok
}
