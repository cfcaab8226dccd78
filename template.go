package fontdata

import (
	"context"
	"fmt"
	"sync"
)

// NativeFontHandle locates a local font for platform font APIs.
type NativeFontHandle struct {
	Path  string
	Index int
}

// Template is a handle to one font's bytes. The bytes are loaded lazily on
// first use and then held by the template for as long as it is alive.
//
// A Template is safe for concurrent use.
type Template struct {
	id    FontID
	store *Store

	mu   sync.RWMutex
	data *Data
}

type templateOptions struct {
	store *Store
	data  []byte
	set   bool
}

// TemplateOption configures a Template.
type TemplateOption func(*templateOptions)

// WithTemplateStore sets the store a template loads through.
// Templates use Default() otherwise.
func WithTemplateStore(s *Store) TemplateOption {
	return func(o *templateOptions) {
		o.store = s
	}
}

// WithData supplies the font bytes up front. The bytes are inserted into
// the template's store under the font's resource, so other templates for
// the same resource share them.
func WithData(b []byte) TemplateOption {
	return func(o *templateOptions) {
		o.data = b
		o.set = true
	}
}

// NewTemplate creates a template for id.
func NewTemplate(id FontID, opts ...TemplateOption) *Template {
	var o templateOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = Default()
	}

	t := &Template{id: id, store: o.store}
	if o.set {
		t.data = o.store.Insert(id.Resource(), o.data)
	}
	return t
}

// Identifier returns the template's font identifier.
func (t *Template) Identifier() FontID { return t.id }

// Bytes returns the font bytes, loading them through the store if the
// template does not hold them yet.
//
// Web font templates must be created with WithData, or have their bytes
// inserted into the store beforehand.
func (t *Template) Bytes(ctx context.Context) (*Data, error) {
	if d, ok := t.BytesIfInMemory(); ok {
		return d, nil
	}

	d, err := t.store.GetOrLoad(ctx, t.id.Resource())
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.data == nil {
		t.data = d
	}
	return t.data, nil
}

// BytesIfInMemory returns the bytes only if this template already holds
// them. It never touches the store.
func (t *Template) BytesIfInMemory() (*Data, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.data, t.data != nil
}

// NativeHandle returns the platform handle for a local font. Web fonts have
// no native handle.
func (t *Template) NativeHandle() (NativeFontHandle, bool) {
	local, ok := t.id.Local()
	if !ok {
		return NativeFontHandle{}, false
	}
	return NativeFontHandle{Path: local.Path, Index: 0}, true
}

// String implements fmt.Stringer.
func (t *Template) String() string {
	d, ok := t.BytesIfInMemory()
	if !ok {
		return fmt.Sprintf("Template{%s, not loaded}", t.id)
	}
	return fmt.Sprintf("Template{%s, %s}", t.id, d)
}
