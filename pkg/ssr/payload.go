package ssr

import (
	"encoding/json"
	"fmt"
)

// Request describes one component render: the registered component
// name, its props, and pre-rendered slot markup keyed by slot name.
// A Request is immutable once constructed and lives for one call.
type Request struct {
	Name  string            `json:"name"`
	Props map[string]any    `json:"props"`
	Slots map[string]string `json:"slots"`
}

// NewRequest builds a render request. The component name must be
// non-empty; it is forwarded as-is, existence is checked by the
// rendering process.
func NewRequest(name string, props map[string]any, slots map[string]string) (*Request, error) {
	if name == "" {
		return nil, fmt.Errorf("ssr: component name is empty")
	}
	if props == nil {
		props = map[string]any{}
	}
	if slots == nil {
		slots = map[string]string{}
	}
	return &Request{Name: name, Props: props, Slots: slots}, nil
}

// Encode serializes the request to its canonical JSON wire form
// {"name","props","slots"}. Values that encoding/json cannot represent
// fail here; that is a caller-side precondition violation and the
// serializer's error is returned unchanged.
func (r *Request) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// Args returns the request as the worker-pool argument list
// [name, props, slots].
func (r *Request) Args() []any {
	return []any{r.Name, r.Props, r.Slots}
}
