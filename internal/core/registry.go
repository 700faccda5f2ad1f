package core

import (
	"fmt"
)

// Registry is the immutable set of table schemas a Service works with.
// Tables keep the order they were registered in.
type Registry struct {
	order  []string
	tables map[string]TableSchema
}

// NewRegistry builds a registry from schemas.
// It rejects duplicate names, tables without columns and duplicate columns.
func NewRegistry(schemas ...TableSchema) (*Registry, error) {
	r := &Registry{tables: make(map[string]TableSchema, len(schemas))}

	for _, s := range schemas {
		if s.Name == "" {
			return nil, fmt.Errorf("table schema without a name")
		}
		if _, exists := r.tables[s.Name]; exists {
			return nil, fmt.Errorf("table already registered: %s", s.Name)
		}
		if len(s.Columns) == 0 {
			return nil, fmt.Errorf("table %s has no columns", s.Name)
		}
		seen := make(map[string]bool, len(s.Columns))
		for _, c := range s.Columns {
			norm := NormalizeHeader(c.Name)
			if norm == "" || seen[norm] {
				return nil, fmt.Errorf("table %s: duplicate or empty column %q", s.Name, c.Name)
			}
			seen[norm] = true
		}

		cols := make([]Column, len(s.Columns))
		copy(cols, s.Columns)
		s.Columns = cols

		r.tables[s.Name] = s
		r.order = append(r.order, s.Name)
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(schemas ...TableSchema) *Registry {
	r, err := NewRegistry(schemas...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns a schema by table name.
func (r *Registry) Get(name string) (TableSchema, bool) {
	s, ok := r.tables[name]
	return s, ok
}

// Lookup is Get returning ErrInvalidTable for unknown names.
func (r *Registry) Lookup(name string) (TableSchema, error) {
	if name == "" {
		return TableSchema{}, fmt.Errorf("%w: table name is required", ErrInvalidTable)
	}
	s, ok := r.tables[name]
	if !ok {
		return TableSchema{}, fmt.Errorf("%w: %s", ErrInvalidTable, name)
	}
	return s, nil
}

// Names returns table names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns every schema in registration order.
func (r *Registry) All() []TableSchema {
	out := make([]TableSchema, len(r.order))
	for i, name := range r.order {
		out[i] = r.tables[name]
	}
	return out
}

// Len returns the number of registered tables.
func (r *Registry) Len() int {
	return len(r.order)
}
