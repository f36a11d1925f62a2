// Package schema defines the closed set of disclosable fields. The schema is
// static configuration: it is validated once at construction and never mutated
// afterwards, so masks and stored records can index against stable ordinals.
package schema

import (
	"strings"

	dErrors "veil/pkg/domain-errors"
)

// FieldID is the dense ordinal position of a field within the schema. Ordinals
// are assigned in declaration order and are stable for the life of the
// process; they are the index contract shared by masks and results.
type FieldID int

// DefaultFields is the field set shipped with the service. Deployments may
// override it at startup via configuration; the registry itself stays
// immutable either way.
var DefaultFields = []string{
	"name",
	"age",
	"email",
	"address",
	"phone",
	"nationality",
	"healthRecords",
	"financialRecords",
}

// Registry is the bidirectional lookup between field names and ordinals.
// Invariant: names and ordinals are a bijection; both directions are validated
// so an out-of-range ordinal or renamed field fails fast instead of silently
// reading an adjacent slot.
type Registry struct {
	names    []string
	ordinals map[string]FieldID
}

// New builds a Registry from the given field names in ordinal order.
// Construction fails on an empty set, blank names, or duplicates: a broken
// schema must not make it into a running service.
func New(fields []string) (*Registry, error) {
	if len(fields) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "schema must define at least one field")
	}
	r := &Registry{
		names:    make([]string, len(fields)),
		ordinals: make(map[string]FieldID, len(fields)),
	}
	for i, name := range fields {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "schema field name cannot be empty")
		}
		if _, dup := r.ordinals[name]; dup {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "duplicate schema field: "+name)
		}
		r.names[i] = name
		r.ordinals[name] = FieldID(i)
	}
	return r, nil
}

// MustNew is New for known-good literal schemas, such as DefaultFields.
func MustNew(fields []string) *Registry {
	r, err := New(fields)
	if err != nil {
		panic(err)
	}
	return r
}

// Ordinal returns the dense index for a field name.
//
// Errors: CodeUnknownField when the name is not part of the schema.
func (r *Registry) Ordinal(name string) (FieldID, error) {
	id, ok := r.ordinals[name]
	if !ok {
		return 0, dErrors.New(dErrors.CodeUnknownField, "unknown field: "+name)
	}
	return id, nil
}

// Name returns the field name for an ordinal.
//
// Errors: CodeUnknownField when the ordinal is outside the schema's range.
func (r *Registry) Name(id FieldID) (string, error) {
	if id < 0 || int(id) >= len(r.names) {
		return "", dErrors.New(dErrors.CodeUnknownField, "field ordinal out of range")
	}
	return r.names[id], nil
}

// Contains reports whether name is part of the schema.
func (r *Registry) Contains(name string) bool {
	_, ok := r.ordinals[name]
	return ok
}

// Cardinality returns the number of defined fields. Masks must have exactly
// this length.
func (r *Registry) Cardinality() int {
	return len(r.names)
}

// Fields returns the field names in ascending ordinal order. The slice is a
// copy; callers cannot mutate the schema through it.
func (r *Registry) Fields() []string {
	return append([]string(nil), r.names...)
}
