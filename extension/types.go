package extension

import (
	"reflect"

	"github.com/viant/x"
)

// Types is a registry of named Go types: step input/output types and branch
// event payload types are registered here and referenced by name from
// workflow declarations and Suspend results.
type Types struct {
	x.Registry
}

// Register adds a data type to the registry.
func (t *Types) Register(dataType *x.Type) {
	t.Registry.Register(dataType)
}

// Lookup returns a registered type by name or nil.
func (t *Types) Lookup(name string) *x.Type {
	return t.Registry.Lookup(name)
}

// TypeOf returns the reflect.Type registered under name, or nil.
func (t *Types) TypeOf(name string) reflect.Type {
	if aType := t.Registry.Lookup(name); aType != nil {
		return aType.Type
	}
	return nil
}

// NewTypes creates a type registry.
func NewTypes() *Types {
	return &Types{Registry: *x.NewRegistry()}
}
