package execution

import (
	"context"
	"reflect"
)

var InstanceKey = KeyOf[*Instance]()
var SessionKey = KeyOf[*Session]()

// ContextValue returns the value of the provided type from the context.
func ContextValue[T any](ctx context.Context) T {
	key := KeyOf[T]()
	if value := ctx.Value(key); value != nil {
		return value.(T)
	}
	var t T
	return t
}

// KeyOf returns the reflect.Type of the provided type, used as context key.
func KeyOf[T any]() reflect.Type {
	var a T
	return reflect.TypeOf(a)
}
