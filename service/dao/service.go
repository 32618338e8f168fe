package dao

import (
	"context"
)

// Service is the repository contract consumed by the engine. Implementations
// must provide atomic read-modify-write semantics for a given key.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
