// Package repo exposes typed repositories for users, tokens and checks on top
// of any DocumentStore (the file store or DynamoDB).
package repo

import (
	"context"

	"github.com/go-api-flatfile/internal/pkg/keylock"
)

// DocumentStore is the persistence contract shared by every backend. Errors
// wrap the domain sentinels: ErrNotFound, ErrAlreadyExists, ErrEncoding,
// ErrStorage and ErrInvalidKey.
type DocumentStore interface {
	Create(ctx context.Context, collection, key string, doc any) error
	Read(ctx context.Context, collection, key string, out any) error
	Update(ctx context.Context, collection, key string, doc any) error
	Delete(ctx context.Context, collection, key string) error
	List(ctx context.Context, collection string) ([]string, error)
}

// collection binds a DocumentStore to one collection and document type.
type collection[T any] struct {
	store DocumentStore
	name  string
	locks keylock.Locker
}

func newCollection[T any](store DocumentStore, name string, locks keylock.Locker) collection[T] {
	if locks == nil {
		locks = keylock.Nop()
	}
	return collection[T]{store: store, name: name, locks: keylock.Scoped(locks, name)}
}

func (c collection[T]) get(ctx context.Context, key string) (*T, error) {
	var v T
	if err := c.store.Read(ctx, c.name, key, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c collection[T]) create(ctx context.Context, key string, v *T) error {
	return c.store.Create(ctx, c.name, key, v)
}

func (c collection[T]) update(ctx context.Context, key string, v *T) error {
	return c.store.Update(ctx, c.name, key, v)
}

func (c collection[T]) delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, c.name, key)
}

func (c collection[T]) list(ctx context.Context) ([]string, error) {
	return c.store.List(ctx, c.name)
}

// Lock serializes read-modify-write sequences on key. With the default
// no-op locker it returns immediately.
func (c collection[T]) Lock(key string) func() {
	return c.locks.Lock(key)
}
