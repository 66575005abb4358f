package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("entity not found")
	ErrDuplicate = errors.New("entity already exists")
)

// Anything persisted in a named collection
type Entity interface {
	EntityID() string
}

type Filter func(Entity) bool

// Persistence surface consumed by handlers and the aggregation engine.
// Find and FindBy return rows in original insertion order; the FIFO
// withdrawal matcher depends on that. Implementations must give
// read-your-writes consistency within one batch.
type Store interface {
	Get(ctx context.Context, kind, id string) (Entity, error)
	Find(ctx context.Context, kind string) ([]Entity, error)
	FindBy(ctx context.Context, kind string, match Filter) ([]Entity, error)
	Insert(ctx context.Context, kind string, rows ...Entity) error
	Save(ctx context.Context, kind string, rows ...Entity) error
}

// GetAs fetches one entity and asserts its concrete type
func GetAs[T Entity](ctx context.Context, s Store, kind, id string) (T, error) {
	var zero T

	e, err := s.Get(ctx, kind, id)
	if err != nil {
		return zero, err
	}

	typed, ok := e.(T)
	if !ok {
		return zero, fmt.Errorf("collection %s holds %T, want %T", kind, e, zero)
	}
	return typed, nil
}

// FindByAs filters a collection and asserts row types, insertion order kept
func FindByAs[T Entity](ctx context.Context, s Store, kind string, match func(T) bool) ([]T, error) {
	rows, err := s.FindBy(ctx, kind, func(e Entity) bool {
		typed, ok := e.(T)
		return ok && match(typed)
	})
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(rows))
	for _, e := range rows {
		typed, ok := e.(T)
		if !ok {
			return nil, fmt.Errorf("collection %s holds %T", kind, e)
		}
		out = append(out, typed)
	}
	return out, nil
}

// FindAs returns a whole collection typed, insertion order kept
func FindAs[T Entity](ctx context.Context, s Store, kind string) ([]T, error) {
	return FindByAs[T](ctx, s, kind, func(T) bool { return true })
}
