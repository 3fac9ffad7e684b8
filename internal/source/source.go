// Package source reads the entity lists the console works on, either from
// pages rendered by the admin backend or from in-memory fixtures.
package source

import (
	"context"
	"slices"
	"sync"
)

// Repository lists the current snapshot of one kind of entity.
type Repository[T any] interface {
	ListEntities(ctx context.Context) ([]T, error)
}

// MemoryRepository serves a fixed slice of entities.
type MemoryRepository[T any] struct {
	mu    sync.RWMutex
	items []T
}

// NewMemoryRepository creates a repository holding a copy of items.
func NewMemoryRepository[T any](items []T) *MemoryRepository[T] {
	return &MemoryRepository[T]{items: slices.Clone(items)}
}

// ListEntities returns a copy of the stored entities.
func (m *MemoryRepository[T]) ListEntities(ctx context.Context) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.items), nil
}

// Replace swaps the stored entities, standing in for a server re-render.
func (m *MemoryRepository[T]) Replace(items []T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = slices.Clone(items)
}

// FuncRepository adapts a function to the Repository interface.
type FuncRepository[T any] func(ctx context.Context) ([]T, error)

// ListEntities calls f.
func (f FuncRepository[T]) ListEntities(ctx context.Context) ([]T, error) {
	return f(ctx)
}
