// Package memory — хранилище в памяти процесса для локального запуска и тестов.
// Данные теряются при перезапуске.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

// collection — потокобезопасная таблица с монотонной выдачей идентификаторов.
type collection[T any] struct {
	mu     sync.RWMutex
	name   string
	items  map[int64]T
	lastID int64
	id     func(T) int64
	withID func(T, int64) T
	clone  func(T) T
}

func newCollection[T any](name string, id func(T) int64, withID func(T, int64) T) *collection[T] {
	return &collection[T]{
		name:   name,
		items:  make(map[int64]T),
		id:     id,
		withID: withID,
	}
}

// copyOf отдаёт копию, чтобы вызывающий не менял сохранённые данные через указатели.
func (c *collection[T]) copyOf(v T) T {
	if c.clone == nil {
		return v
	}
	return c.clone(v)
}

func (c *collection[T]) Create(_ context.Context, entity T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insertLocked(entity), nil
}

func (c *collection[T]) insertLocked(entity T) T {
	c.lastID++
	entity = c.withID(c.copyOf(entity), c.lastID)
	c.items[c.lastID] = entity
	return c.copyOf(entity)
}

func (c *collection[T]) Update(_ context.Context, entity T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.id(entity)
	if _, ok := c.items[id]; !ok {
		var zero T
		return zero, fmt.Errorf("update %s %d: %w", c.name, id, domain.ErrNotFound)
	}
	c.items[id] = c.copyOf(entity)
	return c.copyOf(entity), nil
}

func (c *collection[T]) Get(_ context.Context, id int64) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entity, ok := c.items[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("get %s %d: %w", c.name, id, domain.ErrNotFound)
	}
	return c.copyOf(entity), nil
}

func (c *collection[T]) List(_ context.Context) ([]T, error) {
	return c.filter(func(T) bool { return true }), nil
}

func (c *collection[T]) Delete(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	return nil
}

// filter возвращает подходящие записи в порядке идентификаторов.
func (c *collection[T]) filter(keep func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]T, 0, len(c.items))
	for _, entity := range c.items {
		if keep(entity) {
			result = append(result, c.copyOf(entity))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return c.id(result[i]) < c.id(result[j])
	})
	return result
}
