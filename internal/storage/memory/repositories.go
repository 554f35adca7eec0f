package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

type userRepository struct {
	*collection[domain.User]
}

// Create проверяет уникальность email и вставляет запись под одной блокировкой.
func (r *userRepository) Create(_ context.Context, user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.User{}, fmt.Errorf("create user %q: %w", user.Email, domain.ErrEmailTaken)
		}
	}
	return r.insertLocked(user), nil
}

func (r *userRepository) FindByEmail(_ context.Context, email string) (domain.User, error) {
	found := r.filter(func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
	if len(found) == 0 {
		return domain.User{}, fmt.Errorf("find user by email: %w", domain.ErrNotFound)
	}
	return found[0], nil
}

type addressRepository struct {
	*collection[domain.Address]
}

func (r *addressRepository) ListByUser(_ context.Context, userID int64) ([]domain.Address, error) {
	return r.filter(func(a domain.Address) bool { return a.UserID == userID }), nil
}

type productRepository struct {
	*collection[domain.Product]
}

type orderRepository struct {
	*collection[domain.Order]
}

// ListByUser возвращает заказы пользователя, новые первыми.
func (r *orderRepository) ListByUser(_ context.Context, userID int64) ([]domain.Order, error) {
	result := r.filter(func(o domain.Order) bool { return o.UserID == userID })
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *orderRepository) ExistsByAddress(_ context.Context, addressID int64) (bool, error) {
	return len(r.filter(func(o domain.Order) bool { return o.AddressID == addressID })) > 0, nil
}

type orderItemRepository struct {
	*collection[domain.OrderItem]
}

func (r *orderItemRepository) ListByOrder(_ context.Context, orderID int64) ([]domain.OrderItem, error) {
	return r.filter(func(i domain.OrderItem) bool { return i.OrderID == orderID }), nil
}

// timelineRepository хранит события по заказам в порядке добавления.
type timelineRepository struct {
	mu     sync.RWMutex
	lastID int64
	events map[int64][]domain.TimelineEvent
}

func (r *timelineRepository) Append(_ context.Context, event domain.TimelineEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	event.ID = r.lastID
	r.events[event.OrderID] = append(r.events[event.OrderID], event)
	return nil
}

func (r *timelineRepository) List(_ context.Context, orderID int64) ([]domain.TimelineEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events[orderID]
	out := make([]domain.TimelineEvent, len(events))
	copy(out, events)
	return out, nil
}

var (
	_ domain.UserRepository      = (*userRepository)(nil)
	_ domain.AddressRepository   = (*addressRepository)(nil)
	_ domain.ProductRepository   = (*productRepository)(nil)
	_ domain.OrderRepository     = (*orderRepository)(nil)
	_ domain.OrderItemRepository = (*orderItemRepository)(nil)
	_ domain.TimelineRepository  = (*timelineRepository)(nil)
)
