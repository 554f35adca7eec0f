package memory

import (
	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

// Store — набор репозиториев в памяти.
type Store struct {
	storage domain.Storage
}

// New создаёт пустое хранилище.
func New() *Store {
	products := newCollection("product",
		func(p domain.Product) int64 { return p.ID },
		func(p domain.Product, id int64) domain.Product { p.ID = id; return p })
	products.clone = func(p domain.Product) domain.Product {
		if p.DeletedAt != nil {
			ts := *p.DeletedAt
			p.DeletedAt = &ts
		}
		return p
	}

	return &Store{storage: domain.Storage{
		Users: &userRepository{newCollection("user",
			func(u domain.User) int64 { return u.ID },
			func(u domain.User, id int64) domain.User { u.ID = id; return u })},
		Addresses: &addressRepository{newCollection("address",
			func(a domain.Address) int64 { return a.ID },
			func(a domain.Address, id int64) domain.Address { a.ID = id; return a })},
		Products: &productRepository{products},
		Orders: &orderRepository{newCollection("order",
			func(o domain.Order) int64 { return o.ID },
			func(o domain.Order, id int64) domain.Order { o.ID = id; return o })},
		OrderItems: &orderItemRepository{newCollection("order item",
			func(i domain.OrderItem) int64 { return i.ID },
			func(i domain.OrderItem, id int64) domain.OrderItem { i.ID = id; return i })},
		Timeline: &timelineRepository{events: make(map[int64][]domain.TimelineEvent)},
	}}
}

// Storage возвращает репозитории для сервисов.
func (s *Store) Storage() domain.Storage {
	return s.storage
}
