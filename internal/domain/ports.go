package domain

import "context"

// Repository — единый CRUD-контракт для сущности T. Реализуется файловым
// и реляционным бэкендами.
type Repository[T any] interface {
	// Create назначает идентификатор и возвращает сохранённую сущность.
	Create(ctx context.Context, entity T) (T, error)
	// Update перезаписывает сущность; ErrNotFound, если идентификатора нет.
	Update(ctx context.Context, entity T) (T, error)
	// Get возвращает сущность или ErrNotFound.
	Get(ctx context.Context, id int64) (T, error)
	// List возвращает все записи в порядке идентификаторов.
	List(ctx context.Context) ([]T, error)
	// Delete удаляет запись физически. Отсутствие записи не является ошибкой.
	Delete(ctx context.Context, id int64) error
}

// UserRepository хранит пользователей.
type UserRepository interface {
	Repository[User]
	// FindByEmail возвращает пользователя по email или ErrNotFound.
	FindByEmail(ctx context.Context, email string) (User, error)
}

// AddressRepository хранит адреса доставки.
type AddressRepository interface {
	Repository[Address]
	ListByUser(ctx context.Context, userID int64) ([]Address, error)
}

// ProductRepository хранит товары, включая мягко удалённые.
type ProductRepository interface {
	Repository[Product]
}

// OrderRepository хранит заголовки заказов.
type OrderRepository interface {
	Repository[Order]
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	// ExistsByAddress сообщает, ссылается ли хоть один заказ на адрес.
	ExistsByAddress(ctx context.Context, addressID int64) (bool, error)
}

// OrderItemRepository хранит позиции заказов.
type OrderItemRepository interface {
	Repository[OrderItem]
	ListByOrder(ctx context.Context, orderID int64) ([]OrderItem, error)
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(ctx context.Context, event TimelineEvent) error
	List(ctx context.Context, orderID int64) ([]TimelineEvent, error)
}

// EventPublisher отправляет события заказа наружу.
type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// Storage собирает репозитории одного бэкенда. Выбирается один раз при старте.
type Storage struct {
	Users      UserRepository
	Addresses  AddressRepository
	Products   ProductRepository
	Orders     OrderRepository
	OrderItems OrderItemRepository
	Timeline   TimelineRepository
}
