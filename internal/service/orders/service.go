// Package orders реализует создание и отмену заказов с учётом остатков товара
// поверх абстрактного хранилища.
//
// Проверки предусловий выполняются полностью до первой записи. Сами записи
// не атомарны: хранилище не даёт транзакции на «заказ + позиции + остатки»,
// поэтому сбой после создания заказа возвращается как ErrOrderIncomplete,
// а сбой посреди возврата остатков при отмене как ErrCancelIncomplete.
// Компенсирующего отката нет.
package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
	"github.com/vladislavdragonenkov/ordermgmt/internal/metrics"
)

// Service — сценарии жизненного цикла заказа.
type Service struct {
	users     domain.UserRepository
	addresses domain.AddressRepository
	products  domain.ProductRepository
	orders    domain.OrderRepository
	items     domain.OrderItemRepository
	timeline  domain.TimelineRepository

	publisher domain.EventPublisher
	metrics   *metrics.OrderMetrics
	policy    domain.CancelPolicy
	clock     func() time.Time
	logger    *log.Entry

	// writeMu сериализует сценарии, меняющие остатки и статусы, внутри процесса.
	writeMu sync.Mutex
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics включает prometheus-метрики.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPublisher задаёт получателя внешних событий заказа.
func WithPublisher(p domain.EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithCancelPolicy задаёт, из каких статусов разрешена отмена.
func WithCancelPolicy(p domain.CancelPolicy) Option {
	return func(s *Service) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService собирает сервис поверх выбранного при старте хранилища.
func NewService(storage domain.Storage, opts ...Option) *Service {
	s := &Service{
		users:     storage.Users,
		addresses: storage.Addresses,
		products:  storage.Products,
		orders:    storage.Orders,
		items:     storage.OrderItems,
		timeline:  storage.Timeline,
		policy:    domain.CancelPolicyPending,
		clock:     time.Now,
		logger:    log.New().WithField("component", "orders"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy возвращает действующую политику отмены.
func (s *Service) Policy() domain.CancelPolicy {
	return s.policy
}

// now возвращает время с точностью до микросекунд, чтобы значения
// одинаково переживали запись в оба бэкенда.
func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

// GetOrderByID возвращает заголовок заказа или ErrOrderNotFound.
func (s *Service) GetOrderByID(ctx context.Context, orderID int64) (domain.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Order{}, fmt.Errorf("%w: %d", domain.ErrOrderNotFound, orderID)
		}
		return domain.Order{}, fmt.Errorf("get order %d: %w", orderID, err)
	}
	return order, nil
}

// GetOrdersByUser возвращает заказы пользователя, новые первыми.
func (s *Service) GetOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders of user %d: %w", userID, err)
	}
	return orders, nil
}

// ListOrders возвращает все заказы в порядке идентификаторов.
func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetOrderItems возвращает позиции заказа. Позиции отменённого заказа
// сохраняются как история.
func (s *Service) GetOrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	if _, err := s.GetOrderByID(ctx, orderID); err != nil {
		return nil, err
	}
	items, err := s.items.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list items of order %d: %w", orderID, err)
	}
	return items, nil
}

// CalculateOrderTotal пересчитывает сумму заказа по зафиксированным ценам позиций.
// Результат не кэшируется.
func (s *Service) CalculateOrderTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	items, err := s.GetOrderItems(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.OrderTotal(items), nil
}

// GetOrderDetails возвращает заказ с позициями и суммой.
func (s *Service) GetOrderDetails(ctx context.Context, orderID int64) (domain.OrderWithTotal, error) {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return domain.OrderWithTotal{}, err
	}
	items, err := s.items.ListByOrder(ctx, orderID)
	if err != nil {
		return domain.OrderWithTotal{}, fmt.Errorf("list items of order %d: %w", orderID, err)
	}
	return domain.NewOrderWithTotal(order, items), nil
}

// Timeline возвращает историю событий заказа.
func (s *Service) Timeline(ctx context.Context, orderID int64) ([]domain.TimelineEvent, error) {
	if _, err := s.GetOrderByID(ctx, orderID); err != nil {
		return nil, err
	}
	if s.timeline == nil {
		return []domain.TimelineEvent{}, nil
	}
	events, err := s.timeline.List(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list timeline of order %d: %w", orderID, err)
	}
	return events, nil
}

// failureReason превращает ошибку в метку метрики.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrAddressNotFound):
		return "address_not_found"
	case errors.Is(err, domain.ErrAddressOwnership):
		return "address_ownership"
	case errors.Is(err, domain.ErrAddressRequired):
		return "address_required"
	case errors.Is(err, domain.ErrEmptyOrder):
		return "empty_order"
	case errors.Is(err, domain.ErrProductUnavailable):
		return "product_unavailable"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrOrderIncomplete):
		return "incomplete"
	case errors.Is(err, domain.ErrCancelIncomplete):
		return "cancel_incomplete"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, domain.ErrIllegalCancellation):
		return "illegal_cancellation"
	case errors.Is(err, domain.ErrInvalidStatus):
		return "invalid_status"
	default:
		return "storage"
	}
}

func (s *Service) observe(operation string) func(err *error) {
	if s.metrics == nil {
		return func(*error) {}
	}
	done := s.metrics.ObserveOperation(operation)
	return func(err *error) {
		done()
		if *err != nil {
			s.metrics.RecordFailure(operation, failureReason(*err))
		}
	}
}
