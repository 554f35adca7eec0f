package orders

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

// CancelOrder возвращает на склад количество каждой позиции и переводит заказ
// в CANCELLED. Разрешено только из статусов, которые допускает политика отмены.
// Позиции заказа не меняются.
func (s *Service) CancelOrder(ctx context.Context, orderID int64) (err error) {
	finish := s.observe("cancel_order")
	defer finish(&err)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !s.policy.AllowsCancel(order.Status) {
		return &domain.IllegalCancellationError{OrderID: order.ID, Status: order.Status}
	}

	logger := s.logger.WithFields(log.Fields{"order_id": order.ID, "user_id": order.UserID})

	items, err := s.items.ListByOrder(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("list items of order %d: %w", order.ID, err)
	}

	units := 0
	for i, item := range items {
		if err := s.restoreStock(ctx, item); err != nil {
			logger.WithError(err).WithFields(log.Fields{
				"product_id":     item.ProductID,
				"items_restored": i,
				"items_total":    len(items),
			}).Error("stock restoration interrupted")
			if i == 0 {
				return fmt.Errorf("cancel order %d: %w", order.ID, err)
			}
			return fmt.Errorf("%w: order %d: %w", domain.ErrCancelIncomplete, order.ID, err)
		}
		units += item.Amount
	}

	previous := order.Status
	order.Status = domain.OrderStatusCancelled
	order.UpdatedAt = s.now()
	if _, err := s.orders.Update(ctx, order); err != nil {
		logger.WithError(err).Error("stock restored but order status not updated")
		if len(items) == 0 {
			return fmt.Errorf("mark order %d cancelled: %w", order.ID, err)
		}
		return fmt.Errorf("%w: mark order %d cancelled: %w", domain.ErrCancelIncomplete, order.ID, err)
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCanceled(units)
		s.metrics.RecordStatusChange(string(order.Status))
	}
	s.record(ctx, order, domain.TimelineOrderCanceled, domain.EventOrderCanceled, "cancelled from "+string(previous), map[string]any{
		"previous_status": string(previous),
		"units_restored":  units,
	})
	logger.WithField("units_restored", units).Info("order cancelled")
	return nil
}

func (s *Service) restoreStock(ctx context.Context, item domain.OrderItem) error {
	product, err := s.products.Get(ctx, item.ProductID)
	if err != nil {
		return fmt.Errorf("get product %d: %w", item.ProductID, err)
	}
	product.AvailableAmount += item.Amount
	if _, err := s.products.Update(ctx, product); err != nil {
		return fmt.Errorf("restore stock of product %d: %w", item.ProductID, err)
	}
	return nil
}

// UpdateOrderStatus перезаписывает статус любым значением из перечисления.
// Переходы не проверяются, остатки не меняются. Для отмены с возвратом
// остатков используется CancelOrder.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (_ domain.Order, err error) {
	finish := s.observe("update_status")
	defer finish(&err)

	if !status.Valid() {
		return domain.Order{}, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	previous := order.Status
	order.Status = status
	order.UpdatedAt = s.now()
	updated, err := s.orders.Update(ctx, order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update status of order %d: %w", order.ID, err)
	}

	logger := s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"from":     previous,
		"to":       status,
	})
	if status == domain.OrderStatusCancelled && previous != domain.OrderStatusCancelled {
		logger.Warn("order marked cancelled without stock restoration")
	}

	if s.metrics != nil {
		s.metrics.RecordStatusChange(string(status))
	}
	s.record(ctx, updated, domain.TimelineOrderStatusChanged, domain.EventOrderStatusChanged, "from "+string(previous), map[string]any{
		"previous_status": string(previous),
	})
	logger.Info("order status updated")
	return updated, nil
}
