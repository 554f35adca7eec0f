package orders

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

// AddressInput выбирает адрес доставки: существующий по id или новый.
// Если заданы оба, используется существующий.
type AddressInput struct {
	ExistingID *int64
	New        *domain.AddressFields
}

// ItemRequest — запрошенная позиция заказа.
type ItemRequest struct {
	ProductID int64
	Amount    int
}

// CreateOrderRequest — входные данные CreateOrder.
type CreateOrderRequest struct {
	UserID  int64
	Address AddressInput
	Items   []ItemRequest
}

// plannedLine — проверенная позиция, готовая к записи.
type plannedLine struct {
	productID int64
	amount    int
}

// CreateOrder проверяет пользователя, адрес и все позиции по текущим остаткам,
// затем создаёт заказ в статусе PENDING, его позиции и списывает остатки.
//
// Ни одна запись не выполняется, пока не прошли все проверки. Новый адрес
// сохраняется только после проверки позиций. Повторяющиеся товары в запросе
// проверяются по суммарному количеству.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (_ domain.OrderWithTotal, err error) {
	finish := s.observe("create_order")
	defer finish(&err)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	logger := s.logger.WithField("user_id", req.UserID)

	if _, err := s.users.Get(ctx, req.UserID); err != nil {
		if domain.IsNotFound(err) {
			return domain.OrderWithTotal{}, fmt.Errorf("%w: %d", domain.ErrUserNotFound, req.UserID)
		}
		return domain.OrderWithTotal{}, fmt.Errorf("get user %d: %w", req.UserID, err)
	}

	addressID, newAddress, err := s.resolveAddress(ctx, req.UserID, req.Address)
	if err != nil {
		logger.WithError(err).Debug("address rejected")
		return domain.OrderWithTotal{}, err
	}

	lines, err := s.checkItems(ctx, req.Items)
	if err != nil {
		logger.WithError(err).Debug("order items rejected")
		return domain.OrderWithTotal{}, err
	}

	if newAddress != nil {
		created, err := s.addresses.Create(ctx, domain.Address{UserID: req.UserID, AddressFields: *newAddress})
		if err != nil {
			return domain.OrderWithTotal{}, fmt.Errorf("create address: %w", err)
		}
		addressID = created.ID
		logger.WithField("address_id", created.ID).Debug("inline address created")
	}

	now := s.now()
	order, err := s.orders.Create(ctx, domain.Order{
		UserID:    req.UserID,
		AddressID: addressID,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.OrderWithTotal{}, fmt.Errorf("create order: %w", err)
	}
	logger = logger.WithField("order_id", order.ID)

	items := make([]domain.OrderItem, 0, len(lines))
	units := 0
	for _, line := range lines {
		item, err := s.placeLine(ctx, order.ID, line)
		if err != nil {
			logger.WithError(err).WithFields(log.Fields{
				"product_id":    line.productID,
				"items_written": len(items),
				"items_total":   len(lines),
			}).Error("order persisted partially")
			return domain.OrderWithTotal{}, fmt.Errorf("%w: order %d: %w", domain.ErrOrderIncomplete, order.ID, err)
		}
		items = append(items, item)
		units += line.amount
	}

	result := domain.NewOrderWithTotal(order, items)
	if s.metrics != nil {
		s.metrics.RecordOrderCreated(units)
	}
	s.record(ctx, order, domain.TimelineOrderCreated, domain.EventOrderCreated, "", map[string]any{
		"items": len(items),
		"total": result.Total.StringFixed(2),
	})
	logger.WithFields(log.Fields{
		"items": len(items),
		"total": result.Total.StringFixed(2),
	}).Info("order created")
	return result, nil
}

// resolveAddress возвращает id существующего адреса либо проверенные поля
// нового. Новый адрес здесь не сохраняется.
func (s *Service) resolveAddress(ctx context.Context, userID int64, in AddressInput) (int64, *domain.AddressFields, error) {
	switch {
	case in.ExistingID != nil:
		addr, err := s.addresses.Get(ctx, *in.ExistingID)
		if err != nil {
			if domain.IsNotFound(err) {
				return 0, nil, fmt.Errorf("%w: %d", domain.ErrAddressNotFound, *in.ExistingID)
			}
			return 0, nil, fmt.Errorf("get address %d: %w", *in.ExistingID, err)
		}
		if !addr.BelongsTo(userID) {
			return 0, nil, fmt.Errorf("%w: address %d, user %d", domain.ErrAddressOwnership, addr.ID, userID)
		}
		return addr.ID, nil, nil
	case in.New != nil:
		fields := in.New.Normalize()
		if err := domain.NewValidationError(fields.Validate()); err != nil {
			return 0, nil, err
		}
		return 0, &fields, nil
	default:
		return 0, nil, domain.ErrAddressRequired
	}
}

// checkItems проверяет все позиции по снимку остатков до любой записи.
func (s *Service) checkItems(ctx context.Context, requested []ItemRequest) ([]plannedLine, error) {
	if len(requested) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	snapshot := make(map[int64]domain.Product, len(requested))
	reserved := make(map[int64]int, len(requested))
	lines := make([]plannedLine, 0, len(requested))

	for _, item := range requested {
		product, ok := snapshot[item.ProductID]
		if !ok {
			fetched, err := s.products.Get(ctx, item.ProductID)
			if err != nil {
				if domain.IsNotFound(err) {
					return nil, fmt.Errorf("%w: product %d not found", domain.ErrProductUnavailable, item.ProductID)
				}
				return nil, fmt.Errorf("get product %d: %w", item.ProductID, err)
			}
			product = fetched
			snapshot[item.ProductID] = product
		}
		if product.IsDeleted() {
			return nil, fmt.Errorf("%w: product %d is deleted", domain.ErrProductUnavailable, product.ID)
		}
		if item.Amount <= 0 {
			return nil, fmt.Errorf("%w: product %d, amount %d", domain.ErrInvalidQuantity, product.ID, item.Amount)
		}

		total := reserved[product.ID] + item.Amount
		if product.AvailableAmount < total {
			return nil, &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   product.AvailableAmount,
				Requested:   total,
			}
		}
		reserved[product.ID] = total
		lines = append(lines, plannedLine{productID: product.ID, amount: item.Amount})
	}
	return lines, nil
}

// placeLine записывает позицию с текущей ценой товара и сразу списывает остаток.
// Товар перечитывается, чтобы не затереть правки, сделанные после проверки.
func (s *Service) placeLine(ctx context.Context, orderID int64, line plannedLine) (domain.OrderItem, error) {
	product, err := s.products.Get(ctx, line.productID)
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("reload product %d: %w", line.productID, err)
	}
	if product.AvailableAmount < line.amount {
		return domain.OrderItem{}, &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.AvailableAmount,
			Requested:   line.amount,
		}
	}

	item, err := s.items.Create(ctx, domain.OrderItem{
		OrderID:   orderID,
		ProductID: product.ID,
		Amount:    line.amount,
		Value:     product.Value,
	})
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("create item for product %d: %w", product.ID, err)
	}

	product.AvailableAmount -= line.amount
	if _, err := s.products.Update(ctx, product); err != nil {
		return item, fmt.Errorf("decrement stock of product %d: %w", product.ID, err)
	}
	return item, nil
}
