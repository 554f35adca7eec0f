package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, остатки списаны, оплаты ещё нет. Начальный статус.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusPaid — оплата подтверждена.
	OrderStatusPaid OrderStatus = "PAID"
	// OrderStatusProcessing — заказ собирается на складе.
	OrderStatusProcessing OrderStatus = "PROCESSING"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusDelivered — заказ получен покупателем.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusCancelled — заказ отменён, остатки возвращены на склад.
	OrderStatusCancelled OrderStatus = "CANCELLED"
	// OrderStatusRefunded — деньги возвращены покупателю.
	OrderStatusRefunded OrderStatus = "REFUNDED"
)

// OrderStatuses перечисляет все допустимые статусы в порядке жизненного цикла.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// Valid проверяет, что статус входит в перечисление.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseOrderStatus разбирает статус без учёта регистра и окружающих пробелов.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// PaymentStatus — производное представление статуса оплаты для старых клиентов.
func (s OrderStatus) PaymentStatus() string {
	switch s {
	case OrderStatusPending:
		return "PENDING"
	case OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return "PAID"
	case OrderStatusCancelled:
		return "CANCELLED"
	case OrderStatusRefunded:
		return "REFUNDED"
	default:
		return "UNKNOWN"
	}
}

// ShippingStatus — производное представление статуса доставки.
func (s OrderStatus) ShippingStatus() string {
	switch s {
	case OrderStatusPending, OrderStatusPaid:
		return "PENDING"
	case OrderStatusProcessing:
		return "PROCESSING"
	case OrderStatusShipped:
		return "SHIPPED"
	case OrderStatusDelivered:
		return "DELIVERED"
	case OrderStatusCancelled:
		return "CANCELLED"
	case OrderStatusRefunded:
		return "RETURNED"
	default:
		return "UNKNOWN"
	}
}

// Order — заголовок заказа. После создания меняется только статус.
type Order struct {
	ID        int64
	UserID    int64
	AddressID int64
	Status    OrderStatus
	CreatedAt time.Time
	// UpdatedAt обновляется при каждой смене статуса.
	UpdatedAt time.Time
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	// Amount — количество единиц товара, всегда > 0.
	Amount int
	// Value — цена за единицу на момент создания заказа. Не пересчитывается
	// при изменении цены товара.
	Value decimal.Decimal
}

// TotalValue возвращает стоимость позиции: value * amount.
func (i OrderItem) TotalValue() decimal.Decimal {
	return i.Value.Mul(decimal.NewFromInt(int64(i.Amount)))
}

// OrderTotal суммирует стоимость позиций по зафиксированным ценам.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalValue())
	}
	return total
}

// OrderWithTotal — заказ вместе с позициями и вычисленной суммой.
type OrderWithTotal struct {
	Order
	Items []OrderItem
	Total decimal.Decimal
}

// NewOrderWithTotal собирает агрегат и сразу считает сумму.
func NewOrderWithTotal(order Order, items []OrderItem) OrderWithTotal {
	return OrderWithTotal{
		Order: order,
		Items: items,
		Total: OrderTotal(items),
	}
}
