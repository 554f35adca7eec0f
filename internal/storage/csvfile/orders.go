package csvfile

import (
	"context"
	"sort"
	"strconv"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

var orderCodec = codec[domain.Order]{
	name:   "orders",
	header: []string{"id", "user_id", "address_id", "order_status", "created_at", "updated_at"},
	encode: func(o domain.Order) []string {
		return []string{
			formatID(o.ID), formatID(o.UserID), formatID(o.AddressID), string(o.Status),
			formatTime(o.CreatedAt), formatTime(o.UpdatedAt),
		}
	},
	decode: func(rec []string) (domain.Order, error) {
		var p fieldParser
		o := domain.Order{
			ID:        p.int64("id", rec[0]),
			UserID:    p.int64("user_id", rec[1]),
			AddressID: p.int64("address_id", rec[2]),
			Status:    domain.OrderStatus(rec[3]),
			CreatedAt: p.time("created_at", rec[4]),
			UpdatedAt: p.time("updated_at", rec[5]),
		}
		if p.err == nil && !o.Status.Valid() {
			_, p.err = domain.ParseOrderStatus(rec[3])
		}
		return o, p.err
	},
	id:     func(o domain.Order) int64 { return o.ID },
	withID: func(o domain.Order, id int64) domain.Order { o.ID = id; return o },
}

var orderItemCodec = codec[domain.OrderItem]{
	name:   "order_items",
	header: []string{"id", "order_id", "product_id", "amount", "value"},
	encode: func(i domain.OrderItem) []string {
		return []string{
			formatID(i.ID), formatID(i.OrderID), formatID(i.ProductID),
			strconv.Itoa(i.Amount), i.Value.String(),
		}
	},
	decode: func(rec []string) (domain.OrderItem, error) {
		var p fieldParser
		i := domain.OrderItem{
			ID:        p.int64("id", rec[0]),
			OrderID:   p.int64("order_id", rec[1]),
			ProductID: p.int64("product_id", rec[2]),
			Amount:    p.int("amount", rec[3]),
			Value:     p.decimal("value", rec[4]),
		}
		return i, p.err
	},
	id:     func(i domain.OrderItem) int64 { return i.ID },
	withID: func(i domain.OrderItem, id int64) domain.OrderItem { i.ID = id; return i },
}

type orderRepository struct {
	repository[domain.Order]
}

// ListByUser возвращает заказы пользователя, новые первыми.
func (r *orderRepository) ListByUser(_ context.Context, userID int64) ([]domain.Order, error) {
	orders, err := r.table.filter(func(o domain.Order) bool { return o.UserID == userID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, nil
}

func (r *orderRepository) ExistsByAddress(_ context.Context, addressID int64) (bool, error) {
	orders, err := r.table.filter(func(o domain.Order) bool { return o.AddressID == addressID })
	if err != nil {
		return false, err
	}
	return len(orders) > 0, nil
}

type orderItemRepository struct {
	repository[domain.OrderItem]
}

func (r *orderItemRepository) ListByOrder(_ context.Context, orderID int64) ([]domain.OrderItem, error) {
	return r.table.filter(func(i domain.OrderItem) bool { return i.OrderID == orderID })
}

var (
	_ domain.OrderRepository     = (*orderRepository)(nil)
	_ domain.OrderItemRepository = (*orderItemRepository)(nil)
)
