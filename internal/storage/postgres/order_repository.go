package postgres

import (
	"context"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

const (
	orderColumns     = `id, user_id, address_id, order_status, created_at, updated_at`
	orderItemColumns = `id, order_id, product_id, amount, value`
)

type orderRepository struct {
	base
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.AddressID, &status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return domain.Order{}, err
	}
	parsed, err := domain.ParseOrderStatus(status)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = parsed
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return o, nil
}

func (r *orderRepository) Create(ctx context.Context, o domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO orders (user_id, address_id, order_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, o.UserID, o.AddressID, string(o.Status), o.CreatedAt.UTC(), o.UpdatedAt.UTC()).Scan(&o.ID)
	if err != nil {
		return domain.Order{}, mapError("insert order", err)
	}
	return o, nil
}

func (r *orderRepository) Update(ctx context.Context, o domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET user_id = $2, address_id = $3, order_status = $4, created_at = $5, updated_at = $6
		WHERE id = $1
	`, o.ID, o.UserID, o.AddressID, string(o.Status), o.CreatedAt.UTC(), o.UpdatedAt.UTC())
	if err != nil {
		return domain.Order{}, mapError("update order", err)
	}
	if err := requireAffected("update order", res); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return domain.Order{}, mapError("get order", err)
	}
	return o, nil
}

func (r *orderRepository) List(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY id`)
	if err != nil {
		return nil, mapError("list orders", err)
	}
	return collectRows(r.logger, rows, scanOrder)
}

// ListByUser возвращает заказы пользователя, новые первыми.
func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, mapError("list orders by user", err)
	}
	return collectRows(r.logger, rows, scanOrder)
}

func (r *orderRepository) ExistsByAddress(ctx context.Context, addressID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE address_id = $1)`, addressID).Scan(&exists)
	if err != nil {
		return false, mapError("check orders by address", err)
	}
	return exists, nil
}

func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "orders", id)
}

type orderItemRepository struct {
	base
}

func scanOrderItem(row rowScanner) (domain.OrderItem, error) {
	var i domain.OrderItem
	err := row.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Amount, &i.Value)
	return i, err
}

func (r *orderItemRepository) Create(ctx context.Context, item domain.OrderItem) (domain.OrderItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, product_id, amount, value)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, item.OrderID, item.ProductID, item.Amount, item.Value).Scan(&item.ID)
	if err != nil {
		return domain.OrderItem{}, mapError("insert order item", err)
	}
	return item, nil
}

func (r *orderItemRepository) Update(ctx context.Context, item domain.OrderItem) (domain.OrderItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE order_items SET order_id = $2, product_id = $3, amount = $4, value = $5
		WHERE id = $1
	`, item.ID, item.OrderID, item.ProductID, item.Amount, item.Value)
	if err != nil {
		return domain.OrderItem{}, mapError("update order item", err)
	}
	if err := requireAffected("update order item", res); err != nil {
		return domain.OrderItem{}, err
	}
	return item, nil
}

func (r *orderItemRepository) Get(ctx context.Context, id int64) (domain.OrderItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	item, err := scanOrderItem(r.db.QueryRowContext(ctx, `SELECT `+orderItemColumns+` FROM order_items WHERE id = $1`, id))
	if err != nil {
		return domain.OrderItem{}, mapError("get order item", err)
	}
	return item, nil
}

func (r *orderItemRepository) List(ctx context.Context) ([]domain.OrderItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+orderItemColumns+` FROM order_items ORDER BY id`)
	if err != nil {
		return nil, mapError("list order items", err)
	}
	return collectRows(r.logger, rows, scanOrderItem)
}

func (r *orderItemRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderItemColumns+` FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, mapError("list order items by order", err)
	}
	return collectRows(r.logger, rows, scanOrderItem)
}

func (r *orderItemRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "order_items", id)
}

var (
	_ domain.OrderRepository     = (*orderRepository)(nil)
	_ domain.OrderItemRepository = (*orderItemRepository)(nil)
)
