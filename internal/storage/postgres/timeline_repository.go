package postgres

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

type timelineRepository struct {
	base
}

// Append сохраняет событие таймлайна заказа.
func (r *timelineRepository) Append(ctx context.Context, event domain.TimelineEvent) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO order_timeline (order_id, type, status, reason, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`, event.OrderID, event.Type, string(event.Status), event.Reason, event.Occurred.UTC())
	if err != nil {
		return mapError(fmt.Sprintf("append timeline event for order %d", event.OrderID), err)
	}
	return nil
}

// List возвращает события заказа в хронологическом порядке.
func (r *timelineRepository) List(ctx context.Context, orderID int64) ([]domain.TimelineEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, type, status, reason, occurred_at
		FROM order_timeline
		WHERE order_id = $1
		ORDER BY occurred_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, mapError("list timeline events", err)
	}

	return collectRows(r.logger, rows, func(row rowScanner) (domain.TimelineEvent, error) {
		var (
			event  domain.TimelineEvent
			status string
		)
		if err := row.Scan(&event.ID, &event.OrderID, &event.Type, &status, &event.Reason, &event.Occurred); err != nil {
			return domain.TimelineEvent{}, err
		}
		event.Status = domain.OrderStatus(status)
		event.Occurred = event.Occurred.UTC()
		return event, nil
	})
}

var _ domain.TimelineRepository = (*timelineRepository)(nil)
