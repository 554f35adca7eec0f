package csvfile

import (
	"context"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

var timelineCodec = codec[domain.TimelineEvent]{
	name:   "order_timeline",
	header: []string{"id", "order_id", "type", "status", "reason", "occurred_at"},
	encode: func(e domain.TimelineEvent) []string {
		return []string{
			formatID(e.ID), formatID(e.OrderID), e.Type, string(e.Status), e.Reason, formatTime(e.Occurred),
		}
	},
	decode: func(rec []string) (domain.TimelineEvent, error) {
		var p fieldParser
		e := domain.TimelineEvent{
			ID:       p.int64("id", rec[0]),
			OrderID:  p.int64("order_id", rec[1]),
			Type:     rec[2],
			Status:   domain.OrderStatus(rec[3]),
			Reason:   rec[4],
			Occurred: p.time("occurred_at", rec[5]),
		}
		return e, p.err
	},
	id:     func(e domain.TimelineEvent) int64 { return e.ID },
	withID: func(e domain.TimelineEvent, id int64) domain.TimelineEvent { e.ID = id; return e },
}

type timelineRepository struct {
	table *table[domain.TimelineEvent]
}

func (r *timelineRepository) Append(_ context.Context, event domain.TimelineEvent) error {
	_, err := r.table.create(event)
	return err
}

func (r *timelineRepository) List(_ context.Context, orderID int64) ([]domain.TimelineEvent, error) {
	return r.table.filter(func(e domain.TimelineEvent) bool { return e.OrderID == orderID })
}

var _ domain.TimelineRepository = (*timelineRepository)(nil)
