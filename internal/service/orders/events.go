package orders

import (
	"context"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

// record добавляет событие в таймлайн и публикует его наружу. Оба шага
// best-effort: ошибки только логируются.
func (s *Service) record(ctx context.Context, order domain.Order, timelineType string, eventType domain.EventType, reason string, metadata map[string]any) {
	logger := s.logger.WithField("order_id", order.ID)

	if s.timeline != nil {
		err := s.timeline.Append(ctx, domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     timelineType,
			Status:   order.Status,
			Reason:   reason,
			Occurred: order.UpdatedAt,
		})
		if err != nil {
			logger.WithError(err).WithField("event", timelineType).Warn("failed to append timeline event")
		} else if s.metrics != nil {
			s.metrics.RecordTimelineEvent()
		}
	}

	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, domain.OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		OccurredAt: order.UpdatedAt,
		Metadata:   metadata,
	})
	if s.metrics != nil {
		s.metrics.RecordEventPublished(err == nil)
	}
	if err != nil {
		logger.WithError(err).WithField("event", eventType).Warn("failed to publish order event")
	}
}
