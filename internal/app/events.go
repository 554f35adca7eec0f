package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
	"github.com/vladislavdragonenkov/ordermgmt/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ordermgmt/internal/service/outbox"
)

// eventPipeline — очередь событий с фоновой доставкой в брокер.
type eventPipeline struct {
	relay   *outbox.Relay
	cancel  context.CancelFunc
	closeFn func() error
}

// startEvents создаёт Kafka producer и relay, если заданы брокеры.
// Возвращает nil, nil, если Kafka не настроена.
func startEvents(cfg Config, logger *log.Entry) (*eventPipeline, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, err
	}
	var deadLetter domain.EventPublisher
	if cfg.KafkaDLQTopic != "" {
		deadLetter = producer.ForTopic(cfg.KafkaDLQTopic)
	}
	logger.WithFields(log.Fields{
		"brokers":   cfg.KafkaBrokers,
		"topic":     cfg.KafkaTopic,
		"dlq_topic": cfg.KafkaDLQTopic,
	}).Info("kafka producer initialized")

	return newEventPipeline(producer, deadLetter, producer.Close, cfg, logger), nil
}

func newEventPipeline(target, deadLetter domain.EventPublisher, closeFn func() error, cfg Config, logger *log.Entry) *eventPipeline {
	opts := []outbox.Option{
		outbox.WithLogger(logger.WithField("layer", "event-relay")),
		outbox.WithQueueSize(cfg.EventQueueSize),
		outbox.WithMaxAttempts(cfg.EventMaxAttempts),
	}
	if deadLetter != nil {
		opts = append(opts, outbox.WithDeadLetter(deadLetter))
	}

	relay := outbox.NewRelay(target, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go relay.Run(ctx)
	return &eventPipeline{relay: relay, cancel: cancel, closeFn: closeFn}
}

// publisher возвращает точку публикации для сервиса заказов.
func (p *eventPipeline) publisher() domain.EventPublisher {
	return p.relay
}

// stop дожидается доставки очереди не дольше timeout и закрывает producer.
func (p *eventPipeline) stop(timeout time.Duration, logger *log.Entry) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := p.relay.Close(ctx); err != nil {
		logger.WithError(err).Warn("event relay did not drain in time")
	}
	p.cancel()

	if p.closeFn == nil {
		return
	}
	if err := p.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
		return
	}
	logger.Info("kafka producer closed")
}
