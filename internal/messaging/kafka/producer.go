package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

// Producer публикует события заказов в один топик. Ключ сообщения — id
// заказа, поэтому события одного заказа попадают в одну партицию по порядку.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *log.Entry
}

// NewProducer создаёт синхронный идемпотентный producer.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return newProducer(producer, topic), nil
}

func newProducer(producer sarama.SyncProducer, topic string) *Producer {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = DefaultTopic
	}
	return &Producer{
		producer: producer,
		topic:    topic,
		logger:   log.WithField("component", "kafka-producer").WithField("topic", topic),
	}
}

// Publish отправляет событие заказа. Реализует domain.EventPublisher.
func (p *Producer) Publish(ctx context.Context, event domain.OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := NewOrderMessage(event)
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(message.OrderID),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: message.Timestamp,
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventID), Value: []byte(message.EventID)},
			{Key: []byte(HeaderEventType), Value: []byte(message.EventType)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"order_id":   message.OrderID,
			"event_type": message.EventType,
		}).Error("failed to send message to kafka")
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"order_id":   message.OrderID,
		"event_type": message.EventType,
		"partition":  partition,
		"offset":     offset,
	}).Debug("message sent to kafka")
	return nil
}

// ForTopic возвращает producer, пишущий в другой топик через то же
// соединение. Закрывать нужно только исходный producer.
func (p *Producer) ForTopic(topic string) *Producer {
	return newProducer(p.producer, topic)
}

// Close закрывает producer.
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}

var _ domain.EventPublisher = (*Producer)(nil)
