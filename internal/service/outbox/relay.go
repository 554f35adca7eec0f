// Package outbox развязывает запись заказов и доставку событий: события
// складываются в ограниченную очередь и публикуются фоновым воркером с
// повторами и dead-letter топиком.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ordermgmt/internal/domain"
)

const (
	defaultQueueSize      = 1024
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
)

var (
	// ErrQueueFull — очередь переполнена, событие не принято.
	ErrQueueFull = errors.New("event queue is full")
	// ErrRelayClosed — relay остановлен и новых событий не принимает.
	ErrRelayClosed = errors.New("event relay is closed")
)

var (
	relayPublishAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordermgmt_event_relay_publish_attempts_total",
		Help: "Total number of event relay publish attempts grouped by result.",
	}, []string{"result"})
	relayQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ordermgmt_event_relay_queue_depth",
		Help: "Current number of events waiting in the relay queue.",
	})
)

// Option настраивает Relay.
type Option func(*Relay)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithQueueSize задаёт ёмкость очереди.
func WithQueueSize(size int) Option {
	return func(r *Relay) {
		if size > 0 {
			r.queueSize = size
		}
	}
}

// WithMaxAttempts задаёт число попыток публикации перед dead-letter.
func WithMaxAttempts(attempts int) Option {
	return func(r *Relay) {
		if attempts > 0 {
			r.maxAttempts = attempts
		}
	}
}

// WithRetryBaseDelay задаёт базовую задержку exponential backoff.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(r *Relay) {
		if delay >= 0 {
			r.retryBaseDelay = delay
		}
	}
}

// WithDeadLetter задаёт получателя событий, которые не удалось доставить.
func WithDeadLetter(publisher domain.EventPublisher) Option {
	return func(r *Relay) { r.deadLetter = publisher }
}

// Relay реализует domain.EventPublisher поверх очереди в памяти.
// События, не доставленные до остановки процесса, теряются.
type Relay struct {
	target         domain.EventPublisher
	deadLetter     domain.EventPublisher
	logger         *log.Entry
	queueSize      int
	maxAttempts    int
	retryBaseDelay time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan domain.OrderEvent
	done   chan struct{}
}

// NewRelay создаёт relay. Воркер запускается через Run.
func NewRelay(target domain.EventPublisher, options ...Option) *Relay {
	r := &Relay{
		target:         target,
		logger:         log.WithField("component", "event-relay"),
		queueSize:      defaultQueueSize,
		maxAttempts:    defaultMaxAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
		done:           make(chan struct{}),
	}
	for _, option := range options {
		option(r)
	}
	r.queue = make(chan domain.OrderEvent, r.queueSize)
	return r
}

// Publish ставит событие в очередь и не ждёт доставки.
func (r *Relay) Publish(_ context.Context, event domain.OrderEvent) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrRelayClosed
	}
	select {
	case r.queue <- event:
		relayQueueDepth.Inc()
		return nil
	default:
		relayPublishAttempts.WithLabelValues("rejected").Inc()
		return ErrQueueFull
	}
}

// Run публикует события до закрытия очереди через Close. После отмены ctx
// оставшиеся события отбрасываются.
func (r *Relay) Run(ctx context.Context) {
	defer close(r.done)

	dropped := 0
	for event := range r.queue {
		relayQueueDepth.Dec()
		if ctx.Err() != nil {
			dropped++
			continue
		}
		r.deliver(ctx, event)
	}
	if dropped > 0 {
		r.logger.WithField("dropped", dropped).Warn("relay stopped before delivering queued events")
	}
}

// Close перестаёт принимать события и ждёт, пока воркер разберёт очередь
// или истечёт ctx.
func (r *Relay) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for event relay: %w", ctx.Err())
	}
}

func (r *Relay) deliver(ctx context.Context, event domain.OrderEvent) {
	err := r.publishWithRetry(ctx, event)
	if err == nil {
		return
	}

	logger := r.logger.WithError(err).WithFields(log.Fields{
		"order_id":   event.OrderID,
		"event_type": event.Type,
	})
	logger.Error("event publish failed after retries")
	relayPublishAttempts.WithLabelValues("failed").Inc()

	if dlqErr := r.publishToDeadLetter(ctx, event, err); dlqErr != nil {
		logger.WithField("dlq_error", dlqErr.Error()).Warn("failed to publish to DLQ")
		relayPublishAttempts.WithLabelValues("dlq_failed").Inc()
	}
}

func (r *Relay) publishWithRetry(ctx context.Context, event domain.OrderEvent) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := r.target.Publish(ctx, event)
		if err == nil {
			relayPublishAttempts.WithLabelValues("sent").Inc()
			return nil
		}
		lastErr = err
		relayPublishAttempts.WithLabelValues("retry_error").Inc()

		if attempt >= r.maxAttempts {
			break
		}

		delay := r.retryBackoff(attempt)
		if delay <= 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("publish failed after %d attempts: %w", r.maxAttempts, lastErr)
}

func (r *Relay) retryBackoff(attempt int) time.Duration {
	if r.retryBaseDelay <= 0 {
		return 0
	}

	const maxDuration = time.Duration(1<<63 - 1)
	delay := r.retryBaseDelay
	for i := 1; i < attempt; i++ {
		if delay > maxDuration/2 {
			return maxDuration
		}
		delay *= 2
	}
	return delay
}

func (r *Relay) publishToDeadLetter(ctx context.Context, event domain.OrderEvent, publishErr error) error {
	if r.deadLetter == nil {
		return nil
	}

	metadata := make(map[string]any, len(event.Metadata)+2)
	maps.Copy(metadata, event.Metadata)
	metadata["publish_error"] = publishErr.Error()
	metadata["dead_lettered_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	event.Metadata = metadata

	if err := r.deadLetter.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}
	return nil
}

var _ domain.EventPublisher = (*Relay)(nil)
