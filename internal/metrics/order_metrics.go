// Package metrics содержит prometheus-метрики сервиса заказов.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ordermgmt"

// OrderMetrics содержит метрики операций над заказами.
type OrderMetrics struct {
	ordersCreated  prometheus.Counter
	ordersCanceled prometheus.Counter
	statusChanges  *prometheus.CounterVec
	failures       *prometheus.CounterVec

	operationDuration *prometheus.HistogramVec

	// Единицы товара, списанные заказами и возвращённые отменами.
	stockReserved prometheus.Counter
	stockReleased prometheus.Counter

	timelineEvents  prometheus.Counter
	publishedEvents *prometheus.CounterVec

	inFlight prometheus.Gauge
}

// NewOrderMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer регистрирует метрики в переданном registerer.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Total number of orders created",
		})),
		ordersCanceled: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_canceled_total",
			Help:      "Total number of orders canceled with stock restoration",
		})),
		statusChanges: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_changes_total",
			Help:      "Total number of order status transitions by target status",
		}, []string{"status"})),
		failures: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_operation_failures_total",
			Help:      "Total number of failed order operations",
		}, []string{"operation", "reason"})),
		operationDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_operation_duration_seconds",
			Help:      "Duration of order operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"})),
		stockReserved: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_units_reserved_total",
			Help:      "Total number of product units deducted by order creation",
		})),
		stockReleased: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_units_released_total",
			Help:      "Total number of product units restored by cancellation",
		})),
		timelineEvents: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeline_events_total",
			Help:      "Total number of timeline events recorded",
		})),
		publishedEvents: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_events_published_total",
			Help:      "Total number of order events handed to the publisher",
		}, []string{"result"})),
		inFlight: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "order_operations_in_flight",
			Help:      "Number of order mutations currently executing",
		})),
	}
}

func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) C {
	err := registerer.Register(collector)
	if err == nil {
		return collector
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		existing, ok := already.ExistingCollector.(C)
		if !ok {
			panic(fmt.Sprintf("collector already registered with unexpected type %T", already.ExistingCollector))
		}
		return existing
	}
	panic(fmt.Sprintf("register collector: %v", err))
}

// RecordOrderCreated учитывает созданный заказ и списанные единицы товара.
func (m *OrderMetrics) RecordOrderCreated(units int) {
	m.ordersCreated.Inc()
	m.stockReserved.Add(float64(units))
}

// RecordOrderCanceled учитывает отмену и возвращённые единицы товара.
func (m *OrderMetrics) RecordOrderCanceled(units int) {
	m.ordersCanceled.Inc()
	m.stockReleased.Add(float64(units))
}

// RecordStatusChange учитывает переход заказа в статус.
func (m *OrderMetrics) RecordStatusChange(status string) {
	m.statusChanges.WithLabelValues(status).Inc()
}

// RecordFailure учитывает неуспешную операцию.
func (m *OrderMetrics) RecordFailure(operation, reason string) {
	m.failures.WithLabelValues(operation, reason).Inc()
}

// ObserveOperation отмечает начало операции и возвращает функцию завершения.
func (m *OrderMetrics) ObserveOperation(operation string) func() {
	started := time.Now()
	m.inFlight.Inc()
	return func() {
		m.inFlight.Dec()
		m.operationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	}
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *OrderMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// RecordEventPublished учитывает результат публикации события.
func (m *OrderMetrics) RecordEventPublished(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.publishedEvents.WithLabelValues(result).Inc()
}
