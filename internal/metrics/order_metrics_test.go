package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, c.Write(metric))
	return metric.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, g.Write(metric))
	return metric.GetGauge().GetValue()
}

func TestNewOrderMetrics_RegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetricsWithRegisterer(reg)

	// Векторы появляются в Gather только после первой записи.
	m.RecordStatusChange("PAID")
	m.RecordFailure("create_order", "insufficient_stock")
	m.ObserveOperation("create_order")()
	m.RecordEventPublished(true)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"ordermgmt_orders_created_total",
		"ordermgmt_orders_canceled_total",
		"ordermgmt_order_status_changes_total",
		"ordermgmt_order_operation_failures_total",
		"ordermgmt_order_operation_duration_seconds",
		"ordermgmt_stock_units_reserved_total",
		"ordermgmt_stock_units_released_total",
		"ordermgmt_timeline_events_total",
		"ordermgmt_order_events_published_total",
		"ordermgmt_order_operations_in_flight",
	} {
		require.True(t, names[want], "metric %s is not registered", want)
	}
}

func TestNewOrderMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := NewOrderMetricsWithRegisterer(reg)
	second := NewOrderMetricsWithRegisterer(reg)

	first.RecordOrderCreated(2)
	second.RecordOrderCreated(3)

	require.Equal(t, 2.0, counterValue(t, first.ordersCreated))
	require.Equal(t, 5.0, counterValue(t, second.stockReserved))
}

func TestRecordOrderCanceled(t *testing.T) {
	m := NewOrderMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordOrderCanceled(4)

	require.Equal(t, 1.0, counterValue(t, m.ordersCanceled))
	require.Equal(t, 4.0, counterValue(t, m.stockReleased))
}

func TestObserveOperation(t *testing.T) {
	m := NewOrderMetricsWithRegisterer(prometheus.NewRegistry())

	done := m.ObserveOperation("cancel_order")
	require.Equal(t, 1.0, gaugeValue(t, m.inFlight))
	done()
	require.Equal(t, 0.0, gaugeValue(t, m.inFlight))

	metric := &dto.Metric{}
	observer := m.operationDuration.WithLabelValues("cancel_order")
	require.NoError(t, observer.(prometheus.Histogram).Write(metric))
	require.Equal(t, uint64(1), metric.GetHistogram().GetSampleCount())
}

func TestRecordCountersByLabel(t *testing.T) {
	m := NewOrderMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordStatusChange("SHIPPED")
	m.RecordStatusChange("SHIPPED")
	m.RecordFailure("cancel_order", "illegal_cancellation")
	m.RecordEventPublished(false)
	m.RecordTimelineEvent()

	require.Equal(t, 2.0, counterValue(t, m.statusChanges.WithLabelValues("SHIPPED")))
	require.Equal(t, 1.0, counterValue(t, m.failures.WithLabelValues("cancel_order", "illegal_cancellation")))
	require.Equal(t, 1.0, counterValue(t, m.publishedEvents.WithLabelValues("error")))
	require.Equal(t, 1.0, counterValue(t, m.timelineEvents))
}
