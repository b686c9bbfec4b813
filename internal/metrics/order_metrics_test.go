package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestOrderMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newOrderMetricsWithRegisterer(registry)

	m.RecordOrderCreated()
	m.RecordOrderCreated()
	m.RecordOrderFailed("insufficient_stock")
	m.RecordCompensation()
	m.RecordStatusTransition("processing")
	m.RecordTimelineEvent()
	m.RecordOutboxEvent()
	m.RecordCreateDuration(25 * time.Millisecond)

	if got := counterValue(t, m.ordersCreated); got != 2 {
		t.Fatalf("expected 2 created orders, got %v", got)
	}
	if got := counterValue(t, m.ordersFailed.WithLabelValues("insufficient_stock")); got != 1 {
		t.Fatalf("expected 1 failed order, got %v", got)
	}
	if got := counterValue(t, m.ordersCompensated); got != 1 {
		t.Fatalf("expected 1 compensation, got %v", got)
	}
	if got := counterValue(t, m.statusTransitions.WithLabelValues("processing")); got != 1 {
		t.Fatalf("expected 1 transition, got %v", got)
	}
}

// Повторная регистрация на том же registerer должна переиспользовать коллекторы.
func TestOrderMetrics_RegisterTwice(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newOrderMetricsWithRegisterer(registry)
	second := newOrderMetricsWithRegisterer(registry)

	first.RecordOrderCreated()
	second.RecordOrderCreated()

	if got := counterValue(t, first.ordersCreated); got != 2 {
		t.Fatalf("expected shared counter with value 2, got %v", got)
	}
}
