package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCashMetrics(t *testing.T) {
	// Reset metrics to initial state
	AvailableCash.Reset()
	FrozenCash.Reset()

	UpdateCashMetrics("acc1", 5000, 5000)

	if got := testutil.ToFloat64(AvailableCash.WithLabelValues("acc1")); got != 5000 {
		t.Errorf("Expected AvailableCash to be 5000, got %f", got)
	}
	if got := testutil.ToFloat64(FrozenCash.WithLabelValues("acc1")); got != 5000 {
		t.Errorf("Expected FrozenCash to be 5000, got %f", got)
	}
}

func TestPositionMetrics(t *testing.T) {
	PositionVolume.Reset()

	UpdatePositionMetrics("acc1", "600000.SH", 500, 300)

	if got := testutil.ToFloat64(PositionVolume.WithLabelValues("acc1", "600000.SH", "total")); got != 500 {
		t.Errorf("Expected total volume 500, got %f", got)
	}
	if got := testutil.ToFloat64(PositionVolume.WithLabelValues("acc1", "600000.SH", "available")); got != 300 {
		t.Errorf("Expected available volume 300, got %f", got)
	}
}

func TestFillCounters(t *testing.T) {
	FillsApplied.Reset()
	SettledNotional.Reset()

	IncrementFills("BUY", 4900)
	IncrementFills("BUY", 100)

	if got := testutil.ToFloat64(FillsApplied.WithLabelValues("BUY")); got != 2 {
		t.Errorf("Expected 2 fills, got %f", got)
	}
	if got := testutil.ToFloat64(SettledNotional.WithLabelValues("BUY")); got != 5000 {
		t.Errorf("Expected settled notional 5000, got %f", got)
	}
}
