package sdk

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserver_NilSafe(t *testing.T) {
	var o *observer
	o.observe("search", time.Now(), nil) // must not panic
}

func TestObserver_CountsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	o.observe("search", time.Now(), nil)
	o.observe("search", time.Now(), nil)
	o.observe("search", time.Now(), errors.New("boom"))

	ok := testutil.ToFloat64(o.metrics.operations.WithLabelValues("search", "ok"))
	if ok != 2 {
		t.Errorf("ok count = %v, want 2", ok)
	}
	failed := testutil.ToFloat64(o.metrics.operations.WithLabelValues("search", "error"))
	if failed != 1 {
		t.Errorf("error count = %v, want 1", failed)
	}
}

func TestRegisterOrReuse_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("first observer: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second observer on same registry: %v", err)
	}

	// Both observers feed the same collector.
	first.observe("presets", time.Now(), nil)
	second.observe("presets", time.Now(), nil)

	total := testutil.ToFloat64(second.metrics.operations.WithLabelValues("presets", "ok"))
	if total != 2 {
		t.Errorf("shared counter = %v, want 2", total)
	}
}

func TestObserver_NoMetricsWithoutRegistry(t *testing.T) {
	o, err := newObserver(nil, nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	if o.metrics != nil {
		t.Error("expected no metrics without a registerer")
	}
	o.observe("health", time.Now(), nil) // must not panic
}
