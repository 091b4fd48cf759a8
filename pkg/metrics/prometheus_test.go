package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"FinSignal/internal/domain/models"
)

func TestRecorder_CountsByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordSignal("SPY", models.StatusActive, true)
	r.RecordSignal("SPY", models.StatusActive, true)
	r.RecordSignal("SPY", models.StatusNoise, false)
	r.RecordVendor("alpaca", "limited")
	r.RecordLastPrice("SPY", 512.25)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.signalsTotal.WithLabelValues("SPY", "ACTIVE", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.signalsTotal.WithLabelValues("SPY", "NOISE", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.vendorTotal.WithLabelValues("alpaca", "limited")))
	assert.Equal(t, 512.25, testutil.ToFloat64(r.lastPrice.WithLabelValues("SPY")))
}
