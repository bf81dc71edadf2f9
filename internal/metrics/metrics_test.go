package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountersMove(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.LedgerAppended("SALE")
	m.LedgerAppended("SALE")
	m.LedgerRejected("GIFT")
	m.ClosureWritten(false)
	m.ClosureWritten(true)
	m.JobProcessed("email", "ok")
	m.ObserveHTTP("GET", "/health", "200", 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ledgerAppends.WithLabelValues("SALE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerRejected.WithLabelValues("GIFT")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.closures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reclosures))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.LedgerAppended("SALE")
		m.ConsistencyFailure("sale_attendance")
		m.ClosureWritten(true)
		m.PublishFailed()
		m.ObserveHTTP("GET", "/", "200", time.Second)
	})
}
