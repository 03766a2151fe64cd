package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *StoreMetrics
	assert.NotPanics(t, func() {
		m.ObserveTask(KindWrite, OutcomeOK, time.Millisecond)
		m.SetQueueDepth(3)
		m.ObserveSave(nil, 10)
		m.ObserveDomainError("invalid_amount")
	})
}

func TestObserveSave(t *testing.T) {
	m := NewStoreMetrics(prometheus.NewRegistry())

	m.ObserveSave(nil, 512)
	m.ObserveSave(errors.New("disk full"), 0)
	m.ObserveSave(nil, 640)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.savesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.savesTotal.WithLabelValues("error")))
	assert.Equal(t, 640.0, testutil.ToFloat64(m.docBytes))
}

func TestObserveDomainError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg)

	m.ObserveDomainError("insufficient_balance")
	m.ObserveDomainError("insufficient_balance")
	m.ObserveDomainError("stock_empty")

	expected := `
# HELP botshop_domain_errors_total Rejected operations by error code
# TYPE botshop_domain_errors_total counter
botshop_domain_errors_total{code="insufficient_balance"} 2
botshop_domain_errors_total{code="stock_empty"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "botshop_domain_errors_total"))
}

func TestQueueDepthAndTasks(t *testing.T) {
	m := NewStoreMetrics(nil)

	m.SetQueueDepth(4)
	m.ObserveTask(KindRead, OutcomeOK, 2*time.Millisecond)
	m.ObserveTask(KindWrite, OutcomeError, time.Millisecond)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.queueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasksTotal.WithLabelValues(KindRead, OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasksTotal.WithLabelValues(KindWrite, OutcomeError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.tasksTotal.WithLabelValues(KindWrite, OutcomePanic)))
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := NewRegistry()
	m := NewStoreMetrics(reg)
	m.SetQueueDepth(1)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "botshop_store_queue_depth 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
