package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Task kinds
const (
	KindWrite = "write"
	KindRead  = "read"
)

// Task outcomes
const (
	OutcomeOK     = "ok"
	OutcomeError  = "error"
	OutcomePanic  = "panic"
	OutcomeClosed = "closed"
)

// StoreMetrics holds the Prometheus instruments of the document store.
// A nil *StoreMetrics is valid and records nothing.
type StoreMetrics struct {
	tasksTotal   *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	queueDepth   prometheus.Gauge
	savesTotal   *prometheus.CounterVec
	docBytes     prometheus.Gauge
	domainErrors *prometheus.CounterVec
}

// NewStoreMetrics creates the store instruments and registers them on reg
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		tasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botshop_store_tasks_total",
				Help: "Tasks executed by the store queue",
			},
			[]string{"kind", "outcome"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "botshop_store_task_duration_seconds",
				Help:    "Time a task spent executing, persistence included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "botshop_store_queue_depth",
				Help: "Tasks waiting in the store queue",
			},
		),
		savesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botshop_store_saves_total",
				Help: "Atomic document saves",
			},
			[]string{"result"},
		),
		docBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "botshop_store_document_bytes",
				Help: "Size of the last persisted document",
			},
		),
		domainErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "botshop_domain_errors_total",
				Help: "Rejected operations by error code",
			},
			[]string{"code"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.tasksTotal, m.taskDuration, m.queueDepth, m.savesTotal, m.docBytes, m.domainErrors)
	}
	return m
}

// ObserveTask records one finished task
func (m *StoreMetrics) ObserveTask(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.tasksTotal.WithLabelValues(kind, outcome).Inc()
	m.taskDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// SetQueueDepth records the number of waiting tasks
func (m *StoreMetrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// ObserveSave records a save attempt and, on success, the document size
func (m *StoreMetrics) ObserveSave(err error, size int) {
	if m == nil {
		return
	}
	if err != nil {
		m.savesTotal.WithLabelValues("error").Inc()
		return
	}
	m.savesTotal.WithLabelValues("ok").Inc()
	m.docBytes.Set(float64(size))
}

// ObserveDomainError counts a rejected operation
func (m *StoreMetrics) ObserveDomainError(code string) {
	if m == nil {
		return
	}
	m.domainErrors.WithLabelValues(code).Inc()
}

// NewRegistry returns a registry preloaded with the Go and process collectors
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}

// Handler exposes a registry over HTTP
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
