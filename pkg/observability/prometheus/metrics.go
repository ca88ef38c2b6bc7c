package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// DefaultRegistry is the registry served by FastHTTPHandler.
// It carries the Go runtime and process collectors.
var DefaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// PoolMetrics records worker pool activity. It satisfies worker.Observer.
type PoolMetrics struct {
	submitted prometheus.Counter
	completed *prometheus.CounterVec
	panics    prometheus.Counter
	busy      prometheus.Gauge
	duration  prometheus.Histogram
}

// NewPoolMetrics creates pool metrics under namespace and registers them with reg
func NewPoolMetrics(reg prometheus.Registerer, namespace string) (*PoolMetrics, error) {
	m := &PoolMetrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "jobs_submitted_total",
			Help:      "Jobs accepted by Submit.",
		}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "jobs_completed_total",
			Help:      "Jobs that finished running, by worker id.",
		}, []string{"worker"}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "job_panics_total",
			Help:      "Jobs that panicked and were recovered.",
		}),
		busy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "busy_workers",
			Help:      "Workers currently running a job.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "job_duration_seconds",
			Help:      "Wall time spent running a job.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	for _, c := range []prometheus.Collector{m.submitted, m.completed, m.panics, m.busy, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RegisterPoolGauges exposes the pool size and queue depth, read on scrape
func RegisterPoolGauges(reg prometheus.Registerer, namespace string, size int, pending func() int) error {
	sizeGauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pool",
		Name:      "workers",
		Help:      "Number of workers in the pool.",
	}, func() float64 { return float64(size) })

	queued := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pool",
		Name:      "jobs_queued",
		Help:      "Jobs waiting for a free worker.",
	}, func() float64 { return float64(pending()) })

	if err := reg.Register(sizeGauge); err != nil {
		return err
	}
	return reg.Register(queued)
}

func (m *PoolMetrics) JobSubmitted() {
	m.submitted.Inc()
}

func (m *PoolMetrics) JobStarted(int) {
	m.busy.Inc()
}

func (m *PoolMetrics) JobFinished(workerID int, elapsed time.Duration, panicked bool) {
	m.busy.Dec()
	m.duration.Observe(elapsed.Seconds())
	m.completed.WithLabelValues(strconv.Itoa(workerID)).Inc()
	if panicked {
		m.panics.Inc()
	}
}
