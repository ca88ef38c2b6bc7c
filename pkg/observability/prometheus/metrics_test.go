package prometheus_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fluxorio/threadpool/pkg/core"
	promx "github.com/fluxorio/threadpool/pkg/observability/prometheus"
	"github.com/fluxorio/threadpool/pkg/worker"
)

func TestPoolMetrics_TracksJobs(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := promx.NewPoolMetrics(reg, "test")
	require.NoError(t, err)

	p, err := worker.New(2, worker.WithObserver(m), worker.WithLogger(core.NewNopLogger()))
	require.NoError(t, err)
	require.NoError(t, promx.RegisterPoolGauges(reg, "test", p.Size(), p.Pending))

	for i := 0; i < 5; i++ {
		require.NoError(t, p.Submit(func() { time.Sleep(time.Millisecond) }))
	}
	require.NoError(t, p.Submit(func() { panic("metrics") }))
	require.NoError(t, p.Close())

	expected := `
# HELP test_pool_jobs_submitted_total Jobs accepted by Submit.
# TYPE test_pool_jobs_submitted_total counter
test_pool_jobs_submitted_total 6
# HELP test_pool_job_panics_total Jobs that panicked and were recovered.
# TYPE test_pool_job_panics_total counter
test_pool_job_panics_total 1
# HELP test_pool_busy_workers Workers currently running a job.
# TYPE test_pool_busy_workers gauge
test_pool_busy_workers 0
# HELP test_pool_workers Number of workers in the pool.
# TYPE test_pool_workers gauge
test_pool_workers 2
# HELP test_pool_jobs_queued Jobs waiting for a free worker.
# TYPE test_pool_jobs_queued gauge
test_pool_jobs_queued 0
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"test_pool_jobs_submitted_total",
		"test_pool_job_panics_total",
		"test_pool_busy_workers",
		"test_pool_workers",
		"test_pool_jobs_queued",
	))

	count, err := testutil.GatherAndCount(reg, "test_pool_jobs_completed_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1, "at least one worker label series")
}

func TestPoolMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := promx.NewPoolMetrics(reg, "dup")
	require.NoError(t, err)

	_, err = promx.NewPoolMetrics(reg, "dup")
	assert.Error(t, err)
}

func TestFastHTTPHandler_ServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "exporter_scrape_total", Help: "scrape check"})
	reg.MustRegister(c)
	c.Add(3)

	var ctx fasthttp.RequestCtx
	ctx.Request.SetRequestURI("/metrics")
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	promx.FastHTTPHandlerFor(reg)(&ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "exporter_scrape_total 3")
}
