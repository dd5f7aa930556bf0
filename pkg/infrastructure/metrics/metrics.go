package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/WangYihang/Exposure-Crawler/pkg/domain/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "exposure_crawler"

// Outcome labels of the probes counter
const (
	OutcomeFinding = "finding"
	OutcomeMiss    = "miss"
	OutcomeError   = "error"
)

// Recorder implements service.MetricsRecorder with Prometheus collectors
type Recorder struct {
	probes        *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	checkpoints   *prometheus.CounterVec
	workerCrashes prometheus.Counter
}

// NewRecorder creates the collectors and registers them on reg. queueLength
// backs the queue depth gauge and may be nil.
func NewRecorder(reg prometheus.Registerer, queueLength func() int) *Recorder {
	r := &Recorder{
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Number of probes by task kind and outcome.",
		}, []string{"kind", "outcome"}),
		probeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Probe latency by task kind.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"kind"}),
		checkpoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoints_total",
			Help:      "Number of checkpoint writes by status.",
		}, []string{"status"}),
		workerCrashes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_crashes_total",
			Help:      "Number of workers stopped by a panic.",
		}),
	}

	reg.MustRegister(r.probes, r.probeDuration, r.checkpoints, r.workerCrashes)

	if queueLength != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_length",
			Help:      "Number of tasks waiting in the queue.",
		}, func() float64 {
			return float64(queueLength())
		}))
	}

	return r
}

// ObserveProbe implements service.MetricsRecorder
func (r *Recorder) ObserveProbe(result *service.ProbeResult) {
	kind := result.Task.Kind().String()

	outcome := OutcomeMiss
	switch {
	case result.Found:
		outcome = OutcomeFinding
	case result.Err != nil:
		outcome = OutcomeError
	}

	r.probes.WithLabelValues(kind, outcome).Inc()
	r.probeDuration.WithLabelValues(kind).Observe(result.Duration.Seconds())
}

// ObserveCheckpoint implements service.MetricsRecorder
func (r *Recorder) ObserveCheckpoint(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.checkpoints.WithLabelValues(status).Inc()
}

// ObserveWorkerCrash implements service.MetricsRecorder
func (r *Recorder) ObserveWorkerCrash() {
	r.workerCrashes.Inc()
}

// Serve exposes the registry on addr under /metrics until ctx is done
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
