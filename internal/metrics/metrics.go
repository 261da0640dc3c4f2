package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for asset lifecycle operations.
type Observer interface {
	RecordUpload(duration time.Duration, sizeBytes int64, err error)
	RecordDestroy(duration time.Duration, err error)
	RecordQuotaRejected()
	RecordUnreclaimed(n int)
}

// PrometheusObserver exports asset metrics to Prometheus.
type PrometheusObserver struct {
	duration    *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	uploadBytes prometheus.Counter
	quota       prometheus.Counter
	unreclaimed prometheus.Counter
}

// NewPrometheusObserver registers remote-store and quota metrics on reg.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "techassets"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_operation_duration_seconds",
			Help:      "Latency of object store calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_operation_errors_total",
			Help:      "Count of failed object store calls.",
		}, []string{"operation"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes successfully uploaded to the object store.",
		}),
		quota: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_rejections_total",
			Help:      "Create calls rejected because the owner would exceed the image quota.",
		}),
		unreclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unreclaimed_objects_total",
			Help:      "Remote objects whose delete failed during bulk deletion.",
		}),
	}
	collectors := []prometheus.Collector{o.duration, o.errors, o.uploadBytes, o.quota, o.unreclaimed}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, fmt.Errorf("register asset metric: %w", err)
		}
	}
	return o, nil
}

// RecordUpload tracks upload latency, size and failures.
func (o *PrometheusObserver) RecordUpload(duration time.Duration, sizeBytes int64, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues("upload").Observe(duration.Seconds())
	if err != nil {
		o.errors.WithLabelValues("upload").Inc()
		return
	}
	o.uploadBytes.Add(float64(sizeBytes))
}

func (o *PrometheusObserver) RecordDestroy(duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues("destroy").Observe(duration.Seconds())
	if err != nil {
		o.errors.WithLabelValues("destroy").Inc()
	}
}

func (o *PrometheusObserver) RecordQuotaRejected() {
	if o == nil {
		return
	}
	o.quota.Inc()
}

func (o *PrometheusObserver) RecordUnreclaimed(n int) {
	if o == nil || n <= 0 {
		return
	}
	o.unreclaimed.Add(float64(n))
}

// Nop returns an Observer that discards everything.
func Nop() Observer { return nopObserver{} }

type nopObserver struct{}

func (nopObserver) RecordUpload(time.Duration, int64, error) {}

func (nopObserver) RecordDestroy(time.Duration, error) {}

func (nopObserver) RecordQuotaRejected() {}

func (nopObserver) RecordUnreclaimed(int) {}
