// Package metrics counts boundary calls and native failures.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const namespace = "swbridge"

// Recorder owns a private registry so several bindings can coexist in one
// process (and in tests) without duplicate registration panics.
type Recorder struct {
	registry       *prometheus.Registry
	calls          *prometheus.CounterVec
	nativeFailures *prometheus.CounterVec
	libraryAdd     prometheus.Histogram
	hooked         prometheus.Gauge
}

// NewRecorder creates a Recorder with all collectors registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Boundary operations invoked, by operation.",
		}, []string{"operation"}),
		nativeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "native_failures_total",
			Help:      "Operations the native client rejected, by operation.",
		}, []string{"operation"}),
		libraryAdd: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "library_add_seconds",
			Help:      "Time spent in native screenshot library registration.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		hooked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "screenshots_hooked",
			Help:      "1 while the host owns screenshot capture.",
		}),
	}

	r.registry.MustRegister(r.calls, r.nativeFailures, r.libraryAdd, r.hooked)
	return r
}

// Call counts one invocation of op.
func (r *Recorder) Call(op string) {
	r.calls.WithLabelValues(op).Inc()
}

// NativeFailure counts one native rejection of op.
func (r *Recorder) NativeFailure(op string) {
	r.nativeFailures.WithLabelValues(op).Inc()
}

// LibraryAdd observes the duration of one registration.
func (r *Recorder) LibraryAdd(d time.Duration) {
	r.libraryAdd.Observe(d.Seconds())
}

// Hooked records the current hook state.
func (r *Recorder) Hooked(hooked bool) {
	if hooked {
		r.hooked.Set(1)
		return
	}
	r.hooked.Set(0)
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// CallCounter returns the counter for op. Intended for tests.
func (r *Recorder) CallCounter(op string) prometheus.Counter {
	return r.calls.WithLabelValues(op)
}

// FailureCounter returns the native failure counter for op. Intended for tests.
func (r *Recorder) FailureCounter(op string) prometheus.Counter {
	return r.nativeFailures.WithLabelValues(op)
}

// HookedGauge returns the hook state gauge. Intended for tests.
func (r *Recorder) HookedGauge() prometheus.Gauge {
	return r.hooked
}

// WriteText renders every metric in the text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	for _, mf := range families {
		if err := writeFamily(w, mf); err != nil {
			return err
		}
	}

	return nil
}

func writeFamily(w io.Writer, mf *dto.MetricFamily) error {
	if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
		return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
	}

	return nil
}
