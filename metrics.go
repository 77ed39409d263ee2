package linesort

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics exported by a Sorter. Several sorters may share a registerer; the
// collectors registered first are reused.
type metrics struct {
	lines       prometheus.Counter
	malformed   prometheus.Counter
	chunks      prometheus.Counter
	mergePasses prometheus.Counter
	duration    prometheus.Histogram
}

func newMetrics(r prometheus.Registerer) *metrics {
	return &metrics{
		lines: register(r, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linesort_lines_total",
			Help: "Non-blank input lines read by the sorter",
		})),
		malformed: register(r, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linesort_malformed_lines_total",
			Help: "Input lines without a valid numeric id, sorted as unkeyed records",
		})),
		chunks: register(r, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linesort_chunks_total",
			Help: "Sorted chunk files written during the split phase",
		})),
		mergePasses: register(r, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linesort_merge_passes_total",
			Help: "Merge passes run, including intermediate passes caused by the fan-in limit",
		})),
		duration: register(r, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "linesort_sort_duration_seconds",
			Help:    "Wall time of successful Sort calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		})),
	}
}

// register adds c to r and returns the collector that ends up registered
func register[C prometheus.Collector](r prometheus.Registerer, c C) C {
	if r == nil {
		return c
	}
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
