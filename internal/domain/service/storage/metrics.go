package storage

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	saves      *prometheus.CounterVec
	fallbacks  prometheus.Counter
	drains     prometheus.Counter
	queueDepth prometheus.Gauge
}

var (
	metricsOnce   sync.Once //nolint:gochecknoglobals
	sharedMetrics *Metrics  //nolint:gochecknoglobals
)

// newMetrics registers the storage metrics once; adapters share them because
// the default registry rejects duplicate registration.
func newMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			saves: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "bidscreen",
				Subsystem: "storage",
				Name:      "saves_total",
				Help:      "Save operations by effective write mode.",
			}, []string{"mode"}),
			fallbacks: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "bidscreen",
				Subsystem: "storage",
				Name:      "local_fallbacks_total",
				Help:      "Remote operations recovered via the local store.",
			}),
			drains: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "bidscreen",
				Subsystem: "storage",
				Name:      "queue_drains_total",
				Help:      "Offline queue drain runs.",
			}),
			queueDepth: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: "bidscreen",
				Subsystem: "storage",
				Name:      "offline_queue_depth",
				Help:      "Entries currently waiting for remote replay.",
			}),
		}
	})

	return sharedMetrics
}
