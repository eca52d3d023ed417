package repository

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/umputun/newsfeed/pkg/domain"
)

// Instrumented reports fetch counts, failures and latency of the wrapped source
type Instrumented struct {
	source   Source
	fetches  *prometheus.CounterVec
	items    prometheus.Gauge
	duration prometheus.Histogram
}

// NewInstrumented registers metrics in reg and wraps the source
func NewInstrumented(source Source, reg prometheus.Registerer) *Instrumented {
	factory := promauto.With(reg)
	return &Instrumented{
		source: source,
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsfeed",
			Name:      "fetches_total",
			Help:      "Number of news fetches by outcome",
		}, []string{"outcome"}),
		items: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "newsfeed",
			Name:      "last_fetch_items",
			Help:      "Number of news returned by the last successful fetch",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "newsfeed",
			Name:      "fetch_duration_seconds",
			Help:      "News fetch latency",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// GetNews calls the wrapped source and records the outcome
func (i *Instrumented) GetNews(ctx context.Context) (domain.Batch, error) {
	st := time.Now()
	batch, err := i.source.GetNews(ctx)
	i.duration.Observe(time.Since(st).Seconds())
	if err != nil {
		i.fetches.WithLabelValues("error").Inc()
		return nil, err
	}
	i.fetches.WithLabelValues("ok").Inc()
	i.items.Set(float64(len(batch)))
	return batch, nil
}
