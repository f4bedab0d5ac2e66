package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver counts events by type and severity. It is a
// prometheus.Collector; register it with a prometheus.Registerer to export
// directory_events_total.
type PrometheusObserver struct {
	events *prometheus.CounterVec
}

func NewPrometheusObserver() *PrometheusObserver {
	return &PrometheusObserver{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "directory_events_total",
				Help: "Observability events emitted by directory nodes.",
			},
			[]string{"type", "level"},
		),
	}
}

func (o *PrometheusObserver) OnEvent(_ context.Context, event Event) {
	o.events.WithLabelValues(string(event.Type), event.Level.String()).Inc()
}

func (o *PrometheusObserver) Describe(ch chan<- *prometheus.Desc) {
	o.events.Describe(ch)
}

func (o *PrometheusObserver) Collect(ch chan<- prometheus.Metric) {
	o.events.Collect(ch)
}
