// Package metrics wires the channel-data core's observability into
// Prometheus, mirroring sttp/Metrics.go's package-level
// Counter/Histogram variables registered from an init() function.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Conversions counts type-layer conversions by direction.
	Conversions *prometheus.CounterVec

	// ConversionCacheHits counts subscription publish cache hits vs. misses.
	ConversionCacheHits *prometheus.CounterVec

	// Writes counts pipeline write outcomes.
	Writes *prometheus.CounterVec

	// AlarmTransitions counts alarm severity transitions by resulting severity.
	AlarmTransitions *prometheus.CounterVec

	// PublishFanout records the number of eligible subscribers notified per publish call.
	PublishFanout prometheus.Histogram
)

func init() {
	Conversions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "epics_ca",
		Subsystem: "channeldata",
		Name:      "conversions_total",
		Help:      "The number of type-layer conversions performed, by direction.",
	}, []string{"direction"})

	ConversionCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "epics_ca",
		Subsystem: "channeldata",
		Name:      "conversion_cache_total",
		Help:      "The number of publish-time conversion cache lookups, by result.",
	}, []string{"result"})

	Writes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "epics_ca",
		Subsystem: "channeldata",
		Name:      "writes_total",
		Help:      "The number of channel writes, by outcome.",
	}, []string{"outcome"})

	AlarmTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "epics_ca",
		Subsystem: "channeldata",
		Name:      "alarm_transitions_total",
		Help:      "The number of alarm severity transitions, by resulting severity.",
	}, []string{"severity"})

	PublishFanout = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "epics_ca",
		Subsystem: "channeldata",
		Name:      "publish_fanout_subscribers",
		Help:      "The number of eligible subscribers notified per publish call.",
		Buckets:   prometheus.LinearBuckets(0, 2, 8),
	})

	prometheus.MustRegister(Conversions, ConversionCacheHits, Writes, AlarmTransitions, PublishFanout)
}
