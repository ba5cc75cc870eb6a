package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	inferDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inferd",
			Subsystem: "engine",
			Name:      "infer_duration_seconds",
			Help:      "Engine inference latency in seconds (sync: full call; async: submit to completed wait)",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"mode"},
	)

	inferRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "engine",
			Name:      "requests_total",
			Help:      "Inference requests by mode (sync, async) and result (ok, no_result, error)",
		},
		[]string{"mode", "result"},
	)

	slotsInflight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "inferd",
			Subsystem: "engine",
			Name:      "slots_inflight",
			Help:      "Request slots handed out and not yet waited on",
		},
		[]string{"model"},
	)

	loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "manager",
			Name:      "loads_total",
			Help:      "Model loads by result (ok, error, unsupported)",
		},
		[]string{"result"},
	)

	evictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "manager",
			Name:      "evictions_total",
			Help:      "Instances evicted to fit the memory budget",
		},
	)
)

func init() {
	prometheus.MustRegister(inferDuration, inferRequestsTotal, slotsInflight, loadsTotal, evictionsTotal)
}
