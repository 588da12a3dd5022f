package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	k8smetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
)

const metricNamespace string = "authgate"

var (
	BuildInfo prometheus.Gauge

	Decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "decisions_total",
			Help:      "Number of authorization decisions, by outcome",
		},
		[]string{"decision", "scope"},
	)

	IndexRebuilds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "index_rebuilds_total",
			Help:      "Number of binding index rebuilds",
		},
	)

	ChangesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "changes_rejected_total",
			Help:      "Number of administrative changes rejected by validation",
		},
		[]string{"kind"},
	)

	AuditDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "audit_dropped_total",
			Help:      "Number of audit records dropped because the log could not keep up",
		},
	)

	AuditWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "audit_write_failures_total",
			Help:      "Number of audit records the sink failed to persist",
		},
	)
)

func RegisterMetrics(version string) {
	BuildInfo = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   metricNamespace,
			Name:        "build_info",
			Help:        "Build information.",
			ConstLabels: prometheus.Labels{"revision": version},
		},
	)

	k8smetrics.Registry.MustRegister(BuildInfo)
	k8smetrics.Registry.MustRegister(collectors.NewBuildInfoCollector())

	k8smetrics.Registry.MustRegister(Decisions)
	k8smetrics.Registry.MustRegister(IndexRebuilds)
	k8smetrics.Registry.MustRegister(ChangesRejected)
	k8smetrics.Registry.MustRegister(AuditDropped)
	k8smetrics.Registry.MustRegister(AuditWriteFailures)
}
