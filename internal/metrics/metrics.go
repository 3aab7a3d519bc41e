// Package metrics exposes deployment run metrics through go-kit interfaces,
// backed by Prometheus or discarded.
package metrics

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"

	prometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "executor"
)

// Metrics contains metrics exposed by the executor.
type Metrics struct {
	// Number of units deployed, by contract.
	UnitsDeployed metrics.Counter
	// Number of units that failed, by contract and reason.
	UnitsFailed metrics.Counter
	// Histogram of deployment action duration in seconds, by contract.
	DeployDuration metrics.Histogram
	// Number of results in the run's ledger.
	LedgerSize metrics.Gauge
	// Number of units currently in progress.
	InFlight metrics.Gauge
}

// PrometheusMetrics returns Metrics registered on reg under namespace.
func PrometheusMetrics(reg stdprometheus.Registerer, namespace string) *Metrics {
	deployed := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: MetricsSubsystem,
		Name:      "units_deployed_total",
		Help:      "Number of units deployed.",
	}, []string{"contract"})
	failed := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: MetricsSubsystem,
		Name:      "units_failed_total",
		Help:      "Number of units whose deployment failed.",
	}, []string{"contract", "reason"})
	duration := stdprometheus.NewHistogramVec(stdprometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: MetricsSubsystem,
		Name:      "deploy_duration_seconds",
		Help:      "Time spent in the deployment action.",
		Buckets:   stdprometheus.ExponentialBucketsRange(0.1, 600, 10),
	}, []string{"contract"})
	ledgerSize := stdprometheus.NewGaugeVec(stdprometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: MetricsSubsystem,
		Name:      "ledger_size",
		Help:      "Number of results recorded in the current run.",
	}, nil)
	inFlight := stdprometheus.NewGaugeVec(stdprometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: MetricsSubsystem,
		Name:      "units_in_flight",
		Help:      "Number of deployment actions currently running.",
	}, nil)

	reg.MustRegister(deployed, failed, duration, ledgerSize, inFlight)

	return &Metrics{
		UnitsDeployed:  prometheus.NewCounter(deployed),
		UnitsFailed:    prometheus.NewCounter(failed),
		DeployDuration: prometheus.NewHistogram(duration),
		LedgerSize:     prometheus.NewGauge(ledgerSize),
		InFlight:       prometheus.NewGauge(inFlight),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		UnitsDeployed:  discard.NewCounter(),
		UnitsFailed:    discard.NewCounter(),
		DeployDuration: discard.NewHistogram(),
		LedgerSize:     discard.NewGauge(),
		InFlight:       discard.NewGauge(),
	}
}
