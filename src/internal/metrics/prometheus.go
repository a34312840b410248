package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector exports Collector signals as Prometheus series.
type PrometheusCollector struct {
	settlements      *prometheus.CounterVec
	fraudFlags       *prometheus.CounterVec
	interBankCalls   *prometheus.CounterVec
	interBankLatency *prometheus.HistogramVec
	circuitState     *prometheus.GaugeVec
	rateLimit        *prometheus.CounterVec
	rateLimitErrors  prometheus.Counter
	currencyRefresh  *prometheus.CounterVec
	recoveryRuns     prometheus.Counter
	recoveryItems    *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
}

func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		settlements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settlements_total",
				Help:      "Settlement attempts by outcome",
			},
			[]string{"outcome"},
		),
		fraudFlags: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fraud_flags_total",
				Help:      "Fraud heuristics matched per rule",
			},
			[]string{"rule"},
		),
		interBankCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interbank_requests_total",
				Help:      "Outbound inter-bank approval requests by bank and outcome",
			},
			[]string{"bank", "outcome"},
		),
		interBankLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "interbank_request_duration_seconds",
				Help:      "Outbound inter-bank approval latency",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15),
			},
			[]string{"bank"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "interbank_circuit_state",
				Help:      "Breaker state per bank (0=closed, 1=open, 2=half-open)",
			},
			[]string{"bank"},
		),
		rateLimit: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratelimit_decisions_total",
				Help:      "Rate limit decisions per scope",
			},
			[]string{"scope", "allowed"},
		),
		rateLimitErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ratelimit_store_errors_total",
				Help:      "Rate limit store failures that were allowed through",
			},
		),
		currencyRefresh: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "currency_refresh_total",
				Help:      "Rate table refreshes by result",
			},
			[]string{"result"},
		),
		recoveryRuns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recovery_runs_total",
				Help:      "Completed recovery passes",
			},
		),
		recoveryItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recovery_items_total",
				Help:      "Held transactions processed by recovery, by result",
			},
			[]string{"result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15), // 0.1ms to ~3s
			},
			[]string{"method", "route"},
		),
	}
}

// Register registers all series with the given registry.
func (pc *PrometheusCollector) Register(registry *prometheus.Registry) error {
	collectors := []prometheus.Collector{
		pc.settlements,
		pc.fraudFlags,
		pc.interBankCalls,
		pc.interBankLatency,
		pc.circuitState,
		pc.rateLimit,
		pc.rateLimitErrors,
		pc.currencyRefresh,
		pc.recoveryRuns,
		pc.recoveryItems,
		pc.httpRequests,
		pc.httpLatency,
	}

	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

func (pc *PrometheusCollector) RecordSettlement(outcome string) {
	pc.settlements.WithLabelValues(outcome).Inc()
}

func (pc *PrometheusCollector) RecordFraudFlag(rule string) {
	pc.fraudFlags.WithLabelValues(rule).Inc()
}

func (pc *PrometheusCollector) RecordInterBankRequest(bank string, outcome string, duration time.Duration) {
	pc.interBankCalls.WithLabelValues(bank, outcome).Inc()
	pc.interBankLatency.WithLabelValues(bank).Observe(duration.Seconds())
}

func (pc *PrometheusCollector) RecordCircuitState(bank string, state CircuitState) {
	pc.circuitState.WithLabelValues(bank).Set(float64(state))
}

func (pc *PrometheusCollector) RecordRateLimitDecision(scope string, allowed bool) {
	pc.rateLimit.WithLabelValues(scope, strconv.FormatBool(allowed)).Inc()
}

func (pc *PrometheusCollector) RecordRateLimitStoreError() {
	pc.rateLimitErrors.Inc()
}

func (pc *PrometheusCollector) RecordCurrencyRefresh(result string) {
	pc.currencyRefresh.WithLabelValues(result).Inc()
}

func (pc *PrometheusCollector) RecordRecoveryRun(resumed int, rejected int, failed int) {
	pc.recoveryRuns.Inc()
	pc.recoveryItems.WithLabelValues("resumed").Add(float64(resumed))
	pc.recoveryItems.WithLabelValues("rejected").Add(float64(rejected))
	pc.recoveryItems.WithLabelValues("failed").Add(float64(failed))
}

func (pc *PrometheusCollector) RecordHTTPRequest(method string, route string, status int, duration time.Duration) {
	pc.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	pc.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}
