package metrics

import "time"

// Collector receives the operational signals emitted by the settlement
// services, the inter-bank gateway, the rate limiter and the HTTP layer.
type Collector interface {
	// Settlement
	RecordSettlement(outcome string)
	RecordFraudFlag(rule string)

	// Inter-bank gateway
	RecordInterBankRequest(bank string, outcome string, duration time.Duration)
	RecordCircuitState(bank string, state CircuitState)

	// Rate limiting
	RecordRateLimitDecision(scope string, allowed bool)
	RecordRateLimitStoreError()

	// Background jobs
	RecordCurrencyRefresh(result string)
	RecordRecoveryRun(resumed int, rejected int, failed int)

	// HTTP
	RecordHTTPRequest(method string, route string, status int, duration time.Duration)
}

// CircuitState mirrors the breaker states exported as a gauge.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// NoOpCollector discards everything. It is the default when no registry is wired.
type NoOpCollector struct{}

func (NoOpCollector) RecordSettlement(string) {}
func (NoOpCollector) RecordFraudFlag(string) {}
func (NoOpCollector) RecordInterBankRequest(string, string, time.Duration) {}
func (NoOpCollector) RecordCircuitState(string, CircuitState) {}
func (NoOpCollector) RecordRateLimitDecision(string, bool) {}
func (NoOpCollector) RecordRateLimitStoreError() {}
func (NoOpCollector) RecordCurrencyRefresh(string) {}
func (NoOpCollector) RecordRecoveryRun(int, int, int) {}
func (NoOpCollector) RecordHTTPRequest(string, string, int, time.Duration) {}
