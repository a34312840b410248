package metrics_test

import (
	"testing"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusCollectorRegistersAndCounts(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewPrometheusCollector("settlement_hub")
	if err := collector.Register(registry); err != nil {
		t.Fatalf("expected register to succeed, got %v", err)
	}

	collector.RecordSettlement("completed")
	collector.RecordSettlement("completed")
	collector.RecordRateLimitDecision("global", false)
	collector.RecordInterBankRequest("DESTUS33", "approved", 20*time.Millisecond)
	collector.RecordRecoveryRun(1, 2, 0)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("expected gather to succeed, got %v", err)
	}
	found := map[string]bool{}
	for _, family := range families {
		found[family.GetName()] = true
	}
	for _, name := range []string{
		"settlement_hub_settlements_total",
		"settlement_hub_ratelimit_decisions_total",
		"settlement_hub_interbank_requests_total",
		"settlement_hub_interbank_request_duration_seconds",
		"settlement_hub_recovery_runs_total",
	} {
		if !found[name] {
			t.Fatalf("expected %s to be exported", name)
		}
	}

	if err := collector.Register(prometheus.NewRegistry()); err != nil {
		t.Fatalf("expected register on a fresh registry to succeed, got %v", err)
	}
	if err := collector.Register(registry); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestRecordSettlementIncrementsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewPrometheusCollector("test")
	if err := collector.Register(registry); err != nil {
		t.Fatalf("register: %v", err)
	}

	collector.RecordSettlement("failed")
	collector.RecordSettlement("failed")
	collector.RecordSettlement("flagged")

	if got, err := testutil.GatherAndCount(registry, "test_settlements_total"); err != nil || got != 2 {
		t.Fatalf("expected 2 outcome series, got %d (%v)", got, err)
	}
}

func TestCircuitStateString(t *testing.T) {
	if metrics.CircuitHalfOpen.String() != "half-open" {
		t.Fatalf("expected half-open, got %s", metrics.CircuitHalfOpen)
	}
}
