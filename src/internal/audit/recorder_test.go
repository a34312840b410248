package audit_test

import (
	"context"
	"testing"

	"github.com/api-sage/settlement-hub/src/internal/audit"
	"github.com/api-sage/settlement-hub/src/internal/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogRecorderWritesActionAndDetails(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(zap.NewNop()) })

	audit.NewLogRecorder().Record(context.Background(), audit.ActionFraudCaseReviewed, map[string]any{
		"caseId":   "c-1",
		"decision": "DISMISSED",
	})

	entries := logs.FilterMessage("audit record").All()
	if len(entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["action"] != audit.ActionFraudCaseReviewed || fields["caseId"] != "c-1" {
		t.Fatalf("unexpected audit fields: %v", fields)
	}
}
