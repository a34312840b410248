package audit

import (
	"context"

	"github.com/api-sage/settlement-hub/src/internal/logger"
)

const (
	ActionTransactionCompleted = "TRANSACTION_COMPLETED"
	ActionTransactionFailed    = "TRANSACTION_FAILED"
	ActionTransactionFlagged   = "TRANSACTION_FLAGGED"
	ActionFraudCaseReviewed    = "FRAUD_CASE_REVIEWED"
	ActionRateLimitCleared     = "RATE_LIMIT_CLEARED"
	ActionBankTokenIssued      = "BANK_TOKEN_ISSUED"
	ActionRatesRefreshed       = "EXCHANGE_RATES_REFRESHED"
)

// Recorder receives "record this action" calls. Persistence is owned by
// whatever sits behind it.
type Recorder interface {
	Record(ctx context.Context, action string, details map[string]any)
}

// LogRecorder writes audit entries to the structured log.
type LogRecorder struct{}

func NewLogRecorder() LogRecorder {
	return LogRecorder{}
}

func (LogRecorder) Record(_ context.Context, action string, details map[string]any) {
	fields := logger.Fields{"audit": true, "action": action}
	for key, value := range details {
		fields[key] = value
	}
	logger.Info("audit record", fields)
}

// Discard drops every entry.
type Discard struct{}

func (Discard) Record(context.Context, string, map[string]any) {}
