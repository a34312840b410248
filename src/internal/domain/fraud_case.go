package domain

import "time"

type FraudCaseStatus string

const (
	FraudCaseStatusPending   FraudCaseStatus = "PENDING"
	FraudCaseStatusReviewed  FraudCaseStatus = "REVIEWED"
	FraudCaseStatusDismissed FraudCaseStatus = "DISMISSED"
)

func ParseFraudCaseStatus(raw string) (FraudCaseStatus, bool) {
	switch FraudCaseStatus(raw) {
	case FraudCaseStatusPending, FraudCaseStatusReviewed, FraudCaseStatusDismissed:
		return FraudCaseStatus(raw), true
	default:
		return "", false
	}
}

type FraudCase struct {
	ID            string
	TransactionID string
	BankID        string
	Reason        string
	Status        FraudCaseStatus
	ReviewedBy    *string
	FlaggedAt     time.Time
	UpdatedAt     time.Time
}
