package models

import (
	"strings"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/domain"
)

type FraudReviewRequest struct {
	CaseID     string `json:"caseId"`
	Decision   string `json:"decision"`
	ReviewerID string `json:"reviewerId"`
}

func (r FraudReviewRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.CaseID) == "" {
		errs = append(errs, "caseId is required")
	}
	if strings.TrimSpace(r.ReviewerID) == "" {
		errs = append(errs, "reviewerId is required")
	}
	switch domain.FraudCaseStatus(strings.ToUpper(strings.TrimSpace(r.Decision))) {
	case domain.FraudCaseStatusReviewed, domain.FraudCaseStatusDismissed:
	default:
		errs = append(errs, "Invalid decision. Must be REVIEWED or DISMISSED")
	}

	return joinErrors(errs)
}

type FraudReviewResponse struct {
	CaseID   string `json:"caseId"`
	Decision string `json:"decision"`
	Reviewed bool   `json:"reviewed"`
}

type FraudCaseResponse struct {
	ID            string  `json:"id"`
	TransactionID string  `json:"transactionId"`
	BankID        string  `json:"bankId"`
	Reason        string  `json:"reason"`
	Status        string  `json:"status"`
	ReviewedBy    *string `json:"reviewedBy,omitempty"`
	FlaggedAt     string  `json:"flaggedAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

func NewFraudCaseResponse(fraudCase domain.FraudCase) FraudCaseResponse {
	return FraudCaseResponse{
		ID:            fraudCase.ID,
		TransactionID: fraudCase.TransactionID,
		BankID:        fraudCase.BankID,
		Reason:        fraudCase.Reason,
		Status:        string(fraudCase.Status),
		ReviewedBy:    fraudCase.ReviewedBy,
		FlaggedAt:     fraudCase.FlaggedAt.Format(time.RFC3339),
		UpdatedAt:     fraudCase.UpdatedAt.Format(time.RFC3339),
	}
}
