package models

import (
	"strings"

	"github.com/api-sage/settlement-hub/src/internal/domain"
)

type BankResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SwiftCode   string `json:"swiftCode"`
	APIEndpoint string `json:"apiEndpoint"`
	Status      string `json:"status"`
}

func NewBankResponse(bank domain.Bank) BankResponse {
	return BankResponse{
		ID:          bank.ID,
		Name:        bank.Name,
		SwiftCode:   bank.SwiftCode,
		APIEndpoint: bank.APIEndpoint,
		Status:      string(bank.Status),
	}
}

type BankTokenRequest struct {
	Swift string `json:"swift"`
}

func (r BankTokenRequest) Validate() error {
	swift := strings.TrimSpace(r.Swift)
	if swift == "" {
		return joinErrors([]string{"SWIFT code is required"})
	}
	if len(swift) < 8 || len(swift) > 11 {
		return joinErrors([]string{"SWIFT code must be 8-11 characters"})
	}
	return nil
}

type BankTokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int64  `json:"expiresIn"`
	BankSwift string `json:"bankSwift"`
}
