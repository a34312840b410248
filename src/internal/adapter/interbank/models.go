package interbank

import "github.com/shopspring/decimal"

const (
	ResponseCodeAPIError = "API_ERROR"
	failedToCommunicate  = "Failed to communicate with bank"
)

// TransferRequest is the body sent to POST {endpoint}/transfers/incoming.
type TransferRequest struct {
	TransactionID     string          `json:"transactionId"`
	FromBankSwift     string          `json:"fromBankSwift"`
	FromBankName      string          `json:"fromBankName"`
	ToBankSwift       string          `json:"toBankSwift"`
	ToBankName        string          `json:"toBankName"`
	FromAccountNumber string          `json:"fromAccountNumber"`
	ToAccountNumber   string          `json:"toAccountNumber"`
	AccountHolderName string          `json:"accountHolderName"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Message           string          `json:"message"`
}

type TransferResponse struct {
	Approved        bool   `json:"approved"`
	ResponseCode    string `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
	ErrorDetails    string `json:"errorDetails,omitempty"`
	Timestamp       int64  `json:"timestamp"`
}
