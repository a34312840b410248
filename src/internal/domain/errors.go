package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindAccountNotFound
	KindInsufficientFunds
	KindFraudDetected
	KindTransactionFailed
	KindCurrencyConversionUnavailable
	KindUnauthorizedOperation
	KindValidation
	KindNotFound
)

var kindCodes = map[ErrorKind]string{
	KindInternal:                      "INTERNAL_ERROR",
	KindAccountNotFound:               "ACCOUNT_NOT_FOUND",
	KindInsufficientFunds:             "INSUFFICIENT_FUNDS",
	KindFraudDetected:                 "FRAUD_DETECTED",
	KindTransactionFailed:             "TRANSACTION_FAILED",
	KindCurrencyConversionUnavailable: "CURRENCY_CONVERSION_ERROR",
	KindUnauthorizedOperation:         "UNAUTHORIZED_OPERATION",
	KindValidation:                    "VALIDATION_ERROR",
	KindNotFound:                      "NOT_FOUND",
}

func (k ErrorKind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return kindCodes[KindInternal]
}

func (k ErrorKind) String() string {
	return k.Code()
}

// Error is the tagged error returned by the settlement core. Message is
// meant for operators, UserMessage for the end user.
type Error struct {
	Kind        ErrorKind
	Message     string
	UserMessage string

	AccountID     string
	Balance       decimal.Decimal
	Requested     decimal.Decimal
	TransactionID string
	Reasons       []string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Code() string {
	return e.Kind.Code()
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// AsError returns the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func NewAccountNotFound(accountNumber string) *Error {
	return &Error{
		Kind:        KindAccountNotFound,
		Message:     "Account not found: " + accountNumber,
		UserMessage: "The specified account could not be found. Please verify the account number.",
	}
}

func NewInsufficientFunds(accountID string, balance, requested decimal.Decimal) *Error {
	return &Error{
		Kind: KindInsufficientFunds,
		Message: fmt.Sprintf("Insufficient funds in account %s. Balance: %s, Requested: %s",
			accountID, balance.StringFixed(2), requested.StringFixed(2)),
		UserMessage: "Your account balance is insufficient to complete this transaction.",
		AccountID:   accountID,
		Balance:     balance,
		Requested:   requested,
	}
}

func NewFraudDetected(transactionID string, reasons []string) *Error {
	return &Error{
		Kind:          KindFraudDetected,
		Message:       "Fraudulent transaction detected: " + strings.Join(reasons, "; "),
		UserMessage:   "This transaction has been flagged for security review. Please contact customer service.",
		TransactionID: transactionID,
		Reasons:       reasons,
	}
}

func NewTransactionFailed(transactionID, reason string, cause error) *Error {
	return &Error{
		Kind:          KindTransactionFailed,
		Message:       "Transaction failed: " + reason,
		UserMessage:   "The transaction could not be completed. " + reason,
		TransactionID: transactionID,
		Err:           cause,
	}
}

func NewConversionUnavailable(from, to string) *Error {
	return &Error{
		Kind:        KindCurrencyConversionUnavailable,
		Message:     fmt.Sprintf("Exchange rate not available for %s to %s", from, to),
		UserMessage: "Currency conversion is currently unavailable for the requested currencies.",
	}
}

func NewUnauthorized(reason string) *Error {
	return &Error{
		Kind:        KindUnauthorizedOperation,
		Message:     "Unauthorized operation: " + reason,
		UserMessage: "You are not authorized to perform this operation.",
	}
}

func NewValidation(reason string) *Error {
	return &Error{
		Kind:        KindValidation,
		Message:     reason,
		UserMessage: "The request is invalid. " + reason,
	}
}

func NewNotFound(what string) *Error {
	return &Error{
		Kind:        KindNotFound,
		Message:     what + " not found",
		UserMessage: "The requested resource could not be found.",
	}
}
