package commons

import "errors"

var ErrRecordNotFound = errors.New("Record not found")
var ErrInsufficientBalance = errors.New("Insufficient balance")
var ErrInvalidTransition = errors.New("Transaction status transition not allowed")
var ErrFraudCaseResolved = errors.New("Fraud case already resolved with a different decision")
