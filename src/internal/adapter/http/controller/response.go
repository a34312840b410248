package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/api-sage/settlement-hub/src/internal/logger"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusFor maps an error returned by a service onto an HTTP status.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindAccountNotFound, domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindFraudDetected, domain.KindUnauthorizedOperation:
		return http.StatusForbidden
	case domain.KindInsufficientFunds,
		domain.KindTransactionFailed,
		domain.KindCurrencyConversionUnavailable,
		domain.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respond writes a service result. Error responses always carry a code and
// a user facing message, plus the transaction id and reasons of a typed
// error when it has them.
func respond[T any](w http.ResponseWriter, r *http.Request, start time.Time, response commons.Response[T], err error) {
	status := http.StatusOK
	if err != nil {
		logError(r, err, logger.Fields{"message": response.Message})
		status = statusFor(err)
		response.Success = false
		response.Data = nil
		de, typed := domain.AsError(err)
		if response.Code == "" {
			if typed {
				response.Code = de.Code()
				response.UserMessage = de.UserMessage
			} else {
				response.Code = domain.KindInternal.Code()
				response.UserMessage = "An unexpected error occurred. Please try again later."
			}
		}
		if typed {
			if response.TransactionID == "" {
				response.TransactionID = de.TransactionID
			}
			if len(response.Errors) == 0 {
				response.Errors = de.Reasons
			}
		}
	}

	writeJSON(w, status, response)
	logResponse(r, status, response, start)
}

func badRequest[T any](w http.ResponseWriter, r *http.Request, start time.Time, err error) {
	logError(r, err, nil)
	response := commons.CodedErrorResponse[T](domain.KindValidation.Code(), "invalid request body", "The request is invalid.", err.Error())
	writeJSON(w, http.StatusBadRequest, response)
	logResponse(r, http.StatusBadRequest, response, start)
}
