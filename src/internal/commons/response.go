package commons

// Response is the envelope every endpoint answers with. TransactionID names
// the transaction a failed settlement left behind, if any.
type Response[T any] struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	Code          string   `json:"code,omitempty"`
	UserMessage   string   `json:"userMessage,omitempty"`
	TransactionID string   `json:"transactionId,omitempty"`
	Data          *T       `json:"data,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

func ErrorResponse[T any](message string, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}

// CodedErrorResponse carries a stable error code and a message meant for end users.
func CodedErrorResponse[T any](code, message, userMessage string, errors ...string) Response[T] {
	return Response[T]{
		Success:     false,
		Message:     message,
		Code:        code,
		UserMessage: userMessage,
		Errors:      errors,
	}
}
