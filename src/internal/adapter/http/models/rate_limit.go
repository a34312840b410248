package models

type RateLimitStatusResponse struct {
	Enabled       bool           `json:"enabled"`
	StoreSize     int            `json:"storeSize"`
	Configuration map[string]any `json:"configuration"`
}

// RateLimitExceededResponse is the 429 body. It is written bare, outside
// the response envelope.
type RateLimitExceededResponse struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	Scope             string `json:"scope"`
	RemainingRequests int64  `json:"remainingRequests"`
	ResetTime         int64  `json:"resetTime"`
	RetryAfter        int64  `json:"retryAfter"`
}
