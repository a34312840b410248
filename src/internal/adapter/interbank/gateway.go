package interbank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/config"
	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/api-sage/settlement-hub/src/internal/logger"
	"github.com/api-sage/settlement-hub/src/internal/metrics"
	"github.com/sony/gobreaker"
)

const userAgent = "settlement-hub/1.0"

// Gateway asks a destination bank to approve an incoming transfer. Every
// failure is folded into a denial so callers only ever branch on Approved.
type Gateway struct {
	client  *http.Client
	tokens  *TokenIssuer
	metrics metrics.Collector
	breaker config.BreakerConfig
	now     func() time.Time

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewGateway(cfg config.InterBankConfig, tokens *TokenIssuer, collector metrics.Collector) *Gateway {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	return &Gateway{
		client:   &http.Client{Timeout: cfg.Timeout},
		tokens:   tokens,
		metrics:  collector,
		breaker:  cfg.Breaker,
		now:      time.Now,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (g *Gateway) RequestApproval(ctx context.Context, target domain.Bank, req TransferRequest) TransferResponse {
	start := time.Now()
	logger.Info("interbank gateway request approval", logger.Fields{
		"transactionId": req.TransactionID,
		"toBankSwift":   target.SwiftCode,
		"amount":        req.Amount.StringFixed(2),
		"currency":      req.Currency,
	})

	result, err := g.breakerFor(target.SwiftCode).Execute(func() (interface{}, error) {
		return g.send(ctx, target, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logger.Warn("interbank gateway circuit open", logger.Fields{"toBankSwift": target.SwiftCode})
		}
		logger.Error("interbank gateway request approval failed", err, logger.Fields{
			"transactionId": req.TransactionID,
			"toBankSwift":   target.SwiftCode,
		})
		g.metrics.RecordInterBankRequest(target.SwiftCode, "error", time.Since(start))
		return g.failure(err)
	}

	response := result.(TransferResponse)
	outcome := "denied"
	if response.Approved {
		outcome = "approved"
	}
	g.metrics.RecordInterBankRequest(target.SwiftCode, outcome, time.Since(start))
	logger.Info("interbank gateway request approval success", logger.Fields{
		"transactionId": req.TransactionID,
		"approved":      response.Approved,
		"responseCode":  response.ResponseCode,
	})
	return response
}

func (g *Gateway) send(ctx context.Context, target domain.Bank, req TransferRequest) (TransferResponse, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(target.APIEndpoint), "/")
	if endpoint == "" {
		return TransferResponse{}, fmt.Errorf("bank %s has no api endpoint", target.SwiftCode)
	}

	token, _, err := g.tokens.Issue(req.FromBankSwift, target.SwiftCode)
	if err != nil {
		return TransferResponse{}, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return TransferResponse{}, fmt.Errorf("encode transfer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/transfers/incoming", bytes.NewReader(body))
	if err != nil {
		return TransferResponse{}, fmt.Errorf("build transfer request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("X-Bank-Code", req.FromBankSwift)
	httpReq.Header.Set("X-Timestamp", strconv.FormatInt(g.now().UnixMilli(), 10))
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return TransferResponse{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return TransferResponse{}, fmt.Errorf("read transfer response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return TransferResponse{}, fmt.Errorf("bank %s responded with status %d", target.SwiftCode, resp.StatusCode)
	}

	var out TransferResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return TransferResponse{}, fmt.Errorf("decode transfer response: %w", err)
	}
	return out, nil
}

func (g *Gateway) failure(err error) TransferResponse {
	return TransferResponse{
		Approved:        false,
		ResponseCode:    ResponseCodeAPIError,
		ResponseMessage: failedToCommunicate,
		ErrorDetails:    err.Error(),
		Timestamp:       g.now().UnixMilli(),
	}
}

func (g *Gateway) breakerFor(swift string) *gobreaker.CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cb, ok := g.breakers[swift]; ok {
		return cb
	}

	threshold := g.breaker.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        swift,
		MaxRequests: g.breaker.MaxRequests,
		Interval:    g.breaker.Interval,
		Timeout:     g.breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("interbank gateway circuit state changed", logger.Fields{
				"bank": name,
				"from": from.String(),
				"to":   to.String(),
			})

			var state metrics.CircuitState
			switch to {
			case gobreaker.StateClosed:
				state = metrics.CircuitClosed
			case gobreaker.StateHalfOpen:
				state = metrics.CircuitHalfOpen
			case gobreaker.StateOpen:
				state = metrics.CircuitOpen
			}
			g.metrics.RecordCircuitState(name, state)
		},
	})
	g.breakers[swift] = cb
	return cb
}
