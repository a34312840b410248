package ratelimit

import (
	"net/http"
	"strings"

	"github.com/api-sage/settlement-hub/src/internal/config"
)

const (
	ScopeGlobal       = "global"
	ScopeTransactions = "transactions"
	ScopeFraudReview  = "fraud:review"
	ScopeFraudQuery   = "fraud:query"
	ScopeAdmin        = "admin"
	ScopeBankToken    = "auth:bank-token"

	minute = 60
	hour   = 3600
)

type Rule struct {
	Limit         int64
	WindowSeconds int64
}

type Scope struct {
	Name  string
	Rules []Rule
}

// Policy maps requests to the scopes they are counted against.
type Policy struct {
	Global       Scope
	Transactions Scope
	FraudReview  Scope
	FraudQuery   Scope
	Admin        Scope
	BankToken    Scope
}

func NewPolicy(cfg config.RateLimitConfig) Policy {
	return Policy{
		Global: Scope{Name: ScopeGlobal, Rules: []Rule{
			{Limit: int64(cfg.GlobalPerMinute), WindowSeconds: minute},
			{Limit: int64(cfg.GlobalPerHour), WindowSeconds: hour},
		}},
		Transactions: Scope{Name: ScopeTransactions, Rules: []Rule{
			{Limit: int64(cfg.TransactionPerMinute), WindowSeconds: minute},
			{Limit: int64(cfg.TransactionPerHour), WindowSeconds: hour},
		}},
		FraudReview: Scope{Name: ScopeFraudReview, Rules: []Rule{{Limit: int64(cfg.FraudReviewPerMinute), WindowSeconds: minute}}},
		FraudQuery:  Scope{Name: ScopeFraudQuery, Rules: []Rule{{Limit: int64(cfg.FraudQueryPerMinute), WindowSeconds: minute}}},
		Admin:       Scope{Name: ScopeAdmin, Rules: []Rule{{Limit: int64(cfg.AdminPerMinute), WindowSeconds: minute}}},
		BankToken:   Scope{Name: ScopeBankToken, Rules: []Rule{{Limit: int64(cfg.BankTokenPerMinute), WindowSeconds: minute}}},
	}
}

// EndpointScope returns the endpoint-class scope for a request, if any.
func (p Policy) EndpointScope(method string, path string) (Scope, bool) {
	switch {
	case strings.HasPrefix(path, "/auth/bank-token") && method == http.MethodPost:
		return p.BankToken, true
	case strings.HasPrefix(path, "/transactions/"):
		return p.Transactions, true
	case strings.HasPrefix(path, "/fraud/") && method == http.MethodPost:
		return p.FraudReview, true
	case strings.HasPrefix(path, "/fraud/") && method == http.MethodGet:
		return p.FraudQuery, true
	case strings.HasPrefix(path, "/admin/"):
		return p.Admin, true
	case path == "/currency/refresh" && method == http.MethodPost:
		return p.Admin, true
	default:
		return Scope{}, false
	}
}

// Describe renders the configured limits for the admin status endpoint.
func (p Policy) Describe() map[string]any {
	out := make(map[string]any)
	for _, scope := range []Scope{p.Global, p.Transactions, p.FraudReview, p.FraudQuery, p.Admin, p.BankToken} {
		limits := make(map[string]int64, len(scope.Rules))
		for _, rule := range scope.Rules {
			switch rule.WindowSeconds {
			case minute:
				limits["requestsPerMinute"] = rule.Limit
			case hour:
				limits["requestsPerHour"] = rule.Limit
			}
		}
		out[scope.Name] = limits
	}
	return out
}
