package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/api-sage/settlement-hub/src/internal/adapter/interbank"
	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/api-sage/settlement-hub/src/internal/logger"
)

const (
	unauthorizedCode        = "UNAUTHORIZED"
	authConfigMissingCode   = "INTERNAL_ERROR"
	unauthorizedUserMessage = "Valid channel credentials are required."
	bankTokenUserMessage    = "A valid bank token is required."
)

// BankTokenParser verifies the bearer tokens handed out by the bank token
// endpoint.
type BankTokenParser interface {
	Parse(token string, audience string) (interbank.Claims, error)
}

type principalKey struct{}

// Principal returns the verified caller identity stored by the auth
// middleware: "user:<channel id>" or "bank:<swift>".
func Principal(ctx context.Context) (string, bool) {
	principal, ok := ctx.Value(principalKey{}).(string)
	return principal, ok && principal != ""
}

func withPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// Authenticator checks channel basic credentials and, when it has a token
// parser, inter-bank bearer tokens.
type Authenticator struct {
	channelID  string
	channelKey string
	tokens     BankTokenParser
}

func NewAuthenticator(channelID, channelKey string, tokens BankTokenParser) *Authenticator {
	return &Authenticator{channelID: channelID, channelKey: channelKey, tokens: tokens}
}

func BasicAuth(channelID, channelKey string) func(http.Handler) http.Handler {
	return NewAuthenticator(channelID, channelKey, nil).Channel()
}

// Channel admits only callers holding the channel's basic credentials.
func (a *Authenticator) Channel() func(http.Handler) http.Handler {
	return a.middleware(false)
}

// ChannelOrBank also admits banks presenting a token from /auth/bank-token.
func (a *Authenticator) ChannelOrBank() func(http.Handler) http.Handler {
	return a.middleware(a.tokens != nil)
}

// Identify resolves the verified identity of r without rejecting it. Unknown
// or wrong credentials yield false.
func (a *Authenticator) Identify(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r); ok {
		if a.tokens == nil {
			return "", false
		}
		claims, err := a.tokens.Parse(token, "")
		if err != nil || claims.BankSwift == "" {
			return "", false
		}
		return "bank:" + claims.BankSwift, true
	}
	if id, ok := a.verifyBasic(r); ok {
		return "user:" + id, true
	}
	return "", false
}

func (a *Authenticator) middleware(allowBearer bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok && allowBearer {
				claims, err := a.tokens.Parse(token, "")
				if err != nil || claims.BankSwift == "" {
					logger.Info("bank token middleware unauthorized request", logger.Fields{
						"method":      r.Method,
						"path":        r.URL.Path,
						"credentials": "invalid_bearer",
					})
					w.Header().Set("WWW-Authenticate", `Bearer realm="settlement-hub", error="invalid_token"`)
					writeJSON(w, http.StatusUnauthorized, commons.CodedErrorResponse[struct{}](
						unauthorizedCode, "unauthorized", bankTokenUserMessage))
					return
				}
				next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), "bank:"+claims.BankSwift)))
				return
			}

			if a.channelID == "" || a.channelKey == "" {
				logger.Error("basic auth middleware missing server configuration", nil, logger.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
				})
				writeJSON(w, http.StatusInternalServerError, commons.CodedErrorResponse[struct{}](
					authConfigMissingCode, "server auth configuration is missing", "An unexpected error occurred. Please try again later."))
				return
			}

			id, ok := a.verifyBasic(r)
			if !ok {
				logger.Info("basic auth middleware unauthorized request", logger.Fields{
					"method":      r.Method,
					"path":        r.URL.Path,
					"credentials": "invalid_or_missing",
				})
				w.Header().Set("WWW-Authenticate", `Basic realm="settlement-hub"`)
				writeJSON(w, http.StatusUnauthorized, commons.CodedErrorResponse[struct{}](
					unauthorizedCode, "unauthorized", unauthorizedUserMessage))
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), "user:"+id)))
		})
	}
}

func (a *Authenticator) verifyBasic(r *http.Request) (string, bool) {
	if a.channelID == "" || a.channelKey == "" {
		return "", false
	}
	id, key, ok := r.BasicAuth()
	if !ok || !secureEqual(id, a.channelID) || !secureEqual(key, a.channelKey) {
		return "", false
	}
	return id, true
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
