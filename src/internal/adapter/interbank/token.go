package interbank

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the bank a token was issued to.
type Claims struct {
	BankSwift string `json:"bankSwift"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies the short-lived HS256 tokens banks exchange
// on inter-bank calls.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock returns a copy of the issuer reading time from now.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	clone := *i
	clone.now = now
	return &clone
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for subject (a SWIFT code) addressed to audience.
func (i *TokenIssuer) Issue(subject string, audience string) (string, time.Time, error) {
	if strings.TrimSpace(subject) == "" {
		return "", time.Time{}, errors.New("token subject is required")
	}

	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		BankSwift: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign inter-bank token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates signature, expiry, issuer and, when given, audience.
func (i *TokenIssuer) Parse(token string, audience string) (Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if audience != "" {
		options = append(options, jwt.WithAudience(audience))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, options...)
	if err != nil {
		return Claims{}, domain.NewUnauthorized("Invalid inter-bank token: " + err.Error())
	}
	return claims, nil
}
