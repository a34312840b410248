package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/adapter/http/models"
	"github.com/api-sage/settlement-hub/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/settlement-hub/src/internal/audit"
	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/api-sage/settlement-hub/src/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

type TokenIssuer interface {
	Issue(subject string, audience string) (string, time.Time, error)
	TTL() time.Duration
}

type BankService struct {
	bankRepo   repo_interfaces.BankRepository
	tokens     TokenIssuer
	secretHash []byte
	opts       options
}

// NewBankService builds the bank service. secretHash is the bcrypt hash of
// the master secret banks present when asking for a token; when it is empty
// token issuance is refused.
func NewBankService(bankRepo repo_interfaces.BankRepository, tokens TokenIssuer, secretHash string, opts ...Option) *BankService {
	return &BankService{
		bankRepo:   bankRepo,
		tokens:     tokens,
		secretHash: []byte(strings.TrimSpace(secretHash)),
		opts:       buildOptions(opts),
	}
}

func (s *BankService) GetBanks(ctx context.Context) (commons.Response[[]models.BankResponse], error) {
	logger.Info("bank service get banks request", nil)

	banks, err := s.bankRepo.GetAll(ctx)
	if err != nil {
		logger.Error("bank service get banks failed", err, nil)
		return commons.ErrorResponse[[]models.BankResponse]("Failed to fetch banks", err.Error()), err
	}

	out := make([]models.BankResponse, 0, len(banks))
	for _, bank := range banks {
		out = append(out, models.NewBankResponse(bank))
	}

	logger.Info("bank service get banks success", logger.Fields{"count": len(out)})
	return commons.SuccessResponse("banks fetched successfully", out), nil
}

// IssueBankToken hands an ACTIVE bank a bearer token it can present on
// inter-bank calls.
func (s *BankService) IssueBankToken(ctx context.Context, secret string, req models.BankTokenRequest) (commons.Response[models.BankTokenResponse], error) {
	logger.Info("bank service issue token request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if len(s.secretHash) == 0 || bcrypt.CompareHashAndPassword(s.secretHash, []byte(secret)) != nil {
		err := domain.NewUnauthorized("Invalid bank secret")
		return commons.ErrorResponse[models.BankTokenResponse]("Invalid bank secret"), err
	}
	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.BankTokenResponse]("validation failed", err.Error()), domain.NewValidation(err.Error())
	}

	swift := strings.ToUpper(strings.TrimSpace(req.Swift))
	bank, err := s.bankRepo.GetBySwiftCode(ctx, swift)
	if errors.Is(err, commons.ErrRecordNotFound) {
		err := domain.NewUnauthorized("Bank " + swift + " is not registered")
		return commons.ErrorResponse[models.BankTokenResponse]("Bank not registered"), err
	}
	if err != nil {
		logger.Error("bank service get bank failed", err, logger.Fields{"swift": swift})
		return commons.ErrorResponse[models.BankTokenResponse]("Failed to issue bank token", err.Error()), err
	}
	if bank.Status != domain.BankStatusActive {
		err := domain.NewUnauthorized("Bank " + swift + " is not active")
		return commons.ErrorResponse[models.BankTokenResponse]("Bank not active"), err
	}

	token, _, err := s.tokens.Issue(bank.SwiftCode, "")
	if err != nil {
		logger.Error("bank service issue token failed", err, logger.Fields{"swift": swift})
		return commons.ErrorResponse[models.BankTokenResponse]("Failed to issue bank token", err.Error()), err
	}

	s.opts.audit.Record(ctx, audit.ActionBankTokenIssued, map[string]any{"swift": bank.SwiftCode})
	logger.Info("bank service issue token success", logger.Fields{"swift": bank.SwiftCode})

	return commons.SuccessResponse("bank token issued successfully", models.BankTokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		BankSwift: bank.SwiftCode,
	}), nil
}
