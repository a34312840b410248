package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/api-sage/settlement-hub/src/internal/adapter/http/models"
	"github.com/api-sage/settlement-hub/src/internal/adapter/interbank"
	"github.com/api-sage/settlement-hub/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/settlement-hub/src/internal/audit"
	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/api-sage/settlement-hub/src/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeFlagged   = "flagged"
	OutcomeRejected  = "rejected"
)

type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from string, to string) (decimal.Decimal, error)
}

type Screener interface {
	Screen(ctx context.Context, tx domain.Transaction, from domain.Account, to domain.Account) ([]string, bool, error)
}

type ApprovalGateway interface {
	RequestApproval(ctx context.Context, target domain.Bank, req interbank.TransferRequest) interbank.TransferResponse
}

// SettlementService moves money between accounts. Same bank transfers are
// posted directly; cross bank transfers are posted once the destination
// bank approves them.
type SettlementService struct {
	accountRepo     repo_interfaces.AccountRepository
	bankRepo        repo_interfaces.BankRepository
	transactionRepo repo_interfaces.TransactionRepository
	converter       Converter
	screener        Screener
	gateway         ApprovalGateway
	opts            options
}

func NewSettlementService(
	accountRepo repo_interfaces.AccountRepository,
	bankRepo repo_interfaces.BankRepository,
	transactionRepo repo_interfaces.TransactionRepository,
	converter Converter,
	screener Screener,
	gateway ApprovalGateway,
	opts ...Option,
) *SettlementService {
	return &SettlementService{
		accountRepo:     accountRepo,
		bankRepo:        bankRepo,
		transactionRepo: transactionRepo,
		converter:       converter,
		screener:        screener,
		gateway:         gateway,
		opts:            buildOptions(opts),
	}
}

type party struct {
	account domain.Account
	bank    domain.Bank
}

func (s *SettlementService) Settle(ctx context.Context, req models.CreateTransactionRequest) (commons.Response[models.TransactionResponse], error) {
	logger.Info("settlement service settle request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return settleError(domain.NewValidation(err.Error()))
	}

	from, err := s.resolve(ctx, req.AccountNumber, req.BankName, "Source")
	if err != nil {
		return settleError(err)
	}
	to, err := s.resolve(ctx, req.ToAccountNumber, req.ToBankName, "Destination")
	if err != nil {
		return settleError(err)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	debit, err := s.converter.Convert(ctx, req.Amount, currency, from.account.Currency)
	if err != nil {
		logger.Error("settlement service conversion failed", err, logger.Fields{
			"from": currency,
			"to":   from.account.Currency,
		})
		return settleError(domain.NewTransactionFailed("", "Currency conversion failed", err))
	}
	if from.account.Balance.LessThan(debit) {
		return settleError(domain.NewInsufficientFunds(from.account.ID, from.account.Balance, debit))
	}

	tx, err := s.transactionRepo.Create(ctx, domain.Transaction{
		ID:            uuid.NewString(),
		FromAccountID: from.account.ID,
		ToAccountID:   to.account.ID,
		FromBankID:    from.bank.ID,
		ToBankID:      to.bank.ID,
		Amount:        req.Amount,
		Currency:      currency,
		Status:        domain.TransactionStatusPending,
		Message:       strings.TrimSpace(req.Message),
		InitiatedAt:   s.opts.now(),
	})
	if err != nil {
		logger.Error("settlement service create transaction failed", err, nil)
		return settleError(fmt.Errorf("create transaction: %w", err))
	}

	reasons, flagged, err := s.screener.Screen(ctx, tx, from.account, to.account)
	if err != nil {
		reason := "Fraud screening unavailable"
		s.fail(ctx, tx, reason)
		return settleError(domain.NewTransactionFailed(tx.ID, reason, err))
	}
	if flagged {
		s.opts.metrics.RecordSettlement(OutcomeFlagged)
		return settleError(domain.NewFraudDetected(tx.ID, reasons))
	}

	if tx.IsSameBank() {
		if err := s.complete(ctx, tx); err != nil {
			return settleError(err)
		}
		return s.completedResponse(ctx, tx.ID)
	}

	approval := s.gateway.RequestApproval(ctx, to.bank, s.transferRequest(tx, from, to, req.AccountHolderName))
	if !approval.Approved {
		reason := "Inter-bank transfer was denied: " + approval.ResponseMessage
		s.fail(ctx, tx, reason)
		return settleError(domain.NewTransactionFailed(tx.ID, reason, nil))
	}
	if err := s.complete(ctx, tx); err != nil {
		return settleError(err)
	}
	return s.completedResponse(ctx, tx.ID)
}

func (s *SettlementService) resolve(ctx context.Context, accountNumber string, bankName string, side string) (party, error) {
	accountNumber = strings.TrimSpace(accountNumber)
	account, bank, err := s.accountRepo.GetByNumberAndBankName(ctx, accountNumber, strings.TrimSpace(bankName))
	if errors.Is(err, commons.ErrRecordNotFound) {
		return party{}, domain.NewAccountNotFound(accountNumber)
	}
	if err != nil {
		return party{}, fmt.Errorf("resolve account: %w", err)
	}
	if account.Status != domain.AccountStatusActive {
		return party{}, domain.NewValidation(side + " account is not active")
	}
	if bank.Status != domain.BankStatusActive {
		return party{}, domain.NewValidation(side + " bank is not active")
	}
	return party{account: account, bank: bank}, nil
}

func (s *SettlementService) transferRequest(tx domain.Transaction, from party, to party, holderName string) interbank.TransferRequest {
	if strings.TrimSpace(holderName) == "" {
		holderName = from.account.HolderName
	}
	return interbank.TransferRequest{
		TransactionID:     tx.ID,
		FromBankSwift:     from.bank.SwiftCode,
		FromBankName:      from.bank.Name,
		ToBankSwift:       to.bank.SwiftCode,
		ToBankName:        to.bank.Name,
		FromAccountNumber: from.account.AccountNumber,
		ToAccountNumber:   to.account.AccountNumber,
		AccountHolderName: holderName,
		Amount:            tx.Amount,
		Currency:          tx.Currency,
		Message:           tx.Message,
	}
}

// CompleteApprovedTransaction posts tx against the current balances. Any
// failure leaves tx FAILED and is reported as false.
func (s *SettlementService) CompleteApprovedTransaction(ctx context.Context, tx domain.Transaction) bool {
	return s.complete(ctx, tx) == nil
}

func (s *SettlementService) complete(ctx context.Context, tx domain.Transaction) error {
	from, err := s.accountRepo.GetByID(ctx, tx.FromAccountID)
	if err != nil {
		return s.failWith(ctx, tx, "Source account unavailable", err)
	}
	to, err := s.accountRepo.GetByID(ctx, tx.ToAccountID)
	if err != nil {
		return s.failWith(ctx, tx, "Destination account unavailable", err)
	}

	debit, err := s.converter.Convert(ctx, tx.Amount, tx.Currency, from.Currency)
	if err != nil {
		return s.failWith(ctx, tx, "Currency conversion failed", err)
	}
	credit, err := s.converter.Convert(ctx, tx.Amount, tx.Currency, to.Currency)
	if err != nil {
		return s.failWith(ctx, tx, "Currency conversion failed", err)
	}
	if from.Balance.LessThan(debit) {
		s.fail(ctx, tx, "Insufficient funds")
		return domain.NewInsufficientFunds(from.ID, from.Balance, debit)
	}

	err = s.transactionRepo.PostTransfer(ctx, domain.Posting{
		TransactionID: tx.ID,
		FromAccountID: from.ID,
		DebitAmount:   debit,
		ToAccountID:   to.ID,
		CreditAmount:  credit,
		CompletedAt:   s.opts.now(),
	})
	switch {
	case err == nil:
	case errors.Is(err, commons.ErrInsufficientBalance):
		s.fail(ctx, tx, "Insufficient funds")
		return domain.NewInsufficientFunds(from.ID, from.Balance, debit)
	case errors.Is(err, commons.ErrInvalidTransition):
		return domain.NewTransactionFailed(tx.ID, "Transaction is no longer pending", err)
	default:
		return s.failWith(ctx, tx, "Ledger posting failed", err)
	}

	s.opts.metrics.RecordSettlement(OutcomeCompleted)
	s.opts.audit.Record(ctx, audit.ActionTransactionCompleted, map[string]any{
		"transactionId": tx.ID,
		"amount":        tx.Amount.StringFixed(2),
		"currency":      tx.Currency,
		"debit":         debit.StringFixed(2),
		"credit":        credit.StringFixed(2),
	})
	logger.Info("settlement service transaction completed", logger.Fields{
		"transactionId": tx.ID,
		"sameBank":      tx.IsSameBank(),
	})
	return nil
}

// ResumeTransaction settles a held transaction whose hold was lifted.
func (s *SettlementService) ResumeTransaction(ctx context.Context, tx domain.Transaction) bool {
	if tx.Status != domain.TransactionStatusFlaggedForFraud {
		logger.Warn("settlement service resume skipped", logger.Fields{
			"transactionId": tx.ID,
			"status":        tx.Status,
		})
		return false
	}
	if tx.IsSameBank() {
		return s.CompleteApprovedTransaction(ctx, tx)
	}

	from, to, err := s.parties(ctx, tx)
	if err != nil {
		_ = s.failWith(ctx, tx, "Unable to resolve transfer parties", err)
		return false
	}

	approval := s.gateway.RequestApproval(ctx, to.bank, s.transferRequest(tx, from, to, ""))
	if !approval.Approved {
		s.fail(ctx, tx, "Inter-bank transfer was denied: "+approval.ResponseMessage)
		return false
	}
	return s.CompleteApprovedTransaction(ctx, tx)
}

// RejectHeldTransaction fails a held transaction after its hold was confirmed.
func (s *SettlementService) RejectHeldTransaction(ctx context.Context, tx domain.Transaction, reason string) bool {
	if tx.Status != domain.TransactionStatusFlaggedForFraud {
		return false
	}
	if !s.fail(ctx, tx, reason) {
		return false
	}
	s.opts.metrics.RecordSettlement(OutcomeRejected)
	return true
}

func (s *SettlementService) parties(ctx context.Context, tx domain.Transaction) (party, party, error) {
	fromAccount, err := s.accountRepo.GetByID(ctx, tx.FromAccountID)
	if err != nil {
		return party{}, party{}, err
	}
	toAccount, err := s.accountRepo.GetByID(ctx, tx.ToAccountID)
	if err != nil {
		return party{}, party{}, err
	}
	fromBank, err := s.bankRepo.GetByID(ctx, tx.FromBankID)
	if err != nil {
		return party{}, party{}, err
	}
	toBank, err := s.bankRepo.GetByID(ctx, tx.ToBankID)
	if err != nil {
		return party{}, party{}, err
	}
	return party{account: fromAccount, bank: fromBank}, party{account: toAccount, bank: toBank}, nil
}

func (s *SettlementService) failWith(ctx context.Context, tx domain.Transaction, reason string, cause error) error {
	logger.Error("settlement service transaction failed", cause, logger.Fields{
		"transactionId": tx.ID,
		"reason":        reason,
	})
	s.fail(ctx, tx, reason)
	return domain.NewTransactionFailed(tx.ID, reason, cause)
}

// fail marks tx FAILED. It reports false when tx had already left a
// failable status.
func (s *SettlementService) fail(ctx context.Context, tx domain.Transaction, reason string) bool {
	if err := s.transactionRepo.MarkFailed(ctx, tx.ID, reason, s.opts.now()); err != nil {
		logger.Error("settlement service mark failed failed", err, logger.Fields{
			"transactionId": tx.ID,
		})
		return false
	}

	s.opts.metrics.RecordSettlement(OutcomeFailed)
	s.opts.audit.Record(ctx, audit.ActionTransactionFailed, map[string]any{
		"transactionId": tx.ID,
		"reason":        reason,
	})
	return true
}

func (s *SettlementService) completedResponse(ctx context.Context, id string) (commons.Response[models.TransactionResponse], error) {
	tx, err := s.transactionRepo.Get(ctx, id)
	if err != nil {
		return settleError(fmt.Errorf("get transaction: %w", err))
	}
	return commons.SuccessResponse("Transaction completed successfully", models.NewTransactionResponse(tx)), nil
}

func (s *SettlementService) GetTransaction(ctx context.Context, id string) (commons.Response[models.TransactionResponse], error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return settleError(domain.NewNotFound("Transaction " + id))
	}

	tx, err := s.transactionRepo.Get(ctx, id)
	if errors.Is(err, commons.ErrRecordNotFound) {
		return settleError(domain.NewNotFound("Transaction " + id))
	}
	if err != nil {
		logger.Error("settlement service get transaction failed", err, logger.Fields{"transactionId": id})
		return settleError(fmt.Errorf("get transaction: %w", err))
	}
	return commons.SuccessResponse("transaction fetched successfully", models.NewTransactionResponse(tx)), nil
}

func settleError(err error) (commons.Response[models.TransactionResponse], error) {
	if de, ok := domain.AsError(err); ok {
		return commons.CodedErrorResponse[models.TransactionResponse](de.Code(), de.Message, de.UserMessage), err
	}
	return commons.CodedErrorResponse[models.TransactionResponse](domain.KindInternal.Code(), "Transaction processing failed", "An unexpected error occurred. Please try again later.", err.Error()), err
}
