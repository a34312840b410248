package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/adapter/http/models"
	"github.com/api-sage/settlement-hub/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/settlement-hub/src/internal/audit"
	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/api-sage/settlement-hub/src/internal/config"
	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/api-sage/settlement-hub/src/internal/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ReasonUnusualPattern = "Unusual transaction pattern detected"
	ReasonHighFrequency  = "High frequency transactions detected"
	ReasonDailyLimit     = "Daily transaction limit exceeded"
	ReasonSelfTransfer   = "Suspicious same-account transfer pattern"
	ReasonOffHours       = "Transaction initiated during off-hours"
)

var screenedStatuses = []domain.TransactionStatus{
	domain.TransactionStatusCompleted,
	domain.TransactionStatusPending,
}

type fraudRule struct {
	name   string
	reason string
}

type FraudService struct {
	transactionRepo repo_interfaces.TransactionRepository
	fraudCaseRepo   repo_interfaces.FraudCaseRepository
	cfg             config.FraudConfig
	loc             *time.Location
	opts            options
}

func NewFraudService(
	transactionRepo repo_interfaces.TransactionRepository,
	fraudCaseRepo repo_interfaces.FraudCaseRepository,
	cfg config.FraudConfig,
	opts ...Option,
) *FraudService {
	loc, err := cfg.Location()
	if err != nil {
		loc = time.UTC
	}
	return &FraudService{
		transactionRepo: transactionRepo,
		fraudCaseRepo:   fraudCaseRepo,
		cfg:             cfg,
		loc:             loc,
		opts:            buildOptions(opts),
	}
}

// Evaluate runs every heuristic against tx and returns the reasons of the
// ones that matched, in a fixed order.
func (s *FraudService) Evaluate(ctx context.Context, tx domain.Transaction, from domain.Account, to domain.Account) ([]string, error) {
	matched, err := s.evaluate(ctx, tx, from, to)
	if err != nil {
		return nil, err
	}
	reasons := make([]string, 0, len(matched))
	for _, rule := range matched {
		reasons = append(reasons, rule.reason)
	}
	return reasons, nil
}

func (s *FraudService) evaluate(ctx context.Context, tx domain.Transaction, from domain.Account, to domain.Account) ([]fraudRule, error) {
	now := s.opts.now()
	matched := make([]fraudRule, 0)

	if tx.Amount.GreaterThan(s.cfg.HighAmountThreshold) {
		matched = append(matched, fraudRule{
			name:   "high_amount",
			reason: fmt.Sprintf("High amount transaction (>%s)", s.cfg.HighAmountThreshold.String()),
		})
	}

	unusual, err := s.isUnusualAmount(ctx, tx, from, now)
	if err != nil {
		return nil, err
	}
	if unusual {
		matched = append(matched, fraudRule{name: "unusual_pattern", reason: ReasonUnusualPattern})
	}

	frequent, err := s.isHighFrequency(ctx, tx, from, now)
	if err != nil {
		return nil, err
	}
	if frequent {
		matched = append(matched, fraudRule{name: "velocity", reason: ReasonHighFrequency})
	}

	overLimit, err := s.exceedsDailyLimit(ctx, tx, from, now)
	if err != nil {
		return nil, err
	}
	if overLimit {
		matched = append(matched, fraudRule{name: "daily_limit", reason: ReasonDailyLimit})
	}

	churn, err := s.isSelfTransferChurn(ctx, tx, from, to, now)
	if err != nil {
		return nil, err
	}
	if churn {
		matched = append(matched, fraudRule{name: "self_transfer", reason: ReasonSelfTransfer})
	}

	if s.isOffHours(tx.InitiatedAt) {
		matched = append(matched, fraudRule{name: "off_hours", reason: ReasonOffHours})
	}

	return matched, nil
}

func (s *FraudService) isUnusualAmount(ctx context.Context, tx domain.Transaction, from domain.Account, now time.Time) (bool, error) {
	since := now.AddDate(0, 0, -s.cfg.AverageLookbackDays)
	average, err := s.transactionRepo.AverageAmountSince(ctx, from.ID, since, tx.ID)
	if err != nil {
		return false, fmt.Errorf("average amount: %w", err)
	}
	// No history, nothing to compare against.
	if average.IsZero() {
		return false, nil
	}

	limit := average.Round(2).Mul(decimal.NewFromInt(s.cfg.UnusualMultiplier))
	return tx.Amount.GreaterThan(limit) && tx.Amount.GreaterThan(s.cfg.UnusualAmountThreshold), nil
}

func (s *FraudService) isHighFrequency(ctx context.Context, tx domain.Transaction, from domain.Account, now time.Time) (bool, error) {
	lastHour, err := s.transactionRepo.CountOutgoingSince(ctx, from.ID, now.Add(-time.Hour), tx.ID)
	if err != nil {
		return false, fmt.Errorf("count hourly transactions: %w", err)
	}
	if lastHour+1 >= s.cfg.MaxPerHour {
		return true, nil
	}

	lastDay, err := s.transactionRepo.CountOutgoingSince(ctx, from.ID, now.Add(-24*time.Hour), tx.ID)
	if err != nil {
		return false, fmt.Errorf("count daily transactions: %w", err)
	}
	return lastDay+1 >= s.cfg.MaxPerDay, nil
}

func (s *FraudService) exceedsDailyLimit(ctx context.Context, tx domain.Transaction, from domain.Account, now time.Time) (bool, error) {
	local := now.In(s.loc)
	startOfDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)

	total, err := s.transactionRepo.SumOutgoingSince(ctx, from.ID, startOfDay, screenedStatuses, tx.ID)
	if err != nil {
		return false, fmt.Errorf("sum daily amount: %w", err)
	}
	return total.Add(tx.Amount).GreaterThan(s.cfg.DailyAmountLimit), nil
}

func (s *FraudService) isSelfTransferChurn(ctx context.Context, tx domain.Transaction, from domain.Account, to domain.Account, now time.Time) (bool, error) {
	if from.HolderName != to.HolderName {
		return false, nil
	}

	count, err := s.transactionRepo.CountBetweenSince(ctx, from.ID, to.ID, now.Add(-time.Hour), tx.ID)
	if err != nil {
		return false, fmt.Errorf("count same pair transfers: %w", err)
	}
	return count+1 >= s.cfg.SelfTransferPerHour, nil
}

func (s *FraudService) isOffHours(at time.Time) bool {
	hour := at.In(s.loc).Hour()
	return hour >= s.cfg.OffHoursStart || hour <= s.cfg.OffHoursEnd
}

// Screen evaluates tx and, when any rule matches, holds it behind a new
// PENDING fraud case.
func (s *FraudService) Screen(ctx context.Context, tx domain.Transaction, from domain.Account, to domain.Account) ([]string, bool, error) {
	matched, err := s.evaluate(ctx, tx, from, to)
	if err != nil {
		logger.Error("fraud service screen failed", err, logger.Fields{
			"transactionId": tx.ID,
		})
		return nil, false, err
	}
	if len(matched) == 0 {
		return nil, false, nil
	}

	reasons := make([]string, 0, len(matched))
	for _, rule := range matched {
		reasons = append(reasons, rule.reason)
	}

	fraudCase, err := s.fraudCaseRepo.FlagTransaction(ctx, domain.FraudCase{
		ID:            uuid.NewString(),
		TransactionID: tx.ID,
		BankID:        tx.FromBankID,
		Reason:        strings.Join(reasons, "; "),
		Status:        domain.FraudCaseStatusPending,
		FlaggedAt:     s.opts.now(),
	})
	if err != nil {
		logger.Error("fraud service flag transaction failed", err, logger.Fields{
			"transactionId": tx.ID,
		})
		return reasons, false, fmt.Errorf("flag transaction: %w", err)
	}

	for _, rule := range matched {
		s.opts.metrics.RecordFraudFlag(rule.name)
	}
	s.opts.audit.Record(ctx, audit.ActionTransactionFlagged, map[string]any{
		"transactionId": tx.ID,
		"caseId":        fraudCase.ID,
		"reason":        fraudCase.Reason,
	})

	logger.Warn("fraud service transaction flagged", logger.Fields{
		"transactionId": tx.ID,
		"caseId":        fraudCase.ID,
		"reasons":       reasons,
	})
	return reasons, true, nil
}

func (s *FraudService) SubmitReview(ctx context.Context, req models.FraudReviewRequest) (commons.Response[models.FraudReviewResponse], error) {
	logger.Info("fraud service review request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.FraudReviewResponse]("validation failed", err.Error()), domain.NewValidation(err.Error())
	}

	caseID := strings.TrimSpace(req.CaseID)
	decision := strings.ToUpper(strings.TrimSpace(req.Decision))

	reviewed, err := s.ReviewFraudCase(ctx, caseID, decision, strings.TrimSpace(req.ReviewerID))
	resp := models.FraudReviewResponse{
		CaseID:   caseID,
		Decision: decision,
		Reviewed: reviewed,
	}
	if err != nil {
		logger.Error("fraud service review failed", err, logger.Fields{"caseId": caseID})
		return commons.ErrorResponse[models.FraudReviewResponse]("Failed to review fraud case", err.Error()), err
	}
	if !reviewed {
		return commons.ErrorResponse[models.FraudReviewResponse]("Fraud case not found"), domain.NewNotFound("Fraud case " + caseID)
	}

	return commons.SuccessResponse("Fraud case reviewed successfully", resp), nil
}

// ReviewFraudCase resolves a case. An unknown case reports false with no
// error. A repeat review with the same decision is accepted and leaves the
// first review in place; a different decision is refused.
func (s *FraudService) ReviewFraudCase(ctx context.Context, caseID string, rawDecision string, reviewer string) (bool, error) {
	decision := domain.FraudCaseStatus(rawDecision)
	if decision != domain.FraudCaseStatusReviewed && decision != domain.FraudCaseStatusDismissed {
		return false, domain.NewValidation("Invalid decision. Must be REVIEWED or DISMISSED")
	}

	updated, err := s.fraudCaseRepo.Review(ctx, caseID, decision, reviewer, s.opts.now())
	if err == nil {
		s.opts.audit.Record(ctx, audit.ActionFraudCaseReviewed, map[string]any{
			"caseId":        updated.ID,
			"transactionId": updated.TransactionID,
			"decision":      string(decision),
			"reviewer":      reviewer,
		})
		logger.Info("fraud service review success", logger.Fields{
			"caseId":   updated.ID,
			"decision": decision,
		})
		return true, nil
	}
	if errors.Is(err, commons.ErrRecordNotFound) {
		return false, nil
	}
	if !errors.Is(err, commons.ErrInvalidTransition) {
		return false, err
	}

	existing, getErr := s.fraudCaseRepo.Get(ctx, caseID)
	if errors.Is(getErr, commons.ErrRecordNotFound) {
		return false, nil
	}
	if getErr != nil {
		return false, getErr
	}
	if existing.Status == decision {
		return true, nil
	}
	return false, &domain.Error{
		Kind:        domain.KindValidation,
		Message:     "Fraud case " + caseID + " is already " + string(existing.Status),
		UserMessage: "This fraud case has already been resolved with a different decision.",
		Err:         commons.ErrFraudCaseResolved,
	}
}

func (s *FraudService) ListPendingFraudCases(ctx context.Context) (commons.Response[[]models.FraudCaseResponse], error) {
	return s.ListFraudCasesByStatus(ctx, string(domain.FraudCaseStatusPending))
}

func (s *FraudService) ListFraudCasesByStatus(ctx context.Context, rawStatus string) (commons.Response[[]models.FraudCaseResponse], error) {
	status, ok := domain.ParseFraudCaseStatus(strings.ToUpper(strings.TrimSpace(rawStatus)))
	if !ok {
		msg := "Invalid status. Must be PENDING, REVIEWED or DISMISSED"
		return commons.ErrorResponse[[]models.FraudCaseResponse]("validation failed", msg), domain.NewValidation(msg)
	}

	cases, err := s.fraudCaseRepo.ListByStatus(ctx, status)
	if err != nil {
		logger.Error("fraud service list by status failed", err, logger.Fields{"status": status})
		return commons.ErrorResponse[[]models.FraudCaseResponse]("Failed to fetch fraud cases", err.Error()), err
	}
	return commons.SuccessResponse("fraud cases fetched successfully", toFraudCaseResponses(cases)), nil
}

func (s *FraudService) ListAllFraudCases(ctx context.Context) (commons.Response[[]models.FraudCaseResponse], error) {
	cases, err := s.fraudCaseRepo.ListAll(ctx)
	if err != nil {
		logger.Error("fraud service list all failed", err, nil)
		return commons.ErrorResponse[[]models.FraudCaseResponse]("Failed to fetch fraud cases", err.Error()), err
	}
	return commons.SuccessResponse("fraud cases fetched successfully", toFraudCaseResponses(cases)), nil
}

func toFraudCaseResponses(cases []domain.FraudCase) []models.FraudCaseResponse {
	out := make([]models.FraudCaseResponse, 0, len(cases))
	for _, fraudCase := range cases {
		out = append(out, models.NewFraudCaseResponse(fraudCase))
	}
	return out
}
