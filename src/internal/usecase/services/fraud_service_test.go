package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/adapter/http/models"
	"github.com/api-sage/settlement-hub/src/internal/adapter/repository/memory"
	"github.com/api-sage/settlement-hub/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/settlement-hub/src/internal/audit"
	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/api-sage/settlement-hub/src/internal/config"
	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/api-sage/settlement-hub/src/internal/usecase/services"
	"github.com/shopspring/decimal"
)

type transactionRepoStub struct {
	repo_interfaces.TransactionRepository
	averageAmountSinceFn func(ctx context.Context, accountID string, since time.Time, excludeID string) (decimal.Decimal, error)
}

func (s transactionRepoStub) AverageAmountSince(ctx context.Context, accountID string, since time.Time, excludeID string) (decimal.Decimal, error) {
	if s.averageAmountSinceFn != nil {
		return s.averageAmountSinceFn(ctx, accountID, since, excludeID)
	}
	return decimal.Zero, nil
}

type fraudFixture struct {
	store *memory.Store
	clock *clock
	audit *auditRecorderStub
	svc   *services.FraudService
	seq   int
}

func newFraudFixture(t *testing.T, now time.Time, cfg func(*fraudFixtureConfig)) *fraudFixture {
	t.Helper()
	fc := fraudFixtureConfig{fraud: defaultFraudConfig()}
	if cfg != nil {
		cfg(&fc)
	}

	f := &fraudFixture{
		store: seededStore(t, now),
		clock: newClock(now),
		audit: &auditRecorderStub{},
	}
	f.svc = services.NewFraudService(
		f.store.Transactions(),
		f.store.FraudCases(),
		fc.fraud,
		services.WithClock(f.clock.Now),
		services.WithAudit(f.audit),
	)
	return f
}

type fraudFixtureConfig struct {
	fraud config.FraudConfig
}

// history stores a past outgoing transaction.
func (f *fraudFixture) history(fromID string, toID string, amount string, status domain.TransactionStatus, at time.Time) {
	f.seq++
	f.store.PutTransaction(domain.Transaction{
		ID:            fmt.Sprintf("00000000-0000-0000-0000-%012d", f.seq),
		FromAccountID: fromID,
		ToAccountID:   toID,
		FromBankID:    testBankID,
		ToBankID:      testBankID,
		Amount:        mustDecimal(amount),
		Currency:      "USD",
		Status:        status,
		InitiatedAt:   at,
		UpdatedAt:     at,
	})
}

func (f *fraudFixture) pending(t *testing.T, fromID string, toID string, amount string) domain.Transaction {
	t.Helper()
	f.seq++
	tx, err := f.store.Transactions().Create(context.Background(), domain.Transaction{
		ID:            fmt.Sprintf("10000000-0000-0000-0000-%012d", f.seq),
		FromAccountID: fromID,
		ToAccountID:   toID,
		FromBankID:    testBankID,
		ToBankID:      testBankID,
		Amount:        mustDecimal(amount),
		Currency:      "USD",
		Status:        domain.TransactionStatusPending,
		InitiatedAt:   f.clock.Now(),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tx
}

func (f *fraudFixture) accounts(t *testing.T, fromID string, toID string) (domain.Account, domain.Account) {
	t.Helper()
	from, err := f.store.Accounts().GetByID(context.Background(), fromID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	to, err := f.store.Accounts().GetByID(context.Background(), toID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return from, to
}

func (f *fraudFixture) evaluate(t *testing.T, fromID string, toID string, amount string) []string {
	t.Helper()
	tx := f.pending(t, fromID, toID, amount)
	from, to := f.accounts(t, fromID, toID)
	reasons, err := f.svc.Evaluate(context.Background(), tx, from, to)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	return reasons
}

func TestFraudHighAmountBoundary(t *testing.T) {
	f := newFraudFixture(t, afternoon(), nil)

	if reasons := f.evaluate(t, sourceAccountID, destinationAccountID, "10000.00"); len(reasons) != 0 {
		t.Fatalf("expected 10000.00 to pass, got %v", reasons)
	}

	for _, amount := range []string{"10000.01", "10001"} {
		reasons := f.evaluate(t, sourceAccountID, destinationAccountID, amount)
		if len(reasons) != 1 || reasons[0] != "High amount transaction (>10000)" {
			t.Fatalf("expected high amount reason for %s, got %v", amount, reasons)
		}
	}
}

func TestFraudVelocityCountsCurrentTransaction(t *testing.T) {
	now := afternoon()
	f := newFraudFixture(t, now, nil)

	for i := 0; i < 8; i++ {
		f.history(sourceAccountID, destinationAccountID, "10", domain.TransactionStatusCompleted, now.Add(-time.Duration(i+1)*time.Minute))
	}
	if reasons := f.evaluate(t, sourceAccountID, destinationAccountID, "10"); len(reasons) != 0 {
		t.Fatalf("expected the 9th transaction in an hour to pass, got %v", reasons)
	}

	// The evaluated transaction above is now history too.
	reasons := f.evaluate(t, sourceAccountID, destinationAccountID, "10")
	if len(reasons) != 1 || reasons[0] != services.ReasonHighFrequency {
		t.Fatalf("expected the 10th transaction in an hour to be flagged, got %v", reasons)
	}
}

func TestFraudDailyLimitUsesCompletedAndPending(t *testing.T) {
	now := afternoon()
	f := newFraudFixture(t, now, nil)

	f.history(sourceAccountID, destinationAccountID, "30000", domain.TransactionStatusCompleted, now.Add(-3*time.Hour))
	f.history(sourceAccountID, destinationAccountID, "15000", domain.TransactionStatusPending, now.Add(-2*time.Hour))
	f.history(sourceAccountID, destinationAccountID, "20000", domain.TransactionStatusFailed, now.Add(-time.Hour))
	// Yesterday does not count.
	f.history(sourceAccountID, destinationAccountID, "40000", domain.TransactionStatusCompleted, now.Add(-20*time.Hour))

	reasons := f.evaluate(t, sourceAccountID, destinationAccountID, "5000.01")
	if len(reasons) != 1 || reasons[0] != services.ReasonDailyLimit {
		t.Fatalf("expected daily limit reason, got %v", reasons)
	}
}

func TestFraudUnusualAmountNeedsHistory(t *testing.T) {
	now := afternoon()
	f := newFraudFixture(t, now, nil)

	if reasons := f.evaluate(t, euroAccountID, externalAccountID, "6000"); len(reasons) != 0 {
		t.Fatalf("expected no unusual flag without history, got %v", reasons)
	}

	g := newFraudFixture(t, now, nil)
	for i := 0; i < 3; i++ {
		g.history(sourceAccountID, destinationAccountID, "100", domain.TransactionStatusCompleted, now.AddDate(0, 0, -(i + 2)))
	}
	reasons := g.evaluate(t, sourceAccountID, destinationAccountID, "6000")
	if len(reasons) != 1 || reasons[0] != services.ReasonUnusualPattern {
		t.Fatalf("expected unusual pattern reason, got %v", reasons)
	}
}

func TestFraudSelfTransferChurn(t *testing.T) {
	now := afternoon()
	f := newFraudFixture(t, now, nil)

	f.history(euroAccountID, destinationAccountID, "10", domain.TransactionStatusCompleted, now.Add(-30*time.Minute))
	f.history(euroAccountID, destinationAccountID, "10", domain.TransactionStatusCompleted, now.Add(-20*time.Minute))

	reasons := f.evaluate(t, euroAccountID, destinationAccountID, "10")
	if len(reasons) != 1 || reasons[0] != services.ReasonSelfTransfer {
		t.Fatalf("expected self transfer reason, got %v", reasons)
	}
}

func TestFraudOffHours(t *testing.T) {
	cases := []struct {
		hour    int
		flagged bool
	}{
		{23, true},
		{2, true},
		{6, true},
		{7, false},
		{22, false},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("hour %d", tc.hour), func(t *testing.T) {
			now := time.Date(2026, 3, 10, tc.hour, 30, 0, 0, time.UTC)
			f := newFraudFixture(t, now, nil)

			reasons := f.evaluate(t, sourceAccountID, destinationAccountID, "10")
			if got := len(reasons) == 1 && reasons[0] == services.ReasonOffHours; got != tc.flagged {
				t.Fatalf("expected flagged=%v, got reasons %v", tc.flagged, reasons)
			}
		})
	}
}

func TestFraudEvaluateReportsEveryMatchingRule(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 15, 0, 0, time.UTC)
	f := newFraudFixture(t, now, nil)

	reasons := f.evaluate(t, sourceAccountID, destinationAccountID, "60000")
	want := []string{"High amount transaction (>10000)", services.ReasonDailyLimit, services.ReasonOffHours}
	if strings.Join(reasons, "; ") != strings.Join(want, "; ") {
		t.Fatalf("expected %v, got %v", want, reasons)
	}
}

func TestFraudScreenFlagsAndCreatesCase(t *testing.T) {
	f := newFraudFixture(t, afternoon(), func(c *fraudFixtureConfig) {
		c.fraud.HighAmountThreshold = mustDecimal("4999.99")
	})
	tx := f.pending(t, sourceAccountID, destinationAccountID, "5000")
	from, to := f.accounts(t, sourceAccountID, destinationAccountID)

	reasons, flagged, err := f.svc.Screen(context.Background(), tx, from, to)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !flagged || len(reasons) != 1 || reasons[0] != "High amount transaction (>4999.99)" {
		t.Fatalf("expected high amount flag, got flagged=%v reasons=%v", flagged, reasons)
	}

	stored, err := f.store.Transactions().Get(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if stored.Status != domain.TransactionStatusFlaggedForFraud {
		t.Fatalf("expected FLAGGED_FOR_FRAUD, got %s", stored.Status)
	}

	cases, _ := f.store.FraudCases().ListByStatus(context.Background(), domain.FraudCaseStatusPending)
	if len(cases) != 1 || cases[0].TransactionID != tx.ID || cases[0].Reason != reasons[0] {
		t.Fatalf("expected one pending case for %s, got %+v", tx.ID, cases)
	}
	if actions := f.audit.actions(); len(actions) != 1 || actions[0] != audit.ActionTransactionFlagged {
		t.Fatalf("expected flagged audit entry, got %v", actions)
	}
}

func TestFraudScreenPropagatesHistoryErrors(t *testing.T) {
	svc := services.NewFraudService(transactionRepoStub{
		averageAmountSinceFn: func(context.Context, string, time.Time, string) (decimal.Decimal, error) {
			return decimal.Zero, errors.New("connection reset")
		},
	}, nil, defaultFraudConfig())

	_, flagged, err := svc.Screen(context.Background(), domain.Transaction{ID: "tx-1", Amount: decimal.NewFromInt(10)}, domain.Account{}, domain.Account{})
	if err == nil || flagged {
		t.Fatalf("expected error and no flag, got flagged=%v err=%v", flagged, err)
	}
}

func flaggedCase(t *testing.T, f *fraudFixture) domain.FraudCase {
	t.Helper()
	tx := f.pending(t, sourceAccountID, destinationAccountID, "20000")
	from, to := f.accounts(t, sourceAccountID, destinationAccountID)
	if _, flagged, err := f.svc.Screen(context.Background(), tx, from, to); err != nil || !flagged {
		t.Fatalf("expected flagged transaction, got flagged=%v err=%v", flagged, err)
	}
	cases, err := f.store.FraudCases().ListByStatus(context.Background(), domain.FraudCaseStatusPending)
	if err != nil || len(cases) == 0 {
		t.Fatalf("expected a pending case, got %v (%v)", cases, err)
	}
	return cases[0]
}

func TestReviewFraudCaseIsIdempotentForSameDecision(t *testing.T) {
	f := newFraudFixture(t, afternoon(), nil)
	fraudCase := flaggedCase(t, f)
	ctx := context.Background()

	ok, err := f.svc.ReviewFraudCase(ctx, fraudCase.ID, "DISMISSED", "analyst-1")
	if err != nil || !ok {
		t.Fatalf("expected first review to succeed, got %v (%v)", ok, err)
	}

	f.clock.Advance(time.Minute)
	ok, err = f.svc.ReviewFraudCase(ctx, fraudCase.ID, "DISMISSED", "analyst-2")
	if err != nil || !ok {
		t.Fatalf("expected repeat review to succeed, got %v (%v)", ok, err)
	}

	stored, err := f.store.FraudCases().Get(ctx, fraudCase.ID)
	if err != nil {
		t.Fatalf("get case: %v", err)
	}
	if stored.ReviewedBy == nil || *stored.ReviewedBy != "analyst-1" {
		t.Fatalf("expected first reviewer to be kept, got %v", stored.ReviewedBy)
	}
	if !stored.UpdatedAt.Equal(afternoon()) {
		t.Fatalf("expected first review time to be kept, got %s", stored.UpdatedAt)
	}
}

func TestReviewFraudCaseRefusesDifferentDecision(t *testing.T) {
	f := newFraudFixture(t, afternoon(), nil)
	fraudCase := flaggedCase(t, f)
	ctx := context.Background()

	if ok, err := f.svc.ReviewFraudCase(ctx, fraudCase.ID, "REVIEWED", "analyst-1"); err != nil || !ok {
		t.Fatalf("expected first review to succeed, got %v (%v)", ok, err)
	}

	ok, err := f.svc.ReviewFraudCase(ctx, fraudCase.ID, "DISMISSED", "analyst-2")
	if ok || !errors.Is(err, commons.ErrFraudCaseResolved) {
		t.Fatalf("expected resolved case error, got %v (%v)", ok, err)
	}

	stored, _ := f.store.FraudCases().Get(ctx, fraudCase.ID)
	if stored.Status != domain.FraudCaseStatusReviewed {
		t.Fatalf("expected status to stay REVIEWED, got %s", stored.Status)
	}
}

func TestReviewFraudCaseUnknownAndInvalid(t *testing.T) {
	f := newFraudFixture(t, afternoon(), nil)
	ctx := context.Background()

	ok, err := f.svc.ReviewFraudCase(ctx, "missing-case", "REVIEWED", "analyst-1")
	if ok || err != nil {
		t.Fatalf("expected false without error for unknown case, got %v (%v)", ok, err)
	}

	_, err = f.svc.ReviewFraudCase(ctx, "missing-case", "APPROVED", "analyst-1")
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = f.svc.SubmitReview(ctx, models.FraudReviewRequest{CaseID: "missing-case", Decision: "REVIEWED", ReviewerID: "analyst-1"})
	if domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("expected not found from submit review, got %v", err)
	}
}

func TestListFraudCases(t *testing.T) {
	f := newFraudFixture(t, afternoon(), nil)
	first := flaggedCase(t, f)
	f.clock.Advance(time.Minute)
	second := flaggedCase(t, f)
	ctx := context.Background()

	resp, err := f.svc.ListPendingFraudCases(ctx)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if resp.Data == nil || len(*resp.Data) != 2 {
		t.Fatalf("expected two pending cases, got %+v", resp.Data)
	}
	if (*resp.Data)[0].ID != second.ID || (*resp.Data)[1].ID != first.ID {
		t.Fatal("expected newest case first")
	}

	if _, err := f.svc.ListFraudCasesByStatus(ctx, "OPEN"); domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}

	all, err := f.svc.ListAllFraudCases(ctx)
	if err != nil || all.Data == nil || len(*all.Data) != 2 {
		t.Fatalf("expected two cases in total, got %+v (%v)", all.Data, err)
	}
}
