package controller_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/api-sage/settlement-hub/src/internal/adapter/http/controller"
	"github.com/api-sage/settlement-hub/src/internal/adapter/http/models"
	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/api-sage/settlement-hub/src/internal/domain"
)

type fraudServiceStub struct {
	listPendingFn  func(ctx context.Context) (commons.Response[[]models.FraudCaseResponse], error)
	listByStatusFn func(ctx context.Context, status string) (commons.Response[[]models.FraudCaseResponse], error)
	listAllFn      func(ctx context.Context) (commons.Response[[]models.FraudCaseResponse], error)
	submitReviewFn func(ctx context.Context, req models.FraudReviewRequest) (commons.Response[models.FraudReviewResponse], error)
}

func (s fraudServiceStub) ListPendingFraudCases(ctx context.Context) (commons.Response[[]models.FraudCaseResponse], error) {
	return s.listPendingFn(ctx)
}

func (s fraudServiceStub) ListFraudCasesByStatus(ctx context.Context, status string) (commons.Response[[]models.FraudCaseResponse], error) {
	return s.listByStatusFn(ctx, status)
}

func (s fraudServiceStub) ListAllFraudCases(ctx context.Context) (commons.Response[[]models.FraudCaseResponse], error) {
	return s.listAllFn(ctx)
}

func (s fraudServiceStub) SubmitReview(ctx context.Context, req models.FraudReviewRequest) (commons.Response[models.FraudReviewResponse], error) {
	return s.submitReviewFn(ctx, req)
}

func fraudCases(ids ...string) []models.FraudCaseResponse {
	out := make([]models.FraudCaseResponse, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.FraudCaseResponse{ID: id, Status: "PENDING"})
	}
	return out
}

func TestFraudListings(t *testing.T) {
	svc := fraudServiceStub{
		listPendingFn: func(context.Context) (commons.Response[[]models.FraudCaseResponse], error) {
			return commons.SuccessResponse("Pending fraud cases retrieved", fraudCases("c2", "c1")), nil
		},
		listAllFn: func(context.Context) (commons.Response[[]models.FraudCaseResponse], error) {
			return commons.SuccessResponse("Fraud cases retrieved", fraudCases("c3", "c2", "c1")), nil
		},
		listByStatusFn: func(_ context.Context, status string) (commons.Response[[]models.FraudCaseResponse], error) {
			if status != "DISMISSED" {
				return commons.Response[[]models.FraudCaseResponse]{}, domain.NewValidation("Invalid status: " + status)
			}
			return commons.SuccessResponse("Fraud cases retrieved", fraudCases("c4")), nil
		},
	}
	router := newRouter(controller.NewFraudController(svc))

	tests := []struct {
		target string
		status int
		count  int
	}{
		{target: "/fraud/pending", status: http.StatusOK, count: 2},
		{target: "/fraud/all", status: http.StatusOK, count: 3},
		{target: "/fraud/status/DISMISSED", status: http.StatusOK, count: 1},
		{target: "/fraud/status/UNKNOWN", status: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.target, func(t *testing.T) {
			rr := do(t, router, http.MethodGet, tc.target, nil, true)
			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rr.Code)
			}
			body := decode[[]models.FraudCaseResponse](t, rr)
			if tc.status == http.StatusOK && (body.Data == nil || len(*body.Data) != tc.count) {
				t.Fatalf("expected %d cases, got %+v", tc.count, body.Data)
			}
		})
	}
}

func TestFraudReview(t *testing.T) {
	svc := fraudServiceStub{submitReviewFn: func(_ context.Context, req models.FraudReviewRequest) (commons.Response[models.FraudReviewResponse], error) {
		if req.CaseID == "missing" {
			return commons.Response[models.FraudReviewResponse]{}, domain.NewNotFound("Fraud case " + req.CaseID)
		}
		return commons.SuccessResponse("Fraud case reviewed successfully", models.FraudReviewResponse{
			CaseID:   req.CaseID,
			Decision: req.Decision,
			Reviewed: true,
		}), nil
	}}
	router := newRouter(controller.NewFraudController(svc))

	rr := do(t, router, http.MethodPost, "/fraud/review", models.FraudReviewRequest{CaseID: "c1", Decision: "DISMISSED", ReviewerID: "analyst-7"}, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	body := decode[models.FraudReviewResponse](t, rr)
	if body.Data == nil || !body.Data.Reviewed || body.Data.Decision != "DISMISSED" {
		t.Fatalf("unexpected review body %+v", body)
	}

	rr = do(t, router, http.MethodPost, "/fraud/review", models.FraudReviewRequest{CaseID: "missing", Decision: "REVIEWED", ReviewerID: "analyst-7"}, true)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}

	rr = do(t, router, http.MethodGet, "/fraud/pending", nil, false)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}
