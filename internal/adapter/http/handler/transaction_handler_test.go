package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

type transactionServiceStub struct {
	createFn   func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error)
	getFn      func(ctx context.Context, id string) (*domain.Transaction, error)
	listFn     func(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error)
	categoryFn func(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error)
}

func (s *transactionServiceStub) CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
	return s.createFn(ctx, input)
}

func (s *transactionServiceStub) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.getFn(ctx, id)
}

func (s *transactionServiceStub) ListTransactionsByAccount(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error) {
	return s.listFn(ctx, input)
}

func (s *transactionServiceStub) FilterByCategory(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error) {
	return s.categoryFn(ctx, input)
}

func withPrincipal(req *http.Request, accountID string, roles ...domain.Role) *http.Request {
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleUser}
	}
	ctx := domain.ContextWithPrincipal(req.Context(), &domain.Principal{AccountID: accountID, Roles: roles})
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestTransactionHandler_Create(t *testing.T) {
	var captured usecase.CreateTransactionInput
	h := NewTransactionHandler(&transactionServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
			captured = input
			return &domain.Transaction{
				ID:        "txn-1",
				AccountID: input.AccountID,
				Amount:    input.Amount,
				Direction: input.Direction,
				Status:    domain.TransactionStatusApproved,
			}, nil
		},
	})

	body := bytes.NewBufferString(`{"amount":"40000","direction":"credit","narration":"salary","category":"income"}`)
	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/transactions", body), "acc-1")
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.AccountID != "acc-1" || captured.Direction != domain.DirectionCredit {
		t.Fatalf("expected caller's account and credit, got %+v", captured)
	}
	if !captured.Amount.Equal(decimal.NewFromInt(40000)) {
		t.Fatalf("expected amount 40000, got %s", captured.Amount)
	}

	var resp dto.TransactionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "approved" {
		t.Fatalf("expected approved, got %s", resp.Status)
	}
}

func TestTransactionHandler_CreateErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "frozen", err: domain.ErrAccountFrozen, expected: http.StatusUnprocessableEntity},
		{name: "insufficient funds", err: domain.ErrInsufficientFunds, expected: http.StatusUnprocessableEntity},
		{name: "invalid direction", err: domain.ErrInvalidDirection, expected: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTransactionHandler(&transactionServiceStub{
				createFn: func(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error) {
					return nil, tt.err
				},
			})

			body := bytes.NewBufferString(`{"amount":"10","direction":"debit"}`)
			req := withPrincipal(httptest.NewRequest(http.MethodPost, "/transactions", body), "acc-1")
			rec := httptest.NewRecorder()

			h.Create(rec, req)

			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestTransactionHandler_CreateRequiresPrincipal(t *testing.T) {
	h := NewTransactionHandler(&transactionServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestTransactionHandler_ListByUser(t *testing.T) {
	h := NewTransactionHandler(&transactionServiceStub{
		listFn: func(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error) {
			return []*domain.Transaction{{ID: "txn-1", AccountID: input.AccountID}}, nil
		},
	})

	tests := []struct {
		name     string
		caller   string
		roles    []domain.Role
		expected int
	}{
		{name: "own history", caller: "acc-1", expected: http.StatusOK},
		{name: "someone else", caller: "acc-2", expected: http.StatusForbidden},
		{name: "admin", caller: "acc-2", roles: []domain.Role{domain.RoleUser, domain.RoleAdmin}, expected: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/transactions/user/acc-1", nil)
			req = withURLParam(req, "id", "acc-1")
			req = withPrincipal(req, tt.caller, tt.roles...)
			rec := httptest.NewRecorder()

			h.ListByUser(rec, req)

			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestTransactionHandler_ListByCategory(t *testing.T) {
	var captured usecase.ListTransactionsInput
	h := NewTransactionHandler(&transactionServiceStub{
		categoryFn: func(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error) {
			captured = input
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/transactions/category/rent?limit=5", nil)
	req = withURLParam(req, "category", "rent")
	req = withPrincipal(req, "acc-1")
	rec := httptest.NewRecorder()

	h.ListByCategory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.AccountID != "acc-1" || captured.Category != "rent" || captured.Limit != 5 {
		t.Fatalf("unexpected input %+v", captured)
	}
}

func TestTransactionHandler_GetChecksOwnership(t *testing.T) {
	h := NewTransactionHandler(&transactionServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Transaction, error) {
			if id != "txn-1" {
				return nil, domain.ErrTransactionNotFound
			}
			return &domain.Transaction{ID: "txn-1", AccountID: "acc-1"}, nil
		},
	})

	tests := []struct {
		name     string
		id       string
		caller   string
		expected int
	}{
		{name: "owner", id: "txn-1", caller: "acc-1", expected: http.StatusOK},
		{name: "stranger", id: "txn-1", caller: "acc-2", expected: http.StatusForbidden},
		{name: "missing", id: "txn-9", caller: "acc-1", expected: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/transactions/"+tt.id, nil)
			req = withURLParam(req, "id", tt.id)
			req = withPrincipal(req, tt.caller)
			rec := httptest.NewRecorder()

			h.Get(rec, req)

			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}
