package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	CreateTransaction(ctx context.Context, input usecase.CreateTransactionInput) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactionsByAccount(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error)
	FilterByCategory(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.Transaction, error)
}

// TransactionHandler handles transaction requests made by account holders.
type TransactionHandler struct {
	txnUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(txnUC TransactionService) *TransactionHandler {
	return &TransactionHandler{txnUC: txnUC}
}

// Create records a transaction on the caller's account.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.CreateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	txn, err := h.txnUC.CreateTransaction(r.Context(), req.ToUseCaseInput(p.AccountID))
	if err != nil {
		writeDomainError(w, r, err, "failed to create transaction")
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}

// List lists the caller's transactions.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	h.listByAccount(w, r, p.AccountID)
}

// ListByCategory lists the caller's transactions in one category.
func (h *TransactionHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	limit, offset := pagination(r)
	txns, err := h.txnUC.FilterByCategory(r.Context(), usecase.ListTransactionsInput{
		AccountID: p.AccountID,
		Category:  chi.URLParam(r, "category"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeDomainError(w, r, err, "failed to list transactions")
		return
	}

	writeTransactions(w, txns)
}

// ListByUser lists another account's transactions. Holders may only read
// their own; admins may read any.
func (h *TransactionHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	accountID := chi.URLParam(r, "id")
	if accountID != p.AccountID && !p.HasRole(domain.RoleAdmin) {
		writeDomainError(w, r, domain.ErrInsufficientRole, "forbidden")
		return
	}
	h.listByAccount(w, r, accountID)
}

// Get returns one transaction to its owner or an admin.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	txn, err := h.txnUC.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "failed to get transaction")
		return
	}
	if txn.AccountID != p.AccountID && !p.HasRole(domain.RoleAdmin) {
		writeDomainError(w, r, domain.ErrInsufficientRole, "forbidden")
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

func (h *TransactionHandler) listByAccount(w http.ResponseWriter, r *http.Request, accountID string) {
	limit, offset := pagination(r)
	txns, err := h.txnUC.ListTransactionsByAccount(r.Context(), usecase.ListTransactionsInput{
		AccountID: accountID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeDomainError(w, r, err, "failed to list transactions")
		return
	}

	writeTransactions(w, txns)
}

func writeTransactions(w http.ResponseWriter, txns []*domain.Transaction) {
	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(txns),
		Count:        len(txns),
	})
}
