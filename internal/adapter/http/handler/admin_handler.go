package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// AdminService defines the behavior needed by AdminHandler.
type AdminService interface {
	ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	UpdateAccount(ctx context.Context, input usecase.UpdateAccountInput) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	FreezeAccount(ctx context.Context, id string, freeze bool) (*domain.Account, error)
	CorrectBalance(ctx context.Context, id string, balance decimal.Decimal) (*domain.Account, error)
	ListAllTransactions(ctx context.Context, limit, offset int) ([]*domain.Transaction, error)
	ApproveTransaction(ctx context.Context, id string, approve bool) (*domain.Transaction, error)
}

// AdminHandler handles privileged account and settlement requests.
type AdminHandler struct {
	adminUC AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminUC AdminService) *AdminHandler {
	return &AdminHandler{adminUC: adminUC}
}

// ListUsers lists accounts.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	accounts, err := h.adminUC.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, r, err, "failed to list accounts")
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Count:    len(accounts),
	})
}

// UpdateUser changes profile fields and roles.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.adminUC.UpdateAccount(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, r, err, "failed to update account")
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// DeleteUser removes an account.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.adminUC.DeleteAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, r, err, "failed to delete account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Freeze freezes or unfreezes an account.
func (h *AdminHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	var req dto.FreezeAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Freeze == nil {
		writeError(w, http.StatusBadRequest, "missing freeze", "")
		return
	}

	account, err := h.adminUC.FreezeAccount(r.Context(), chi.URLParam(r, "id"), *req.Freeze)
	if err != nil {
		writeDomainError(w, r, err, "failed to freeze account")
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// CorrectBalance overwrites an account balance.
func (h *AdminHandler) CorrectBalance(w http.ResponseWriter, r *http.Request) {
	var req dto.CorrectBalanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Balance == nil {
		writeError(w, http.StatusBadRequest, "missing balance", "")
		return
	}

	account, err := h.adminUC.CorrectBalance(r.Context(), chi.URLParam(r, "id"), *req.Balance)
	if err != nil {
		writeDomainError(w, r, err, "failed to correct balance")
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// ListTransactions lists every transaction with its owner.
func (h *AdminHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	txns, err := h.adminUC.ListAllTransactions(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, r, err, "failed to list transactions")
		return
	}

	writeTransactions(w, txns)
}

// ApproveTransaction approves or declines a pending transaction.
func (h *AdminHandler) ApproveTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.ApproveTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Approve == nil {
		writeError(w, http.StatusBadRequest, "missing approve", "")
		return
	}

	txn, err := h.adminUC.ApproveTransaction(r.Context(), chi.URLParam(r, "id"), *req.Approve)
	if err != nil {
		writeDomainError(w, r, err, "failed to settle transaction")
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}
