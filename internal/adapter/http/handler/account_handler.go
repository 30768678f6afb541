package handler

import (
	"context"
	"net/http"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	GetProfile(ctx context.Context, id string) (*usecase.Profile, error)
}

// AccountHandler serves the caller's own account.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Me returns the caller's account.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	profile, err := h.accountUC.GetProfile(r.Context(), p.AccountID)
	if err != nil {
		writeDomainError(w, r, err, "failed to get account")
		return
	}

	writeJSON(w, http.StatusOK, dto.ProfileFromUseCase(profile))
}
