package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// AccountResponse represents an account in API responses. Sealed identity
// fields and the password hash are never serialized.
type AccountResponse struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"account_number"`
	Email         string          `json:"email"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	DateOfBirth   string          `json:"date_of_birth,omitempty"`
	Address       string          `json:"address"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	Frozen        bool            `json:"frozen"`
	Roles         []domain.Role   `json:"roles"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	resp := &AccountResponse{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		Email:         a.Email,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Address:       a.Address,
		Balance:       a.Balance,
		Currency:      a.Currency,
		Frozen:        a.Frozen,
		Roles:         a.Roles,
		Version:       a.Version,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if !a.DateOfBirth.IsZero() {
		resp.DateOfBirth = a.DateOfBirth.Format(DateLayout)
	}
	return resp
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ProfileResponse is the caller's own account with masked identity fields.
type ProfileResponse struct {
	*AccountResponse
	SSNLast4            string `json:"ssn_last4,omitempty"`
	DriversLicenseLast4 string `json:"drivers_license_last4,omitempty"`
}

// ProfileFromUseCase converts a profile to response.
func ProfileFromUseCase(p *usecase.Profile) *ProfileResponse {
	return &ProfileResponse{
		AccountResponse:     AccountFromDomain(p.Account),
		SSNLast4:            p.SSNLast4,
		DriversLicenseLast4: p.DriversLicenseLast4,
	}
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Count    int                `json:"count"`
}

// OwnerResponse is the account summary attached to privileged transaction reads.
type OwnerResponse struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Direction string          `json:"direction"`
	Narration string          `json:"narration"`
	Category  string          `json:"category"`
	Status    string          `json:"status"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Owner     *OwnerResponse  `json:"owner,omitempty"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	resp := &TransactionResponse{
		ID:        t.ID,
		AccountID: t.AccountID,
		Amount:    t.Amount,
		Direction: string(t.Direction),
		Narration: t.Narration,
		Category:  t.Category,
		Status:    string(t.Status),
		Version:   t.Version,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if t.Owner != nil {
		resp.Owner = &OwnerResponse{
			ID:            t.Owner.ID,
			AccountNumber: t.Owner.AccountNumber,
			Email:         t.Owner.Email,
			FirstName:     t.Owner.FirstName,
			LastName:      t.Owner.LastName,
		}
	}
	return resp
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txns []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse represents a page of transactions.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Count        int                    `json:"count"`
}

// LoginResponse carries a token pair and the signed-in account.
type LoginResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	TokenType    string           `json:"token_type"`
	Account      *AccountResponse `json:"account"`
}

// TokenResponse carries a fresh access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents health check response.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}
