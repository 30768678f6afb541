package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is assigned to accounts at registration.
const DefaultCurrency = "USD"

// Account represents a customer account together with its balance.
type Account struct {
	ID                      string
	AccountNumber           string
	Email                   string
	FirstName               string
	LastName                string
	DateOfBirth             time.Time
	Address                 string
	EncryptedSSN            string
	EncryptedDriversLicense string
	HashedPassword          string
	Balance                 decimal.Decimal
	Currency                string
	Frozen                  bool
	Roles                   []Role
	Version                 int64
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// HasRole reports whether the account holds role r.
func (a *Account) HasRole(r Role) bool {
	for _, role := range a.Roles {
		if role == r {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the account may use admin operations.
func (a *Account) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}

// Apply returns the balance after settling txn against the account.
func (a *Account) Apply(txn *Transaction) (decimal.Decimal, error) {
	return ApplyDirection(a.Balance, txn.Amount, txn.Direction)
}

// Summary returns the owner view embedded in joined transaction reads.
func (a *Account) Summary() *AccountSummary {
	return &AccountSummary{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		Email:         a.Email,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
	}
}

// AccountSummary is the subset of account fields exposed next to a transaction.
type AccountSummary struct {
	ID            string
	AccountNumber string
	Email         string
	FirstName     string
	LastName      string
}
